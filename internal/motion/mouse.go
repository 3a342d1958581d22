package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhalweg/joymux/internal/output"
)

// mouseTick is the update period of the mouse motion loop.
const mouseTick = 10 * time.Millisecond

// Generator produces the velocity of the mouse cursor at a point in time.
// Implementations must be immutable; reconfiguring motion swaps the whole
// generator.
type Generator interface {
	// Velocity returns the (vx, vy) speed in pixels per second after the
	// given time since the generator was installed.
	Velocity(elapsed time.Duration) (vx, vy float64)
}

// FixedMotion moves at a constant velocity.
type FixedMotion struct {
	VX, VY float64
}

// Velocity implements Generator.
func (f FixedMotion) Velocity(time.Duration) (float64, float64) {
	return f.VX, f.VY
}

// AcceleratedMotion ramps speed from Min to Max over TimeToMax along a
// fixed direction vector.
type AcceleratedMotion struct {
	// DirX, DirY is the unit direction of travel.
	DirX, DirY float64

	// Min and Max bound the speed in pixels per second.
	Min, Max float64

	// TimeToMax is how long the ramp from Min to Max takes.
	TimeToMax time.Duration
}

// Velocity implements Generator.
func (a AcceleratedMotion) Velocity(elapsed time.Duration) (float64, float64) {
	speed := a.Max
	if a.TimeToMax > 0 && elapsed < a.TimeToMax {
		fraction := float64(elapsed) / float64(a.TimeToMax)
		speed = a.Min + (a.Max-a.Min)*fraction
	}
	return a.DirX * speed, a.DirY * speed
}

// MouseController is the shared motion loop driving the mouse sink. One
// controller exists per runtime; actions swap its generator to change
// direction or speed and clear it to stop.
type MouseController struct {
	log   *zap.Logger
	mouse output.Mouse

	// onError is notified when a mouse write fails.
	onError func(error)

	mu        sync.Mutex
	generator Generator
	installed time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	// residual sub-pixel motion carried between ticks.
	fracX, fracY float64
}

// NewMouseController creates a stopped controller writing to the given
// mouse sink.
func NewMouseController(mouse output.Mouse, onError func(error), log *zap.Logger) *MouseController {
	if log == nil {
		log = zap.NewNop()
	}
	return &MouseController{log: log, mouse: mouse, onError: onError}
}

// SetMotion installs a new motion generator, starting the loop if needed.
func (c *MouseController) SetMotion(g Generator) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generator = g
	c.installed = time.Now()

	if c.done != nil || g == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// ClearMotion removes the generator; the loop idles and exits.
func (c *MouseController) ClearMotion() {
	c.mu.Lock()
	c.generator = nil
	c.fracX, c.fracY = 0, 0
	c.mu.Unlock()
}

// Stop cancels the loop and waits for it to exit.
func (c *MouseController) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.generator = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// IsRunning reports whether the motion loop is active.
func (c *MouseController) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done != nil
}

func (c *MouseController) reportError(err error) {
	c.log.Error("mouse motion write failed", zap.Error(err))
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *MouseController) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.done = nil
		c.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(mouseTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		g := c.generator
		installed := c.installed
		c.mu.Unlock()

		if g == nil {
			return
		}

		vx, vy := g.Velocity(time.Since(installed))
		dt := mouseTick.Seconds()

		c.mu.Lock()
		c.fracX += vx * dt
		c.fracY += vy * dt
		dx := int(math.Trunc(c.fracX))
		dy := int(math.Trunc(c.fracY))
		c.fracX -= float64(dx)
		c.fracY -= float64(dy)
		c.mu.Unlock()

		if dx == 0 && dy == 0 {
			continue
		}
		if err := c.mouse.Move(dx, dy); err != nil {
			c.reportError(err)
			return
		}
	}
}

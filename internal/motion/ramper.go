package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhalweg/joymux/internal/output"
)

const (
	// rampTick is the update period of the ramping loop.
	rampTick = 10 * time.Millisecond

	// rampDeadband is the input magnitude below which the ramper idles.
	rampDeadband = 0.05

	// rampGrace is how long the input must stay inside the deadband
	// before the ramper shuts down.
	rampGrace = time.Second

	// interferenceEpsilon is the tolerance when comparing the expected
	// axis position against the device's actual position.
	interferenceEpsilon = 1e-6
)

// Ramper continuously nudges one virtual axis while its source input is
// deflected. It belongs to a single relative-axis mapping instance; writes
// from anything else are treated as interference and stop the ramper.
type Ramper struct {
	log    *zap.Logger
	vjoy   output.VJoyProxy
	device output.VJoyDeviceID
	axis   int

	// onError is notified when an axis write fails.
	onError func(error)

	mu       sync.Mutex
	value    float64
	scale    float64
	lastLive time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRamper creates a ramper for one virtual axis.
func NewRamper(vjoy output.VJoyProxy, device output.VJoyDeviceID, axis int, onError func(error), log *zap.Logger) *Ramper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ramper{
		log:     log,
		vjoy:    vjoy,
		device:  device,
		axis:    axis,
		onError: onError,
	}
}

// Update feeds the latest input deflection and scaling into the ramper,
// starting the background loop if it is not running. Values inside the
// deadband do not start a loop; a running loop keeps going through the
// grace period so a momentary return to center does not stutter.
func (r *Ramper) Update(value, scale float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.value = value
	r.scale = scale
	if math.Abs(value) >= rampDeadband {
		r.lastLive = time.Now()
	}

	if r.done != nil || math.Abs(value) < rampDeadband {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
}

// Stop cancels the ramping loop and waits for it to exit.
func (r *Ramper) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// IsRunning reports whether the background loop is active.
func (r *Ramper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done != nil
}

func (r *Ramper) run(ctx context.Context, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.done = nil
		r.mu.Unlock()
		close(done)
	}()

	expected, err := r.vjoy.AxisValue(r.device, r.axis)
	if err != nil {
		r.reportError(err)
		return
	}

	ticker := time.NewTicker(rampTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		actual, err := r.vjoy.AxisValue(r.device, r.axis)
		if err != nil {
			r.reportError(err)
			return
		}
		if math.Abs(actual-expected) > interferenceEpsilon {
			// Someone else wrote the axis; yield ownership.
			r.log.Debug("relative axis ramper stopping on external write",
				zap.Int("device", int(r.device)), zap.Int("axis", r.axis))
			return
		}

		r.mu.Lock()
		value := r.value
		scale := r.scale
		lastLive := r.lastLive
		r.mu.Unlock()

		if math.Abs(value) < rampDeadband {
			if time.Since(lastLive) >= rampGrace {
				return
			}
			continue
		}

		expected = clampAxis(expected + value*scale/1000.0)
		if err := r.vjoy.SetAxis(r.device, r.axis, expected); err != nil {
			r.reportError(err)
			return
		}
	}
}

func (r *Ramper) reportError(err error) {
	r.log.Error("relative axis ramper failed",
		zap.Int("device", int(r.device)), zap.Int("axis", r.axis), zap.Error(err))
	if r.onError != nil {
		r.onError(err)
	}
}

func clampAxis(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

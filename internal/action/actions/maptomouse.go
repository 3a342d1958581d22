package actions

import (
	"fmt"
	"math"
	"time"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/motion"
	"github.com/dhalweg/joymux/internal/output"
	"github.com/dhalweg/joymux/internal/settings"
)

// TagMapToMouse is the serialization tag of the mouse mapping action.
const TagMapToMouse = "map-to-mouse"

// Mouse mapping modes.
const (
	MouseModeButton = "button"
	MouseModeWheel  = "wheel"
	MouseModeMotion = "motion"
)

// motionDeadband is the axis magnitude below which motion stops.
const motionDeadband = 0.05

func init() {
	action.Register(action.Kind{
		Tag:        TagMapToMouse,
		New:        func() action.Data { return NewMapToMouseData() },
		NewFunctor: newMapToMouseFunctor,
	})
}

// MapToMouseData injects mouse buttons, wheel ticks, or cursor motion.
type MapToMouseData struct {
	action.Base

	// Mode selects button, wheel, or motion output.
	Mode string

	// Button is the target for button mode.
	Button output.MouseButton

	// WheelTicks is the tick count per activation in wheel mode; negative
	// scrolls toward the user. Horizontal selects the tilt wheel.
	WheelTicks int
	Horizontal bool

	// DirectionDeg is the travel direction for button- and hat-driven
	// motion, degrees clockwise from north.
	DirectionDeg float64

	// MinSpeed and MaxSpeed bound motion speed in pixels per second; zero
	// uses the configured defaults.
	MinSpeed, MaxSpeed float64

	// TimeToMax is the acceleration ramp in seconds; zero uses the
	// configured default.
	TimeToMax float64
}

// NewMapToMouseData creates a left-button mapping.
func NewMapToMouseData() *MapToMouseData {
	return &MapToMouseData{
		Base:   action.NewBase(),
		Mode:   MouseModeButton,
		Button: output.MouseLeft,
	}
}

// Tag implements action.Data.
func (d *MapToMouseData) Tag() string { return TagMapToMouse }

// Validate implements action.Data.
func (d *MapToMouseData) Validate(*action.Library) error {
	switch d.Mode {
	case MouseModeButton:
		if d.Button == 0 {
			return fmt.Errorf("%w: mouse button not configured", action.ErrInvalidData)
		}
	case MouseModeWheel:
		if d.WheelTicks == 0 {
			return fmt.Errorf("%w: wheel ticks not configured", action.ErrInvalidData)
		}
	case MouseModeMotion:
		if d.MinSpeed < 0 || d.MaxSpeed < 0 || (d.MaxSpeed > 0 && d.MinSpeed > d.MaxSpeed) {
			return fmt.Errorf("%w: mouse speed bounds %g..%g", action.ErrInvalidData, d.MinSpeed, d.MaxSpeed)
		}
	default:
		return fmt.Errorf("%w: mouse mode %q", action.ErrInvalidData, d.Mode)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *MapToMouseData) EncodeProperties(bag *action.Bag) error {
	bag.SetSelection("mode", d.Mode)
	bag.SetString("button", d.Button.String())
	bag.SetInt("wheel-ticks", d.WheelTicks)
	bag.SetBool("horizontal", d.Horizontal)
	bag.SetFloat("direction", d.DirectionDeg)
	bag.SetFloat("min-speed", d.MinSpeed)
	bag.SetFloat("max-speed", d.MaxSpeed)
	bag.SetFloat("time-to-max-speed", d.TimeToMax)
	return nil
}

// DecodeProperties implements action.Data.
func (d *MapToMouseData) DecodeProperties(bag *action.Bag) error {
	mode, err := bag.Selection("mode", MouseModeButton, MouseModeWheel, MouseModeMotion)
	if err != nil {
		return err
	}
	buttonTag, err := bag.String("button")
	if err != nil {
		return err
	}
	button, err := output.ParseMouseButton(buttonTag)
	if err != nil {
		return err
	}
	if d.WheelTicks, err = bag.Int("wheel-ticks"); err != nil {
		return err
	}
	if d.Horizontal, err = bag.Bool("horizontal"); err != nil {
		return err
	}
	if d.DirectionDeg, err = bag.Float("direction"); err != nil {
		return err
	}
	if d.MinSpeed, err = bag.Float("min-speed"); err != nil {
		return err
	}
	if d.MaxSpeed, err = bag.Float("max-speed"); err != nil {
		return err
	}
	if d.TimeToMax, err = bag.Float("time-to-max-speed"); err != nil {
		return err
	}
	d.Mode = mode
	d.Button = button
	return nil
}

type mapToMouseFunctor struct {
	data *MapToMouseData
	sys  *action.System

	minSpeed, maxSpeed float64
	timeToMax          time.Duration
}

func newMapToMouseFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*MapToMouseData)
	if !ok {
		return nil, fmt.Errorf("%w: mouse functor given %T", action.ErrInvalidData, d)
	}

	f := &mapToMouseFunctor{data: data, sys: sys}
	f.minSpeed = data.MinSpeed
	f.maxSpeed = data.MaxSpeed
	timeToMax := data.TimeToMax
	if sys.Settings != nil {
		if f.minSpeed <= 0 {
			f.minSpeed = sys.Settings.FloatOr(settings.MouseMinSpeed, 5.0)
		}
		if f.maxSpeed <= 0 {
			f.maxSpeed = sys.Settings.FloatOr(settings.MouseMaxSpeed, 15.0)
		}
		if timeToMax <= 0 {
			timeToMax = sys.Settings.FloatOr(settings.MouseAccelerationTime, 1.0)
		}
	}
	f.timeToMax = time.Duration(timeToMax * float64(time.Second))
	return f, nil
}

// Process implements action.Functor.
func (f *mapToMouseFunctor) Process(ev input.Event, val *input.Value) error {
	switch f.data.Mode {
	case MouseModeButton:
		return f.processButton(ev, val)
	case MouseModeWheel:
		if val.Bool() {
			return f.sys.Mouse.Wheel(f.data.WheelTicks, f.data.Horizontal)
		}
		return nil
	case MouseModeMotion:
		return f.processMotion(ev, val)
	default:
		return fmt.Errorf("%w: mouse mode %q", action.ErrInvalidState, f.data.Mode)
	}
}

func (f *mapToMouseFunctor) processButton(ev input.Event, val *input.Value) error {
	if val.Bool() {
		if err := f.sys.Mouse.Press(f.data.Button); err != nil {
			return err
		}
		if f.sys.Releases != nil {
			button := f.data.Button
			mouse, report := f.sys.Mouse, f.sys.ReportError
			f.sys.Releases.OnRelease(ev.Key(), func() {
				if err := mouse.Release(button); err != nil {
					report(err)
				}
			})
		}
		return nil
	}
	return f.sys.Mouse.Release(f.data.Button)
}

func (f *mapToMouseFunctor) processMotion(ev input.Event, val *input.Value) error {
	controller := f.sys.MouseMotion
	if controller == nil {
		return fmt.Errorf("%w: no mouse motion controller", action.ErrInvalidState)
	}

	switch ev.Type {
	case input.TypeAxis:
		// Axis deflection scales fixed velocity between min and max.
		v := val.Float()
		if math.Abs(v) < motionDeadband {
			controller.ClearMotion()
			return nil
		}
		speed := f.minSpeed + (f.maxSpeed-f.minSpeed)*math.Abs(v)
		dx, dy := directionVector(f.data.DirectionDeg)
		if v < 0 {
			dx, dy = -dx, -dy
		}
		controller.SetMotion(motion.FixedMotion{VX: dx * speed, VY: dy * speed})
		return nil

	case input.TypeHat:
		h := val.Hat()
		if h == input.HatCenter {
			controller.ClearMotion()
			return nil
		}
		hx, hy := h.Vector()
		// Hat north is screen-up, so the y component flips.
		controller.SetMotion(motion.AcceleratedMotion{
			DirX:      float64(hx),
			DirY:      float64(-hy),
			Min:       f.minSpeed,
			Max:       f.maxSpeed,
			TimeToMax: f.timeToMax,
		})
		return nil

	default:
		if !val.Bool() {
			controller.ClearMotion()
			return nil
		}
		dx, dy := directionVector(f.data.DirectionDeg)
		controller.SetMotion(motion.AcceleratedMotion{
			DirX:      dx,
			DirY:      dy,
			Min:       f.minSpeed,
			Max:       f.maxSpeed,
			TimeToMax: f.timeToMax,
		})
		return nil
	}
}

// Close implements action.Closer.
func (f *mapToMouseFunctor) Close() error {
	if f.data.Mode == MouseModeMotion && f.sys.MouseMotion != nil {
		f.sys.MouseMotion.ClearMotion()
	}
	return nil
}

// directionVector converts degrees clockwise from north into a screen-space
// unit vector (y grows downward).
func directionVector(deg float64) (dx, dy float64) {
	rad := deg * math.Pi / 180
	return math.Sin(rad), -math.Cos(rad)
}

package macro

import (
	"context"
	"fmt"
	"time"

	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/output"
)

// Sinks bundles the output devices steps write to.
type Sinks struct {
	VJoy     output.VJoyProxy
	Keyboard output.Keyboard
	Mouse    output.Mouse
}

// Step is one primitive playback operation.
type Step interface {
	// Execute performs the step. Long-running steps must honor ctx.
	Execute(ctx context.Context, s Sinks) error

	// Tag returns the stable serialization tag of the step kind.
	Tag() string
}

// KeyStep presses or releases a keyboard key.
type KeyStep struct {
	Key   output.KeyID
	Press bool
}

// Execute implements Step.
func (k KeyStep) Execute(_ context.Context, s Sinks) error {
	if s.Keyboard == nil {
		return fmt.Errorf("macro: no keyboard sink")
	}
	if k.Press {
		return s.Keyboard.Press(k.Key)
	}
	return s.Keyboard.Release(k.Key)
}

// Tag implements Step.
func (k KeyStep) Tag() string { return "key" }

// MouseButtonStep presses or releases a mouse button.
type MouseButtonStep struct {
	Button output.MouseButton
	Press  bool
}

// Execute implements Step.
func (m MouseButtonStep) Execute(_ context.Context, s Sinks) error {
	if s.Mouse == nil {
		return fmt.Errorf("macro: no mouse sink")
	}
	if m.Press {
		return s.Mouse.Press(m.Button)
	}
	return s.Mouse.Release(m.Button)
}

// Tag implements Step.
func (m MouseButtonStep) Tag() string { return "mouse-button" }

// MouseMotionStep emits relative mouse motion.
type MouseMotionStep struct {
	DX, DY int
}

// Execute implements Step.
func (m MouseMotionStep) Execute(_ context.Context, s Sinks) error {
	if s.Mouse == nil {
		return fmt.Errorf("macro: no mouse sink")
	}
	return s.Mouse.Move(m.DX, m.DY)
}

// Tag implements Step.
func (m MouseMotionStep) Tag() string { return "mouse-motion" }

// PauseStep waits for a fixed duration.
type PauseStep struct {
	Duration time.Duration
}

// Execute implements Step.
func (p PauseStep) Execute(ctx context.Context, _ Sinks) error {
	timer := time.NewTimer(p.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tag implements Step.
func (p PauseStep) Tag() string { return "pause" }

// VJoyButtonStep presses or releases a virtual joystick button.
type VJoyButtonStep struct {
	Device output.VJoyDeviceID
	Button int
	Press  bool
}

// Execute implements Step.
func (v VJoyButtonStep) Execute(_ context.Context, s Sinks) error {
	if s.VJoy == nil {
		return fmt.Errorf("macro: no vjoy sink")
	}
	return s.VJoy.SetButton(v.Device, v.Button, v.Press)
}

// Tag implements Step.
func (v VJoyButtonStep) Tag() string { return "vjoy-button" }

// VJoyAxisStep writes an absolute virtual axis position.
type VJoyAxisStep struct {
	Device output.VJoyDeviceID
	Axis   int
	Value  float64
}

// Execute implements Step.
func (v VJoyAxisStep) Execute(_ context.Context, s Sinks) error {
	if s.VJoy == nil {
		return fmt.Errorf("macro: no vjoy sink")
	}
	return s.VJoy.SetAxis(v.Device, v.Axis, v.Value)
}

// Tag implements Step.
func (v VJoyAxisStep) Tag() string { return "vjoy-axis" }

// VJoyHatStep writes a virtual hat direction.
type VJoyHatStep struct {
	Device    output.VJoyDeviceID
	Hat       int
	Direction input.HatDirection
}

// Execute implements Step.
func (v VJoyHatStep) Execute(_ context.Context, s Sinks) error {
	if s.VJoy == nil {
		return fmt.Errorf("macro: no vjoy sink")
	}
	return s.VJoy.SetHat(v.Device, v.Hat, v.Direction)
}

// Tag implements Step.
func (v VJoyHatStep) Tag() string { return "vjoy-hat" }

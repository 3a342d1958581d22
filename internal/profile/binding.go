package profile

import (
	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/input"
)

// Binding attaches one physical or intermediate input in one mode to an
// action tree. The behavior type is what the chain evaluates as; an axis
// bound with button behavior goes through virtual-button conversion first.
type Binding struct {
	// Device, Type, and Identifier name the input.
	Device     input.DeviceGUID
	Type       input.Type
	Identifier int

	// Mode is the mode this binding belongs to.
	Mode string

	// Tree is the root node of the attached action tree.
	Tree uuid.UUID

	// Behavior is the input category the chain evaluates as.
	Behavior input.Type

	// VirtualButton configures axis- or hat-to-button conversion; nil
	// when the behavior matches the physical type.
	VirtualButton *VirtualButton
}

// Key returns the input identity of the binding.
func (b *Binding) Key() input.EventKey {
	return input.EventKey{Device: b.Device, Type: b.Type, Identifier: b.Identifier}
}

// VirtualButton derives button state from an axis range or a hat direction
// set.
type VirtualButton struct {
	// Low and High bound the active axis range, inclusive.
	Low, High float64

	// Directions is the active set for hat inputs.
	Directions []input.HatDirection
}

// Matches reports whether a hat direction is in the active set.
func (v *VirtualButton) Matches(h input.HatDirection) bool {
	for _, d := range v.Directions {
		if d == h {
			return true
		}
	}
	return false
}

// hysteresisFraction widens the release boundary of an axis virtual button
// so a value jittering on the threshold does not chatter.
const hysteresisFraction = 0.1

// Converter carries the per-binding state of virtual-button conversion.
// One converter exists per activated binding; it is not shared.
type Converter struct {
	binding *Binding
	pressed bool
}

// NewConverter creates a converter for a binding. Bindings without
// virtual-button configuration pass events through unchanged.
func NewConverter(b *Binding) *Converter {
	return &Converter{binding: b}
}

// Convert rewrites the value for the configured behavior and reports
// whether the event should be dispatched. Axis conversions suppress events
// that do not change the derived button state.
func (c *Converter) Convert(ev input.Event, val *input.Value) bool {
	vb := c.binding.VirtualButton
	if vb == nil || c.binding.Behavior != input.TypeButton {
		return true
	}

	switch ev.Type {
	case input.TypeAxis:
		pressed, changed := c.convertAxis(vb, val.Float())
		if !changed {
			return false
		}
		val.SetCurrent(pressed)
		return true

	case input.TypeHat:
		pressed := vb.Matches(val.Hat())
		if pressed == c.pressed {
			return false
		}
		c.pressed = pressed
		val.SetCurrent(pressed)
		return true

	default:
		return true
	}
}

func (c *Converter) convertAxis(vb *VirtualButton, v float64) (pressed, changed bool) {
	inside := vb.Low <= v && v <= vb.High

	if !c.pressed {
		if inside {
			c.pressed = true
			return true, true
		}
		return false, false
	}

	// Releasing requires leaving the range by the hysteresis margin.
	margin := (vb.High - vb.Low) * hysteresisFraction
	if v < vb.Low-margin || v > vb.High+margin {
		c.pressed = false
		return false, true
	}
	return true, false
}

// Pressed returns the current derived button state.
func (c *Converter) Pressed() bool {
	return c.pressed
}

package input

import (
	"fmt"
	"time"
)

// Event describes a single input state change. Events are immutable once
// created; functors that must remember press-time state take a Clone.
type Event struct {
	// Device identifies the source device.
	Device DeviceGUID

	// Type classifies the input.
	Type Type

	// Identifier is the index of the input on its device (axis number,
	// button number, hat number, key code).
	Identifier int

	// Pressed is the state for boolean inputs.
	Pressed bool

	// Value is the position for axis inputs, normalized to [-1.0, 1.0].
	Value float64

	// Hat is the direction for hat inputs.
	Hat HatDirection

	// Raw is the unnormalized device payload, kept for diagnostics.
	Raw any

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// NewAxisEvent creates an event for an axis position change.
func NewAxisEvent(device DeviceGUID, identifier int, value float64) Event {
	return Event{
		Device:     device,
		Type:       TypeAxis,
		Identifier: identifier,
		Value:      value,
		Timestamp:  time.Now(),
	}
}

// NewButtonEvent creates an event for a joystick button change.
func NewButtonEvent(device DeviceGUID, identifier int, pressed bool) Event {
	return Event{
		Device:     device,
		Type:       TypeButton,
		Identifier: identifier,
		Pressed:    pressed,
		Timestamp:  time.Now(),
	}
}

// NewHatEvent creates an event for a hat direction change.
func NewHatEvent(device DeviceGUID, identifier int, direction HatDirection) Event {
	return Event{
		Device:     device,
		Type:       TypeHat,
		Identifier: identifier,
		Hat:        direction,
		Timestamp:  time.Now(),
	}
}

// NewKeyEvent creates an event for a keyboard key change. The identifier is
// the scan code of the key.
func NewKeyEvent(device DeviceGUID, scanCode int, pressed bool) Event {
	return Event{
		Device:     device,
		Type:       TypeKeyboard,
		Identifier: scanCode,
		Pressed:    pressed,
		Timestamp:  time.Now(),
	}
}

// NewMouseButtonEvent creates an event for a mouse button change.
func NewMouseButtonEvent(device DeviceGUID, identifier int, pressed bool) Event {
	return Event{
		Device:     device,
		Type:       TypeMouse,
		Identifier: identifier,
		Pressed:    pressed,
		Timestamp:  time.Now(),
	}
}

// Clone returns an independent copy of the event.
func (e Event) Clone() Event {
	return e
}

// Key returns the comparable identity of the event's source input,
// independent of its payload.
func (e Event) Key() EventKey {
	return EventKey{Device: e.Device, Type: e.Type, Identifier: e.Identifier}
}

// IsBoolean reports whether the event carries a pressed/released payload.
func (e Event) IsBoolean() bool {
	return e.Type.IsBoolean()
}

// Payload returns the event's payload in the representation matching its
// type: bool for boolean inputs, float64 for axes, HatDirection for hats.
func (e Event) Payload() any {
	switch {
	case e.Type.IsBoolean():
		return e.Pressed
	case e.Type == TypeHat:
		return e.Hat
	default:
		return e.Value
	}
}

// String returns a short human-readable description for logging.
func (e Event) String() string {
	switch {
	case e.Type.IsBoolean():
		return fmt.Sprintf("%s %s %d pressed=%t", shortGUID(e.Device), e.Type, e.Identifier, e.Pressed)
	case e.Type == TypeHat:
		return fmt.Sprintf("%s hat %d %s", shortGUID(e.Device), e.Identifier, e.Hat)
	default:
		return fmt.Sprintf("%s axis %d %.4f", shortGUID(e.Device), e.Identifier, e.Value)
	}
}

// EventKey identifies one input on one device. It is used as a map key for
// binding lookup and release-callback registration.
type EventKey struct {
	Device     DeviceGUID
	Type       Type
	Identifier int
}

// String returns a short human-readable description for logging.
func (k EventKey) String() string {
	return fmt.Sprintf("%s %s %d", shortGUID(k.Device), k.Type, k.Identifier)
}

func shortGUID(g DeviceGUID) string {
	s := g.String()
	if len(s) >= 8 {
		return s[:8]
	}
	return s
}

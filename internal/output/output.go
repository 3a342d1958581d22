package output

import (
	"github.com/dhalweg/joymux/internal/input"
)

// VJoyDeviceID identifies one virtual joystick device.
type VJoyDeviceID int

// KeyID identifies a keyboard key by scan code, with the extended flag kept
// separate the way the Windows injection API expects it.
type KeyID struct {
	ScanCode int
	Extended bool
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	// MouseLeft is the primary button.
	MouseLeft MouseButton = iota + 1
	// MouseRight is the secondary button.
	MouseRight
	// MouseMiddle is the wheel button.
	MouseMiddle
	// MouseBack is the first extended button.
	MouseBack
	// MouseForward is the second extended button.
	MouseForward
)

// String returns the stable tag used in serialized profiles.
func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "left"
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	case MouseBack:
		return "back"
	case MouseForward:
		return "forward"
	default:
		return "unknown"
	}
}

// ParseMouseButton converts a serialized tag back into a MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch s {
	case "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	case "back":
		return MouseBack, nil
	case "forward":
		return MouseForward, nil
	default:
		return 0, &ParseError{Kind: "mouse button", Value: s}
	}
}

// VJoyProxy writes to virtual joystick devices. Implementations serialize
// writes internally; callers may invoke it from multiple goroutines.
type VJoyProxy interface {
	// SetAxis writes an absolute axis position in [-1.0, 1.0].
	SetAxis(device VJoyDeviceID, axis int, value float64) error

	// AxisValue reads back the current position of an axis. Relative-axis
	// rampers use it to detect external interference.
	AxisValue(device VJoyDeviceID, axis int) (float64, error)

	// SetButton sets the pressed state of a button.
	SetButton(device VJoyDeviceID, button int, pressed bool) error

	// SetHat sets the direction of a hat.
	SetHat(device VJoyDeviceID, hat int, direction input.HatDirection) error
}

// Keyboard injects key presses at the OS level.
type Keyboard interface {
	Press(key KeyID) error
	Release(key KeyID) error
}

// Mouse injects mouse input at the OS level.
type Mouse interface {
	Press(button MouseButton) error
	Release(button MouseButton) error

	// Wheel emits wheel ticks; positive is away from the user, negative
	// toward. Horizontal selects the tilt wheel.
	Wheel(ticks int, horizontal bool) error

	// Move emits relative motion in device units.
	Move(dx, dy int) error
}

// Speech speaks a text through the platform text-to-speech voice.
type Speech interface {
	Say(text string) error
}

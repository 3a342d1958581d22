package input

import (
	"fmt"

	"github.com/google/uuid"
)

// DeviceGUID identifies a physical or virtual input device.
type DeviceGUID = uuid.UUID

// Type classifies an input by the kind of value it produces.
type Type uint8

const (
	// TypeNone indicates an unconfigured input.
	TypeNone Type = iota
	// TypeAxis is a continuous input in the range [-1.0, 1.0].
	TypeAxis
	// TypeButton is a boolean pressed/released input.
	TypeButton
	// TypeHat is an eight-way directional input.
	TypeHat
	// TypeKeyboard is a key press/release input.
	TypeKeyboard
	// TypeMouse is a mouse button or wheel input.
	TypeMouse
	// TypeIntermediate is a synthetic input backed by the intermediate
	// output registry.
	TypeIntermediate
)

// String returns the stable tag used in serialized profiles.
func (t Type) String() string {
	switch t {
	case TypeAxis:
		return "axis"
	case TypeButton:
		return "button"
	case TypeHat:
		return "hat"
	case TypeKeyboard:
		return "keyboard"
	case TypeMouse:
		return "mouse"
	case TypeIntermediate:
		return "intermediate"
	default:
		return "none"
	}
}

// ParseType converts a serialized tag back into a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "axis":
		return TypeAxis, nil
	case "button":
		return TypeButton, nil
	case "hat":
		return TypeHat, nil
	case "keyboard":
		return TypeKeyboard, nil
	case "mouse":
		return TypeMouse, nil
	case "intermediate":
		return TypeIntermediate, nil
	case "none", "":
		return TypeNone, nil
	default:
		return TypeNone, fmt.Errorf("input: unknown input type %q", s)
	}
}

// IsBoolean reports whether events of this type carry a pressed/released
// payload rather than a continuous or directional one.
func (t Type) IsBoolean() bool {
	switch t {
	case TypeButton, TypeKeyboard, TypeMouse:
		return true
	default:
		return false
	}
}

package input

import "fmt"

// HatDirection is one of the eight hat positions plus center.
type HatDirection uint8

const (
	// HatCenter is the neutral hat position.
	HatCenter HatDirection = iota
	// HatNorth is straight up.
	HatNorth
	// HatNorthEast is up and right.
	HatNorthEast
	// HatEast is straight right.
	HatEast
	// HatSouthEast is down and right.
	HatSouthEast
	// HatSouth is straight down.
	HatSouth
	// HatSouthWest is down and left.
	HatSouthWest
	// HatWest is straight left.
	HatWest
	// HatNorthWest is up and left.
	HatNorthWest
)

// String returns the stable tag used in serialized profiles.
func (h HatDirection) String() string {
	switch h {
	case HatNorth:
		return "north"
	case HatNorthEast:
		return "north-east"
	case HatEast:
		return "east"
	case HatSouthEast:
		return "south-east"
	case HatSouth:
		return "south"
	case HatSouthWest:
		return "south-west"
	case HatWest:
		return "west"
	case HatNorthWest:
		return "north-west"
	default:
		return "center"
	}
}

// Vector returns the (x, y) unit components of the direction, with north
// as (0, 1) and east as (1, 0).
func (h HatDirection) Vector() (x, y int) {
	switch h {
	case HatNorth:
		return 0, 1
	case HatNorthEast:
		return 1, 1
	case HatEast:
		return 1, 0
	case HatSouthEast:
		return 1, -1
	case HatSouth:
		return 0, -1
	case HatSouthWest:
		return -1, -1
	case HatWest:
		return -1, 0
	case HatNorthWest:
		return -1, 1
	default:
		return 0, 0
	}
}

// HatFromVector maps (x, y) unit components back to a direction. Components
// are clamped to [-1, 1].
func HatFromVector(x, y int) HatDirection {
	clamp := func(v int) int {
		if v < -1 {
			return -1
		}
		if v > 1 {
			return 1
		}
		return v
	}
	x, y = clamp(x), clamp(y)

	switch {
	case x == 0 && y == 1:
		return HatNorth
	case x == 1 && y == 1:
		return HatNorthEast
	case x == 1 && y == 0:
		return HatEast
	case x == 1 && y == -1:
		return HatSouthEast
	case x == 0 && y == -1:
		return HatSouth
	case x == -1 && y == -1:
		return HatSouthWest
	case x == -1 && y == 0:
		return HatWest
	case x == -1 && y == 1:
		return HatNorthWest
	default:
		return HatCenter
	}
}

// ParseHatDirection converts a serialized tag back into a HatDirection.
func ParseHatDirection(s string) (HatDirection, error) {
	switch s {
	case "center", "":
		return HatCenter, nil
	case "north":
		return HatNorth, nil
	case "north-east":
		return HatNorthEast, nil
	case "east":
		return HatEast, nil
	case "south-east":
		return HatSouthEast, nil
	case "south":
		return HatSouth, nil
	case "south-west":
		return HatSouthWest, nil
	case "west":
		return HatWest, nil
	case "north-west":
		return HatNorthWest, nil
	default:
		return HatCenter, fmt.Errorf("input: unknown hat direction %q", s)
	}
}

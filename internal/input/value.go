package input

// Value carries one event's payload down an action chain. The raw payload is
// the payload as produced by the source event and is never mutated; the
// current payload starts equal to raw and may be rewritten by actions so
// that everything downstream observes the processed value.
//
// A Value is shared by reference along a single chain invocation and must
// not be retained across events.
type Value struct {
	raw     any
	current any
}

// NewValue creates a value whose raw and current payloads are both v.
func NewValue(v any) *Value {
	return &Value{raw: v, current: v}
}

// ValueFromEvent creates a value from the event's typed payload.
func ValueFromEvent(e Event) *Value {
	return NewValue(e.Payload())
}

// Raw returns the original payload.
func (v *Value) Raw() any {
	return v.raw
}

// Current returns the payload as processed so far.
func (v *Value) Current() any {
	return v.current
}

// SetCurrent replaces the processed payload.
func (v *Value) SetCurrent(c any) {
	v.current = c
}

// Bool returns the current payload as a boolean. Axis payloads are true when
// their magnitude exceeds 0.5, matching virtual-button semantics for chains
// that were not explicitly threshold-converted.
func (v *Value) Bool() bool {
	switch c := v.current.(type) {
	case bool:
		return c
	case float64:
		return c > 0.5 || c < -0.5
	case HatDirection:
		return c != HatCenter
	default:
		return false
	}
}

// Float returns the current payload as a float. Boolean payloads map to 1.0
// when pressed and 0.0 otherwise.
func (v *Value) Float() float64 {
	switch c := v.current.(type) {
	case float64:
		return c
	case bool:
		if c {
			return 1.0
		}
		return 0.0
	default:
		return 0.0
	}
}

// Hat returns the current payload as a hat direction, or HatCenter when the
// payload is not directional.
func (v *Value) Hat() HatDirection {
	if h, ok := v.current.(HatDirection); ok {
		return h
	}
	return HatCenter
}

// IsBool reports whether the current payload is boolean.
func (v *Value) IsBool() bool {
	_, ok := v.current.(bool)
	return ok
}

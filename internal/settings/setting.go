package settings

import "fmt"

// Type is the data type of a setting value.
type Type uint8

const (
	// TypeString holds a string value.
	TypeString Type = iota
	// TypeInt holds an integer value.
	TypeInt
	// TypeFloat holds a floating point value.
	TypeFloat
	// TypeBool holds a boolean value.
	TypeBool
)

// String returns a human-readable type name.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Setting declares one configuration entry with its metadata.
type Setting struct {
	// Path is the dot-separated path (e.g. "tempo.threshold"). The part
	// before the first dot is the section.
	Path string

	// Type is the setting's data type.
	Type Type

	// Default is the value used until one is stored.
	Default any

	// Description is human-readable documentation.
	Description string

	// Enum lists allowed values; empty means unconstrained.
	Enum []any

	// Minimum and Maximum bound numeric settings; nil means unbounded.
	Minimum *float64
	Maximum *float64
}

// Validate checks a value against the setting's type and constraints.
func (s *Setting) Validate(value any) error {
	value, err := s.normalize(value)
	if err != nil {
		return err
	}

	if len(s.Enum) > 0 {
		found := false
		for _, allowed := range s.Enum {
			if allowed == value {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s must be one of %v", ErrInvalidValue, s.Path, s.Enum)
		}
	}

	if s.Type == TypeInt || s.Type == TypeFloat {
		var n float64
		switch v := value.(type) {
		case int64:
			n = float64(v)
		case float64:
			n = v
		}
		if s.Minimum != nil && n < *s.Minimum {
			return fmt.Errorf("%w: %s below minimum %v", ErrInvalidValue, s.Path, *s.Minimum)
		}
		if s.Maximum != nil && n > *s.Maximum {
			return fmt.Errorf("%w: %s above maximum %v", ErrInvalidValue, s.Path, *s.Maximum)
		}
	}

	return nil
}

// normalize coerces a value to the setting's canonical Go representation
// (string, int64, float64, bool) or fails with ErrInvalidValue.
func (s *Setting) normalize(value any) (any, error) {
	switch s.Type {
	case TypeString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case TypeInt:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
		}
	case TypeFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case TypeBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, s.Path, s.Type, value)
}

// Min returns a pointer to v, for use in Setting literals.
func Min(v float64) *float64 { return &v }

// Max returns a pointer to v, for use in Setting literals.
func Max(v float64) *float64 { return &v }

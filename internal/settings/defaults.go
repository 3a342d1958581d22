package settings

// Paths of the built-in settings.
const (
	// TempoThreshold is the default long-press threshold in seconds.
	TempoThreshold = "tempo.threshold"

	// MacroDefaultDelay is the pause between repeated macro runs in
	// seconds.
	MacroDefaultDelay = "macro.default_delay"

	// MouseMinSpeed and MouseMaxSpeed bound motion speed in pixels per
	// second.
	MouseMinSpeed = "mouse.min_speed"
	MouseMaxSpeed = "mouse.max_speed"

	// MouseAccelerationTime is the default ramp time from min to max
	// speed in seconds.
	MouseAccelerationTime = "mouse.acceleration_time"

	// AutoPauseOnError controls whether a failing output write pauses the
	// runtime.
	AutoPauseOnError = "runtime.autopause_on_error"
)

// RegisterDefaults registers the runtime's built-in settings.
func (s *Store) RegisterDefaults() {
	s.MustRegister(Setting{
		Path:        TempoThreshold,
		Type:        TypeFloat,
		Default:     0.5,
		Description: "Seconds a press must be held before the long branch of a tempo action fires",
		Minimum:     Min(0.05),
		Maximum:     Max(10.0),
	})
	s.MustRegister(Setting{
		Path:        MacroDefaultDelay,
		Type:        TypeFloat,
		Default:     0.1,
		Description: "Pause between repeated runs of a repeating macro",
		Minimum:     Min(0.0),
	})
	s.MustRegister(Setting{
		Path:        MouseMinSpeed,
		Type:        TypeFloat,
		Default:     5.0,
		Description: "Minimum mouse motion speed in pixels per second",
		Minimum:     Min(0.0),
	})
	s.MustRegister(Setting{
		Path:        MouseMaxSpeed,
		Type:        TypeFloat,
		Default:     15.0,
		Description: "Maximum mouse motion speed in pixels per second",
		Minimum:     Min(0.0),
	})
	s.MustRegister(Setting{
		Path:        MouseAccelerationTime,
		Type:        TypeFloat,
		Default:     1.0,
		Description: "Seconds to ramp mouse motion from minimum to maximum speed",
		Minimum:     Min(0.0),
	})
	s.MustRegister(Setting{
		Path:        AutoPauseOnError,
		Type:        TypeBool,
		Default:     true,
		Description: "Pause event processing when an output device write fails",
	})
}

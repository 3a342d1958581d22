// Package settings provides the typed configuration registry for the
// runtime.
//
// Settings are declared up front with a path ("tempo.threshold"), a type, a
// default, and optional validation (enum, range). Components register their
// defaults at startup and read current values at functor-construction time.
// Values persist to a TOML file and can be changed at runtime, with change
// notification for components that cache them.
package settings

package settings

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ChangeCallback is notified when a setting's value changes.
type ChangeCallback func(path string, value any)

// Store holds setting definitions and their current values.
type Store struct {
	mu sync.RWMutex

	definitions map[string]*Setting
	values      map[string]any
	callbacks   []ChangeCallback
}

// NewStore creates an empty settings store.
func NewStore() *Store {
	return &Store{
		definitions: make(map[string]*Setting),
		values:      make(map[string]any),
	}
}

// NewStoreWithDefaults creates a store with the runtime's built-in
// settings registered.
func NewStoreWithDefaults() *Store {
	s := NewStore()
	s.RegisterDefaults()
	return s
}

// Register adds a setting definition. Registering the same path twice
// fails.
func (s *Store) Register(setting Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.definitions[setting.Path]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, setting.Path)
	}
	if err := setting.Validate(setting.Default); err != nil {
		return fmt.Errorf("settings: invalid default for %s: %w", setting.Path, err)
	}

	def := setting
	s.definitions[setting.Path] = &def
	return nil
}

// MustRegister registers a setting and panics on error. Intended for
// registering built-in settings at startup.
func (s *Store) MustRegister(setting Setting) {
	if err := s.Register(setting); err != nil {
		panic(err)
	}
}

// Definition returns the setting declared at path, or nil.
func (s *Store) Definition(path string) *Setting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.definitions[path]
}

// Set stores a value after validating it against the definition.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()

	def, ok := s.definitions[path]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSetting, path)
	}
	if err := def.Validate(value); err != nil {
		s.mu.Unlock()
		return err
	}
	normalized, err := def.normalize(value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.values[path] = normalized

	callbacks := make([]ChangeCallback, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(path, normalized)
		}
	}
	return nil
}

// value returns the stored value or the default.
func (s *Store) value(path string) (any, *Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[path]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSetting, path)
	}
	if v, ok := s.values[path]; ok {
		return v, def, nil
	}
	normalized, err := def.normalize(def.Default)
	if err != nil {
		return nil, nil, err
	}
	return normalized, def, nil
}

// Float returns the value of a float setting.
func (s *Store) Float(path string) (float64, error) {
	v, def, err := s.value(path)
	if err != nil {
		return 0, err
	}
	if def.Type != TypeFloat {
		return 0, fmt.Errorf("%w: %s is %s", ErrWrongType, path, def.Type)
	}
	return v.(float64), nil
}

// Int returns the value of an integer setting.
func (s *Store) Int(path string) (int64, error) {
	v, def, err := s.value(path)
	if err != nil {
		return 0, err
	}
	if def.Type != TypeInt {
		return 0, fmt.Errorf("%w: %s is %s", ErrWrongType, path, def.Type)
	}
	return v.(int64), nil
}

// Bool returns the value of a boolean setting.
func (s *Store) Bool(path string) (bool, error) {
	v, def, err := s.value(path)
	if err != nil {
		return false, err
	}
	if def.Type != TypeBool {
		return false, fmt.Errorf("%w: %s is %s", ErrWrongType, path, def.Type)
	}
	return v.(bool), nil
}

// String returns the value of a string setting.
func (s *Store) String(path string) (string, error) {
	v, def, err := s.value(path)
	if err != nil {
		return "", err
	}
	if def.Type != TypeString {
		return "", fmt.Errorf("%w: %s is %s", ErrWrongType, path, def.Type)
	}
	return v.(string), nil
}

// FloatOr returns the value of a float setting, or fallback when the
// setting is missing. Functors use it so a stale profile cannot prevent
// activation.
func (s *Store) FloatOr(path string, fallback float64) float64 {
	v, err := s.Float(path)
	if err != nil {
		return fallback
	}
	return v
}

// BoolOr returns the value of a boolean setting, or fallback.
func (s *Store) BoolOr(path string, fallback bool) bool {
	v, err := s.Bool(path)
	if err != nil {
		return fallback
	}
	return v
}

// Sections returns all section names in sorted order.
func (s *Store) Sections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for path := range s.definitions {
		seen[section(path)] = true
	}
	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// OnChange registers a change callback.
func (s *Store) OnChange(cb ChangeCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Load reads stored values from a TOML file. A missing file is not an
// error. Unknown paths in the file are ignored; invalid values fail the
// load.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("settings: reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("settings: parsing %s: %w", path, err)
	}

	for sec, entries := range doc {
		table, ok := entries.(map[string]any)
		if !ok {
			continue
		}
		for key, value := range table {
			full := sec + "." + key
			if s.Definition(full) == nil {
				continue
			}
			if err := s.Set(full, value); err != nil {
				return fmt.Errorf("settings: %s: %w", path, err)
			}
		}
	}
	return nil
}

// Save writes all non-default values to a TOML file grouped by section.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	doc := make(map[string]map[string]any)
	for full, value := range s.values {
		sec := section(full)
		if doc[sec] == nil {
			doc[sec] = make(map[string]any)
		}
		doc[sec][entry(full)] = value
	}
	s.mu.RUnlock()

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("settings: encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("settings: writing %s: %w", path, err)
	}
	return nil
}

func section(path string) string {
	if i := strings.Index(path, "."); i >= 0 {
		return path[:i]
	}
	return path
}

func entry(path string) string {
	if i := strings.Index(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

package mode

import (
	"fmt"
	"sort"
	"sync"
)

// ChangeCallback is notified after the active mode changes.
type ChangeCallback func(from, to string)

// StructureCallback is notified when a mode is renamed or deleted so that
// binding tables can be kept consistent. For deletions, replacement is the
// mode that inherits the deleted mode's bindings.
type StructureCallback func(old, replacement string)

// Manager owns the mode hierarchy and the active-mode state.
type Manager struct {
	mu sync.RWMutex

	// parents maps every registered mode to its parent name. Root modes
	// map to the empty string.
	parents map[string]string

	// current is the active mode, previous the one before it.
	current  string
	previous string

	changeCallbacks []ChangeCallback
	renameCallbacks []StructureCallback
	deleteCallbacks []StructureCallback
}

// NewManager creates an empty mode manager.
func NewManager() *Manager {
	return &Manager{
		parents: make(map[string]string),
	}
}

// Add registers a new mode under the given parent. An empty parent creates
// a root mode. Adding a duplicate name or referencing an unknown parent
// fails.
func (m *Manager) Add(name, parent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return fmt.Errorf("mode: empty mode name")
	}
	if _, exists := m.parents[name]; exists {
		return fmt.Errorf("%w: %s", ErrModeExists, name)
	}
	if parent != "" {
		if _, ok := m.parents[parent]; !ok {
			return fmt.Errorf("%w: parent %s", ErrUnknownMode, parent)
		}
	}

	m.parents[name] = parent
	return nil
}

// Has reports whether the named mode is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.parents[name]
	return ok
}

// Parent returns the parent of the named mode. Root modes return the empty
// string.
func (m *Manager) Parent(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	parent, ok := m.parents[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	return parent, nil
}

// Ancestors returns the parent chain of the named mode, nearest first,
// excluding the mode itself.
func (m *Manager) Ancestors(name string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ancestorsLocked(name)
}

func (m *Manager) ancestorsLocked(name string) []string {
	var chain []string
	for {
		parent, ok := m.parents[name]
		if !ok || parent == "" {
			return chain
		}
		chain = append(chain, parent)
		name = parent
	}
}

// SetParent moves a mode to a new parent. It fails if either mode is
// unknown or if the new parent is the mode itself or one of its
// descendants.
func (m *Manager) SetParent(name, parent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.parents[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	if parent == "" {
		m.parents[name] = ""
		return nil
	}
	if _, ok := m.parents[parent]; !ok {
		return fmt.Errorf("%w: parent %s", ErrUnknownMode, parent)
	}

	// Walking up from the proposed parent must not reach the mode being
	// moved.
	if parent == name {
		return fmt.Errorf("%w: %s", ErrCycle, name)
	}
	for _, ancestor := range m.ancestorsLocked(parent) {
		if ancestor == name {
			return fmt.Errorf("%w: %s", ErrCycle, name)
		}
	}

	m.parents[name] = parent
	return nil
}

// Rename changes a mode's name, updating children that reference it and
// notifying rename callbacks so bindings can follow.
func (m *Manager) Rename(old, new string) error {
	m.mu.Lock()

	if _, ok := m.parents[old]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownMode, old)
	}
	if _, exists := m.parents[new]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrModeExists, new)
	}

	m.parents[new] = m.parents[old]
	delete(m.parents, old)
	for child, parent := range m.parents {
		if parent == old {
			m.parents[child] = new
		}
	}
	if m.current == old {
		m.current = new
	}
	if m.previous == old {
		m.previous = new
	}

	callbacks := make([]StructureCallback, len(m.renameCallbacks))
	copy(callbacks, m.renameCallbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(old, new)
		}
	}
	return nil
}

// Delete removes a mode. Its children are reparented to the deleted mode's
// own parent; when a root mode is deleted its children become roots.
// Bindings referencing the deleted mode are reassigned to the replacement
// mode announced through the delete callbacks: the deleted mode's parent,
// or the first remaining root mode when a root was deleted. Deleting the
// only mode fails.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()

	parent, ok := m.parents[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	if len(m.parents) == 1 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrLastMode, name)
	}

	delete(m.parents, name)
	for child, p := range m.parents {
		if p == name {
			m.parents[child] = parent
		}
	}

	replacement := parent
	if replacement == "" {
		replacement = m.firstModeLocked()
	}
	if m.current == name {
		m.current = replacement
	}
	if m.previous == name {
		m.previous = replacement
	}

	callbacks := make([]StructureCallback, len(m.deleteCallbacks))
	copy(callbacks, m.deleteCallbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(name, replacement)
		}
	}
	return nil
}

// Modes returns all registered mode names sorted alphabetically.
func (m *Manager) Modes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.parents))
	for name := range m.parents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FirstMode returns the lexicographically first root mode. It is the
// deterministic default on profile activation. Returns the empty string if
// no modes are registered.
func (m *Manager) FirstMode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.firstModeLocked()
}

func (m *Manager) firstModeLocked() string {
	first := ""
	for name, parent := range m.parents {
		if parent != "" {
			continue
		}
		if first == "" || name < first {
			first = name
		}
	}
	return first
}

// Current returns the active mode name.
func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Previous returns the mode that was active before the current one.
func (m *Manager) Previous() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.previous
}

// SwitchTo makes the named mode active and remembers the old mode as
// previous. Switching to the already-active mode is a no-op.
func (m *Manager) SwitchTo(name string) error {
	m.mu.Lock()

	if _, ok := m.parents[name]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	if m.current == name {
		m.mu.Unlock()
		return nil
	}

	from := m.current
	m.previous = m.current
	m.current = name

	callbacks := make([]ChangeCallback, len(m.changeCallbacks))
	copy(callbacks, m.changeCallbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(from, name)
		}
	}
	return nil
}

// SwitchToPrevious returns to the mode active before the current one.
func (m *Manager) SwitchToPrevious() error {
	m.mu.RLock()
	previous := m.previous
	m.mu.RUnlock()

	if previous == "" {
		return ErrNoPrevious
	}
	return m.SwitchTo(previous)
}

// Unwind walks the active mode's inheritance chain upward one step at a
// time until a root mode is active.
func (m *Manager) Unwind() error {
	for {
		m.mu.RLock()
		parent := m.parents[m.current]
		m.mu.RUnlock()

		if parent == "" {
			return nil
		}
		if err := m.SwitchTo(parent); err != nil {
			return err
		}
	}
}

// Cycle switches to the entry after the active mode in the given list,
// wrapping around at the end. If the active mode is not in the list the
// first entry is used.
func (m *Manager) Cycle(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("mode: empty cycle list")
	}

	current := m.Current()
	next := names[0]
	for i, name := range names {
		if name == current {
			next = names[(i+1)%len(names)]
			break
		}
	}
	return m.SwitchTo(next)
}

// TemporarySwitch activates the named mode and returns a revert function
// that restores the mode that was active before. The revert function is
// safe to call once; the runtime registers it as a release callback on the
// triggering input.
func (m *Manager) TemporarySwitch(name string) (func() error, error) {
	restore := m.Current()
	if err := m.SwitchTo(name); err != nil {
		return nil, err
	}
	return func() error {
		return m.SwitchTo(restore)
	}, nil
}

// OnChange registers a callback invoked after every mode switch. The
// returned function unregisters it.
func (m *Manager) OnChange(cb ChangeCallback) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.changeCallbacks = append(m.changeCallbacks, cb)
	index := len(m.changeCallbacks) - 1

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if index < len(m.changeCallbacks) {
			m.changeCallbacks[index] = nil
		}
	}
}

// OnRename registers a callback invoked after a mode is renamed.
func (m *Manager) OnRename(cb StructureCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renameCallbacks = append(m.renameCallbacks, cb)
}

// OnDelete registers a callback invoked after a mode is deleted. The
// callback receives the deleted mode and its replacement.
func (m *Manager) OnDelete(cb StructureCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCallbacks = append(m.deleteCallbacks, cb)
}

// SetInitialMode sets the active mode without recording a previous mode.
// It should be called once during profile activation.
func (m *Manager) SetInitialMode(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.parents[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	m.current = name
	m.previous = ""
	return nil
}

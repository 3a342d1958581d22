package runtime

import (
	"sync"

	"github.com/dhalweg/joymux/internal/input"
)

// stateTracker remembers the last observed value of every input, so
// condition actions can test inputs other than the one that triggered
// dispatch.
type stateTracker struct {
	mu     sync.RWMutex
	values map[input.EventKey]input.Value
}

func newStateTracker() *stateTracker {
	return &stateTracker{values: make(map[input.EventKey]input.Value)}
}

// Record stores the event's payload as the input's last value.
func (s *stateTracker) Record(ev input.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[ev.Key()] = *input.NewValue(ev.Payload())
}

// LastValue implements action.StateProvider.
func (s *stateTracker) LastValue(key input.EventKey) (input.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

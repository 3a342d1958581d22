package runtime

import (
	"sync"

	"github.com/dhalweg/joymux/internal/input"
)

// releaseRegistry holds the callbacks press-side functors schedule for the
// matching release of the same input. Firing removes the callbacks first,
// so each registration runs at most once even if the chain behind the input
// was reconfigured mid-press.
type releaseRegistry struct {
	mu        sync.Mutex
	callbacks map[input.EventKey][]func()
}

func newReleaseRegistry() *releaseRegistry {
	return &releaseRegistry{callbacks: make(map[input.EventKey][]func())}
}

// OnRelease implements action.ReleaseRegistrar.
func (r *releaseRegistry) OnRelease(key input.EventKey, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[key] = append(r.callbacks[key], fn)
}

// Fire runs and clears the callbacks registered for a key.
func (r *releaseRegistry) Fire(key input.EventKey) {
	r.mu.Lock()
	fns := r.callbacks[key]
	delete(r.callbacks, key)
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// FireAll runs every pending callback. Called on deactivation so held
// outputs are released.
func (r *releaseRegistry) FireAll() {
	r.mu.Lock()
	all := r.callbacks
	r.callbacks = make(map[input.EventKey][]func())
	r.mu.Unlock()

	for _, fns := range all {
		for _, fn := range fns {
			fn()
		}
	}
}

// Pending reports how many callbacks are registered for a key.
func (r *releaseRegistry) Pending(key input.EventKey) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.callbacks[key])
}

package action

import (
	"fmt"
	"sort"
	"sync"
)

// Kind describes one registered action type: how to create its data node
// and how to pair it with a functor.
type Kind struct {
	// Tag is the stable serialization tag ("tempo", "map-to-vjoy").
	Tag string

	// New creates an empty data node of the kind.
	New func() Data

	// NewFunctor pairs a data node with its executor. It is called once
	// per activation per chain position.
	NewFunctor func(d Data, sys *System) (Functor, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Kind)
)

// Register adds a kind to the static factory table. It panics on duplicate
// tags; kinds register from init functions and a collision is a programming
// error.
func Register(k Kind) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if k.Tag == "" || k.New == nil || k.NewFunctor == nil {
		panic(fmt.Sprintf("action: incomplete kind registration %q", k.Tag))
	}
	if _, exists := registry[k.Tag]; exists {
		panic(fmt.Sprintf("action: duplicate kind tag %q", k.Tag))
	}
	registry[k.Tag] = k
}

// KindFor returns the kind registered for a tag.
func KindFor(tag string) (Kind, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	k, ok := registry[tag]
	if !ok {
		return Kind{}, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	return k, nil
}

// Tags returns all registered tags sorted alphabetically.
func Tags() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

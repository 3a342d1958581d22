package action

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/input"
)

// Data is one configured action node. Concrete kinds embed Base for the
// structural contract and add their own properties.
type Data interface {
	// ID is the stable identity of the node, preserved across save/load.
	ID() uuid.UUID

	// SetID replaces the identity; used only when loading a profile.
	SetID(id uuid.UUID)

	// Tag is the stable serialization tag of the node's kind.
	Tag() string

	// Behavior is the input category the node is configured for.
	Behavior() input.Type

	// SetBehavior sets the input category.
	SetBehavior(t input.Type)

	// Containers lists the valid container names of the kind, in
	// declaration order. The set is fixed per kind.
	Containers() []string

	// Actions returns the ordered child ids of a container.
	Actions(container string) ([]uuid.UUID, error)

	// Insert adds a child reference at index (-1 appends). It performs
	// no cycle check; use Library.Insert for checked insertion.
	Insert(container string, id uuid.UUID, index int) error

	// Remove deletes a child reference from a container.
	Remove(container string, id uuid.UUID) error

	// Validate checks the node is executable. Structural problems are
	// reported as ErrInvalidData; they are fatal to activation.
	Validate(lib *Library) error

	// EncodeProperties writes the node's own properties into the bag.
	EncodeProperties(bag *Bag) error

	// DecodeProperties reads the node's own properties from the bag.
	DecodeProperties(bag *Bag) error
}

// Base implements the structural part of Data: identity, behavior, and the
// fixed set of named containers. Concrete kinds embed it by value.
type Base struct {
	id       uuid.UUID
	behavior input.Type

	// names preserves container declaration order.
	names    []string
	children map[string][]uuid.UUID
}

// NewBase creates a Base with the given fixed container names and a fresh
// id.
func NewBase(containers ...string) Base {
	children := make(map[string][]uuid.UUID, len(containers))
	for _, name := range containers {
		children[name] = nil
	}
	return Base{
		id:       uuid.New(),
		names:    containers,
		children: children,
	}
}

// ID implements Data.
func (b *Base) ID() uuid.UUID { return b.id }

// SetID implements Data.
func (b *Base) SetID(id uuid.UUID) { b.id = id }

// Behavior implements Data.
func (b *Base) Behavior() input.Type { return b.behavior }

// SetBehavior implements Data.
func (b *Base) SetBehavior(t input.Type) { b.behavior = t }

// Containers implements Data.
func (b *Base) Containers() []string {
	names := make([]string, len(b.names))
	copy(names, b.names)
	return names
}

// Actions implements Data.
func (b *Base) Actions(container string) ([]uuid.UUID, error) {
	ids, ok := b.children[container]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContainer, container)
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out, nil
}

// Insert implements Data.
func (b *Base) Insert(container string, id uuid.UUID, index int) error {
	ids, ok := b.children[container]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContainer, container)
	}
	if index < 0 || index > len(ids) {
		index = len(ids)
	}

	ids = append(ids, uuid.Nil)
	copy(ids[index+1:], ids[index:])
	ids[index] = id
	b.children[container] = ids
	return nil
}

// Remove implements Data.
func (b *Base) Remove(container string, id uuid.UUID) error {
	ids, ok := b.children[container]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContainer, container)
	}
	for i, existing := range ids {
		if existing == id {
			b.children[container] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s not in %q", ErrUnknownAction, id, container)
}

// ChildIDs returns all child references across containers, used for
// reachability checks.
func (b *Base) ChildIDs() []uuid.UUID {
	var all []uuid.UUID
	for _, name := range b.names {
		all = append(all, b.children[name]...)
	}
	return all
}

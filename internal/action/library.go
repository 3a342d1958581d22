package action

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Library is the arena owning every action node of a profile plus the set
// of tree roots. Trees reference children by id, never by embedding, so a
// node may be shared by several parents (Merge Axis reuse, Reference
// aliasing) without object cycles.
type Library struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]Data
	roots []uuid.UUID
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		nodes: make(map[uuid.UUID]Data),
	}
}

// Add registers a node. Adding an id twice fails.
func (l *Library) Add(d Data) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.nodes[d.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID())
	}
	l.nodes[d.ID()] = d
	return nil
}

// Get returns the node with the given id.
func (l *Library) Get(id uuid.UUID) (Data, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}
	return d, nil
}

// Has reports whether a node with the given id exists.
func (l *Library) Has(id uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.nodes[id]
	return ok
}

// Remove deletes a node from the arena. The caller is responsible for
// removing references to it first.
func (l *Library) Remove(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}
	delete(l.nodes, id)
	return nil
}

// AddTree marks an existing node as the root of an action tree.
func (l *Library) AddTree(rootID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.nodes[rootID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, rootID)
	}
	for _, existing := range l.roots {
		if existing == rootID {
			return fmt.Errorf("%w: tree root %s", ErrDuplicateID, rootID)
		}
	}
	l.roots = append(l.roots, rootID)
	return nil
}

// Roots returns the tree roots in registration order.
func (l *Library) Roots() []uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]uuid.UUID, len(l.roots))
	copy(out, l.roots)
	return out
}

// Insert adds child into parent's container after verifying both exist and
// that the insertion does not make a node reachable from itself. Reference
// nodes expose their target as a child, so aliasing is covered by the same
// check.
func (l *Library) Insert(parentID uuid.UUID, container string, childID uuid.UUID, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	parent, ok := l.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrUnknownAction, parentID)
	}
	if _, ok := l.nodes[childID]; !ok {
		return fmt.Errorf("%w: child %s", ErrUnknownAction, childID)
	}

	// The child's subtree must not contain the parent.
	if childID == parentID || l.reachableLocked(childID, parentID) {
		return fmt.Errorf("%w: %s into %s", ErrCycle, childID, parentID)
	}

	return parent.Insert(container, childID, index)
}

// Reachable reports whether target can be reached from start by following
// container references.
func (l *Library) Reachable(start, target uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reachableLocked(start, target)
}

func (l *Library) reachableLocked(start, target uuid.UUID) bool {
	visited := make(map[uuid.UUID]bool)
	stack := []uuid.UUID{start}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		node, ok := l.nodes[id]
		if !ok {
			continue
		}
		for _, name := range node.Containers() {
			ids, err := node.Actions(name)
			if err != nil {
				continue
			}
			for _, child := range ids {
				if child == target {
					return true
				}
				stack = append(stack, child)
			}
		}
	}
	return false
}

// Validate checks every node in the arena, the referential integrity of
// all container references, and that no node is reachable from itself.
// Insert guards against cycles on live edits, but loaded profiles restore
// references through the raw Data.Insert, so the loaded graph must be
// re-checked here. It is run before activation; any error is fatal to the
// profile.
func (l *Library) Validate() error {
	l.mu.RLock()
	nodes := make([]Data, 0, len(l.nodes))
	for _, d := range l.nodes {
		nodes = append(nodes, d)
	}
	for _, d := range nodes {
		if l.reachableLocked(d.ID(), d.ID()) {
			l.mu.RUnlock()
			return fmt.Errorf("%w: %s is reachable from itself", ErrCycle, d.ID())
		}
	}
	l.mu.RUnlock()

	for _, d := range nodes {
		for _, name := range d.Containers() {
			ids, err := d.Actions(name)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if !l.Has(id) {
					return fmt.Errorf("%w: %s referenced by %s/%s", ErrUnknownAction, id, d.ID(), name)
				}
			}
		}
		if err := d.Validate(l); err != nil {
			return fmt.Errorf("action: node %s (%s): %w", d.ID(), d.Tag(), err)
		}
	}
	return nil
}

// Len returns the number of nodes in the arena.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.nodes)
}

// All returns every node in the arena in unspecified order.
func (l *Library) All() []Data {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Data, 0, len(l.nodes))
	for _, d := range l.nodes {
		out = append(out, d)
	}
	return out
}

// Package intermediate implements the intermediate output registry: a
// virtual device whose inputs are fed by Map-to-IO actions and consumed by
// other action chains as if they were physical inputs. It decouples logical
// routing from the number of physical and virtual devices.
package intermediate

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/input"
)

// Registry errors.
var (
	// ErrUnknownInput indicates no input matches the given key.
	ErrUnknownInput = errors.New("intermediate: unknown input")

	// ErrLabelExists indicates the label is already in use.
	ErrLabelExists = errors.New("intermediate: label already in use")

	// ErrInvalidType indicates the input type cannot be backed by the
	// intermediate output device.
	ErrInvalidType = errors.New("intermediate: invalid input type")
)

// Input is one virtual input on the intermediate output device.
type Input struct {
	// GUID is the stable identity of the input.
	GUID uuid.UUID

	// Label is the human-readable lookup key ("IO Axis 1").
	Label string

	// Type is the value kind of the input.
	Type input.Type

	// Identifier is the index of the input among inputs of its type.
	Identifier int
}

// Key returns the event key events on this input carry. The type is the
// input's own value kind, matching the synthetic events Map-to-IO actions
// emit, so a binding built from this key receives them.
func (i *Input) Key(device input.DeviceGUID) input.EventKey {
	return input.EventKey{Device: device, Type: i.Type, Identifier: i.Identifier}
}

// Registry owns all intermediate output inputs. Inputs are retrievable both
// by label and by GUID; deleting an input removes both lookup paths.
type Registry struct {
	mu sync.RWMutex

	// device is the synthetic device GUID all intermediate events carry.
	device input.DeviceGUID

	byLabel map[string]*Input
	byGUID  map[uuid.UUID]*Input

	// counters assign sequential identifiers and default labels per type.
	counters map[input.Type]int
	nextID   int
}

// NewRegistry creates an empty intermediate output registry.
func NewRegistry() *Registry {
	return NewRegistryWithDevice(uuid.New())
}

// NewRegistryWithDevice creates a registry with a fixed device GUID, used
// when loading a profile that persisted the GUID.
func NewRegistryWithDevice(device input.DeviceGUID) *Registry {
	return &Registry{
		device:   device,
		byLabel:  make(map[string]*Input),
		byGUID:   make(map[uuid.UUID]*Input),
		counters: make(map[input.Type]int),
	}
}

// Device returns the synthetic device GUID of the intermediate output
// layer.
func (r *Registry) Device() input.DeviceGUID {
	return r.device
}

// Create adds a new input of the given type. An empty label generates one
// from the type and a per-type counter ("IO Axis 1", "IO Button 2").
func (r *Registry) Create(typ input.Type, label string) (*Input, error) {
	switch typ {
	case input.TypeAxis, input.TypeButton, input.TypeHat:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[typ]++
	if label == "" {
		label = fmt.Sprintf("IO %s %d", typeLabel(typ), r.counters[typ])
	}
	if _, exists := r.byLabel[label]; exists {
		return nil, fmt.Errorf("%w: %s", ErrLabelExists, label)
	}

	in := &Input{
		GUID:       uuid.New(),
		Label:      label,
		Type:       typ,
		Identifier: r.nextID,
	}
	r.nextID++

	r.byLabel[label] = in
	r.byGUID[in.GUID] = in
	return in, nil
}

// Restore inserts an input with its persisted identity, keeping the
// generated-label and identifier counters ahead of it.
func (r *Registry) Restore(in Input) error {
	switch in.Type {
	case input.TypeAxis, input.TypeButton, input.TypeHat:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidType, in.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLabel[in.Label]; exists {
		return fmt.Errorf("%w: %s", ErrLabelExists, in.Label)
	}
	if _, exists := r.byGUID[in.GUID]; exists {
		return fmt.Errorf("%w: duplicate guid %s", ErrLabelExists, in.GUID)
	}

	stored := in
	r.byLabel[stored.Label] = &stored
	r.byGUID[stored.GUID] = &stored
	r.counters[stored.Type]++
	if stored.Identifier >= r.nextID {
		r.nextID = stored.Identifier + 1
	}
	return nil
}

// All returns every input sorted by identifier.
func (r *Registry) All() []Input {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Input, 0, len(r.byGUID))
	for _, in := range r.byGUID {
		out = append(out, *in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// Get retrieves an input by key: either its label or the string form of
// its GUID.
func (r *Registry) Get(key string) (*Input, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if in, ok := r.byLabel[key]; ok {
		return in, nil
	}
	if id, err := uuid.Parse(key); err == nil {
		if in, ok := r.byGUID[id]; ok {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownInput, key)
}

// GetByGUID retrieves an input by its GUID.
func (r *Registry) GetByGUID(id uuid.UUID) (*Input, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if in, ok := r.byGUID[id]; ok {
		return in, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownInput, id)
}

// GetByIdentifier retrieves an input by its event identifier.
func (r *Registry) GetByIdentifier(identifier int) (*Input, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, in := range r.byGUID {
		if in.Identifier == identifier {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: identifier %d", ErrUnknownInput, identifier)
}

// Delete removes an input by label or GUID string, dropping both lookup
// paths.
func (r *Registry) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.byLabel[key]
	if !ok {
		if id, err := uuid.Parse(key); err == nil {
			in = r.byGUID[id]
		}
	}
	if in == nil {
		return fmt.Errorf("%w: %s", ErrUnknownInput, key)
	}

	delete(r.byLabel, in.Label)
	delete(r.byGUID, in.GUID)
	return nil
}

// Rename changes an input's label, keeping its GUID and identifier.
func (r *Registry) Rename(old, new string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.byLabel[old]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInput, old)
	}
	if _, exists := r.byLabel[new]; exists {
		return fmt.Errorf("%w: %s", ErrLabelExists, new)
	}

	delete(r.byLabel, old)
	in.Label = new
	r.byLabel[new] = in
	return nil
}

// Labels returns all labels currently registered.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, 0, len(r.byLabel))
	for label := range r.byLabel {
		labels = append(labels, label)
	}
	return labels
}

func typeLabel(t input.Type) string {
	switch t {
	case input.TypeAxis:
		return "Axis"
	case input.TypeButton:
		return "Button"
	case input.TypeHat:
		return "Hat"
	default:
		return "Input"
	}
}

package actions

import (
	"fmt"
	"sync"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagMergeAxis is the serialization tag of the merge-axis action.
const TagMergeAxis = "merge-axis"

// Merge operations.
const (
	MergeAverage = "average"
	MergeMinimum = "minimum"
	MergeMaximum = "maximum"
)

func init() {
	action.Register(action.Kind{
		Tag:        TagMergeAxis,
		New:        func() action.Data { return NewMergeAxisData() },
		NewFunctor: newMergeAxisFunctor,
	})
}

// MergeAxisData reduces two source axes into one output value. One instance
// is deliberately shared by the bindings of both source axes; the functor
// cache keys on the node id, so both bindings drive a single functor with
// one coherent last-value pair.
type MergeAxisData struct {
	action.Base

	// Operation combines the two latest axis values.
	Operation string

	// Axis1 and Axis2 identify the two source axes.
	Axis1, Axis2 input.EventKey
}

// NewMergeAxisData creates a merge node with the average operation.
func NewMergeAxisData() *MergeAxisData {
	return &MergeAxisData{
		Base:      action.NewBase(ContainerChildren),
		Operation: MergeAverage,
	}
}

// Tag implements action.Data.
func (d *MergeAxisData) Tag() string { return TagMergeAxis }

// Validate implements action.Data.
func (d *MergeAxisData) Validate(*action.Library) error {
	switch d.Operation {
	case MergeAverage, MergeMinimum, MergeMaximum:
	default:
		return fmt.Errorf("%w: merge operation %q", action.ErrInvalidData, d.Operation)
	}
	var zero input.EventKey
	if d.Axis1 == zero || d.Axis2 == zero {
		return fmt.Errorf("%w: merge axis sources not configured", action.ErrInvalidData)
	}
	if d.Axis1 == d.Axis2 {
		return fmt.Errorf("%w: merge axis sources are identical", action.ErrInvalidData)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *MergeAxisData) EncodeProperties(bag *action.Bag) error {
	bag.SetSelection("operation", d.Operation)
	encode := func(name string, key input.EventKey) {
		bag.AddGroup(name, func(b *action.Bag) {
			b.SetUUID("device", key.Device)
			b.SetInt("identifier", key.Identifier)
		})
	}
	encode("axis1", d.Axis1)
	encode("axis2", d.Axis2)
	return nil
}

// DecodeProperties implements action.Data.
func (d *MergeAxisData) DecodeProperties(bag *action.Bag) error {
	op, err := bag.Selection("operation", MergeAverage, MergeMinimum, MergeMaximum)
	if err != nil {
		return err
	}
	d.Operation = op

	decode := func(name string) (input.EventKey, error) {
		groups := bag.Groups(name)
		if len(groups) != 1 {
			return input.EventKey{}, fmt.Errorf("%w: %q", action.ErrMissingProperty, name)
		}
		g := groups[0]
		key := input.EventKey{Type: input.TypeAxis}
		if key.Device, err = g.UUID("device"); err != nil {
			return input.EventKey{}, err
		}
		if key.Identifier, err = g.Int("identifier"); err != nil {
			return input.EventKey{}, err
		}
		return key, nil
	}

	if d.Axis1, err = decode("axis1"); err != nil {
		return err
	}
	if d.Axis2, err = decode("axis2"); err != nil {
		return err
	}
	return nil
}

type mergeAxisFunctor struct {
	data     *MergeAxisData
	children []action.Functor

	mu           sync.Mutex
	last1, last2 float64
}

func newMergeAxisFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*MergeAxisData)
	if !ok {
		return nil, fmt.Errorf("%w: merge axis functor given %T", action.ErrInvalidData, d)
	}
	children, err := sys.ChildFunctors(d, ContainerChildren)
	if err != nil {
		return nil, err
	}
	return &mergeAxisFunctor{data: data, children: children}, nil
}

// Process implements action.Functor.
func (f *mergeAxisFunctor) Process(ev input.Event, val *input.Value) error {
	key := ev.Key()

	f.mu.Lock()
	switch key {
	case f.data.Axis1:
		f.last1 = val.Float()
	case f.data.Axis2:
		f.last2 = val.Float()
	default:
		f.mu.Unlock()
		// Not one of the configured sources; leave the value untouched.
		return nil
	}
	a, b := f.last1, f.last2
	f.mu.Unlock()

	var combined float64
	switch f.data.Operation {
	case MergeMinimum:
		combined = min(a, b)
	case MergeMaximum:
		combined = max(a, b)
	default:
		combined = (a + b) / 2
	}

	val.SetCurrent(combined)
	return action.ProcessAll(f.children, ev, val)
}

package actions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagReference is the serialization tag of the reference action.
const TagReference = "reference"

// containerTarget holds the single aliased node. Modeling the target as a
// container keeps reference aliasing inside the library's reachability
// check, so a reference can never make a node its own ancestor.
const containerTarget = "target"

func init() {
	action.Register(action.Kind{
		Tag:        TagReference,
		New:        func() action.Data { return NewReferenceData() },
		NewFunctor: newReferenceFunctor,
	})
}

// ReferenceData aliases another node in the library, letting one configured
// action appear in several trees without duplication.
type ReferenceData struct {
	action.Base
}

// NewReferenceData creates a reference with no target.
func NewReferenceData() *ReferenceData {
	return &ReferenceData{Base: action.NewBase(containerTarget)}
}

// Tag implements action.Data.
func (d *ReferenceData) Tag() string { return TagReference }

// SetTarget points the reference at a node, replacing any previous target.
func (d *ReferenceData) SetTarget(id uuid.UUID) error {
	ids, err := d.Actions(containerTarget)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if err := d.Remove(containerTarget, existing); err != nil {
			return err
		}
	}
	return d.Insert(containerTarget, id, -1)
}

// Target returns the aliased node id, or uuid.Nil when unset.
func (d *ReferenceData) Target() uuid.UUID {
	ids, err := d.Actions(containerTarget)
	if err != nil || len(ids) == 0 {
		return uuid.Nil
	}
	return ids[0]
}

// Validate implements action.Data.
func (d *ReferenceData) Validate(lib *action.Library) error {
	ids, err := d.Actions(containerTarget)
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		return fmt.Errorf("%w: reference needs exactly one target, has %d", action.ErrInvalidData, len(ids))
	}
	if !lib.Has(ids[0]) {
		return fmt.Errorf("%w: reference target %s", action.ErrUnknownAction, ids[0])
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *ReferenceData) EncodeProperties(*action.Bag) error { return nil }

// DecodeProperties implements action.Data.
func (d *ReferenceData) DecodeProperties(*action.Bag) error { return nil }

type referenceFunctor struct {
	target action.Functor
}

func newReferenceFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	ref, ok := d.(*ReferenceData)
	if !ok {
		return nil, fmt.Errorf("%w: reference functor given %T", action.ErrInvalidData, d)
	}
	target, err := sys.Functor(ref.Target())
	if err != nil {
		return nil, err
	}
	return &referenceFunctor{target: target}, nil
}

// Process implements action.Functor.
func (f *referenceFunctor) Process(ev input.Event, val *input.Value) error {
	return f.target.Process(ev, val)
}

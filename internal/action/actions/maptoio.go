package actions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagMapToIO is the serialization tag of the intermediate-output mapping.
const TagMapToIO = "map-to-io"

func init() {
	action.Register(action.Kind{
		Tag:        TagMapToIO,
		New:        func() action.Data { return NewMapToIOData() },
		NewFunctor: newMapToIOFunctor,
	})
}

// MapToIOData re-emits the processed value as a synthetic event on an
// intermediate-output input, letting downstream bindings consume it like a
// physical input.
type MapToIOData struct {
	action.Base

	// Target is the GUID of the intermediate-output input.
	Target uuid.UUID
}

// NewMapToIOData creates a mapping with no target.
func NewMapToIOData() *MapToIOData {
	return &MapToIOData{Base: action.NewBase()}
}

// Tag implements action.Data.
func (d *MapToIOData) Tag() string { return TagMapToIO }

// Validate implements action.Data.
func (d *MapToIOData) Validate(*action.Library) error {
	if d.Target == uuid.Nil {
		return fmt.Errorf("%w: intermediate output target not configured", action.ErrInvalidData)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *MapToIOData) EncodeProperties(bag *action.Bag) error {
	bag.SetUUID("target", d.Target)
	return nil
}

// DecodeProperties implements action.Data.
func (d *MapToIOData) DecodeProperties(bag *action.Bag) error {
	target, err := bag.UUID("target")
	if err != nil {
		return err
	}
	d.Target = target
	return nil
}

type mapToIOFunctor struct {
	data *MapToIOData
	sys  *action.System
}

func newMapToIOFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*MapToIOData)
	if !ok {
		return nil, fmt.Errorf("%w: io functor given %T", action.ErrInvalidData, d)
	}
	if sys.Intermediate == nil {
		return nil, fmt.Errorf("%w: no intermediate output registry", action.ErrInvalidData)
	}
	if _, err := sys.Intermediate.GetByGUID(data.Target); err != nil {
		return nil, err
	}
	return &mapToIOFunctor{data: data, sys: sys}, nil
}

// Process implements action.Functor.
func (f *mapToIOFunctor) Process(_ input.Event, val *input.Value) error {
	target, err := f.sys.Intermediate.GetByGUID(f.data.Target)
	if err != nil {
		return err
	}
	if f.sys.EmitEvent == nil {
		return nil
	}

	device := f.sys.Intermediate.Device()
	switch target.Type {
	case input.TypeAxis:
		f.sys.EmitEvent(input.NewAxisEvent(device, target.Identifier, val.Float()))
	case input.TypeButton:
		f.sys.EmitEvent(input.NewButtonEvent(device, target.Identifier, val.Bool()))
	case input.TypeHat:
		f.sys.EmitEvent(input.NewHatEvent(device, target.Identifier, val.Hat()))
	default:
		return fmt.Errorf("%w: intermediate output type %s", action.ErrInvalidState, target.Type)
	}
	return nil
}

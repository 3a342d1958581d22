package actions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/macro"
	"github.com/dhalweg/joymux/internal/output"
)

// TagMapToKeyboard is the serialization tag of the keyboard mapping action.
const TagMapToKeyboard = "map-to-keyboard"

func init() {
	action.Register(action.Kind{
		Tag:        TagMapToKeyboard,
		New:        func() action.Data { return NewMapToKeyboardData() },
		NewFunctor: newMapToKeyboardFunctor,
	})
}

// KeySpec is one key of a keyboard mapping. Modifier keys press before
// regular keys regardless of configured order.
type KeySpec struct {
	Key      output.KeyID
	Modifier bool
}

// MapToKeyboardData presses a key combination while the input is active.
// The presses run as a queued macro so they never block the event path.
type MapToKeyboardData struct {
	action.Base

	// Keys are the keys of the combination, in configured order.
	Keys []KeySpec
}

// NewMapToKeyboardData creates a mapping with no keys.
func NewMapToKeyboardData() *MapToKeyboardData {
	return &MapToKeyboardData{Base: action.NewBase()}
}

// Tag implements action.Data.
func (d *MapToKeyboardData) Tag() string { return TagMapToKeyboard }

// Validate implements action.Data.
func (d *MapToKeyboardData) Validate(*action.Library) error {
	if len(d.Keys) == 0 {
		return fmt.Errorf("%w: keyboard mapping with no keys", action.ErrInvalidData)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *MapToKeyboardData) EncodeProperties(bag *action.Bag) error {
	for _, k := range d.Keys {
		spec := k
		bag.AddGroup("key", func(b *action.Bag) {
			b.SetInt("scan-code", spec.Key.ScanCode)
			b.SetBool("extended", spec.Key.Extended)
			b.SetBool("modifier", spec.Modifier)
		})
	}
	return nil
}

// DecodeProperties implements action.Data.
func (d *MapToKeyboardData) DecodeProperties(bag *action.Bag) error {
	d.Keys = nil
	for _, g := range bag.Groups("key") {
		var spec KeySpec
		scan, err := g.Int("scan-code")
		if err != nil {
			return err
		}
		extended, err := g.Bool("extended")
		if err != nil {
			return err
		}
		modifier, err := g.Bool("modifier")
		if err != nil {
			return err
		}
		spec.Key = output.KeyID{ScanCode: scan, Extended: extended}
		spec.Modifier = modifier
		d.Keys = append(d.Keys, spec)
	}
	return nil
}

// pressOrder returns the keys with modifiers first.
func (d *MapToKeyboardData) pressOrder() []output.KeyID {
	ordered := make([]output.KeyID, 0, len(d.Keys))
	for _, k := range d.Keys {
		if k.Modifier {
			ordered = append(ordered, k.Key)
		}
	}
	for _, k := range d.Keys {
		if !k.Modifier {
			ordered = append(ordered, k.Key)
		}
	}
	return ordered
}

type mapToKeyboardFunctor struct {
	data *MapToKeyboardData
	sys  *action.System

	// pressID and releaseID keep press and release macros distinct in the
	// engine's running table.
	pressID   uuid.UUID
	releaseID uuid.UUID
}

func newMapToKeyboardFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*MapToKeyboardData)
	if !ok {
		return nil, fmt.Errorf("%w: keyboard functor given %T", action.ErrInvalidData, d)
	}
	return &mapToKeyboardFunctor{
		data:      data,
		sys:       sys,
		pressID:   derivedID(d.ID(), "press"),
		releaseID: derivedID(d.ID(), "release"),
	}, nil
}

// Process implements action.Functor.
func (f *mapToKeyboardFunctor) Process(ev input.Event, val *input.Value) error {
	ordered := f.data.pressOrder()

	if val.Bool() {
		steps := make([]macro.Step, len(ordered))
		for i, key := range ordered {
			steps[i] = macro.KeyStep{Key: key, Press: true}
		}
		return f.sys.Macros.Queue(&macro.Macro{ID: f.pressID, Steps: steps})
	}

	// Release mirrors the press in reverse order.
	steps := make([]macro.Step, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		steps = append(steps, macro.KeyStep{Key: ordered[i], Press: false})
	}
	return f.sys.Macros.Queue(&macro.Macro{ID: f.releaseID, Steps: steps})
}

// derivedID produces a stable id from a node id and a role tag.
func derivedID(base uuid.UUID, role string) uuid.UUID {
	return uuid.NewSHA1(base, []byte(role))
}

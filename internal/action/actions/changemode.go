package actions

import (
	"fmt"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagChangeMode is the serialization tag of the mode change action.
const TagChangeMode = "change-mode"

// Mode change variants.
const (
	ModeChangeSwitch    = "switch"
	ModeChangeCycle     = "cycle"
	ModeChangePrevious  = "previous"
	ModeChangeUnwind    = "unwind"
	ModeChangeTemporary = "temporary"
)

func init() {
	action.Register(action.Kind{
		Tag:        TagChangeMode,
		New:        func() action.Data { return NewChangeModeData() },
		NewFunctor: newChangeModeFunctor,
	})
}

// ChangeModeData switches the active mode. Like pause/resume it keeps
// executing while the runtime is paused so the user can always navigate
// modes.
type ChangeModeData struct {
	action.Base

	// Variant selects the switching behavior.
	Variant string

	// Target is the destination mode for switch and temporary.
	Target string

	// CycleModes is the round-robin list for cycle.
	CycleModes []string
}

// NewChangeModeData creates a switch node with no target.
func NewChangeModeData() *ChangeModeData {
	return &ChangeModeData{
		Base:    action.NewBase(),
		Variant: ModeChangeSwitch,
	}
}

// Tag implements action.Data.
func (d *ChangeModeData) Tag() string { return TagChangeMode }

// Validate implements action.Data.
func (d *ChangeModeData) Validate(*action.Library) error {
	switch d.Variant {
	case ModeChangeSwitch, ModeChangeTemporary:
		if d.Target == "" {
			return fmt.Errorf("%w: mode change without target", action.ErrInvalidData)
		}
	case ModeChangeCycle:
		if len(d.CycleModes) < 2 {
			return fmt.Errorf("%w: mode cycle needs at least two modes", action.ErrInvalidData)
		}
	case ModeChangePrevious, ModeChangeUnwind:
	default:
		return fmt.Errorf("%w: mode change variant %q", action.ErrInvalidData, d.Variant)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *ChangeModeData) EncodeProperties(bag *action.Bag) error {
	bag.SetSelection("variant", d.Variant)
	bag.SetString("target", d.Target)
	bag.SetList("cycle-modes", d.CycleModes)
	return nil
}

// DecodeProperties implements action.Data.
func (d *ChangeModeData) DecodeProperties(bag *action.Bag) error {
	variant, err := bag.Selection("variant",
		ModeChangeSwitch, ModeChangeCycle, ModeChangePrevious, ModeChangeUnwind, ModeChangeTemporary)
	if err != nil {
		return err
	}
	target, err := bag.String("target")
	if err != nil {
		return err
	}
	cycle, err := bag.List("cycle-modes")
	if err != nil {
		return err
	}
	d.Variant = variant
	d.Target = target
	d.CycleModes = cycle
	return nil
}

type changeModeFunctor struct {
	data *ChangeModeData
	sys  *action.System
}

func newChangeModeFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*ChangeModeData)
	if !ok {
		return nil, fmt.Errorf("%w: mode functor given %T", action.ErrInvalidData, d)
	}
	if sys.Modes == nil {
		return nil, fmt.Errorf("%w: no mode manager", action.ErrInvalidData)
	}
	return &changeModeFunctor{data: data, sys: sys}, nil
}

// Process implements action.Functor.
func (f *changeModeFunctor) Process(ev input.Event, val *input.Value) error {
	if !val.Bool() {
		return nil
	}

	switch f.data.Variant {
	case ModeChangeSwitch:
		return f.sys.Modes.SwitchTo(f.data.Target)

	case ModeChangeCycle:
		return f.sys.Modes.Cycle(f.data.CycleModes)

	case ModeChangePrevious:
		return f.sys.Modes.SwitchToPrevious()

	case ModeChangeUnwind:
		return f.sys.Modes.Unwind()

	case ModeChangeTemporary:
		revert, err := f.sys.Modes.TemporarySwitch(f.data.Target)
		if err != nil {
			return err
		}
		if f.sys.Releases == nil {
			return fmt.Errorf("%w: temporary mode switch needs a release registry", action.ErrInvalidState)
		}
		report := f.sys.ReportError
		f.sys.Releases.OnRelease(ev.Key(), func() {
			if err := revert(); err != nil {
				report(err)
			}
		})
		return nil

	default:
		return fmt.Errorf("%w: mode change variant %q", action.ErrInvalidState, f.data.Variant)
	}
}

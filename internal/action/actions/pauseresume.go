package actions

import (
	"fmt"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagPauseResume is the serialization tag of the pause/resume action.
const TagPauseResume = "pause-resume"

// Pause/resume variants.
const (
	PauseActionPause  = "pause"
	PauseActionResume = "resume"
	PauseActionToggle = "toggle"
)

func init() {
	action.Register(action.Kind{
		Tag:        TagPauseResume,
		New:        func() action.Data { return NewPauseResumeData() },
		NewFunctor: newPauseResumeFunctor,
	})
}

// PauseResumeData controls the runtime's pause state. It is one of the two
// action kinds still executed while the runtime is paused.
type PauseResumeData struct {
	action.Base

	// Action selects pause, resume, or toggle.
	Action string
}

// NewPauseResumeData creates a toggle node.
func NewPauseResumeData() *PauseResumeData {
	return &PauseResumeData{
		Base:   action.NewBase(),
		Action: PauseActionToggle,
	}
}

// Tag implements action.Data.
func (d *PauseResumeData) Tag() string { return TagPauseResume }

// Validate implements action.Data.
func (d *PauseResumeData) Validate(*action.Library) error {
	switch d.Action {
	case PauseActionPause, PauseActionResume, PauseActionToggle:
		return nil
	default:
		return fmt.Errorf("%w: pause action %q", action.ErrInvalidData, d.Action)
	}
}

// EncodeProperties implements action.Data.
func (d *PauseResumeData) EncodeProperties(bag *action.Bag) error {
	bag.SetSelection("action", d.Action)
	return nil
}

// DecodeProperties implements action.Data.
func (d *PauseResumeData) DecodeProperties(bag *action.Bag) error {
	a, err := bag.Selection("action", PauseActionPause, PauseActionResume, PauseActionToggle)
	if err != nil {
		return err
	}
	d.Action = a
	return nil
}

type pauseResumeFunctor struct {
	data *PauseResumeData
	sys  *action.System
}

func newPauseResumeFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*PauseResumeData)
	if !ok {
		return nil, fmt.Errorf("%w: pause functor given %T", action.ErrInvalidData, d)
	}
	return &pauseResumeFunctor{data: data, sys: sys}, nil
}

// Process implements action.Functor.
func (f *pauseResumeFunctor) Process(_ input.Event, val *input.Value) error {
	// Act on press only; the release edge is a no-op.
	if !val.Bool() {
		return nil
	}
	if f.sys.Control == nil {
		return fmt.Errorf("%w: no runtime control", action.ErrInvalidState)
	}

	switch f.data.Action {
	case PauseActionPause:
		f.sys.Control.Pause()
	case PauseActionResume:
		f.sys.Control.Resume()
	default:
		f.sys.Control.TogglePause()
	}
	return nil
}

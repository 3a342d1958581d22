package actions

import (
	"fmt"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/script"
)

// TagScript is the serialization tag of the script action.
const TagScript = "script"

func init() {
	action.Register(action.Kind{
		Tag:        TagScript,
		New:        func() action.Data { return NewScriptData() },
		NewFunctor: newScriptFunctor,
	})
}

// ScriptData runs a Lua chunk for every dispatched event. The chunk defines
// a process(event) function and talks to the outputs through the sandbox
// API.
type ScriptData struct {
	action.Base

	// Source is the Lua chunk.
	Source string
}

// NewScriptData creates a script node with no source.
func NewScriptData() *ScriptData {
	return &ScriptData{Base: action.NewBase()}
}

// Tag implements action.Data.
func (d *ScriptData) Tag() string { return TagScript }

// Validate implements action.Data.
func (d *ScriptData) Validate(*action.Library) error {
	if d.Source == "" {
		return fmt.Errorf("%w: script with no source", action.ErrInvalidData)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *ScriptData) EncodeProperties(bag *action.Bag) error {
	bag.SetString("source", d.Source)
	return nil
}

// DecodeProperties implements action.Data.
func (d *ScriptData) DecodeProperties(bag *action.Bag) error {
	source, err := bag.String("source")
	if err != nil {
		return err
	}
	d.Source = source
	return nil
}

type scriptFunctor struct {
	runner *script.Runner
}

func newScriptFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*ScriptData)
	if !ok {
		return nil, fmt.Errorf("%w: script functor given %T", action.ErrInvalidData, d)
	}

	runner, err := script.NewRunner(data.Source, script.Outputs{
		VJoy:     sys.VJoy,
		Keyboard: sys.Keyboard,
		Mouse:    sys.Mouse,
		Speech:   sys.Speech,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", action.ErrInvalidData, err)
	}
	return &scriptFunctor{runner: runner}, nil
}

// Process implements action.Functor.
func (f *scriptFunctor) Process(ev input.Event, val *input.Value) error {
	return f.runner.Run(ev, val)
}

// Close implements action.Closer.
func (f *scriptFunctor) Close() error {
	return f.runner.Close()
}

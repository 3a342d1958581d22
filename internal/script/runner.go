package script

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/output"
)

// handlerName is the global function a chunk must define. It is called once
// per dispatched event with an event table.
const handlerName = "process"

// Outputs are the sinks exposed to Lua chunks through the restricted API.
// Nil sinks make the corresponding functions report an error when called.
type Outputs struct {
	VJoy     output.VJoyProxy
	Keyboard output.Keyboard
	Mouse    output.Mouse
	Speech   output.Speech
}

// Runner executes one compiled chunk. Lua states are not goroutine-safe, so
// all calls are serialized through the runner's mutex.
type Runner struct {
	mu     sync.Mutex
	state  *lua.LState
	closed bool
}

// NewRunner compiles a chunk in a fresh sandboxed state and verifies it
// defines the process handler.
func NewRunner(source string, outs Outputs) (*Runner, error) {
	state := newSandboxedState()
	registerOutputs(state, outs)

	if err := state.DoString(source); err != nil {
		state.Close()
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	if state.GetGlobal(handlerName).Type() != lua.LTFunction {
		state.Close()
		return nil, ErrNoHandler
	}

	return &Runner{state: state}, nil
}

// Run invokes the chunk's process handler with the event and its current
// value.
func (r *Runner) Run(ev input.Event, val *input.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	fn := r.state.GetGlobal(handlerName)
	err := r.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, eventTable(r.state, ev, val))
	if err != nil {
		return fmt.Errorf("script: process failed: %w", err)
	}
	return nil
}

// Close releases the Lua state.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.state.Close()
	return nil
}

// newSandboxedState creates a state with only the safe libraries loaded.
// os, io, debug, and the loaders never open; base keeps computation
// primitives but loses file and chunk loading.
func newSandboxedState() *lua.LState {
	state := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, open := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		state.Push(state.NewFunction(open.fn))
		state.Push(lua.LString(open.name))
		state.Call(1, 0)
	}

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "print"} {
		state.SetGlobal(name, lua.LNil)
	}

	return state
}

// eventTable converts an event and its processed value into the table passed
// to the handler.
func eventTable(state *lua.LState, ev input.Event, val *input.Value) *lua.LTable {
	t := state.NewTable()
	state.SetField(t, "device", lua.LString(ev.Device.String()))
	state.SetField(t, "type", lua.LString(ev.Type.String()))
	state.SetField(t, "identifier", lua.LNumber(ev.Identifier))
	state.SetField(t, "pressed", lua.LBool(val.Bool()))
	state.SetField(t, "value", lua.LNumber(val.Float()))
	state.SetField(t, "hat", lua.LString(val.Hat().String()))
	return t
}

// registerOutputs installs the restricted output API as globals.
func registerOutputs(state *lua.LState, outs Outputs) {
	state.SetGlobal("vjoy_set_axis", state.NewFunction(func(l *lua.LState) int {
		if outs.VJoy == nil {
			l.RaiseError("vjoy output not available")
			return 0
		}
		device := output.VJoyDeviceID(l.CheckInt(1))
		axis := l.CheckInt(2)
		value := float64(l.CheckNumber(3))
		if err := outs.VJoy.SetAxis(device, axis, value); err != nil {
			l.RaiseError("vjoy_set_axis: %v", err)
		}
		return 0
	}))

	state.SetGlobal("vjoy_set_button", state.NewFunction(func(l *lua.LState) int {
		if outs.VJoy == nil {
			l.RaiseError("vjoy output not available")
			return 0
		}
		device := output.VJoyDeviceID(l.CheckInt(1))
		button := l.CheckInt(2)
		pressed := l.CheckBool(3)
		if err := outs.VJoy.SetButton(device, button, pressed); err != nil {
			l.RaiseError("vjoy_set_button: %v", err)
		}
		return 0
	}))

	state.SetGlobal("key_press", state.NewFunction(func(l *lua.LState) int {
		if outs.Keyboard == nil {
			l.RaiseError("keyboard output not available")
			return 0
		}
		key := output.KeyID{ScanCode: l.CheckInt(1), Extended: l.OptBool(2, false)}
		if err := outs.Keyboard.Press(key); err != nil {
			l.RaiseError("key_press: %v", err)
		}
		return 0
	}))

	state.SetGlobal("key_release", state.NewFunction(func(l *lua.LState) int {
		if outs.Keyboard == nil {
			l.RaiseError("keyboard output not available")
			return 0
		}
		key := output.KeyID{ScanCode: l.CheckInt(1), Extended: l.OptBool(2, false)}
		if err := outs.Keyboard.Release(key); err != nil {
			l.RaiseError("key_release: %v", err)
		}
		return 0
	}))

	state.SetGlobal("mouse_button", state.NewFunction(func(l *lua.LState) int {
		if outs.Mouse == nil {
			l.RaiseError("mouse output not available")
			return 0
		}
		button, err := output.ParseMouseButton(l.CheckString(1))
		if err != nil {
			l.RaiseError("mouse_button: %v", err)
			return 0
		}
		pressed := l.CheckBool(2)
		if pressed {
			err = outs.Mouse.Press(button)
		} else {
			err = outs.Mouse.Release(button)
		}
		if err != nil {
			l.RaiseError("mouse_button: %v", err)
		}
		return 0
	}))

	state.SetGlobal("mouse_move", state.NewFunction(func(l *lua.LState) int {
		if outs.Mouse == nil {
			l.RaiseError("mouse output not available")
			return 0
		}
		if err := outs.Mouse.Move(l.CheckInt(1), l.CheckInt(2)); err != nil {
			l.RaiseError("mouse_move: %v", err)
		}
		return 0
	}))

	state.SetGlobal("say", state.NewFunction(func(l *lua.LState) int {
		if outs.Speech == nil {
			l.RaiseError("speech output not available")
			return 0
		}
		if err := outs.Speech.Say(l.CheckString(1)); err != nil {
			l.RaiseError("say: %v", err)
		}
		return 0
	}))
}

package actions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/intermediate"
	"github.com/dhalweg/joymux/internal/macro"
	"github.com/dhalweg/joymux/internal/mode"
	"github.com/dhalweg/joymux/internal/motion"
	"github.com/dhalweg/joymux/internal/output/outputtest"
	"github.com/dhalweg/joymux/internal/settings"
)

// releaseRegistry collects release callbacks like the runtime does.
type releaseRegistry struct {
	mu        sync.Mutex
	callbacks map[input.EventKey][]func()
}

func newReleaseRegistry() *releaseRegistry {
	return &releaseRegistry{callbacks: make(map[input.EventKey][]func())}
}

func (r *releaseRegistry) OnRelease(key input.EventKey, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[key] = append(r.callbacks[key], fn)
}

// fire runs and clears the callbacks registered for a key.
func (r *releaseRegistry) fire(key input.EventKey) {
	r.mu.Lock()
	fns := r.callbacks[key]
	delete(r.callbacks, key)
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (r *releaseRegistry) pending(key input.EventKey) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.callbacks[key])
}

// stateProvider serves canned last-known input values.
type stateProvider struct {
	mu     sync.Mutex
	values map[input.EventKey]any
}

func newStateProvider() *stateProvider {
	return &stateProvider{values: make(map[input.EventKey]any)}
}

func (s *stateProvider) set(key input.EventKey, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = payload
}

func (s *stateProvider) LastValue(key input.EventKey) (input.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.values[key]
	if !ok {
		return input.Value{}, false
	}
	return *input.NewValue(payload), true
}

// runtimeControl records pause transitions.
type runtimeControl struct {
	mu     sync.Mutex
	paused bool
}

func (c *runtimeControl) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

func (c *runtimeControl) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

func (c *runtimeControl) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = !c.paused
}

func (c *runtimeControl) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// testEnv bundles a fully wired System with its fakes.
type testEnv struct {
	sys      *action.System
	lib      *action.Library
	vjoy     *outputtest.VJoy
	keyboard *outputtest.Keyboard
	mouse    *outputtest.Mouse
	speech   *outputtest.Speech
	modes    *mode.Manager
	macros   *macro.Engine
	releases *releaseRegistry
	state    *stateProvider
	control  *runtimeControl
	emitted  chan input.Event
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	vjoy := outputtest.NewVJoy()
	keyboard := outputtest.NewKeyboard()
	mouse := outputtest.NewMouse()
	speech := outputtest.NewSpeech()

	modes := mode.NewManager()
	if err := modes.Add("Default", ""); err != nil {
		t.Fatal(err)
	}

	engine := macro.NewEngine(macro.Sinks{VJoy: vjoy, Keyboard: keyboard, Mouse: mouse}, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Stop(ctx)
	})

	controller := motion.NewMouseController(mouse, nil, nil)
	t.Cleanup(controller.Stop)

	env := &testEnv{
		lib:      action.NewLibrary(),
		vjoy:     vjoy,
		keyboard: keyboard,
		mouse:    mouse,
		speech:   speech,
		modes:    modes,
		macros:   engine,
		releases: newReleaseRegistry(),
		state:    newStateProvider(),
		control:  &runtimeControl{},
		emitted:  make(chan input.Event, 16),
	}
	env.sys = &action.System{
		VJoy:         vjoy,
		Keyboard:     keyboard,
		Mouse:        mouse,
		Speech:       speech,
		Modes:        modes,
		Macros:       engine,
		Intermediate: intermediate.NewRegistry(),
		Settings:     settings.NewStoreWithDefaults(),
		MouseMotion:  controller,
		Library:      env.lib,
		Releases:     env.releases,
		Joystick:     env.state,
		Control:      env.control,
	}
	env.sys.EmitEvent = func(ev input.Event) { env.emitted <- ev }
	t.Cleanup(env.sys.Close)

	return env
}

// add registers a node in the library, failing the test on error.
func (e *testEnv) add(t *testing.T, d action.Data) {
	t.Helper()
	if err := e.lib.Add(d); err != nil {
		t.Fatal(err)
	}
}

// functor builds the functor for a node.
func (e *testEnv) functor(t *testing.T, id uuid.UUID) action.Functor {
	t.Helper()
	f, err := e.sys.Functor(id)
	if err != nil {
		t.Fatalf("Functor() error = %v", err)
	}
	return f
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

// recorder is a leaf functor capturing every invocation.
type recorder struct {
	mu     sync.Mutex
	events []input.Event
	values []any
}

func (r *recorder) Process(ev input.Event, val *input.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.values = append(r.values, val.Current())
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) lastValue() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return nil
	}
	return r.values[len(r.values)-1]
}

// probeData is a test-only leaf kind whose functor is a recorder, letting
// tests observe what a container dispatches to its children.
type probeData struct {
	action.Base
	rec *recorder
}

func newProbe(rec *recorder) *probeData {
	return &probeData{Base: action.NewBase(), rec: rec}
}

func (d *probeData) Tag() string                        { return "probe" }
func (d *probeData) Validate(*action.Library) error     { return nil }
func (d *probeData) EncodeProperties(*action.Bag) error { return nil }
func (d *probeData) DecodeProperties(*action.Bag) error { return nil }

func init() {
	action.Register(action.Kind{
		Tag: "probe",
		New: func() action.Data { return newProbe(&recorder{}) },
		NewFunctor: func(d action.Data, _ *action.System) (action.Functor, error) {
			return d.(*probeData).rec, nil
		},
	})
}

package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/action/actions"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/macro"
	"github.com/dhalweg/joymux/internal/motion"
	"github.com/dhalweg/joymux/internal/output"
	"github.com/dhalweg/joymux/internal/profile"
	"github.com/dhalweg/joymux/internal/settings"
)

// Source produces input events for the runtime, typically a device listener
// or a replay reader.
type Source interface {
	Events() <-chan input.Event
}

// Options configures a Runtime. Output sinks are required; everything else
// has a usable default.
type Options struct {
	VJoy     output.VJoyProxy
	Keyboard output.Keyboard
	Mouse    output.Mouse
	Speech   output.Speech

	// Settings defaults to NewStoreWithDefaults.
	Settings *settings.Store

	// QueueSize bounds the injected-event queue. Defaults to 256.
	QueueSize int

	Log *zap.Logger
}

// bindingKey addresses one binding: an input in a mode.
type bindingKey struct {
	input input.EventKey
	mode  string
}

// activeBinding is one binding with its constructed runtime state.
type activeBinding struct {
	binding   *profile.Binding
	functor   action.Functor
	converter *profile.Converter

	// keepAlive holds the pause-resume and change-mode functors of the
	// bound tree in preorder. While paused only these run, so the runtime
	// can always be resumed and modes can still be switched.
	keepAlive []action.Functor
}

// Runtime dispatches input events through the active profile's action
// trees.
type Runtime struct {
	log      *zap.Logger
	bus      *Bus
	settings *settings.Store

	vjoy     output.VJoyProxy
	keyboard output.Keyboard
	mouse    output.Mouse
	speech   output.Speech

	queueSize int
	paused    atomic.Bool

	mu       sync.RWMutex
	active   bool
	prof     *profile.Profile
	sys      *action.System
	engine   *macro.Engine
	motion   *motion.MouseController
	releases *releaseRegistry
	state    *stateTracker
	bindings map[bindingKey]*activeBinding

	queue chan input.Event
	stop  chan struct{}
	wg    sync.WaitGroup

	unsubscribeMode func()
}

// New creates an inactive runtime.
func New(opts Options) *Runtime {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	store := opts.Settings
	if store == nil {
		store = settings.NewStoreWithDefaults()
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	return &Runtime{
		log:       log,
		bus:       NewBus(),
		settings:  store,
		vjoy:      opts.VJoy,
		keyboard:  opts.Keyboard,
		mouse:     opts.Mouse,
		speech:    opts.Speech,
		queueSize: queueSize,
	}
}

// Bus returns the runtime's notification bus.
func (r *Runtime) Bus() *Bus {
	return r.bus
}

// Settings returns the runtime's settings store.
func (r *Runtime) Settings() *settings.Store {
	return r.settings
}

// Activate builds the functors for every binding of the profile and starts
// dispatching. Construction errors leave the runtime inactive: a profile
// that cannot be fully built is never partially live.
func (r *Runtime) Activate(p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return ErrAlreadyActive
	}
	if err := p.Library.Validate(); err != nil {
		return err
	}

	engine := macro.NewEngine(macro.Sinks{VJoy: r.vjoy, Keyboard: r.keyboard, Mouse: r.mouse}, r.log)
	controller := motion.NewMouseController(r.mouse, r.handleError, r.log)
	releases := newReleaseRegistry()
	state := newStateTracker()

	sys := &action.System{
		VJoy:         r.vjoy,
		Keyboard:     r.keyboard,
		Mouse:        r.mouse,
		Speech:       r.speech,
		Modes:        p.Modes,
		Macros:       engine,
		Intermediate: p.IO,
		Settings:     r.settings,
		MouseMotion:  controller,
		Library:      p.Library,
		Releases:     releases,
		Joystick:     state,
		Control:      r,
		EmitEvent:    r.Inject,
		Log:          r.log,
	}
	sys.OnBackgroundError = r.handleError
	engine.OnError(r.handleError)

	teardown := func() {
		sys.Close()
		controller.Stop()
		// Nothing has been queued yet, so the engine stops immediately.
		_ = engine.Stop(context.Background())
	}

	bindings := make(map[bindingKey]*activeBinding, len(p.Bindings))
	for _, b := range p.Bindings {
		functor, err := sys.Functor(b.Tree)
		if err != nil {
			teardown()
			return err
		}
		keepAlive, err := keepAliveFunctors(p.Library, sys, b.Tree)
		if err != nil {
			teardown()
			return err
		}
		bindings[bindingKey{input: b.Key(), mode: b.Mode}] = &activeBinding{
			binding:   b,
			functor:   functor,
			converter: profile.NewConverter(b),
			keepAlive: keepAlive,
		}
	}

	start := p.StartMode
	if start == "" {
		start = p.Modes.FirstMode()
	}
	if err := p.Modes.SetInitialMode(start); err != nil {
		teardown()
		return err
	}
	r.unsubscribeMode = p.Modes.OnChange(func(from, to string) {
		r.log.Info("mode changed", zap.String("from", from), zap.String("to", to))
		r.bus.Publish(TopicModeChanged, ModeChange{From: from, To: to})
	})

	r.prof = p
	r.sys = sys
	r.engine = engine
	r.motion = controller
	r.releases = releases
	r.state = state
	r.bindings = bindings
	r.queue = make(chan input.Event, r.queueSize)
	r.stop = make(chan struct{})
	r.paused.Store(false)
	r.active = true

	r.wg.Add(1)
	go r.dispatchLoop(r.queue, r.stop)

	r.log.Info("profile activated",
		zap.String("path", p.Path),
		zap.String("mode", start),
		zap.Int("bindings", len(bindings)))
	return nil
}

// Deactivate stops dispatch, fires pending release callbacks so held
// outputs are let go, and joins every background worker. The context bounds
// how long macro playback may take to wind down.
func (r *Runtime) Deactivate(ctx context.Context) error {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return ErrNotActive
	}
	r.active = false
	stop := r.stop
	releases := r.releases
	engine := r.engine
	controller := r.motion
	sys := r.sys
	unsubscribe := r.unsubscribeMode

	r.prof = nil
	r.sys = nil
	r.engine = nil
	r.motion = nil
	r.releases = nil
	r.state = nil
	r.bindings = nil
	r.unsubscribeMode = nil
	r.mu.Unlock()

	close(stop)
	r.wg.Wait()

	if unsubscribe != nil {
		unsubscribe()
	}
	releases.FireAll()
	sys.Close()
	controller.Stop()
	err := engine.Stop(ctx)

	r.log.Info("profile deactivated")
	return err
}

// Active reports whether a profile is activated.
func (r *Runtime) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Inject queues an event for dispatch. Used by sources and by Map-to-IO
// actions feeding intermediate outputs back into the loop. Events are
// dropped when the queue is full or the runtime is inactive.
func (r *Runtime) Inject(ev input.Event) {
	r.mu.RLock()
	queue := r.queue
	active := r.active
	r.mu.RUnlock()

	if !active {
		return
	}
	select {
	case queue <- ev:
	default:
		r.log.Warn("event queue full, dropping event", zap.Stringer("event", ev))
	}
}

// Run consumes a source until its channel closes or the context is
// cancelled.
func (r *Runtime) Run(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-src.Events():
			if !ok {
				return nil
			}
			r.Inject(ev)
		}
	}
}

func (r *Runtime) dispatchLoop(queue chan input.Event, stop chan struct{}) {
	defer r.wg.Done()
	for {
		select {
		case <-stop:
			return
		case ev := <-queue:
			r.ProcessEvent(ev)
		}
	}
}

// ProcessEvent dispatches one event synchronously: record its value, fire
// release callbacks on release edges, resolve the binding for the active
// mode with parent fallback, convert, and run the chain. Dispatch errors
// pause the runtime when auto-pause is enabled; they never propagate.
func (r *Runtime) ProcessEvent(ev input.Event) {
	r.mu.RLock()
	if !r.active {
		r.mu.RUnlock()
		return
	}
	state := r.state
	releases := r.releases
	prof := r.prof
	r.mu.RUnlock()

	state.Record(ev)

	// A boolean release fires pending callbacks even when no binding
	// matches anymore: the chain that registered them may have been
	// swapped out by a mode change mid-press.
	if ev.IsBoolean() && !ev.Pressed {
		releases.Fire(ev.Key())
	}

	b := r.resolveBinding(ev.Key(), prof)
	if b == nil {
		return
	}

	val := input.ValueFromEvent(ev)
	if !b.converter.Convert(ev, val) {
		return
	}

	// Converted virtual buttons release on the same key as the press.
	if !ev.IsBoolean() && b.binding.VirtualButton != nil && !val.Bool() {
		releases.Fire(ev.Key())
	}

	if r.Paused() {
		if err := action.ProcessAll(b.keepAlive, ev, val); err != nil {
			r.handleError(err)
		}
		return
	}

	if err := b.functor.Process(ev, val); err != nil {
		r.handleError(err)
	}
}

// resolveBinding finds the binding for an input in the active mode, walking
// up the mode hierarchy until one matches.
func (r *Runtime) resolveBinding(key input.EventKey, prof *profile.Profile) *activeBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.bindings == nil {
		return nil
	}

	mode := prof.Modes.Current()
	if b, ok := r.bindings[bindingKey{input: key, mode: mode}]; ok {
		return b
	}
	for _, ancestor := range prof.Modes.Ancestors(mode) {
		if b, ok := r.bindings[bindingKey{input: key, mode: ancestor}]; ok {
			return b
		}
	}
	return nil
}

// Pause implements action.RuntimeControl. Paused dispatch runs only
// pause-resume and change-mode actions.
func (r *Runtime) Pause() {
	if !r.paused.Swap(true) {
		r.log.Info("runtime paused")
		r.bus.Publish(TopicPaused, nil)
	}
}

// Resume implements action.RuntimeControl.
func (r *Runtime) Resume() {
	if r.paused.Swap(false) {
		r.log.Info("runtime resumed")
		r.bus.Publish(TopicResumed, nil)
	}
}

// TogglePause implements action.RuntimeControl.
func (r *Runtime) TogglePause() {
	if r.Paused() {
		r.Resume()
	} else {
		r.Pause()
	}
}

// Paused implements action.RuntimeControl.
func (r *Runtime) Paused() bool {
	return r.paused.Load()
}

// handleError is the single sink for dispatch and background failures.
func (r *Runtime) handleError(err error) {
	if err == nil {
		return
	}
	r.log.Error("dispatch failed", zap.Error(err))
	r.bus.Publish(TopicError, err)
	if r.settings.BoolOr(settings.AutoPauseOnError, true) {
		r.Pause()
	}
}

// keepAliveFunctors collects, in preorder, the functors of every
// pause-resume and change-mode node reachable from the tree root.
func keepAliveFunctors(lib *action.Library, sys *action.System, root uuid.UUID) ([]action.Functor, error) {
	var out []action.Functor
	visited := make(map[uuid.UUID]bool)

	var walk func(id uuid.UUID) error
	walk = func(id uuid.UUID) error {
		if visited[id] {
			return nil
		}
		visited[id] = true

		d, err := lib.Get(id)
		if err != nil {
			return err
		}
		switch d.Tag() {
		case actions.TagPauseResume, actions.TagChangeMode:
			f, err := sys.Functor(id)
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		for _, name := range d.Containers() {
			ids, err := d.Actions(name)
			if err != nil {
				return err
			}
			for _, child := range ids {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}

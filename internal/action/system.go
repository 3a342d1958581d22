package action

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/intermediate"
	"github.com/dhalweg/joymux/internal/macro"
	"github.com/dhalweg/joymux/internal/motion"
	"github.com/dhalweg/joymux/internal/output"
	"github.com/dhalweg/joymux/internal/settings"
)

// Functor executes one action node against an incoming event. Functors are
// constructed per activation and hold the node's runtime state; the paired
// Data node stays immutable during execution.
type Functor interface {
	// Process handles one event. The value carries both the raw reading
	// and the current (possibly rewritten) value; functors that transform
	// values call val.SetCurrent before passing the event on.
	Process(ev input.Event, val *input.Value) error
}

// Closer is implemented by functors that own background resources (rampers,
// timers, motion loops) and must be torn down on deactivation.
type Closer interface {
	Close() error
}

// ModeControl is the mode surface functors need. *mode.Manager satisfies
// it; the indirection keeps this package free of a mode dependency.
type ModeControl interface {
	Current() string
	SwitchTo(name string) error
	SwitchToPrevious() error
	Unwind() error
	Cycle(names []string) error
	TemporarySwitch(name string) (revert func() error, err error)
}

// MacroQueue is the macro surface functors need, satisfied by
// *macro.Engine.
type MacroQueue interface {
	Queue(m *macro.Macro) error
	TerminateHold(id uuid.UUID)
	IsRunning(id uuid.UUID) bool
}

// ReleaseRegistrar lets a press-side functor schedule work for the matching
// release of the same physical input. The runtime guarantees at most one
// invocation per registration.
type ReleaseRegistrar interface {
	OnRelease(key input.EventKey, fn func())
}

// StateProvider reports the last known value of any input, so conditions
// can test inputs other than the one that triggered dispatch.
type StateProvider interface {
	LastValue(key input.EventKey) (input.Value, bool)
}

// RuntimeControl is the pause surface exposed to functors.
type RuntimeControl interface {
	Pause()
	Resume()
	TogglePause()
	Paused() bool
}

// System bundles every dependency a functor can need. The runtime builds
// one per activation and threads it through functor construction instead
// of exposing process globals.
type System struct {
	VJoy         output.VJoyProxy
	Keyboard     output.Keyboard
	Mouse        output.Mouse
	Speech       output.Speech
	Modes        ModeControl
	Macros       MacroQueue
	Intermediate *intermediate.Registry
	Settings     *settings.Store
	MouseMotion  *motion.MouseController
	Library      *Library
	Releases     ReleaseRegistrar
	Joystick     StateProvider
	Control      RuntimeControl

	// EmitEvent injects a synthetic event into the dispatch loop. Used by
	// intermediate-output mappings.
	EmitEvent func(ev input.Event)

	// OnBackgroundError receives failures from functor-owned background
	// goroutines (tempo branches, rampers). The runtime maps it onto the
	// same auto-pause path as dispatch errors.
	OnBackgroundError func(err error)

	Log *zap.Logger

	mu       sync.Mutex
	functors map[uuid.UUID]Functor
	closers  []Closer
}

// Functor returns the functor for a data node, constructing it on first
// use. Nodes referenced from several trees or bindings share one functor
// and therefore one runtime state.
func (s *System) Functor(id uuid.UUID) (Functor, error) {
	s.mu.Lock()
	if s.functors == nil {
		s.functors = make(map[uuid.UUID]Functor)
	}
	if f, ok := s.functors[id]; ok {
		s.mu.Unlock()
		return f, nil
	}
	s.mu.Unlock()

	d, err := s.Library.Get(id)
	if err != nil {
		return nil, err
	}
	kind, err := KindFor(d.Tag())
	if err != nil {
		return nil, err
	}

	f, err := kind.NewFunctor(d, s)
	if err != nil {
		return nil, fmt.Errorf("action: constructing %s %s: %w", d.Tag(), id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have raced construction; keep the first.
	if existing, ok := s.functors[id]; ok {
		if c, isCloser := f.(Closer); isCloser {
			c.Close()
		}
		return existing, nil
	}
	s.functors[id] = f
	if c, ok := f.(Closer); ok {
		s.closers = append(s.closers, c)
	}
	return f, nil
}

// ChildFunctors constructs the functors for one container of a node, in
// child order.
func (s *System) ChildFunctors(d Data, container string) ([]Functor, error) {
	ids, err := d.Actions(container)
	if err != nil {
		return nil, err
	}
	out := make([]Functor, 0, len(ids))
	for _, id := range ids {
		f, err := s.Functor(id)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ProcessAll runs an event through a slice of functors in order, stopping
// at the first error.
func ProcessAll(functors []Functor, ev input.Event, val *input.Value) error {
	for _, f := range functors {
		if err := f.Process(ev, val); err != nil {
			return err
		}
	}
	return nil
}

// ReportError forwards a failure from a background goroutine to the
// runtime. Safe to call with nil.
func (s *System) ReportError(err error) {
	if err == nil {
		return
	}
	if s.Log != nil {
		s.Log.Error("background action failed", zap.Error(err))
	}
	if s.OnBackgroundError != nil {
		s.OnBackgroundError(err)
	}
}

// Close tears down every constructed functor that owns resources. Errors
// are logged and the remaining closers still run.
func (s *System) Close() {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.functors = nil
	s.mu.Unlock()

	for _, c := range closers {
		if err := c.Close(); err != nil && s.Log != nil {
			s.Log.Warn("functor close failed", zap.Error(err))
		}
	}
}

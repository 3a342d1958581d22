package macro

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine errors.
var (
	// ErrEngineStopped indicates the engine has been stopped.
	ErrEngineStopped = errors.New("macro: engine stopped")

	// ErrEmptyMacro indicates a macro with no steps was queued.
	ErrEmptyMacro = errors.New("macro: empty macro")
)

// Macro is an ordered sequence of steps with playback policy.
type Macro struct {
	// ID identifies the macro for toggle and hold termination. Macros
	// embedded in actions reuse the action's id.
	ID uuid.UUID

	// Steps is the sequence to play.
	Steps []Step

	// Exclusive macros do not interleave with any other macro.
	Exclusive bool

	// Repeat is the repeat policy; nil plays the sequence once.
	Repeat Repeat
}

// ErrorCallback is notified when playback fails. The runtime uses it to
// auto-pause on sink failures.
type ErrorCallback func(err error)

// Engine plays macros off the main event path.
type Engine struct {
	log   *zap.Logger
	sinks Sinks

	// exclusion gives non-exclusive macros shared access and exclusive
	// macros sole access.
	exclusion sync.RWMutex

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	stopped bool
	onError ErrorCallback

	wg sync.WaitGroup

	// root context cancels all playback on Stop.
	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// NewEngine creates a macro engine writing to the given sinks.
func NewEngine(sinks Sinks, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		log:        log,
		sinks:      sinks,
		running:    make(map[uuid.UUID]context.CancelFunc),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// OnError registers the playback failure callback.
func (e *Engine) OnError(cb ErrorCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = cb
}

// Queue schedules a macro for playback and returns immediately.
//
// Queueing a toggle-repeat macro that is already running stops it instead
// of starting a second instance.
func (e *Engine) Queue(m *Macro) error {
	if len(m.Steps) == 0 {
		return ErrEmptyMacro
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrEngineStopped
	}

	if _, isToggle := m.Repeat.(ToggleRepeat); isToggle {
		if cancel, ok := e.running[m.ID]; ok {
			delete(e.running, m.ID)
			e.mu.Unlock()
			cancel()
			return nil
		}
	}

	ctx, cancel := context.WithCancel(e.rootCtx)
	e.running[m.ID] = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go e.play(ctx, m)
	return nil
}

// TerminateHold stops a running hold-repeat macro. It is registered as the
// release callback of the input that queued the macro.
func (e *Engine) TerminateHold(id uuid.UUID) {
	e.mu.Lock()
	cancel, ok := e.running[id]
	if ok {
		delete(e.running, id)
	}
	e.mu.Unlock()

	if ok {
		cancel()
	}
}

// IsRunning reports whether the macro with the given id is playing.
func (e *Engine) IsRunning(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[id]
	return ok
}

// Stop cancels all playback and waits for workers to finish or the context
// to expire.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	e.mu.Unlock()

	e.rootCancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// play runs one macro to completion according to its repeat policy.
func (e *Engine) play(ctx context.Context, m *Macro) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		if cancel, ok := e.running[m.ID]; ok {
			delete(e.running, m.ID)
			e.mu.Unlock()
			cancel()
			return
		}
		e.mu.Unlock()
	}()

	if m.Exclusive {
		e.exclusion.Lock()
		defer e.exclusion.Unlock()
	} else {
		e.exclusion.RLock()
		defer e.exclusion.RUnlock()
	}

	err := e.runSequence(ctx, m)
	if err != nil && !errors.Is(err, context.Canceled) {
		e.log.Error("macro playback failed", zap.String("macro", m.ID.String()), zap.Error(err))
		e.mu.Lock()
		cb := e.onError
		e.mu.Unlock()
		if cb != nil {
			cb(err)
		}
	}
}

// runSequence plays the step sequence once plus whatever the repeat policy
// asks for.
func (e *Engine) runSequence(ctx context.Context, m *Macro) error {
	runOnce := func() error {
		for _, step := range m.Steps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := step.Execute(ctx, e.sinks); err != nil {
				return err
			}
		}
		return nil
	}

	if err := runOnce(); err != nil {
		return err
	}

	switch repeat := m.Repeat.(type) {
	case nil:
		return nil

	case CountRepeat:
		for i := 1; i < repeat.Count; i++ {
			if err := e.pause(ctx, repeat.Delay()); err != nil {
				return err
			}
			if err := runOnce(); err != nil {
				return err
			}
		}
		return nil

	case ToggleRepeat, HoldRepeat:
		for {
			if err := e.pause(ctx, m.Repeat.Delay()); err != nil {
				return err
			}
			if err := runOnce(); err != nil {
				return err
			}
		}

	default:
		return nil
	}
}

func (e *Engine) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still yield to cancellation between runs.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package actions

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/settings"
)

// TagTempo is the serialization tag of the tempo action.
const TagTempo = "tempo"

// Tempo containers.
const (
	ContainerShort = "short"
	ContainerLong  = "long"
)

// ActivateOn variants.
const (
	ActivateOnPress   = "press"
	ActivateOnRelease = "release"
)

// shortPressGap separates the synthetic press and release when the short
// branch replays a quick tap on its own goroutine.
const shortPressGap = 50 * time.Millisecond

func init() {
	action.Register(action.Kind{
		Tag:        TagTempo,
		New:        func() action.Data { return NewTempoData() },
		NewFunctor: newTempoFunctor,
	})
}

// TempoData disambiguates short and long presses of a boolean input. A
// press arms a one-shot timer; whichever of release and timeout happens
// first decides the branch, exactly once.
type TempoData struct {
	action.Base

	// Threshold is the long-press delay in seconds; zero uses the
	// configured default.
	Threshold float64

	// ActivateOn selects when the short branch fires: on release (the
	// usual tap semantics) or immediately on press.
	ActivateOn string
}

// NewTempoData creates a tempo node with release activation and the default
// threshold.
func NewTempoData() *TempoData {
	return &TempoData{
		Base:       action.NewBase(ContainerShort, ContainerLong),
		ActivateOn: ActivateOnRelease,
	}
}

// Tag implements action.Data.
func (d *TempoData) Tag() string { return TagTempo }

// Validate implements action.Data.
func (d *TempoData) Validate(*action.Library) error {
	if d.ActivateOn != ActivateOnPress && d.ActivateOn != ActivateOnRelease {
		return fmt.Errorf("%w: tempo activate-on %q", action.ErrInvalidData, d.ActivateOn)
	}
	if d.Threshold < 0 {
		return fmt.Errorf("%w: tempo threshold %g", action.ErrInvalidData, d.Threshold)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *TempoData) EncodeProperties(bag *action.Bag) error {
	bag.SetFloat("threshold", d.Threshold)
	bag.SetSelection("activate-on", d.ActivateOn)
	return nil
}

// DecodeProperties implements action.Data.
func (d *TempoData) DecodeProperties(bag *action.Bag) error {
	threshold, err := bag.Float("threshold")
	if err != nil {
		return err
	}
	activateOn, err := bag.Selection("activate-on", ActivateOnPress, ActivateOnRelease)
	if err != nil {
		return err
	}
	d.Threshold = threshold
	d.ActivateOn = activateOn
	return nil
}

// pressState tracks one in-flight press. The timer's Stop result is the
// atomic decision between release and timeout: Stop succeeding means the
// release won; Stop failing means the timeout callback runs (or ran), and
// longDone orders any release forwarding after it.
type pressState struct {
	timer    *time.Timer
	ev       input.Event
	raw      any
	current  any
	longDone chan struct{}
}

type tempoFunctor struct {
	data  *TempoData
	sys   *action.System
	log   *zap.Logger
	short []action.Functor
	long  []action.Functor

	threshold time.Duration

	mu    sync.Mutex
	press *pressState
}

func newTempoFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*TempoData)
	if !ok {
		return nil, fmt.Errorf("%w: tempo functor given %T", action.ErrInvalidData, d)
	}
	short, err := sys.ChildFunctors(d, ContainerShort)
	if err != nil {
		return nil, err
	}
	long, err := sys.ChildFunctors(d, ContainerLong)
	if err != nil {
		return nil, err
	}

	threshold := data.Threshold
	if threshold <= 0 && sys.Settings != nil {
		threshold = sys.Settings.FloatOr(settings.TempoThreshold, 0.5)
	}
	if threshold <= 0 {
		threshold = 0.5
	}

	log := sys.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &tempoFunctor{
		data:      data,
		sys:       sys,
		log:       log,
		short:     short,
		long:      long,
		threshold: time.Duration(threshold * float64(time.Second)),
	}, nil
}

// Process implements action.Functor.
func (f *tempoFunctor) Process(ev input.Event, val *input.Value) error {
	if !val.IsBool() && !ev.IsBoolean() {
		f.log.Warn("tempo requires a button-like input",
			zap.String("input", ev.Key().String()))
		return nil
	}

	if val.Bool() {
		return f.handlePress(ev, val)
	}
	return f.handleRelease(ev, val)
}

func (f *tempoFunctor) handlePress(ev input.Event, val *input.Value) error {
	st := &pressState{
		ev:       ev.Clone(),
		raw:      val.Raw(),
		current:  val.Current(),
		longDone: make(chan struct{}),
	}
	st.timer = time.AfterFunc(f.threshold, func() { f.onTimeout(st) })

	f.mu.Lock()
	f.press = st
	f.mu.Unlock()

	if f.data.ActivateOn == ActivateOnPress {
		return action.ProcessAll(f.short, ev, val)
	}
	return nil
}

func (f *tempoFunctor) handleRelease(ev input.Event, val *input.Value) error {
	f.mu.Lock()
	st := f.press
	f.press = nil
	f.mu.Unlock()

	if st == nil {
		// Release without a tracked press; nothing to decide.
		return nil
	}

	if st.timer.Stop() {
		// Release before the timeout: short press.
		if f.data.ActivateOn == ActivateOnRelease {
			pressEv := st.ev
			pressVal := restoreValue(st.raw, st.current)
			releaseEv := ev.Clone()
			releaseVal := restoreValue(val.Raw(), val.Current())
			go f.replayShort(pressEv, pressVal, releaseEv, releaseVal)
			return nil
		}
		// Short already fired on press; forward the release so held
		// outputs clear.
		return action.ProcessAll(f.short, ev, val)
	}

	// The timeout won; wait for the long branch press to finish so the
	// release never overtakes it.
	<-st.longDone
	return action.ProcessAll(f.long, ev, val)
}

// onTimeout runs when the press outlived the threshold. It executes the
// long branch with the press snapshot; with press activation the short
// branch fires here as well.
func (f *tempoFunctor) onTimeout(st *pressState) {
	defer close(st.longDone)

	val := restoreValue(st.raw, st.current)
	if err := action.ProcessAll(f.long, st.ev, val); err != nil {
		f.sys.ReportError(err)
		return
	}
	if f.data.ActivateOn == ActivateOnPress {
		if err := action.ProcessAll(f.short, st.ev, restoreValue(st.raw, st.current)); err != nil {
			f.sys.ReportError(err)
		}
	}
}

// replayShort plays the buffered press/release pair through the short
// branch off the event path.
func (f *tempoFunctor) replayShort(pressEv input.Event, pressVal *input.Value, releaseEv input.Event, releaseVal *input.Value) {
	if err := action.ProcessAll(f.short, pressEv, pressVal); err != nil {
		f.sys.ReportError(err)
		return
	}
	time.Sleep(shortPressGap)
	if err := action.ProcessAll(f.short, releaseEv, releaseVal); err != nil {
		f.sys.ReportError(err)
	}
}

// Close implements action.Closer. A pending timer is stopped; an in-flight
// long press is left to finish so its branch is not cut mid-run.
func (f *tempoFunctor) Close() error {
	f.mu.Lock()
	st := f.press
	f.press = nil
	f.mu.Unlock()

	if st != nil {
		st.timer.Stop()
	}
	return nil
}

// restoreValue rebuilds a value from snapshotted payloads.
func restoreValue(raw, current any) *input.Value {
	v := input.NewValue(raw)
	v.SetCurrent(current)
	return v
}

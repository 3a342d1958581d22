package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action/actions"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/output/outputtest"
	"github.com/dhalweg/joymux/internal/profile"
	"github.com/dhalweg/joymux/internal/settings"
)

// testHarness bundles a runtime with its fakes and an activated profile.
type testHarness struct {
	rt     *Runtime
	vjoy   *outputtest.VJoy
	prof   *profile.Profile
	device uuid.UUID
}

// newHarness builds a profile with one root mode "Default" and activates
// it after the configure callback has populated library and bindings.
func newHarness(t *testing.T, configure func(p *profile.Profile, device uuid.UUID)) *testHarness {
	t.Helper()

	vjoy := outputtest.NewVJoy()
	rt := New(Options{
		VJoy:     vjoy,
		Keyboard: outputtest.NewKeyboard(),
		Mouse:    outputtest.NewMouse(),
		Speech:   outputtest.NewSpeech(),
	})

	p, err := profile.New("Default")
	if err != nil {
		t.Fatalf("New profile: %v", err)
	}
	device := uuid.New()
	configure(p, device)

	if err := rt.Activate(p); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	t.Cleanup(func() {
		if rt.Active() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = rt.Deactivate(ctx)
		}
	})

	return &testHarness{rt: rt, vjoy: vjoy, prof: p, device: device}
}

// buttonTree adds a Root[MapToVjoy button n] tree and returns its root id.
func buttonTree(t *testing.T, p *profile.Profile, vjoyButton int) uuid.UUID {
	t.Helper()

	root := actions.NewRootData()
	mapTo := actions.NewMapToVJoyData()
	mapTo.Output = input.TypeButton
	mapTo.Input = vjoyButton
	if err := p.Library.Add(root); err != nil {
		t.Fatal(err)
	}
	if err := p.Library.Add(mapTo); err != nil {
		t.Fatal(err)
	}
	if err := p.Library.Insert(root.ID(), actions.ContainerChildren, mapTo.ID(), -1); err != nil {
		t.Fatal(err)
	}
	if err := p.Library.AddTree(root.ID()); err != nil {
		t.Fatal(err)
	}
	return root.ID()
}

func bind(p *profile.Profile, device uuid.UUID, typ input.Type, identifier int, mode string, tree uuid.UUID) {
	p.Bindings = append(p.Bindings, &profile.Binding{
		Device:     device,
		Type:       typ,
		Identifier: identifier,
		Mode:       mode,
		Tree:       tree,
		Behavior:   typ,
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestDispatchThroughBinding(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if !h.vjoy.Button(1, 1) {
		t.Fatal("press did not reach the vjoy button")
	}
}

func TestUnboundEventIgnored(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 7, true))
	if h.vjoy.Button(1, 1) {
		t.Fatal("unbound identifier must not dispatch")
	}
}

func TestModeFallbackToParent(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		if err := p.Modes.Add("Combat", "Default"); err != nil {
			t.Fatal(err)
		}
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	if err := h.prof.Modes.SwitchTo("Combat"); err != nil {
		t.Fatal(err)
	}
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if !h.vjoy.Button(1, 1) {
		t.Fatal("binding in parent mode must serve the child mode")
	}
}

func TestChildModeOverridesParent(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		if err := p.Modes.Add("Combat", "Default"); err != nil {
			t.Fatal(err)
		}
		defaultTree := buttonTree(t, p, 1)
		combatTree := buttonTree(t, p, 2)
		bind(p, device, input.TypeButton, 0, "Default", defaultTree)
		bind(p, device, input.TypeButton, 0, "Combat", combatTree)
	})

	if err := h.prof.Modes.SwitchTo("Combat"); err != nil {
		t.Fatal(err)
	}
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if h.vjoy.Button(1, 1) {
		t.Fatal("parent binding ran despite child override")
	}
	if !h.vjoy.Button(1, 2) {
		t.Fatal("child binding did not run")
	}
}

func TestReleaseClearsHeldButton(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if !h.vjoy.Button(1, 1) {
		t.Fatal("press did not set the button")
	}

	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, false))
	if h.vjoy.Button(1, 1) {
		t.Fatal("release did not clear the button")
	}

	// The callback ran exactly once; nothing is left pending.
	h.rt.mu.RLock()
	pending := h.rt.releases.Pending(input.EventKey{Device: h.device, Type: input.TypeButton, Identifier: 0})
	h.rt.mu.RUnlock()
	if pending != 0 {
		t.Fatalf("release callbacks still pending: %d", pending)
	}
}

func TestReleaseFiresAfterModeChangeMidPress(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		if err := p.Modes.Add("Combat", "Default"); err != nil {
			t.Fatal(err)
		}
		tree := buttonTree(t, p, 1)
		// Bound only in Default; Combat has no binding for this input.
		bind(p, device, input.TypeButton, 0, "Default", tree)
		combatTree := buttonTree(t, p, 2)
		bind(p, device, input.TypeButton, 1, "Combat", combatTree)
	})

	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if !h.vjoy.Button(1, 1) {
		t.Fatal("press did not set the button")
	}

	// Mode changes while the input is held. Parent fallback still routes
	// the release, and the registered auto-clear runs regardless.
	if err := h.prof.Modes.SwitchTo("Combat"); err != nil {
		t.Fatal(err)
	}
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, false))
	if h.vjoy.Button(1, 1) {
		t.Fatal("button still held after release in new mode")
	}
}

func TestPauseGatesDispatch(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	h.rt.Pause()
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if h.vjoy.Button(1, 1) {
		t.Fatal("output mapping ran while paused")
	}

	h.rt.Resume()
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if !h.vjoy.Button(1, 1) {
		t.Fatal("dispatch did not resume")
	}
}

func TestPauseResumeActionRunsWhilePaused(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		root := actions.NewRootData()
		toggle := actions.NewPauseResumeData()
		if err := p.Library.Add(root); err != nil {
			t.Fatal(err)
		}
		if err := p.Library.Add(toggle); err != nil {
			t.Fatal(err)
		}
		if err := p.Library.Insert(root.ID(), actions.ContainerChildren, toggle.ID(), -1); err != nil {
			t.Fatal(err)
		}
		if err := p.Library.AddTree(root.ID()); err != nil {
			t.Fatal(err)
		}
		bind(p, device, input.TypeButton, 0, "Default", root.ID())
	})

	h.rt.Pause()
	if !h.rt.Paused() {
		t.Fatal("not paused")
	}

	// The toggle bound to button 0 must still execute while paused.
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if h.rt.Paused() {
		t.Fatal("pause toggle did not run while paused")
	}
}

func TestAutoPauseOnOutputError(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	var published error
	h.rt.Bus().Subscribe(TopicError, func(payload any) {
		if err, ok := payload.(error); ok {
			published = err
		}
	})

	h.vjoy.FailNext()
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))

	if !h.rt.Paused() {
		t.Fatal("output failure did not pause the runtime")
	}
	if published == nil {
		t.Fatal("error was not published on the bus")
	}
}

func TestAutoPauseDisabledBySetting(t *testing.T) {
	store := settings.NewStoreWithDefaults()
	if err := store.Set(settings.AutoPauseOnError, false); err != nil {
		t.Fatal(err)
	}

	vjoy := outputtest.NewVJoy()
	rt := New(Options{
		VJoy:     vjoy,
		Keyboard: outputtest.NewKeyboard(),
		Mouse:    outputtest.NewMouse(),
		Speech:   outputtest.NewSpeech(),
		Settings: store,
	})

	p, err := profile.New("Default")
	if err != nil {
		t.Fatal(err)
	}
	device := uuid.New()
	tree := buttonTree(t, p, 1)
	bind(p, device, input.TypeButton, 0, "Default", tree)

	if err := rt.Activate(p); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = rt.Deactivate(ctx)
	}()

	vjoy.FailNext()
	rt.ProcessEvent(input.NewButtonEvent(device, 0, true))
	if rt.Paused() {
		t.Fatal("runtime paused despite auto-pause being disabled")
	}
}

func TestVirtualButtonBindingDispatchesConvertedValue(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		p.Bindings = append(p.Bindings, &profile.Binding{
			Device:     device,
			Type:       input.TypeAxis,
			Identifier: 2,
			Mode:       "Default",
			Tree:       tree,
			Behavior:   input.TypeButton,
			VirtualButton: &profile.VirtualButton{
				Low:  0.5,
				High: 1.0,
			},
		})
	})

	h.rt.ProcessEvent(input.NewAxisEvent(h.device, 2, 0.7))
	if !h.vjoy.Button(1, 1) {
		t.Fatal("axis inside range did not press the virtual button")
	}

	// Leaving the range past the hysteresis margin releases, which also
	// fires the auto-clear registered on the axis key.
	h.rt.ProcessEvent(input.NewAxisEvent(h.device, 2, 0.1))
	if h.vjoy.Button(1, 1) {
		t.Fatal("axis outside range did not release the virtual button")
	}
}

func TestInjectLoopbackDispatches(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	h.rt.Inject(input.NewButtonEvent(h.device, 0, true))
	waitFor(t, time.Second, func() bool { return h.vjoy.Button(1, 1) })
}

func TestMapToIOFeedsDownstreamBinding(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		io, err := p.IO.Create(input.TypeButton, "Chord")
		if err != nil {
			t.Fatal(err)
		}

		// Physical button 0 re-emits onto the intermediate output.
		root := actions.NewRootData()
		mapTo := actions.NewMapToIOData()
		mapTo.Target = io.GUID
		if err := p.Library.Add(root); err != nil {
			t.Fatal(err)
		}
		if err := p.Library.Add(mapTo); err != nil {
			t.Fatal(err)
		}
		if err := p.Library.Insert(root.ID(), actions.ContainerChildren, mapTo.ID(), -1); err != nil {
			t.Fatal(err)
		}
		if err := p.Library.AddTree(root.ID()); err != nil {
			t.Fatal(err)
		}
		bind(p, device, input.TypeButton, 0, "Default", root.ID())

		// A second binding consumes the intermediate input like a physical
		// one, keyed exactly as the input reports its events.
		key := io.Key(p.IO.Device())
		out := buttonTree(t, p, 1)
		bind(p, key.Device, key.Type, key.Identifier, "Default", out)
	})

	// The synthetic event travels through the injection queue, so the vjoy
	// write lands asynchronously.
	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	waitFor(t, time.Second, func() bool { return h.vjoy.Button(1, 1) })
}

func TestStateTrackerServesConditions(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	ev := input.NewAxisEvent(h.device, 5, 0.33)
	h.rt.ProcessEvent(ev)

	h.rt.mu.RLock()
	state := h.rt.state
	h.rt.mu.RUnlock()

	v, ok := state.LastValue(ev.Key())
	if !ok {
		t.Fatal("axis value was not recorded")
	}
	if got := v.Float(); got != 0.33 {
		t.Fatalf("last value = %v, want 0.33", got)
	}
}

func TestActivateTwiceFails(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	if err := h.rt.Activate(h.prof); err != ErrAlreadyActive {
		t.Fatalf("second Activate error = %v, want ErrAlreadyActive", err)
	}
}

func TestActivateFailsOnBrokenScript(t *testing.T) {
	vjoy := outputtest.NewVJoy()
	rt := New(Options{
		VJoy:     vjoy,
		Keyboard: outputtest.NewKeyboard(),
		Mouse:    outputtest.NewMouse(),
		Speech:   outputtest.NewSpeech(),
	})

	p, err := profile.New("Default")
	if err != nil {
		t.Fatal(err)
	}
	script := actions.NewScriptData()
	script.Source = "this is not lua ("
	if err := p.Library.Add(script); err != nil {
		t.Fatal(err)
	}
	if err := p.Library.AddTree(script.ID()); err != nil {
		t.Fatal(err)
	}
	bind(p, uuid.New(), input.TypeButton, 0, "Default", script.ID())

	if err := rt.Activate(p); err == nil {
		t.Fatal("expected activation to fail on a script that does not compile")
	}
	if rt.Active() {
		t.Fatal("runtime active after failed activation")
	}
}

func TestDeactivateReleasesHeldOutputs(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	h.rt.ProcessEvent(input.NewButtonEvent(h.device, 0, true))
	if !h.vjoy.Button(1, 1) {
		t.Fatal("press did not set the button")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.rt.Deactivate(ctx); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if h.vjoy.Button(1, 1) {
		t.Fatal("held button survived deactivation")
	}
	if h.rt.Active() {
		t.Fatal("runtime still active")
	}
}

func TestPausePublishesOnBus(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	paused, resumed := 0, 0
	h.rt.Bus().Subscribe(TopicPaused, func(any) { paused++ })
	h.rt.Bus().Subscribe(TopicResumed, func(any) { resumed++ })

	h.rt.Pause()
	h.rt.Pause() // already paused, no second notification
	h.rt.Resume()

	if paused != 1 || resumed != 1 {
		t.Fatalf("paused=%d resumed=%d, want 1 and 1", paused, resumed)
	}
}

func TestModeChangePublishesOnBus(t *testing.T) {
	h := newHarness(t, func(p *profile.Profile, device uuid.UUID) {
		if err := p.Modes.Add("Combat", "Default"); err != nil {
			t.Fatal(err)
		}
		tree := buttonTree(t, p, 1)
		bind(p, device, input.TypeButton, 0, "Default", tree)
	})

	var change ModeChange
	h.rt.Bus().Subscribe(TopicModeChanged, func(payload any) {
		if mc, ok := payload.(ModeChange); ok {
			change = mc
		}
	})

	if err := h.prof.Modes.SwitchTo("Combat"); err != nil {
		t.Fatal(err)
	}
	if change.From != "Default" || change.To != "Combat" {
		t.Fatalf("change = %+v, want Default->Combat", change)
	}
}

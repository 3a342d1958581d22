package macro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/output"
	"github.com/dhalweg/joymux/internal/output/outputtest"
)

func testSinks() (Sinks, *outputtest.VJoy, *outputtest.Keyboard, *outputtest.Mouse) {
	vjoy := outputtest.NewVJoy()
	keyboard := outputtest.NewKeyboard()
	mouse := outputtest.NewMouse()
	return Sinks{VJoy: vjoy, Keyboard: keyboard, Mouse: mouse}, vjoy, keyboard, mouse
}

func stopEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop error = %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestQueuePlaysSteps(t *testing.T) {
	sinks, _, keyboard, _ := testSinks()
	e := NewEngine(sinks, nil)
	defer stopEngine(t, e)

	key := output.KeyID{ScanCode: 0x1e}
	m := &Macro{
		ID: uuid.New(),
		Steps: []Step{
			KeyStep{Key: key, Press: true},
			KeyStep{Key: key, Press: false},
		},
	}

	if err := e.Queue(m); err != nil {
		t.Fatalf("Queue error = %v", err)
	}

	waitFor(t, "macro completion", func() bool { return len(keyboard.Log()) == 2 })
	log := keyboard.Log()
	if log[0] != "press 0x1e" || log[1] != "release 0x1e" {
		t.Errorf("keyboard log = %v, want press then release", log)
	}
}

func TestQueueEmptyMacro(t *testing.T) {
	sinks, _, _, _ := testSinks()
	e := NewEngine(sinks, nil)
	defer stopEngine(t, e)

	if err := e.Queue(&Macro{ID: uuid.New()}); !errors.Is(err, ErrEmptyMacro) {
		t.Errorf("Queue empty error = %v, want ErrEmptyMacro", err)
	}
}

func TestCountRepeat(t *testing.T) {
	sinks, vjoy, _, _ := testSinks()
	e := NewEngine(sinks, nil)
	defer stopEngine(t, e)

	m := &Macro{
		ID:     uuid.New(),
		Steps:  []Step{VJoyButtonStep{Device: 1, Button: 2, Press: true}},
		Repeat: CountRepeat{Count: 3},
	}

	if err := e.Queue(m); err != nil {
		t.Fatalf("Queue error = %v", err)
	}

	waitFor(t, "three runs", func() bool { return len(vjoy.Log()) == 3 })
}

func TestToggleRepeatStopsOnSecondQueue(t *testing.T) {
	sinks, _, _, _ := testSinks()
	e := NewEngine(sinks, nil)
	defer stopEngine(t, e)

	id := uuid.New()
	m := &Macro{
		ID:     id,
		Steps:  []Step{VJoyAxisStep{Device: 1, Axis: 1, Value: 0.5}},
		Repeat: ToggleRepeat{RunDelay: time.Millisecond},
	}

	if err := e.Queue(m); err != nil {
		t.Fatalf("Queue error = %v", err)
	}
	waitFor(t, "toggle running", func() bool { return e.IsRunning(id) })

	// Second queue of the same toggle macro turns it off.
	if err := e.Queue(m); err != nil {
		t.Fatalf("second Queue error = %v", err)
	}
	waitFor(t, "toggle stopped", func() bool { return !e.IsRunning(id) })
}

func TestHoldRepeatTerminatedByRelease(t *testing.T) {
	sinks, vjoy, _, _ := testSinks()
	e := NewEngine(sinks, nil)
	defer stopEngine(t, e)

	id := uuid.New()
	m := &Macro{
		ID:     id,
		Steps:  []Step{VJoyButtonStep{Device: 1, Button: 1, Press: true}},
		Repeat: HoldRepeat{RunDelay: time.Millisecond},
	}

	if err := e.Queue(m); err != nil {
		t.Fatalf("Queue error = %v", err)
	}
	waitFor(t, "hold running", func() bool { return len(vjoy.Log()) >= 2 })

	e.TerminateHold(id)
	waitFor(t, "hold stopped", func() bool { return !e.IsRunning(id) })

	count := len(vjoy.Log())
	time.Sleep(20 * time.Millisecond)
	if len(vjoy.Log()) != count {
		t.Error("hold macro kept running after TerminateHold")
	}
}

func TestExclusiveMacroDoesNotInterleave(t *testing.T) {
	sinks, _, _, mouse := testSinks()
	e := NewEngine(sinks, nil)
	defer stopEngine(t, e)

	exclusive := &Macro{
		ID:        uuid.New(),
		Exclusive: true,
		Steps: []Step{
			MouseButtonStep{Button: output.MouseLeft, Press: true},
			PauseStep{Duration: 30 * time.Millisecond},
			MouseButtonStep{Button: output.MouseLeft, Press: false},
		},
	}
	other := &Macro{
		ID:    uuid.New(),
		Steps: []Step{MouseButtonStep{Button: output.MouseRight, Press: true}},
	}

	if err := e.Queue(exclusive); err != nil {
		t.Fatalf("Queue exclusive error = %v", err)
	}
	// Give the exclusive macro time to take the lock.
	waitFor(t, "exclusive start", func() bool { return len(mouse.Log()) >= 1 })
	if err := e.Queue(other); err != nil {
		t.Fatalf("Queue other error = %v", err)
	}

	waitFor(t, "all steps", func() bool { return len(mouse.Log()) == 3 })
	log := mouse.Log()
	if log[0] != "press left" || log[1] != "release left" || log[2] != "press right" {
		t.Errorf("mouse log = %v, want exclusive press/release before other macro", log)
	}
}

func TestErrorCallbackOnSinkFailure(t *testing.T) {
	sinks, vjoy, _, _ := testSinks()
	e := NewEngine(sinks, nil)
	defer stopEngine(t, e)

	errCh := make(chan error, 1)
	e.OnError(func(err error) { errCh <- err })

	vjoy.SetUnavailable(true)
	m := &Macro{
		ID:    uuid.New(),
		Steps: []Step{VJoyButtonStep{Device: 1, Button: 1, Press: true}},
	}
	if err := e.Queue(m); err != nil {
		t.Fatalf("Queue error = %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, output.ErrDeviceUnavailable) {
			t.Errorf("error callback got %v, want ErrDeviceUnavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error callback not invoked")
	}
}

func TestQueueAfterStop(t *testing.T) {
	sinks, _, _, _ := testSinks()
	e := NewEngine(sinks, nil)
	stopEngine(t, e)

	m := &Macro{ID: uuid.New(), Steps: []Step{MouseMotionStep{DX: 1}}}
	if err := e.Queue(m); !errors.Is(err, ErrEngineStopped) {
		t.Errorf("Queue after Stop error = %v, want ErrEngineStopped", err)
	}
}

package actions

import (
	"encoding/xml"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/macro"
	"github.com/dhalweg/joymux/internal/output"
)

// roundTrip marshals a node through the XML layer and back.
func roundTrip(t *testing.T, d action.Data) action.Data {
	t.Helper()

	n, err := action.MarshalData(d)
	if err != nil {
		t.Fatalf("MarshalData() error = %v", err)
	}
	raw, err := xml.Marshal(n)
	if err != nil {
		t.Fatalf("xml.Marshal() error = %v", err)
	}
	var decoded action.Node
	if err := xml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("xml.Unmarshal() error = %v", err)
	}
	back, err := action.UnmarshalData(&decoded)
	if err != nil {
		t.Fatalf("UnmarshalData() error = %v", err)
	}
	return back
}

func TestRoundTripAllKinds(t *testing.T) {
	device := uuid.New()
	axisKey := func(id int) input.EventKey {
		return input.EventKey{Device: device, Type: input.TypeAxis, Identifier: id}
	}

	description := NewDescriptionData()
	description.Text = "primary fire"

	condition := NewConditionData()
	condition.Operator = OperatorAny
	condition.Conditions = []ConditionSpec{
		{
			Comparator: ComparatorPressed,
			Inputs:     []input.EventKey{{Device: device, Type: input.TypeButton, Identifier: 3}},
			Pressed:    true,
		},
		{
			Comparator: ComparatorRange,
			Inputs:     []input.EventKey{axisKey(1)},
			Low:        -0.25,
			High:       0.75,
		},
		{
			Comparator: ComparatorDirection,
			Inputs:     []input.EventKey{{Device: device, Type: input.TypeHat, Identifier: 1}},
			Directions: []input.HatDirection{input.HatNorth, input.HatSouthWest},
		},
	}

	tempo := NewTempoData()
	tempo.Threshold = 0.75
	tempo.ActivateOn = ActivateOnPress

	merge := NewMergeAxisData()
	merge.Operation = MergeMaximum
	merge.Axis1 = axisKey(1)
	merge.Axis2 = axisKey(2)

	vjoy := NewMapToVJoyData()
	vjoy.Device = 3
	vjoy.Input = 7
	vjoy.Output = input.TypeAxis
	vjoy.AxisMode = AxisRelative
	vjoy.Scaling = 250

	keyboard := NewMapToKeyboardData()
	keyboard.Keys = []KeySpec{
		{Key: output.KeyID{ScanCode: 0x2A}, Modifier: true},
		{Key: output.KeyID{ScanCode: 0x1E}},
	}

	mouse := NewMapToMouseData()
	mouse.Mode = MouseModeMotion
	mouse.DirectionDeg = 135
	mouse.MinSpeed = 4
	mouse.MaxSpeed = 40
	mouse.TimeToMax = 2.5

	io := NewMapToIOData()
	io.Target = uuid.New()

	pause := NewPauseResumeData()
	pause.Action = PauseActionResume

	changeMode := NewChangeModeData()
	changeMode.Variant = ModeChangeCycle
	changeMode.CycleModes = []string{"Default", "Combat", "Landing"}

	macroData := NewMacroData()
	macroData.Exclusive = true
	macroData.RepeatTag = "count"
	macroData.RepeatCount = 3
	macroData.RepeatDelay = 0.25
	macroData.Steps = []macro.Step{
		macro.KeyStep{Key: output.KeyID{ScanCode: 0x1C}, Press: true},
		macro.PauseStep{Duration: 250 * time.Millisecond},
		macro.KeyStep{Key: output.KeyID{ScanCode: 0x1C}, Press: false},
		macro.MouseButtonStep{Button: output.MouseMiddle, Press: true},
		macro.MouseMotionStep{DX: 5, DY: -3},
		macro.VJoyButtonStep{Device: 2, Button: 8, Press: true},
		macro.VJoyAxisStep{Device: 2, Axis: 1, Value: -0.5},
		macro.VJoyHatStep{Device: 2, Hat: 1, Direction: input.HatEast},
	}

	speech := NewSpeechData()
	speech.Text = "gear down"

	script := NewScriptData()
	script.Source = "function process(event) end"

	for _, d := range []action.Data{
		NewRootData(), description, condition, tempo, merge,
		vjoy, keyboard, mouse, io, pause, changeMode, macroData, speech, script,
	} {
		d := d
		t.Run(d.Tag(), func(t *testing.T) {
			d.SetBehavior(input.TypeButton)
			back := roundTrip(t, d)

			if back.ID() != d.ID() {
				t.Errorf("ID = %s, want %s", back.ID(), d.ID())
			}
			if back.Behavior() != d.Behavior() {
				t.Errorf("Behavior = %v, want %v", back.Behavior(), d.Behavior())
			}
			if !reflect.DeepEqual(back, d) {
				t.Errorf("round trip mismatch:\n got %#v\nwant %#v", back, d)
			}
		})
	}
}

func TestRoundTripReferenceKeepsTarget(t *testing.T) {
	ref := NewReferenceData()
	target := uuid.New()
	if err := ref.SetTarget(target); err != nil {
		t.Fatal(err)
	}
	ref.SetBehavior(input.TypeButton)

	back := roundTrip(t, ref)
	refBack, ok := back.(*ReferenceData)
	if !ok {
		t.Fatalf("round trip type = %T, want *ReferenceData", back)
	}
	if refBack.Target() != target {
		t.Errorf("Target = %s, want %s", refBack.Target(), target)
	}
}

package actions

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// buildCondition wires a condition node with probes in both branches.
func buildCondition(t *testing.T, env *testEnv, data *ConditionData) (ifRec, elseRec *recorder) {
	t.Helper()

	ifRec = &recorder{}
	elseRec = &recorder{}
	ifProbe := newProbe(ifRec)
	elseProbe := newProbe(elseRec)

	env.add(t, data)
	env.add(t, ifProbe)
	env.add(t, elseProbe)
	if err := env.lib.Insert(data.ID(), ContainerIf, ifProbe.ID(), -1); err != nil {
		t.Fatal(err)
	}
	if err := env.lib.Insert(data.ID(), ContainerElse, elseProbe.ID(), -1); err != nil {
		t.Fatal(err)
	}
	return ifRec, elseRec
}

func TestConditionAllAndAny(t *testing.T) {
	device := uuid.New()
	trigger := input.NewButtonEvent(device, 1, true)
	otherKey := input.EventKey{Device: device, Type: input.TypeButton, Identifier: 2}

	// One condition true (the trigger is pressed), one false (the other
	// button is not).
	specs := []ConditionSpec{
		{Comparator: ComparatorPressed, Inputs: []input.EventKey{trigger.Key()}, Pressed: true},
		{Comparator: ComparatorPressed, Inputs: []input.EventKey{otherKey}, Pressed: true},
	}

	for _, tc := range []struct {
		operator string
		wantIf   bool
	}{
		{OperatorAll, false},
		{OperatorAny, true},
	} {
		t.Run(tc.operator, func(t *testing.T) {
			env := newTestEnv(t)
			env.state.set(otherKey, false)

			data := NewConditionData()
			data.Operator = tc.operator
			data.Conditions = specs
			ifRec, elseRec := buildCondition(t, env, data)

			f := env.functor(t, data.ID())
			if err := f.Process(trigger, input.ValueFromEvent(trigger)); err != nil {
				t.Fatal(err)
			}

			if tc.wantIf && (ifRec.count() != 1 || elseRec.count() != 0) {
				t.Errorf("if=%d else=%d, want if branch", ifRec.count(), elseRec.count())
			}
			if !tc.wantIf && (ifRec.count() != 0 || elseRec.count() != 1) {
				t.Errorf("if=%d else=%d, want else branch", ifRec.count(), elseRec.count())
			}
		})
	}
}

func TestConditionRangeBoundariesInclusive(t *testing.T) {
	device := uuid.New()

	for _, value := range []float64{0.2, 0.9} {
		env := newTestEnv(t)
		trigger := input.NewAxisEvent(device, 1, value)

		data := NewConditionData()
		data.Conditions = []ConditionSpec{{
			Comparator: ComparatorRange,
			Inputs:     []input.EventKey{trigger.Key()},
			Low:        0.2,
			High:       0.9,
		}}
		ifRec, elseRec := buildCondition(t, env, data)

		f := env.functor(t, data.ID())
		if err := f.Process(trigger, input.ValueFromEvent(trigger)); err != nil {
			t.Fatal(err)
		}

		if ifRec.count() != 1 || elseRec.count() != 0 {
			t.Errorf("value %g: if=%d else=%d, want boundary inside range", value, ifRec.count(), elseRec.count())
		}
	}
}

func TestConditionRangeSwapsInvertedBounds(t *testing.T) {
	spec := ConditionSpec{Comparator: ComparatorRange, Low: 0.9, High: 0.2}
	spec.normalize()

	if spec.Low != 0.2 || spec.High != 0.9 {
		t.Errorf("normalize() = %g..%g, want 0.2..0.9", spec.Low, spec.High)
	}
}

func TestConditionInvertedBoundsNormalizedAtConstruction(t *testing.T) {
	device := uuid.New()
	env := newTestEnv(t)
	trigger := input.NewAxisEvent(device, 1, 0.5)

	// Bounds given the wrong way round, as a caller building the node in
	// code might. The functor sees them normalized.
	data := NewConditionData()
	data.Conditions = []ConditionSpec{{
		Comparator: ComparatorRange,
		Inputs:     []input.EventKey{trigger.Key()},
		Low:        0.9,
		High:       0.2,
	}}
	ifRec, elseRec := buildCondition(t, env, data)

	f := env.functor(t, data.ID())
	if err := f.Process(trigger, input.ValueFromEvent(trigger)); err != nil {
		t.Fatal(err)
	}

	if ifRec.count() != 1 || elseRec.count() != 0 {
		t.Errorf("if=%d else=%d, want value inside the swapped range", ifRec.count(), elseRec.count())
	}
}

func TestConditionDirection(t *testing.T) {
	device := uuid.New()
	env := newTestEnv(t)
	trigger := input.NewHatEvent(device, 1, input.HatNorthEast)

	data := NewConditionData()
	data.Conditions = []ConditionSpec{{
		Comparator: ComparatorDirection,
		Inputs:     []input.EventKey{trigger.Key()},
		Directions: []input.HatDirection{input.HatNorth, input.HatNorthEast},
	}}
	ifRec, elseRec := buildCondition(t, env, data)

	f := env.functor(t, data.ID())
	if err := f.Process(trigger, input.ValueFromEvent(trigger)); err != nil {
		t.Fatal(err)
	}
	if ifRec.count() != 1 {
		t.Error("member direction did not take the if branch")
	}

	south := input.NewHatEvent(device, 1, input.HatSouth)
	if err := f.Process(south, input.ValueFromEvent(south)); err != nil {
		t.Fatal(err)
	}
	if elseRec.count() != 1 {
		t.Error("non-member direction did not take the else branch")
	}
}

func TestConditionPressedMultipleInputsIsConjunction(t *testing.T) {
	device := uuid.New()
	env := newTestEnv(t)
	trigger := input.NewButtonEvent(device, 1, true)
	second := input.EventKey{Device: device, Type: input.TypeButton, Identifier: 2}

	data := NewConditionData()
	data.Conditions = []ConditionSpec{{
		Comparator: ComparatorPressed,
		Inputs:     []input.EventKey{trigger.Key(), second},
		Pressed:    true,
	}}
	ifRec, elseRec := buildCondition(t, env, data)
	f := env.functor(t, data.ID())

	env.state.set(second, false)
	if err := f.Process(trigger, input.ValueFromEvent(trigger)); err != nil {
		t.Fatal(err)
	}
	if elseRec.count() != 1 {
		t.Error("one released input should fail the conjunction")
	}

	env.state.set(second, true)
	if err := f.Process(trigger, input.ValueFromEvent(trigger)); err != nil {
		t.Fatal(err)
	}
	if ifRec.count() != 1 {
		t.Error("all pressed inputs should pass the conjunction")
	}
}

func TestConditionValidateRejectsNoInputs(t *testing.T) {
	data := NewConditionData()
	data.Conditions = []ConditionSpec{{Comparator: ComparatorPressed}}

	if err := data.Validate(nil); !errors.Is(err, action.ErrInvalidData) {
		t.Errorf("Validate() error = %v, want ErrInvalidData", err)
	}
}

func TestConditionValidateRejectsNoTests(t *testing.T) {
	data := NewConditionData()
	if err := data.Validate(nil); !errors.Is(err, action.ErrInvalidData) {
		t.Errorf("Validate() error = %v, want ErrInvalidData", err)
	}
}

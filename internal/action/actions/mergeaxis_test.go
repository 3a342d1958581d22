package actions

import (
	"testing"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/input"
)

func TestMergeAxisOperations(t *testing.T) {
	device := uuid.New()
	axis1 := input.EventKey{Device: device, Type: input.TypeAxis, Identifier: 1}
	axis2 := input.EventKey{Device: device, Type: input.TypeAxis, Identifier: 2}

	for _, tc := range []struct {
		operation string
		want      float64
	}{
		{MergeMaximum, 0.8},
		{MergeMinimum, 0.2},
		{MergeAverage, 0.5},
	} {
		t.Run(tc.operation, func(t *testing.T) {
			env := newTestEnv(t)

			rec := &recorder{}
			probe := newProbe(rec)
			merge := NewMergeAxisData()
			merge.Operation = tc.operation
			merge.Axis1 = axis1
			merge.Axis2 = axis2

			env.add(t, merge)
			env.add(t, probe)
			if err := env.lib.Insert(merge.ID(), ContainerChildren, probe.ID(), -1); err != nil {
				t.Fatal(err)
			}
			f := env.functor(t, merge.ID())

			ev1 := input.NewAxisEvent(device, 1, 0.2)
			if err := f.Process(ev1, input.ValueFromEvent(ev1)); err != nil {
				t.Fatal(err)
			}
			ev2 := input.NewAxisEvent(device, 2, 0.8)
			if err := f.Process(ev2, input.ValueFromEvent(ev2)); err != nil {
				t.Fatal(err)
			}

			got, ok := rec.lastValue().(float64)
			if !ok {
				t.Fatalf("combined value = %T, want float64", rec.lastValue())
			}
			if got != tc.want {
				t.Errorf("combined value = %g, want %g", got, tc.want)
			}
		})
	}
}

func TestMergeAxisSharedInstanceKeepsOneState(t *testing.T) {
	device := uuid.New()
	env := newTestEnv(t)

	rec := &recorder{}
	probe := newProbe(rec)
	merge := NewMergeAxisData()
	merge.Operation = MergeMaximum
	merge.Axis1 = input.EventKey{Device: device, Type: input.TypeAxis, Identifier: 1}
	merge.Axis2 = input.EventKey{Device: device, Type: input.TypeAxis, Identifier: 2}

	env.add(t, merge)
	env.add(t, probe)
	if err := env.lib.Insert(merge.ID(), ContainerChildren, probe.ID(), -1); err != nil {
		t.Fatal(err)
	}

	// Two bindings referencing the same node resolve to one functor, so
	// the second binding sees the value the first one recorded.
	f1 := env.functor(t, merge.ID())
	f2 := env.functor(t, merge.ID())
	if f1 != f2 {
		t.Fatal("shared merge node built two functors")
	}

	ev1 := input.NewAxisEvent(device, 1, 0.2)
	if err := f1.Process(ev1, input.ValueFromEvent(ev1)); err != nil {
		t.Fatal(err)
	}
	ev2 := input.NewAxisEvent(device, 2, 0.8)
	if err := f2.Process(ev2, input.ValueFromEvent(ev2)); err != nil {
		t.Fatal(err)
	}

	if got := rec.lastValue().(float64); got != 0.8 {
		t.Errorf("combined value = %g, want 0.8 from the shared pair state", got)
	}
}

func TestMergeAxisIgnoresOtherInputs(t *testing.T) {
	device := uuid.New()
	env := newTestEnv(t)

	rec := &recorder{}
	probe := newProbe(rec)
	merge := NewMergeAxisData()
	merge.Axis1 = input.EventKey{Device: device, Type: input.TypeAxis, Identifier: 1}
	merge.Axis2 = input.EventKey{Device: device, Type: input.TypeAxis, Identifier: 2}

	env.add(t, merge)
	env.add(t, probe)
	if err := env.lib.Insert(merge.ID(), ContainerChildren, probe.ID(), -1); err != nil {
		t.Fatal(err)
	}
	f := env.functor(t, merge.ID())

	stray := input.NewAxisEvent(device, 7, 1.0)
	if err := f.Process(stray, input.ValueFromEvent(stray)); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 0 {
		t.Error("unconfigured source reached the children")
	}
}

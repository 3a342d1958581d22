package actions

import (
	"fmt"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagCondition is the serialization tag of the condition action.
const TagCondition = "condition"

// Condition containers.
const (
	ContainerIf   = "if-actions"
	ContainerElse = "else-actions"
)

// Logical operators combining multiple conditions.
const (
	OperatorAll = "all"
	OperatorAny = "any"
)

// Comparator tags.
const (
	ComparatorPressed   = "pressed"
	ComparatorRange     = "range"
	ComparatorDirection = "direction"
)

func init() {
	action.Register(action.Kind{
		Tag:        TagCondition,
		New:        func() action.Data { return NewConditionData() },
		NewFunctor: newConditionFunctor,
	})
}

// ConditionSpec is one monitored test: a set of inputs and the comparator
// applied to them. Multiple inputs under one spec are a conjunction.
type ConditionSpec struct {
	// Comparator selects the test.
	Comparator string

	// Inputs are the monitored inputs.
	Inputs []input.EventKey

	// Pressed is the target state for the pressed comparator.
	Pressed bool

	// Low and High bound the range comparator, inclusive both ends.
	Low, High float64

	// Directions is the accepted set for the direction comparator.
	Directions []input.HatDirection
}

// normalize fixes inverted range bounds.
func (c *ConditionSpec) normalize() {
	if c.Comparator == ComparatorRange && c.Low > c.High {
		c.Low, c.High = c.High, c.Low
	}
}

// evaluate tests the spec against the triggering event. Inputs other than
// the trigger are read from the live state provider; an input with no known
// state fails the test.
func (c *ConditionSpec) evaluate(ev input.Event, val *input.Value, state action.StateProvider) bool {
	for _, key := range c.Inputs {
		var v *input.Value
		if key == ev.Key() {
			v = val
		} else {
			if state == nil {
				return false
			}
			live, ok := state.LastValue(key)
			if !ok {
				return false
			}
			v = &live
		}
		if !c.test(v) {
			return false
		}
	}
	return true
}

func (c *ConditionSpec) test(v *input.Value) bool {
	switch c.Comparator {
	case ComparatorPressed:
		return v.Bool() == c.Pressed
	case ComparatorRange:
		x := v.Float()
		return c.Low <= x && x <= c.High
	case ComparatorDirection:
		h := v.Hat()
		for _, d := range c.Directions {
			if h == d {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ConditionData dispatches to its if-actions when the combined condition
// holds and to its else-actions otherwise.
type ConditionData struct {
	action.Base

	// Operator combines the condition results: all or any.
	Operator string

	// Conditions are evaluated in order.
	Conditions []ConditionSpec
}

// NewConditionData creates a condition with the all operator and no tests.
func NewConditionData() *ConditionData {
	return &ConditionData{
		Base:     action.NewBase(ContainerIf, ContainerElse),
		Operator: OperatorAll,
	}
}

// Tag implements action.Data.
func (d *ConditionData) Tag() string { return TagCondition }

// Validate implements action.Data.
func (d *ConditionData) Validate(*action.Library) error {
	if d.Operator != OperatorAll && d.Operator != OperatorAny {
		return fmt.Errorf("%w: condition operator %q", action.ErrInvalidData, d.Operator)
	}
	if len(d.Conditions) == 0 {
		return fmt.Errorf("%w: condition with no tests", action.ErrInvalidData)
	}
	for i, c := range d.Conditions {
		if len(c.Inputs) == 0 {
			return fmt.Errorf("%w: condition %d monitors no inputs", action.ErrInvalidData, i)
		}
		switch c.Comparator {
		case ComparatorPressed, ComparatorRange:
		case ComparatorDirection:
			if len(c.Directions) == 0 {
				return fmt.Errorf("%w: condition %d accepts no directions", action.ErrInvalidData, i)
			}
		default:
			return fmt.Errorf("%w: condition %d comparator %q", action.ErrInvalidData, i, c.Comparator)
		}
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *ConditionData) EncodeProperties(bag *action.Bag) error {
	bag.SetSelection("operator", d.Operator)
	for _, c := range d.Conditions {
		cond := c
		bag.AddGroup("condition", func(b *action.Bag) {
			b.SetSelection("comparator", cond.Comparator)
			for _, key := range cond.Inputs {
				k := key
				b.AddGroup("input", func(ib *action.Bag) {
					ib.SetUUID("device", k.Device)
					ib.SetInputType("type", k.Type)
					ib.SetInt("identifier", k.Identifier)
				})
			}
			switch cond.Comparator {
			case ComparatorPressed:
				b.SetBool("state", cond.Pressed)
			case ComparatorRange:
				b.SetFloat("low", cond.Low)
				b.SetFloat("high", cond.High)
			case ComparatorDirection:
				tags := make([]string, len(cond.Directions))
				for i, dir := range cond.Directions {
					tags[i] = dir.String()
				}
				b.SetList("directions", tags)
			}
		})
	}
	return nil
}

// DecodeProperties implements action.Data.
func (d *ConditionData) DecodeProperties(bag *action.Bag) error {
	op, err := bag.Selection("operator", OperatorAll, OperatorAny)
	if err != nil {
		return err
	}
	d.Operator = op

	d.Conditions = nil
	for _, g := range bag.Groups("condition") {
		var c ConditionSpec
		c.Comparator, err = g.Selection("comparator", ComparatorPressed, ComparatorRange, ComparatorDirection)
		if err != nil {
			return err
		}
		for _, ig := range g.Groups("input") {
			var key input.EventKey
			if key.Device, err = ig.UUID("device"); err != nil {
				return err
			}
			if key.Type, err = ig.InputType("type"); err != nil {
				return err
			}
			if key.Identifier, err = ig.Int("identifier"); err != nil {
				return err
			}
			c.Inputs = append(c.Inputs, key)
		}
		switch c.Comparator {
		case ComparatorPressed:
			if c.Pressed, err = g.Bool("state"); err != nil {
				return err
			}
		case ComparatorRange:
			if c.Low, err = g.Float("low"); err != nil {
				return err
			}
			if c.High, err = g.Float("high"); err != nil {
				return err
			}
			c.normalize()
		case ComparatorDirection:
			tags, err := g.List("directions")
			if err != nil {
				return err
			}
			for _, tag := range tags {
				dir, err := input.ParseHatDirection(tag)
				if err != nil {
					return err
				}
				c.Directions = append(c.Directions, dir)
			}
		}
		d.Conditions = append(d.Conditions, c)
	}
	return nil
}

type conditionFunctor struct {
	data       *ConditionData
	state      action.StateProvider
	ifBranch   []action.Functor
	elseBranch []action.Functor
}

func newConditionFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*ConditionData)
	if !ok {
		return nil, fmt.Errorf("%w: condition functor given %T", action.ErrInvalidData, d)
	}
	// Decoded specs are normalized on load; programmatically built ones
	// get the same treatment here.
	for i := range data.Conditions {
		data.Conditions[i].normalize()
	}
	ifBranch, err := sys.ChildFunctors(d, ContainerIf)
	if err != nil {
		return nil, err
	}
	elseBranch, err := sys.ChildFunctors(d, ContainerElse)
	if err != nil {
		return nil, err
	}
	return &conditionFunctor{
		data:       data,
		state:      sys.Joystick,
		ifBranch:   ifBranch,
		elseBranch: elseBranch,
	}, nil
}

// Process implements action.Functor.
func (f *conditionFunctor) Process(ev input.Event, val *input.Value) error {
	result := f.data.Operator == OperatorAll
	for _, c := range f.data.Conditions {
		hit := c.evaluate(ev, val, f.state)
		if f.data.Operator == OperatorAll {
			result = result && hit
			if !result {
				break
			}
		} else {
			result = result || hit
			if result {
				break
			}
		}
	}

	if result {
		return action.ProcessAll(f.ifBranch, ev, val)
	}
	return action.ProcessAll(f.elseBranch, ev, val)
}

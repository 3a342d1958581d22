package actions

import (
	"fmt"
	"time"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/macro"
	"github.com/dhalweg/joymux/internal/output"
)

// TagMacro is the serialization tag of the macro action.
const TagMacro = "macro"

func init() {
	action.Register(action.Kind{
		Tag:        TagMacro,
		New:        func() action.Data { return NewMacroData() },
		NewFunctor: newMacroFunctor,
	})
}

// MacroData embeds a step sequence and its playback policy. Pressing the
// bound input queues the macro; a hold-repeat macro stops when the input is
// released.
type MacroData struct {
	action.Base

	// Steps is the sequence to play.
	Steps []macro.Step

	// Exclusive macros never interleave with other macros.
	Exclusive bool

	// RepeatTag and RepeatCount/RepeatDelay describe the repeat policy;
	// an empty tag plays the sequence once.
	RepeatTag   string
	RepeatCount int
	RepeatDelay float64
}

// NewMacroData creates an empty macro.
func NewMacroData() *MacroData {
	return &MacroData{Base: action.NewBase()}
}

// Tag implements action.Data.
func (d *MacroData) Tag() string { return TagMacro }

// Repeat builds the policy value from the persisted fields.
func (d *MacroData) Repeat() macro.Repeat {
	delay := time.Duration(d.RepeatDelay * float64(time.Second))
	switch d.RepeatTag {
	case "count":
		return macro.CountRepeat{Count: d.RepeatCount, RunDelay: delay}
	case "toggle":
		return macro.ToggleRepeat{RunDelay: delay}
	case "hold":
		return macro.HoldRepeat{RunDelay: delay}
	default:
		return nil
	}
}

// Validate implements action.Data.
func (d *MacroData) Validate(*action.Library) error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: macro with no steps", action.ErrInvalidData)
	}
	switch d.RepeatTag {
	case "", "toggle", "hold":
	case "count":
		if d.RepeatCount < 1 {
			return fmt.Errorf("%w: macro repeat count %d", action.ErrInvalidData, d.RepeatCount)
		}
	default:
		return fmt.Errorf("%w: macro repeat %q", action.ErrInvalidData, d.RepeatTag)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *MacroData) EncodeProperties(bag *action.Bag) error {
	bag.SetBool("exclusive", d.Exclusive)
	bag.SetString("repeat", d.RepeatTag)
	bag.SetInt("repeat-count", d.RepeatCount)
	bag.SetFloat("repeat-delay", d.RepeatDelay)

	for _, step := range d.Steps {
		s := step
		bag.AddGroup("step", func(b *action.Bag) {
			b.SetString("kind", s.Tag())
			encodeStep(b, s)
		})
	}
	return nil
}

func encodeStep(b *action.Bag, step macro.Step) {
	switch s := step.(type) {
	case macro.KeyStep:
		b.SetInt("scan-code", s.Key.ScanCode)
		b.SetBool("extended", s.Key.Extended)
		b.SetBool("press", s.Press)
	case macro.MouseButtonStep:
		b.SetString("button", s.Button.String())
		b.SetBool("press", s.Press)
	case macro.MouseMotionStep:
		b.SetInt("dx", s.DX)
		b.SetInt("dy", s.DY)
	case macro.PauseStep:
		b.SetFloat("seconds", s.Duration.Seconds())
	case macro.VJoyButtonStep:
		b.SetInt("device", int(s.Device))
		b.SetInt("button", s.Button)
		b.SetBool("press", s.Press)
	case macro.VJoyAxisStep:
		b.SetInt("device", int(s.Device))
		b.SetInt("axis", s.Axis)
		b.SetFloat("value", s.Value)
	case macro.VJoyHatStep:
		b.SetInt("device", int(s.Device))
		b.SetInt("hat", s.Hat)
		b.SetHatDirection("direction", s.Direction)
	}
}

// DecodeProperties implements action.Data.
func (d *MacroData) DecodeProperties(bag *action.Bag) error {
	exclusive, err := bag.Bool("exclusive")
	if err != nil {
		return err
	}
	repeatTag, err := bag.String("repeat")
	if err != nil {
		return err
	}
	repeatCount, err := bag.Int("repeat-count")
	if err != nil {
		return err
	}
	repeatDelay, err := bag.Float("repeat-delay")
	if err != nil {
		return err
	}
	d.Exclusive = exclusive
	d.RepeatTag = repeatTag
	d.RepeatCount = repeatCount
	d.RepeatDelay = repeatDelay

	d.Steps = nil
	for _, g := range bag.Groups("step") {
		step, err := decodeStep(g)
		if err != nil {
			return err
		}
		d.Steps = append(d.Steps, step)
	}
	return nil
}

func decodeStep(b *action.Bag) (macro.Step, error) {
	kind, err := b.String("kind")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "key":
		scan, err := b.Int("scan-code")
		if err != nil {
			return nil, err
		}
		extended, err := b.Bool("extended")
		if err != nil {
			return nil, err
		}
		press, err := b.Bool("press")
		if err != nil {
			return nil, err
		}
		return macro.KeyStep{Key: output.KeyID{ScanCode: scan, Extended: extended}, Press: press}, nil

	case "mouse-button":
		tag, err := b.String("button")
		if err != nil {
			return nil, err
		}
		button, err := output.ParseMouseButton(tag)
		if err != nil {
			return nil, err
		}
		press, err := b.Bool("press")
		if err != nil {
			return nil, err
		}
		return macro.MouseButtonStep{Button: button, Press: press}, nil

	case "mouse-motion":
		dx, err := b.Int("dx")
		if err != nil {
			return nil, err
		}
		dy, err := b.Int("dy")
		if err != nil {
			return nil, err
		}
		return macro.MouseMotionStep{DX: dx, DY: dy}, nil

	case "pause":
		seconds, err := b.Float("seconds")
		if err != nil {
			return nil, err
		}
		return macro.PauseStep{Duration: time.Duration(seconds * float64(time.Second))}, nil

	case "vjoy-button":
		device, err := b.Int("device")
		if err != nil {
			return nil, err
		}
		button, err := b.Int("button")
		if err != nil {
			return nil, err
		}
		press, err := b.Bool("press")
		if err != nil {
			return nil, err
		}
		return macro.VJoyButtonStep{Device: output.VJoyDeviceID(device), Button: button, Press: press}, nil

	case "vjoy-axis":
		device, err := b.Int("device")
		if err != nil {
			return nil, err
		}
		axis, err := b.Int("axis")
		if err != nil {
			return nil, err
		}
		value, err := b.Float("value")
		if err != nil {
			return nil, err
		}
		return macro.VJoyAxisStep{Device: output.VJoyDeviceID(device), Axis: axis, Value: value}, nil

	case "vjoy-hat":
		device, err := b.Int("device")
		if err != nil {
			return nil, err
		}
		hat, err := b.Int("hat")
		if err != nil {
			return nil, err
		}
		direction, err := b.HatDirection("direction")
		if err != nil {
			return nil, err
		}
		return macro.VJoyHatStep{Device: output.VJoyDeviceID(device), Hat: hat, Direction: direction}, nil

	default:
		return nil, fmt.Errorf("%w: macro step kind %q", action.ErrPropertyType, kind)
	}
}

type macroFunctor struct {
	data *MacroData
	sys  *action.System
}

func newMacroFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*MacroData)
	if !ok {
		return nil, fmt.Errorf("%w: macro functor given %T", action.ErrInvalidData, d)
	}
	if sys.Macros == nil {
		return nil, fmt.Errorf("%w: no macro engine", action.ErrInvalidData)
	}
	return &macroFunctor{data: data, sys: sys}, nil
}

// Process implements action.Functor.
func (f *macroFunctor) Process(ev input.Event, val *input.Value) error {
	if !val.Bool() {
		return nil
	}

	repeat := f.data.Repeat()
	m := &macro.Macro{
		ID:        f.data.ID(),
		Steps:     f.data.Steps,
		Exclusive: f.data.Exclusive,
		Repeat:    repeat,
	}
	if err := f.sys.Macros.Queue(m); err != nil {
		return err
	}

	if _, isHold := repeat.(macro.HoldRepeat); isHold && f.sys.Releases != nil {
		macros, id := f.sys.Macros, f.data.ID()
		f.sys.Releases.OnRelease(ev.Key(), func() {
			macros.TerminateHold(id)
		})
	}
	return nil
}

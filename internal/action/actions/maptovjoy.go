package actions

import (
	"fmt"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/motion"
	"github.com/dhalweg/joymux/internal/output"
)

// TagMapToVJoy is the serialization tag of the vjoy mapping action.
const TagMapToVJoy = "map-to-vjoy"

// Axis output modes.
const (
	AxisAbsolute = "absolute"
	AxisRelative = "relative"
)

func init() {
	action.Register(action.Kind{
		Tag:        TagMapToVJoy,
		New:        func() action.Data { return NewMapToVJoyData() },
		NewFunctor: newMapToVJoyFunctor,
	})
}

// MapToVJoyData writes the processed value to a virtual joystick input.
type MapToVJoyData struct {
	action.Base

	// Device is the target virtual device.
	Device output.VJoyDeviceID

	// Input is the axis, button, or hat number on the device.
	Input int

	// Output selects the target input category.
	Output input.Type

	// AxisMode selects absolute or relative axis writes.
	AxisMode string

	// Scaling is the relative-mode speed factor.
	Scaling float64
}

// NewMapToVJoyData creates a mapping to device 1 axis 1 in absolute mode.
func NewMapToVJoyData() *MapToVJoyData {
	return &MapToVJoyData{
		Base:     action.NewBase(),
		Device:   1,
		Input:    1,
		Output:   input.TypeAxis,
		AxisMode: AxisAbsolute,
		Scaling:  1.0,
	}
}

// Tag implements action.Data.
func (d *MapToVJoyData) Tag() string { return TagMapToVJoy }

// Validate implements action.Data.
func (d *MapToVJoyData) Validate(*action.Library) error {
	if d.Device < 1 {
		return fmt.Errorf("%w: vjoy device %d", action.ErrInvalidData, d.Device)
	}
	if d.Input < 1 {
		return fmt.Errorf("%w: vjoy input %d", action.ErrInvalidData, d.Input)
	}
	switch d.Output {
	case input.TypeAxis:
		if d.AxisMode != AxisAbsolute && d.AxisMode != AxisRelative {
			return fmt.Errorf("%w: axis mode %q", action.ErrInvalidData, d.AxisMode)
		}
	case input.TypeButton, input.TypeHat:
	default:
		return fmt.Errorf("%w: vjoy output type %s", action.ErrInvalidData, d.Output)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *MapToVJoyData) EncodeProperties(bag *action.Bag) error {
	bag.SetInt("device", int(d.Device))
	bag.SetInt("input", d.Input)
	bag.SetInputType("output", d.Output)
	bag.SetSelection("axis-mode", d.AxisMode)
	bag.SetFloat("scaling", d.Scaling)
	return nil
}

// DecodeProperties implements action.Data.
func (d *MapToVJoyData) DecodeProperties(bag *action.Bag) error {
	device, err := bag.Int("device")
	if err != nil {
		return err
	}
	in, err := bag.Int("input")
	if err != nil {
		return err
	}
	out, err := bag.InputType("output")
	if err != nil {
		return err
	}
	axisMode, err := bag.Selection("axis-mode", AxisAbsolute, AxisRelative)
	if err != nil {
		return err
	}
	scaling, err := bag.Float("scaling")
	if err != nil {
		return err
	}
	d.Device = output.VJoyDeviceID(device)
	d.Input = in
	d.Output = out
	d.AxisMode = axisMode
	d.Scaling = scaling
	return nil
}

type mapToVJoyFunctor struct {
	data *MapToVJoyData
	sys  *action.System

	// ramper drives relative axis mode; nil otherwise.
	ramper *motion.Ramper
}

func newMapToVJoyFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*MapToVJoyData)
	if !ok {
		return nil, fmt.Errorf("%w: vjoy functor given %T", action.ErrInvalidData, d)
	}
	f := &mapToVJoyFunctor{data: data, sys: sys}
	if data.Output == input.TypeAxis && data.AxisMode == AxisRelative {
		f.ramper = motion.NewRamper(sys.VJoy, data.Device, data.Input, sys.ReportError, sys.Log)
	}
	return f, nil
}

// Process implements action.Functor.
func (f *mapToVJoyFunctor) Process(ev input.Event, val *input.Value) error {
	switch f.data.Output {
	case input.TypeAxis:
		if f.ramper != nil {
			f.ramper.Update(val.Float(), f.data.Scaling)
			return nil
		}
		return f.sys.VJoy.SetAxis(f.data.Device, f.data.Input, val.Float())

	case input.TypeButton:
		pressed := val.Bool()
		if err := f.sys.VJoy.SetButton(f.data.Device, f.data.Input, pressed); err != nil {
			return err
		}
		if pressed && f.sys.Releases != nil {
			// The release must clear the button even if the chain is
			// reconfigured while it is held.
			device, button := f.data.Device, f.data.Input
			vjoy, report := f.sys.VJoy, f.sys.ReportError
			f.sys.Releases.OnRelease(ev.Key(), func() {
				if err := vjoy.SetButton(device, button, false); err != nil {
					report(err)
				}
			})
		}
		return nil

	case input.TypeHat:
		return f.sys.VJoy.SetHat(f.data.Device, f.data.Input, val.Hat())

	default:
		return fmt.Errorf("%w: vjoy output type %s", action.ErrInvalidState, f.data.Output)
	}
}

// Close implements action.Closer.
func (f *mapToVJoyFunctor) Close() error {
	if f.ramper != nil {
		f.ramper.Stop()
	}
	return nil
}

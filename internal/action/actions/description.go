package actions

import (
	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagDescription is the serialization tag of the description action.
const TagDescription = "description"

func init() {
	action.Register(action.Kind{
		Tag: TagDescription,
		New: func() action.Data { return NewDescriptionData() },
		NewFunctor: func(d action.Data, sys *action.System) (action.Functor, error) {
			return descriptionFunctor{}, nil
		},
	})
}

// DescriptionData is an inert annotation node. It has no containers and no
// runtime effect; it exists so profiles can document themselves.
type DescriptionData struct {
	action.Base

	// Text is the annotation.
	Text string
}

// NewDescriptionData creates an empty description.
func NewDescriptionData() *DescriptionData {
	return &DescriptionData{Base: action.NewBase()}
}

// Tag implements action.Data.
func (d *DescriptionData) Tag() string { return TagDescription }

// Validate implements action.Data.
func (d *DescriptionData) Validate(*action.Library) error { return nil }

// EncodeProperties implements action.Data.
func (d *DescriptionData) EncodeProperties(bag *action.Bag) error {
	bag.SetString("description", d.Text)
	return nil
}

// DecodeProperties implements action.Data.
func (d *DescriptionData) DecodeProperties(bag *action.Bag) error {
	text, err := bag.String("description")
	if err != nil {
		return err
	}
	d.Text = text
	return nil
}

type descriptionFunctor struct{}

// Process implements action.Functor.
func (descriptionFunctor) Process(input.Event, *input.Value) error { return nil }

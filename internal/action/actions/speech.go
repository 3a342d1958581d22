package actions

import (
	"fmt"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagSpeech is the serialization tag of the text-to-speech action.
const TagSpeech = "speech"

func init() {
	action.Register(action.Kind{
		Tag:        TagSpeech,
		New:        func() action.Data { return NewSpeechData() },
		NewFunctor: newSpeechFunctor,
	})
}

// SpeechData speaks a fixed phrase when the input activates.
type SpeechData struct {
	action.Base

	// Text is the phrase to speak.
	Text string
}

// NewSpeechData creates a speech node with no text.
func NewSpeechData() *SpeechData {
	return &SpeechData{Base: action.NewBase()}
}

// Tag implements action.Data.
func (d *SpeechData) Tag() string { return TagSpeech }

// Validate implements action.Data.
func (d *SpeechData) Validate(*action.Library) error {
	if d.Text == "" {
		return fmt.Errorf("%w: speech with no text", action.ErrInvalidData)
	}
	return nil
}

// EncodeProperties implements action.Data.
func (d *SpeechData) EncodeProperties(bag *action.Bag) error {
	bag.SetString("text", d.Text)
	return nil
}

// DecodeProperties implements action.Data.
func (d *SpeechData) DecodeProperties(bag *action.Bag) error {
	text, err := bag.String("text")
	if err != nil {
		return err
	}
	d.Text = text
	return nil
}

type speechFunctor struct {
	data *SpeechData
	sys  *action.System
}

func newSpeechFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	data, ok := d.(*SpeechData)
	if !ok {
		return nil, fmt.Errorf("%w: speech functor given %T", action.ErrInvalidData, d)
	}
	return &speechFunctor{data: data, sys: sys}, nil
}

// Process implements action.Functor.
func (f *speechFunctor) Process(_ input.Event, val *input.Value) error {
	if !val.Bool() || f.sys.Speech == nil {
		return nil
	}
	return f.sys.Speech.Say(f.data.Text)
}

package actions

import (
	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
)

// TagRoot is the serialization tag of the root action.
const TagRoot = "root"

// ContainerChildren is the single container of a root node.
const ContainerChildren = "children"

func init() {
	action.Register(action.Kind{
		Tag:        TagRoot,
		New:        func() action.Data { return NewRootData() },
		NewFunctor: newRootFunctor,
	})
}

// RootData is the synthetic top of every action tree. It carries no
// properties of its own and passes every event to its children in order.
type RootData struct {
	action.Base
}

// NewRootData creates an empty root node.
func NewRootData() *RootData {
	return &RootData{Base: action.NewBase(ContainerChildren)}
}

// Tag implements action.Data.
func (d *RootData) Tag() string { return TagRoot }

// Validate implements action.Data.
func (d *RootData) Validate(*action.Library) error { return nil }

// EncodeProperties implements action.Data.
func (d *RootData) EncodeProperties(*action.Bag) error { return nil }

// DecodeProperties implements action.Data.
func (d *RootData) DecodeProperties(*action.Bag) error { return nil }

type rootFunctor struct {
	children []action.Functor
}

func newRootFunctor(d action.Data, sys *action.System) (action.Functor, error) {
	children, err := sys.ChildFunctors(d, ContainerChildren)
	if err != nil {
		return nil, err
	}
	return &rootFunctor{children: children}, nil
}

// Process implements action.Functor.
func (f *rootFunctor) Process(ev input.Event, val *input.Value) error {
	return action.ProcessAll(f.children, ev, val)
}

package action

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/input"
)

// Property is one typed entry of a node's property tree. Structured
// properties (conditions, key lists) nest child properties instead of
// carrying a scalar value.
type Property struct {
	Name     string     `xml:"name,attr"`
	Type     string     `xml:"type,attr,omitempty"`
	Value    string     `xml:",chardata"`
	Children []Property `xml:"property,omitempty"`
}

// Property type tags.
const (
	propString       = "string"
	propInt          = "int"
	propFloat        = "float"
	propBool         = "bool"
	propUUID         = "uuid"
	propInputType    = "input-type"
	propHatDirection = "hat-direction"
	propSelection    = "selection"
	propList         = "list"
	propGroup        = "group"
)

// Bag is a mutable view over an ordered property list with typed accessors.
// Encoding writes properties in insertion order so serialized profiles stay
// diff-stable.
type Bag struct {
	props []Property
}

// NewBag creates an empty property bag.
func NewBag() *Bag {
	return &Bag{}
}

func bagOf(props []Property) *Bag {
	return &Bag{props: props}
}

// Properties returns the bag's contents.
func (b *Bag) Properties() []Property {
	return b.props
}

func (b *Bag) find(name string) (*Property, error) {
	for i := range b.props {
		if b.props[i].Name == name {
			return &b.props[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingProperty, name)
}

func (b *Bag) add(p Property) {
	b.props = append(b.props, p)
}

// SetString stores a string property.
func (b *Bag) SetString(name, value string) {
	b.add(Property{Name: name, Type: propString, Value: value})
}

// String reads a string property.
func (b *Bag) String(name string) (string, error) {
	p, err := b.find(name)
	if err != nil {
		return "", err
	}
	return p.Value, nil
}

// SetInt stores an integer property.
func (b *Bag) SetInt(name string, value int) {
	b.add(Property{Name: name, Type: propInt, Value: strconv.Itoa(value)})
}

// Int reads an integer property.
func (b *Bag) Int(name string) (int, error) {
	p, err := b.find(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(p.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q = %q", ErrPropertyType, name, p.Value)
	}
	return v, nil
}

// SetFloat stores a float property.
func (b *Bag) SetFloat(name string, value float64) {
	b.add(Property{Name: name, Type: propFloat, Value: strconv.FormatFloat(value, 'g', -1, 64)})
}

// Float reads a float property.
func (b *Bag) Float(name string) (float64, error) {
	p, err := b.find(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q = %q", ErrPropertyType, name, p.Value)
	}
	return v, nil
}

// SetBool stores a boolean property.
func (b *Bag) SetBool(name string, value bool) {
	b.add(Property{Name: name, Type: propBool, Value: strconv.FormatBool(value)})
}

// Bool reads a boolean property.
func (b *Bag) Bool(name string) (bool, error) {
	p, err := b.find(name)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(p.Value)
	if err != nil {
		return false, fmt.Errorf("%w: %q = %q", ErrPropertyType, name, p.Value)
	}
	return v, nil
}

// SetUUID stores a uuid property.
func (b *Bag) SetUUID(name string, value uuid.UUID) {
	b.add(Property{Name: name, Type: propUUID, Value: value.String()})
}

// UUID reads a uuid property.
func (b *Bag) UUID(name string) (uuid.UUID, error) {
	p, err := b.find(name)
	if err != nil {
		return uuid.Nil, err
	}
	v, err := uuid.Parse(p.Value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q = %q", ErrPropertyType, name, p.Value)
	}
	return v, nil
}

// SetInputType stores an input type property.
func (b *Bag) SetInputType(name string, value input.Type) {
	b.add(Property{Name: name, Type: propInputType, Value: value.String()})
}

// InputType reads an input type property.
func (b *Bag) InputType(name string) (input.Type, error) {
	p, err := b.find(name)
	if err != nil {
		return input.TypeNone, err
	}
	v, err := input.ParseType(p.Value)
	if err != nil {
		return input.TypeNone, fmt.Errorf("%w: %q = %q", ErrPropertyType, name, p.Value)
	}
	return v, nil
}

// SetHatDirection stores a hat direction property.
func (b *Bag) SetHatDirection(name string, value input.HatDirection) {
	b.add(Property{Name: name, Type: propHatDirection, Value: value.String()})
}

// HatDirection reads a hat direction property.
func (b *Bag) HatDirection(name string) (input.HatDirection, error) {
	p, err := b.find(name)
	if err != nil {
		return input.HatCenter, err
	}
	v, err := input.ParseHatDirection(p.Value)
	if err != nil {
		return input.HatCenter, fmt.Errorf("%w: %q = %q", ErrPropertyType, name, p.Value)
	}
	return v, nil
}

// SetSelection stores a value constrained to a fixed set of tags. The
// caller validates membership; the codec only records the tag.
func (b *Bag) SetSelection(name, value string) {
	b.add(Property{Name: name, Type: propSelection, Value: value})
}

// Selection reads a selection property and checks it against the allowed
// tags.
func (b *Bag) Selection(name string, allowed ...string) (string, error) {
	p, err := b.find(name)
	if err != nil {
		return "", err
	}
	for _, a := range allowed {
		if p.Value == a {
			return p.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %q = %q not in %v", ErrPropertyType, name, p.Value, allowed)
}

// SetList stores an ordered list of strings.
func (b *Bag) SetList(name string, values []string) {
	children := make([]Property, len(values))
	for i, v := range values {
		children[i] = Property{Name: "item", Type: propString, Value: v}
	}
	b.add(Property{Name: name, Type: propList, Children: children})
}

// List reads an ordered list of strings.
func (b *Bag) List(name string) ([]string, error) {
	p, err := b.find(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(p.Children))
	for i, c := range p.Children {
		values[i] = c.Value
	}
	return values, nil
}

// AddGroup appends a nested property group under name; fill populates the
// child bag. Groups model structured properties like conditions and key
// lists.
func (b *Bag) AddGroup(name string, fill func(*Bag)) {
	child := NewBag()
	fill(child)
	b.add(Property{Name: name, Type: propGroup, Children: child.props})
}

// Groups returns the nested bags stored under name, in order.
func (b *Bag) Groups(name string) []*Bag {
	var groups []*Bag
	for i := range b.props {
		if b.props[i].Name == name && b.props[i].Type == propGroup {
			groups = append(groups, bagOf(b.props[i].Children))
		}
	}
	return groups
}

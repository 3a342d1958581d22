package action

import (
	"encoding/xml"
	"fmt"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/input"
)

// Node is the serialized form of one action: its kind tag, identity,
// behavior, typed properties, and container contents as id references.
type Node struct {
	XMLName    xml.Name        `xml:"action"`
	Tag        string          `xml:"type,attr"`
	ID         string          `xml:"id,attr"`
	Behavior   string          `xml:"behavior,attr,omitempty"`
	Properties []Property      `xml:"property"`
	Containers []ContainerNode `xml:"container"`
}

// ContainerNode is the serialized contents of one named container.
type ContainerNode struct {
	Name string      `xml:"name,attr"`
	Refs []ActionRef `xml:"action-ref"`
}

// ActionRef references a child action by id.
type ActionRef struct {
	ID string `xml:"id,attr"`
}

// MarshalData converts a data node into its serialized form.
func MarshalData(d Data) (*Node, error) {
	n := &Node{
		Tag:      d.Tag(),
		ID:       d.ID().String(),
		Behavior: d.Behavior().String(),
	}

	bag := NewBag()
	if err := d.EncodeProperties(bag); err != nil {
		return nil, fmt.Errorf("action: encoding %s %s: %w", d.Tag(), d.ID(), err)
	}
	n.Properties = bag.Properties()

	for _, name := range d.Containers() {
		ids, err := d.Actions(name)
		if err != nil {
			return nil, err
		}
		c := ContainerNode{Name: name}
		for _, id := range ids {
			c.Refs = append(c.Refs, ActionRef{ID: id.String()})
		}
		n.Containers = append(n.Containers, c)
	}

	return n, nil
}

// UnmarshalData reconstructs a data node from its serialized form. Child
// references are restored structurally; referential integrity against the
// library is checked by the profile loader once all nodes exist.
func UnmarshalData(n *Node) (Data, error) {
	kind, err := KindFor(n.Tag)
	if err != nil {
		return nil, err
	}

	d := kind.New()

	id, err := uuid.Parse(n.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: action id %q", ErrPropertyType, n.ID)
	}
	d.SetID(id)

	behavior, err := input.ParseType(n.Behavior)
	if err != nil {
		return nil, fmt.Errorf("action: node %s: %w", n.ID, err)
	}
	d.SetBehavior(behavior)

	for _, c := range n.Containers {
		for _, ref := range c.Refs {
			childID, err := uuid.Parse(ref.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: action ref %q", ErrPropertyType, ref.ID)
			}
			if err := d.Insert(c.Name, childID, -1); err != nil {
				return nil, fmt.Errorf("action: node %s: %w", n.ID, err)
			}
		}
	}

	if err := d.DecodeProperties(bagOf(n.Properties)); err != nil {
		return nil, fmt.Errorf("action: decoding %s %s: %w", n.Tag, n.ID, err)
	}

	return d, nil
}

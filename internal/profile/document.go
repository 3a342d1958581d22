package profile

import (
	"encoding/xml"

	"github.com/dhalweg/joymux/internal/action"
)

// document is the raw XML shape of a profile file.
type document struct {
	XMLName   xml.Name      `xml:"profile"`
	Version   int           `xml:"version,attr"`
	StartMode string        `xml:"start-mode,attr,omitempty"`
	Modes     []modeNode    `xml:"modes>mode"`
	Library   []action.Node `xml:"library>action"`
	Trees     []treeNode    `xml:"action-trees>action-tree"`
	IOs       ioSection     `xml:"intermediate-outputs"`
	Bindings  []bindingNode `xml:"bindings>binding"`
}

// formatVersion is written to new documents. Loading tolerates older files
// with no version attribute.
const formatVersion = 1

type modeNode struct {
	Name   string `xml:"name,attr"`
	Parent string `xml:"parent,attr,omitempty"`
}

type treeNode struct {
	Root string `xml:"root,attr"`
}

type ioSection struct {
	Device string   `xml:"device,attr,omitempty"`
	Inputs []ioNode `xml:"io"`
}

type ioNode struct {
	Label      string `xml:"label,attr"`
	GUID       string `xml:"guid,attr"`
	Type       string `xml:"type,attr"`
	Identifier int    `xml:"identifier,attr"`
}

type bindingNode struct {
	Device     string             `xml:"device,attr"`
	Type       string             `xml:"type,attr"`
	Identifier int                `xml:"identifier,attr"`
	Mode       string             `xml:"mode,attr"`
	Behavior   string             `xml:"behavior,attr"`
	Tree       string             `xml:"tree,attr"`
	VirtualBtn *virtualButtonNode `xml:"virtual-button"`
}

type virtualButtonNode struct {
	Low        float64  `xml:"low,attr"`
	High       float64  `xml:"high,attr"`
	Directions []string `xml:"direction"`
}

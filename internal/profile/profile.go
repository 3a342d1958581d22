package profile

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/dhalweg/joymux/internal/action"
	"github.com/dhalweg/joymux/internal/input"
	"github.com/dhalweg/joymux/internal/intermediate"
	"github.com/dhalweg/joymux/internal/mode"
)

// Profile is a fully loaded configuration: the action library with its tree
// roots, the mode hierarchy, the intermediate output registry, and the
// bindings attaching inputs to trees.
type Profile struct {
	// Path is the file the profile was loaded from, empty for profiles
	// built in memory.
	Path string

	// StartMode is the mode activated on load. Empty selects the first
	// root mode.
	StartMode string

	// Modes is the mode hierarchy.
	Modes *mode.Manager

	// Library owns every action node and the tree roots.
	Library *action.Library

	// IO is the intermediate output registry.
	IO *intermediate.Registry

	// Bindings attach inputs to action trees, per mode.
	Bindings []*Binding
}

// New creates an empty profile with a single root mode.
func New(startMode string) (*Profile, error) {
	modes := mode.NewManager()
	if err := modes.Add(startMode, ""); err != nil {
		return nil, err
	}
	return &Profile{
		StartMode: startMode,
		Modes:     modes,
		Library:   action.NewLibrary(),
		IO:        intermediate.NewRegistry(),
	}, nil
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: open %s: %w", path, err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("profile: load %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Parse decodes a profile document and validates it. Any dangling id makes
// the parse fail with a ReferenceError.
func Parse(r io.Reader) (*Profile, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	modes, err := buildModes(doc.Modes)
	if err != nil {
		return nil, err
	}
	if doc.StartMode != "" && !modes.Has(doc.StartMode) {
		return nil, fmt.Errorf("%w: start mode %q not defined", ErrParse, doc.StartMode)
	}

	lib, err := buildLibrary(doc.Library, doc.Trees)
	if err != nil {
		return nil, err
	}

	reg, err := buildIntermediate(doc.IOs)
	if err != nil {
		return nil, err
	}

	bindings, err := buildBindings(doc.Bindings, modes, lib)
	if err != nil {
		return nil, err
	}

	return &Profile{
		StartMode: doc.StartMode,
		Modes:     modes,
		Library:   lib,
		IO:        reg,
		Bindings:  bindings,
	}, nil
}

// Save writes the profile to a file, replacing it atomically via a sibling
// temp file.
func (p *Profile) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*.xml")
	if err != nil {
		return fmt.Errorf("profile: save %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := p.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("profile: save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("profile: save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("profile: save %s: %w", path, err)
	}
	p.Path = path
	return nil
}

// Write encodes the profile as XML. Output is deterministic: modes are
// ordered parents first, library nodes by id, intermediate outputs by
// identifier.
func (p *Profile) Write(w io.Writer) error {
	doc, err := p.document()
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func (p *Profile) document() (*document, error) {
	doc := &document{
		Version:   formatVersion,
		StartMode: p.StartMode,
	}

	names := p.Modes.Modes()
	sort.SliceStable(names, func(i, j int) bool {
		return len(p.Modes.Ancestors(names[i])) < len(p.Modes.Ancestors(names[j]))
	})
	for _, name := range names {
		parent, err := p.Modes.Parent(name)
		if err != nil {
			return nil, err
		}
		doc.Modes = append(doc.Modes, modeNode{Name: name, Parent: parent})
	}

	nodes := p.Library.All()
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID().String() < nodes[j].ID().String()
	})
	for _, d := range nodes {
		n, err := action.MarshalData(d)
		if err != nil {
			return nil, err
		}
		doc.Library = append(doc.Library, *n)
	}

	for _, root := range p.Library.Roots() {
		doc.Trees = append(doc.Trees, treeNode{Root: root.String()})
	}

	doc.IOs.Device = p.IO.Device().String()
	for _, in := range p.IO.All() {
		doc.IOs.Inputs = append(doc.IOs.Inputs, ioNode{
			Label:      in.Label,
			GUID:       in.GUID.String(),
			Type:       in.Type.String(),
			Identifier: in.Identifier,
		})
	}

	for _, b := range p.Bindings {
		bn := bindingNode{
			Device:     b.Device.String(),
			Type:       b.Type.String(),
			Identifier: b.Identifier,
			Mode:       b.Mode,
			Behavior:   b.Behavior.String(),
			Tree:       b.Tree.String(),
		}
		if vb := b.VirtualButton; vb != nil {
			vn := &virtualButtonNode{Low: vb.Low, High: vb.High}
			for _, d := range vb.Directions {
				vn.Directions = append(vn.Directions, d.String())
			}
			bn.VirtualBtn = vn
		}
		doc.Bindings = append(doc.Bindings, bn)
	}

	return doc, nil
}

// buildModes adds modes in dependency order so a child listed before its
// parent still loads.
func buildModes(nodes []modeNode) (*mode.Manager, error) {
	if len(nodes) == 0 {
		return nil, ErrNoModes
	}

	m := mode.NewManager()
	pending := append([]modeNode(nil), nodes...)
	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, n := range pending {
			if n.Parent != "" && !m.Has(n.Parent) {
				rest = append(rest, n)
				continue
			}
			if err := m.Add(n.Name, n.Parent); err != nil {
				return nil, fmt.Errorf("%w: mode %q: %v", ErrParse, n.Name, err)
			}
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("%w: mode %q references unknown parent %q", ErrParse, rest[0].Name, rest[0].Parent)
		}
		pending = rest
	}
	return m, nil
}

func buildLibrary(nodes []action.Node, trees []treeNode) (*action.Library, error) {
	lib := action.NewLibrary()
	for i := range nodes {
		d, err := action.UnmarshalData(&nodes[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if err := lib.Add(d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	}

	for _, t := range trees {
		root, err := uuid.Parse(t.Root)
		if err != nil {
			return nil, fmt.Errorf("%w: tree root %q", ErrParse, t.Root)
		}
		if !lib.Has(root) {
			return nil, &ReferenceError{ID: root, Context: "action-tree"}
		}
		if err := lib.AddTree(root); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	}

	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

func buildIntermediate(section ioSection) (*intermediate.Registry, error) {
	device := uuid.New()
	if section.Device != "" {
		parsed, err := uuid.Parse(section.Device)
		if err != nil {
			return nil, fmt.Errorf("%w: intermediate device %q", ErrParse, section.Device)
		}
		device = parsed
	}

	reg := intermediate.NewRegistryWithDevice(device)
	for _, n := range section.Inputs {
		guid, err := uuid.Parse(n.GUID)
		if err != nil {
			return nil, fmt.Errorf("%w: io guid %q", ErrParse, n.GUID)
		}
		typ, err := input.ParseType(n.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: io %q: %v", ErrParse, n.Label, err)
		}
		in := intermediate.Input{
			GUID:       guid,
			Label:      n.Label,
			Type:       typ,
			Identifier: n.Identifier,
		}
		if err := reg.Restore(in); err != nil {
			return nil, fmt.Errorf("%w: io %q: %v", ErrParse, n.Label, err)
		}
	}
	return reg, nil
}

func buildBindings(nodes []bindingNode, modes *mode.Manager, lib *action.Library) ([]*Binding, error) {
	var out []*Binding
	for _, n := range nodes {
		device, err := uuid.Parse(n.Device)
		if err != nil {
			return nil, fmt.Errorf("%w: binding device %q", ErrParse, n.Device)
		}
		typ, err := input.ParseType(n.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: binding: %v", ErrParse, err)
		}
		behavior := typ
		if n.Behavior != "" {
			behavior, err = input.ParseType(n.Behavior)
			if err != nil {
				return nil, fmt.Errorf("%w: binding: %v", ErrParse, err)
			}
		}
		if !modes.Has(n.Mode) {
			return nil, fmt.Errorf("%w: binding references unknown mode %q", ErrParse, n.Mode)
		}
		tree, err := uuid.Parse(n.Tree)
		if err != nil {
			return nil, fmt.Errorf("%w: binding tree %q", ErrParse, n.Tree)
		}
		if !lib.Has(tree) {
			return nil, &ReferenceError{ID: tree, Context: "binding"}
		}

		b := &Binding{
			Device:     device,
			Type:       typ,
			Identifier: n.Identifier,
			Mode:       n.Mode,
			Tree:       tree,
			Behavior:   behavior,
		}
		if vn := n.VirtualBtn; vn != nil {
			vb := &VirtualButton{Low: vn.Low, High: vn.High}
			for _, s := range vn.Directions {
				d, err := input.ParseHatDirection(s)
				if err != nil {
					return nil, fmt.Errorf("%w: binding: %v", ErrParse, err)
				}
				vb.Directions = append(vb.Directions, d)
			}
			b.VirtualButton = vb
		}
		out = append(out, b)
	}
	return out, nil
}

package form

import (
	"fmt"
	"sort"

	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

// resolved holds the inheritable properties of one node after applying its
// ancestors.
type resolved struct {
	fieldType string
	flags     Flags
	da        string
	quadding  int
	value     *wrapper.Value
	options   []wrapper.Option
	maxLen    int
	name      string // qualified name, "" until a named ancestor exists
}

// Model is a read-only view of a document's form fields.
type Model struct {
	fields []*Field
	byName map[string]*Field
	nodes  []wrapper.FieldNode
}

// Load resolves the field tree of doc. Properties are resolved once per node
// in a single top-down pass.
func Load(doc wrapper.FormDocument) (*Model, error) {
	nodes, err := doc.Fields()
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidForm, err)
	}
	defaults := doc.FormDefaults()

	props := make([]resolved, len(nodes))
	partial := partialNames(nodes)

	for i := range nodes {
		n := &nodes[i]
		if int(n.ID) != i {
			return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidForm, "field node %d out of order", n.ID)
		}

		var p resolved
		if n.Parent == wrapper.NoNode {
			p.da = DefaultDA
			if defaults.HasDA {
				p.da = defaults.DA
			}
			p.quadding = defaults.Quadding
		} else {
			if n.Parent < 0 || int(n.Parent) >= i {
				return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidForm, "field node %d precedes its parent", i)
			}
			p = props[n.Parent]
		}

		if n.FieldType != "" {
			p.fieldType = n.FieldType
		}
		if n.Flags != nil {
			p.flags = Flags(*n.Flags)
		}
		if n.DA != nil {
			p.da = *n.DA
		}
		if n.Quadding != nil {
			p.quadding = *n.Quadding
		}
		if n.Value != nil {
			p.value = n.Value
		}
		if n.Options != nil {
			p.options = n.Options
		}
		if n.MaxLen != nil {
			p.maxLen = *n.MaxLen
		}
		if name, ok := partial[n.ID]; ok {
			if p.name == "" {
				p.name = name
			} else {
				p.name = p.name + "." + name
			}
		}
		props[i] = p
	}

	m := &Model{byName: map[string]*Field{}, nodes: nodes}
	for i := range nodes {
		n := &nodes[i]
		if !isTerminal(nodes, n) || props[i].name == "" {
			continue
		}
		f := buildField(nodes, props, n)
		if _, dup := m.byName[f.QualifiedName]; dup {
			continue
		}
		m.fields = append(m.fields, f)
		m.byName[f.QualifiedName] = f
	}
	return m, nil
}

// partialNames assigns each named node its partial name. When siblings
// share a name, every member of the collision gets an [index] suffix in
// document order.
func partialNames(nodes []wrapper.FieldNode) map[wrapper.NodeID]string {
	type key struct {
		parent wrapper.NodeID
		name   string
	}
	groups := map[key][]wrapper.NodeID{}
	for _, n := range nodes {
		if !n.HasName() {
			continue
		}
		k := key{n.Parent, *n.Name}
		groups[k] = append(groups[k], n.ID)
	}

	out := make(map[wrapper.NodeID]string, len(nodes))
	for k, ids := range groups {
		if len(ids) == 1 {
			out[ids[0]] = k.name
			continue
		}
		for i, id := range ids {
			out[id] = fmt.Sprintf("%s[%d]", k.name, i)
		}
	}
	return out
}

// isTerminal reports whether n is a named field with no named descendant
// reachable through nameless nodes; those nameless nodes hold its widgets.
func isTerminal(nodes []wrapper.FieldNode, n *wrapper.FieldNode) bool {
	if !n.HasName() {
		return false
	}
	var named func(kids []wrapper.NodeID) bool
	named = func(kids []wrapper.NodeID) bool {
		for _, k := range kids {
			if nodes[k].HasName() || named(nodes[k].Kids) {
				return true
			}
		}
		return false
	}
	return !named(n.Kids)
}

func buildField(nodes []wrapper.FieldNode, props []resolved, n *wrapper.FieldNode) *Field {
	p := props[n.ID]
	f := &Field{
		ID:            n.ID,
		QualifiedName: p.name,
		Label:         n.Label,
		FieldType:     p.fieldType,
		Flags:         p.flags,
		DA:            ParseDA(p.da),
		Quadding:      p.quadding,
		MaxLen:        p.maxLen,
		Value:         p.value,
		Choices:       p.options,
	}
	f.Type = inputType(p.fieldType, p.flags)

	var collect func(id wrapper.NodeID)
	collect = func(id wrapper.NodeID) {
		node := &nodes[id]
		if node.IsWidget {
			f.Widgets = append(f.Widgets, buildWidget(node, props[id], f.Type))
		}
		for _, k := range node.Kids {
			if !nodes[k].HasName() {
				collect(k)
			}
		}
	}
	collect(n.ID)
	return f
}

func buildWidget(n *wrapper.FieldNode, p resolved, t InputType) Widget {
	w := Widget{
		ID:          n.ID,
		Rect:        n.Rect,
		Page:        n.Page,
		States:      n.States,
		State:       n.State,
		DA:          ParseDA(p.da),
		Quadding:    p.quadding,
		Caption:     n.Caption,
		Background:  n.Background,
		BorderColor: n.BorderColor,
		BorderWidth: n.BorderWidth,
	}
	if t == InputCheckbox || t == InputRadio {
		w.OnState = onState(n.States)
	}
	return w
}

// onState picks the first non-Off appearance state, DefaultOnState when
// there is none.
func onState(states []string) string {
	sorted := append([]string(nil), states...)
	sort.Strings(sorted)
	for _, s := range sorted {
		if s != OffState {
			return s
		}
	}
	return DefaultOnState
}

// inputType maps a field type and flags to an input type. Unknown field
// types are treated as text.
func inputType(fieldType string, flags Flags) InputType {
	switch fieldType {
	case "Sig":
		return InputSignature
	case "Btn":
		switch {
		case flags.Has(FlagRadio):
			return InputRadio
		case flags.Has(FlagPushbutton):
			return InputButton
		default:
			return InputCheckbox
		}
	case "Ch":
		if flags.Has(FlagCombo) {
			return InputCombo
		}
		return InputSelect
	default:
		switch {
		case flags.Has(FlagPassword):
			return InputPassword
		case flags.Has(FlagMultiline):
			return InputTextarea
		default:
			return InputText
		}
	}
}

// Fields returns the fields in document order.
func (m *Model) Fields() []*Field {
	return m.fields
}

// Lookup finds a field by qualified name.
func (m *Model) Lookup(name string) (*Field, error) {
	f, ok := m.byName[name]
	if !ok {
		return nil, errors.FieldNotFound(name)
	}
	return f, nil
}

// Infos describes every field for inspection output.
func (m *Model) Infos() []Info {
	out := make([]Info, len(m.fields))
	for i, f := range m.fields {
		out[i] = f.Info()
	}
	return out
}

// Node returns the raw node a field or widget was built from.
func (m *Model) Node(id wrapper.NodeID) wrapper.FieldNode {
	return m.nodes[id]
}

package wrapper

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/a3tai/pdfform/internal/pdf/font"
	"github.com/a3tai/pdfform/internal/pdf/geom"
)

// MemoryDocument is an in-memory FormDocument. It stands in for a parsed
// PDF wherever a test needs precise control over the field tree.
type MemoryDocument struct {
	Nodes       []FieldNode
	Defaults    FormDefaults
	Pages       []*MemoryPage
	DRFonts     map[string]font.Descriptor
	Appearances map[NodeID]Appearance
	Removed     map[NodeID]bool
	Writes      int
}

// MemoryPage is one page of a MemoryDocument.
type MemoryPage struct {
	Content [][]byte
	Images  map[string]*Image
	keys    map[string]string
}

// NewMemoryDocument returns a document with the given number of empty pages.
func NewMemoryDocument(pages int) *MemoryDocument {
	d := &MemoryDocument{
		DRFonts:     map[string]font.Descriptor{},
		Appearances: map[NodeID]Appearance{},
		Removed:     map[NodeID]bool{},
	}
	for i := 0; i < pages; i++ {
		d.Pages = append(d.Pages, &MemoryPage{Images: map[string]*Image{}, keys: map[string]string{}})
	}
	return d
}

// AddNode appends n under parent (NoNode for a root field) and returns its
// ID.
func (d *MemoryDocument) AddNode(parent NodeID, n FieldNode) NodeID {
	id := NodeID(len(d.Nodes))
	n.ID = id
	n.Parent = parent
	n.Kids = nil
	d.Nodes = append(d.Nodes, n)
	if parent != NoNode {
		d.Nodes[parent].Kids = append(d.Nodes[parent].Kids, id)
	}
	return id
}

// Node returns a pointer to a node for inspection in tests.
func (d *MemoryDocument) Node(id NodeID) *FieldNode {
	return &d.Nodes[id]
}

func (d *MemoryDocument) Fields() ([]FieldNode, error) {
	out := make([]FieldNode, len(d.Nodes))
	copy(out, d.Nodes)
	return out, nil
}

func (d *MemoryDocument) FormDefaults() FormDefaults {
	return d.Defaults
}

func (d *MemoryDocument) PageCount() int {
	return len(d.Pages)
}

func (d *MemoryDocument) Font(resourceName string) (font.Descriptor, bool) {
	fd, ok := d.DRFonts[resourceName]
	return fd, ok
}

func (d *MemoryDocument) SetValue(id NodeID, v Value) error {
	if err := checkNode(LibraryMemory, "set value", id, len(d.Nodes)); err != nil {
		return err
	}
	d.Nodes[id].Value = &v
	return nil
}

func (d *MemoryDocument) SetAppearance(id NodeID, ap Appearance) error {
	if err := checkNode(LibraryMemory, "set appearance", id, len(d.Nodes)); err != nil {
		return err
	}
	d.Appearances[id] = ap
	if ap.States != nil {
		states := make([]string, 0, len(ap.States))
		for s := range ap.States {
			states = append(states, s)
		}
		sort.Strings(states)
		d.Nodes[id].States = states
	} else {
		d.Nodes[id].States = nil
	}
	return nil
}

func (d *MemoryDocument) SetAppearanceState(id NodeID, state string) error {
	if err := checkNode(LibraryMemory, "set appearance state", id, len(d.Nodes)); err != nil {
		return err
	}
	d.Nodes[id].State = state
	return nil
}

func (d *MemoryDocument) RemoveWidget(id NodeID) error {
	if err := checkNode(LibraryMemory, "remove widget", id, len(d.Nodes)); err != nil {
		return err
	}
	d.Removed[id] = true
	d.Nodes[id].Page = 0
	return nil
}

func (d *MemoryDocument) AppendPageContent(page int, content []byte) error {
	if err := checkPage(LibraryMemory, "append content", page, len(d.Pages)); err != nil {
		return err
	}
	p := d.Pages[page-1]
	p.Content = append(p.Content, append([]byte(nil), content...))
	return nil
}

func (d *MemoryDocument) AddPageImage(page int, key string, img *Image) (string, error) {
	if err := checkPage(LibraryMemory, "add image", page, len(d.Pages)); err != nil {
		return "", err
	}
	p := d.Pages[page-1]
	if name, ok := p.keys[key]; ok {
		return name, nil
	}
	name := freshName("Im", func(n string) bool { _, taken := p.Images[n]; return taken })
	p.Images[name] = img
	p.keys[key] = name
	return name, nil
}

// Write dumps the document state as JSON.
func (d *MemoryDocument) Write(w io.Writer) error {
	d.Writes++
	type page struct {
		Content []string
		Images  []string
	}
	dump := struct {
		Nodes       []FieldNode
		Appearances map[string]Appearance
		Pages       []page
	}{Nodes: d.Nodes, Appearances: map[string]Appearance{}}

	for id, ap := range d.Appearances {
		dump.Appearances[fmt.Sprint(id)] = ap
	}
	for _, p := range d.Pages {
		var pg page
		for _, c := range p.Content {
			pg.Content = append(pg.Content, string(c))
		}
		for name := range p.Images {
			pg.Images = append(pg.Images, name)
		}
		sort.Strings(pg.Images)
		dump.Pages = append(dump.Pages, pg)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

// freshName returns prefix1, prefix2, ... the first one not taken.
func freshName(prefix string, taken func(string) bool) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if !taken(name) {
			return name
		}
	}
}

// NewWidget is a convenience for building widget nodes in tests and tools.
func NewWidget(page int, r geom.Rect) FieldNode {
	return FieldNode{IsWidget: true, Page: page, Rect: r}
}

// StringPtr returns &s.
func StringPtr(s string) *string { return &s }

// IntPtr returns &i.
func IntPtr(i int) *int { return &i }

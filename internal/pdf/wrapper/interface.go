package wrapper

import (
	"fmt"
	"io"

	"github.com/a3tai/pdfform/internal/pdf/font"
	"github.com/a3tai/pdfform/internal/pdf/geom"
)

// FormDocument is the narrow set of object-graph capabilities the form
// filler needs from a PDF library: read the field tree, write values and
// appearances, append to pages, register resources and serialize.
//
// Implementations are not safe for concurrent use.
type FormDocument interface {
	// Fields returns every node of the AcroForm field tree, parents before
	// kids, in document order. A node's ID is its index in the slice.
	Fields() ([]FieldNode, error)
	// FormDefaults returns the document-wide /DA and /Q.
	FormDefaults() FormDefaults
	PageCount() int
	// Font looks up a font resource by name in the AcroForm /DR.
	Font(resourceName string) (font.Descriptor, bool)

	SetValue(id NodeID, v Value) error
	SetAppearance(id NodeID, ap Appearance) error
	SetAppearanceState(id NodeID, state string) error
	// RemoveWidget detaches a widget annotation from its page.
	RemoveWidget(id NodeID) error

	// AppendPageContent draws content on top of the existing page content.
	AppendPageContent(page int, content []byte) error
	// AddPageImage registers img as an image XObject of the page and
	// returns its resource name. key identifies the image; adding the same
	// key to the same page again returns the existing name.
	AddPageImage(page int, key string, img *Image) (string, error)

	Write(w io.Writer) error
}

// NodeID identifies a node of the field tree.
type NodeID int

// NoNode is the parent of root fields.
const NoNode NodeID = -1

// FieldNode is one dictionary of the field tree as stored, without any
// inheritance applied. Pointer fields are nil when the key is absent.
type FieldNode struct {
	ID     NodeID
	Parent NodeID
	Kids   []NodeID

	Name      *string // /T
	Label     string  // /TU
	FieldType string  // /FT
	Flags     *int    // /Ff
	DA        *string // /DA
	Quadding  *int    // /Q
	MaxLen    *int    // /MaxLen
	Value     *Value  // /V
	Options   []Option

	// widget annotation entries
	IsWidget    bool
	Rect        geom.Rect
	Page        int      // 1-based, 0 when the widget is on no page
	States      []string // keys of /AP /N when it is a dictionary
	State       string   // /AS
	Caption     string   // /MK /CA
	Background  []float64
	BorderColor []float64
	BorderWidth float64
}

// HasName reports whether the node carries a partial name.
func (n FieldNode) HasName() bool {
	return n.Name != nil
}

// FormDefaults are the AcroForm-level appearance defaults.
type FormDefaults struct {
	DA       string
	HasDA    bool
	Quadding int
}

// Option is one /Opt entry of a choice field.
type Option struct {
	Export  string `json:"export"`
	Display string `json:"display"`
}

// ValueKind tells how a field value is stored.
type ValueKind int

const (
	ValueText ValueKind = iota // string object
	ValueName                  // name object, used by buttons
	ValueList                  // array of strings, multi-select lists
)

// Value is a field's /V entry.
type Value struct {
	Kind ValueKind
	Text string
	List []string
}

// TextValue builds a string value.
func TextValue(s string) Value { return Value{Kind: ValueText, Text: s} }

// NameValue builds a name value.
func NameValue(s string) Value { return Value{Kind: ValueName, Text: s} }

// ListValue builds an array value.
func ListValue(items []string) Value { return Value{Kind: ValueList, List: items} }

func (v Value) String() string {
	switch v.Kind {
	case ValueName:
		return "/" + v.Text
	case ValueList:
		return fmt.Sprint(v.List)
	default:
		return v.Text
	}
}

// AppearanceStream is a form XObject to be used as a widget appearance.
type AppearanceStream struct {
	BBox    geom.Rect
	Content []byte
	// Fonts maps the resource names used by Content to a BaseFont. A name
	// present in the AcroForm /DR is linked to that font; others get a
	// standard Type1 font dictionary.
	Fonts map[string]string
}

// Appearance is the normal appearance of a widget: a single stream for
// text-like fields or a stream per appearance state for buttons.
type Appearance struct {
	Normal *AppearanceStream
	States map[string]*AppearanceStream
}

// Image is an image XObject ready to be embedded.
type Image struct {
	Width            int
	Height           int
	ColorSpace       string // DeviceRGB, DeviceGray or DeviceCMYK
	BitsPerComponent int
	// Data holds raw samples, or the encoded file when Filter is set.
	Data   []byte
	Filter string // "" or DCTDecode
	// SMask holds 8-bit alpha samples, nil for opaque images.
	SMask []byte
}

// LibraryType names the PDF library behind a FormDocument
type LibraryType string

const (
	LibraryPDFCPU LibraryType = "pdfcpu"
	LibraryMemory LibraryType = "memory"
)

// WrapperError records which library and operation failed
type WrapperError struct {
	Library LibraryType
	Op      string
	Err     error
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

func checkNode(lib LibraryType, op string, id NodeID, count int) error {
	if id < 0 || int(id) >= count {
		return &WrapperError{Library: lib, Op: op, Err: fmt.Errorf("no field node %d", id)}
	}
	return nil
}

func checkPage(lib LibraryType, op string, page, count int) error {
	if page < 1 || page > count {
		return &WrapperError{Library: lib, Op: op, Err: fmt.Errorf("page %d out of range 1..%d", page, count)}
	}
	return nil
}

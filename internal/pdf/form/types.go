// Package form resolves the raw AcroForm field tree into addressable fields:
// qualified names, inherited properties, input types and widget geometry.
package form

import (
	"github.com/a3tai/pdfform/internal/pdf/geom"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

// InputType is the kind of input a field represents, derived from its field
// type and flags.
type InputType string

const (
	InputText      InputType = "text"
	InputTextarea  InputType = "textarea"
	InputPassword  InputType = "password"
	InputSelect    InputType = "select"
	InputCombo     InputType = "combo"
	InputCheckbox  InputType = "checkbox"
	InputRadio     InputType = "radio"
	InputButton    InputType = "button"
	InputSignature InputType = "signature"
)

// InputTypes lists every input type.
var InputTypes = []InputType{
	InputText, InputTextarea, InputPassword, InputSelect, InputCombo,
	InputCheckbox, InputRadio, InputButton, InputSignature,
}

// Flags is the /Ff field flags value.
type Flags int

// Field flags. Bits are numbered from 0 here, one less than in ISO 32000.
const (
	FlagReadOnly        Flags = 1 << 0
	FlagRequired        Flags = 1 << 1
	FlagNoExport        Flags = 1 << 2
	FlagMultiline       Flags = 1 << 12
	FlagPassword        Flags = 1 << 13
	FlagNoToggleToOff   Flags = 1 << 14
	FlagRadio           Flags = 1 << 15
	FlagPushbutton      Flags = 1 << 16
	FlagCombo           Flags = 1 << 17
	FlagEdit            Flags = 1 << 18
	FlagSort            Flags = 1 << 19
	FlagFileSelect      Flags = 1 << 20
	FlagMultiSelect     Flags = 1 << 21
	FlagDoNotSpellCheck Flags = 1 << 22
	FlagDoNotScroll     Flags = 1 << 23
	FlagComb            Flags = 1 << 24
	FlagRichText        Flags = 1 << 25 // text fields
	FlagRadiosInUnison  Flags = 1 << 25 // button fields
)

// Has reports whether every bit of f is set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// DefaultOnState is the checkbox on state used when a widget has no
// appearance states to take it from.
const DefaultOnState = "Yes"

// OffState is the appearance state of an unselected button.
const OffState = "Off"

// Field is one addressable form field with its inherited properties
// resolved.
type Field struct {
	ID            wrapper.NodeID
	QualifiedName string
	Label         string
	Type          InputType
	FieldType     string
	Flags         Flags
	DA            DefaultAppearance
	Quadding      int
	MaxLen        int

	// Value is the current /V, nil when unset.
	Value   *wrapper.Value
	Choices []wrapper.Option
	Widgets []Widget
}

// Widget is one on-page instance of a field.
type Widget struct {
	ID   wrapper.NodeID
	Rect geom.Rect
	Page int

	// OnState is the export value of a button widget: its non-Off
	// appearance state.
	OnState string
	States  []string
	State   string

	DA          DefaultAppearance
	Quadding    int
	Caption     string
	Background  []float64
	BorderColor []float64
	BorderWidth float64
}

func (f *Field) Required() bool { return f.Flags.Has(FlagRequired) }

func (f *Field) ReadOnly() bool { return f.Flags.Has(FlagReadOnly) }

// Rect returns the rectangle of the first widget.
func (f *Field) Rect() (geom.Rect, bool) {
	if len(f.Widgets) == 0 {
		return geom.Rect{}, false
	}
	return f.Widgets[0].Rect, true
}

// Page returns the page of the first widget on a page, 0 if none is.
func (f *Field) Page() int {
	for _, w := range f.Widgets {
		if w.Page > 0 {
			return w.Page
		}
	}
	return 0
}

// OnStates returns the distinct export values of the field's button
// widgets in widget order.
func (f *Field) OnStates() []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range f.Widgets {
		if w.OnState == "" || seen[w.OnState] {
			continue
		}
		seen[w.OnState] = true
		out = append(out, w.OnState)
	}
	return out
}

// Options returns the values a field accepts: button tokens with a leading
// slash for checkboxes and radios, export values for choice fields, nil for
// everything else.
func (f *Field) Options() []string {
	switch f.Type {
	case InputCheckbox, InputRadio:
		states := f.OnStates()
		out := make([]string, len(states))
		for i, s := range states {
			out[i] = "/" + s
		}
		return out
	case InputSelect, InputCombo:
		out := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			out[i] = c.Export
		}
		return out
	case InputText, InputTextarea, InputPassword, InputButton, InputSignature:
		return nil
	}
	return nil
}

// Info is the JSON description of a field reported by form inspection.
type Info struct {
	QualifiedName string    `json:"qualified_name" yaml:"qualified_name"`
	Label         string    `json:"label" yaml:"label"`
	InputType     InputType `json:"input_type" yaml:"input_type"`
	Required      bool      `json:"required" yaml:"required"`
	ReadOnly      bool      `json:"read_only" yaml:"read_only"`
	Options       []string  `json:"options" yaml:"options"`
	Value         any       `json:"value" yaml:"value"`
	Rect          []float64 `json:"rect" yaml:"rect"`
	Page          int       `json:"page" yaml:"page"`
}

// Info describes the field for inspection output.
func (f *Field) Info() Info {
	info := Info{
		QualifiedName: f.QualifiedName,
		Label:         f.Label,
		InputType:     f.Type,
		Required:      f.Required(),
		ReadOnly:      f.ReadOnly(),
		Options:       f.Options(),
		Value:         f.ReportedValue(),
		Page:          f.Page(),
	}
	if r, ok := f.Rect(); ok {
		info.Rect = r.Slice()
	}
	return info
}

// ReportedValue returns the current value in its normalized reporting
// form: a string, a list of strings for multi-select lists, or nil.
func (f *Field) ReportedValue() any {
	if f.Value == nil {
		return nil
	}
	switch f.Value.Kind {
	case wrapper.ValueList:
		return append([]string(nil), f.Value.List...)
	case wrapper.ValueName:
		return "/" + f.Value.Text
	default:
		return f.Value.Text
	}
}

package form

import (
	"strconv"
	"strings"

	"github.com/a3tai/pdfform/internal/pdf/content"
)

// DefaultDA is used when neither the field chain nor the AcroForm carries
// a /DA: Helvetica, auto size, black.
const DefaultDA = "/Helv 0 Tf 0 g"

// ColorSpace of a default appearance color.
type ColorSpace int

const (
	ColorGray ColorSpace = iota
	ColorRGB
	ColorCMYK
)

// Color is a fill color taken from a /DA string.
type Color struct {
	Space      ColorSpace
	Components []float64
}

// Black is the default text color.
var Black = Color{Space: ColorGray, Components: []float64{0}}

// Apply emits the matching fill color operator.
func (c Color) Apply(b *content.Builder) {
	switch {
	case c.Space == ColorRGB && len(c.Components) == 3:
		b.SetFillRGB(c.Components[0], c.Components[1], c.Components[2])
	case c.Space == ColorCMYK && len(c.Components) == 4:
		b.SetFillCMYK(c.Components[0], c.Components[1], c.Components[2], c.Components[3])
	case len(c.Components) == 1:
		b.SetFillGray(c.Components[0])
	default:
		b.SetFillGray(0)
	}
}

// ApplyStroke emits the matching stroke color operator.
func (c Color) ApplyStroke(b *content.Builder) {
	switch {
	case c.Space == ColorRGB && len(c.Components) == 3:
		b.SetStrokeRGB(c.Components[0], c.Components[1], c.Components[2])
	case c.Space == ColorCMYK && len(c.Components) == 4:
		b.SetStrokeCMYK(c.Components[0], c.Components[1], c.Components[2], c.Components[3])
	case len(c.Components) == 1:
		b.SetStrokeGray(c.Components[0])
	default:
		b.SetStrokeGray(0)
	}
}

// ColorFromArray converts an /MK color array; the component count selects
// the color space. An empty array means transparent and returns false.
func ColorFromArray(v []float64) (Color, bool) {
	switch len(v) {
	case 1:
		return Color{Space: ColorGray, Components: v}, true
	case 3:
		return Color{Space: ColorRGB, Components: v}, true
	case 4:
		return Color{Space: ColorCMYK, Components: v}, true
	}
	return Color{}, false
}

// DefaultAppearance is a parsed /DA string.
type DefaultAppearance struct {
	Font  string  // font resource name, without the slash
	Size  float64 // 0 means auto size
	Color Color
}

// AutoSize reports whether the size is to be computed from the box.
func (da DefaultAppearance) AutoSize() bool {
	return da.Size <= 0
}

// ParseDA extracts the font, size and fill color from a /DA string. Missing
// parts take the defaults: Helv, auto size, black.
func ParseDA(s string) DefaultAppearance {
	da := DefaultAppearance{Font: "Helv", Color: Black}
	tokens := strings.Fields(s)

	var operands []string
	for _, tok := range tokens {
		switch tok {
		case "Tf":
			if n := len(operands); n >= 2 && strings.HasPrefix(operands[n-2], "/") {
				da.Font = strings.TrimPrefix(operands[n-2], "/")
				if size, err := strconv.ParseFloat(operands[n-1], 64); err == nil && size > 0 {
					da.Size = size
				} else {
					da.Size = 0
				}
			}
		case "g":
			if c, ok := numbers(operands, 1); ok {
				da.Color = Color{Space: ColorGray, Components: c}
			}
		case "rg":
			if c, ok := numbers(operands, 3); ok {
				da.Color = Color{Space: ColorRGB, Components: c}
			}
		case "k":
			if c, ok := numbers(operands, 4); ok {
				da.Color = Color{Space: ColorCMYK, Components: c}
			}
		default:
			operands = append(operands, tok)
			continue
		}
		operands = operands[:0]
	}
	return da
}

func numbers(operands []string, n int) ([]float64, bool) {
	if len(operands) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, s := range operands[len(operands)-n:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

package layout

import (
	"github.com/a3tai/pdfform/internal/pdf/geom"
)

// Alignment is the field quadding (/Q).
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// AlignmentFromQ maps a /Q value, treating anything unknown as left.
func AlignmentFromQ(q int) Alignment {
	switch q {
	case 1:
		return AlignCenter
	case 2:
		return AlignRight
	default:
		return AlignLeft
	}
}

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// Placed is a run of text with the absolute position of its baseline start.
type Placed struct {
	Text string
	X, Y float64
}

// Params describe the box text is placed in.
type Params struct {
	Box     geom.Rect // appearance bounding box
	Padding float64   // inset from each edge
	Align   Alignment
}

// Inner returns the box inset by the padding.
func (p Params) Inner() geom.Rect {
	return p.Box.Inset(p.Padding)
}

func (p Params) startX(width float64) float64 {
	inner := p.Inner()
	switch p.Align {
	case AlignCenter:
		return inner.Left + (inner.Width()-width)/2
	case AlignRight:
		return inner.Right - width
	default:
		return inner.Left
	}
}

// PlaceSingle positions one line, vertically centered on the cap height:
// the baseline sits (box height - cap height)/2 above the box bottom.
func PlaceSingle(line Line, capHeight float64, p Params) Placed {
	return Placed{
		Text: line.Visible(),
		X:    p.startX(line.Width),
		Y:    p.Box.Bottom + (p.Box.Height()-capHeight)/2,
	}
}

// PlaceMulti stacks lines top-down. The first baseline is one line height
// below the top of the inner box.
func PlaceMulti(lines []Line, lineHeight float64, p Params) []Placed {
	top := p.Inner().Top
	out := make([]Placed, len(lines))
	for i, l := range lines {
		out[i] = Placed{
			Text: l.Visible(),
			X:    p.startX(l.Width),
			Y:    top - lineHeight*float64(i+1),
		}
	}
	return out
}

// PlaceComb spreads text over equal-width cells, one character per cell
// and centered in it. Characters beyond the last cell are dropped.
func PlaceComb(text string, cells int, m Measurer, size, capHeight float64, box geom.Rect) []Placed {
	if cells <= 0 {
		return nil
	}
	cw := box.Width() / float64(cells)
	y := box.Bottom + (box.Height()-capHeight)/2

	var out []Placed
	i := 0
	for _, r := range text {
		if i >= cells {
			break
		}
		s := string(r)
		w := m.TextWidth(s, size)
		out = append(out, Placed{
			Text: s,
			X:    box.Left + float64(i)*cw + (cw-w)/2,
			Y:    y,
		})
		i++
	}
	return out
}

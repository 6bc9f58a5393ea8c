// Package geom holds the page-space geometry shared by the form, layout and
// stamping packages.
package geom

import "fmt"

// Rect is an axis-aligned rectangle in PDF user space (points, origin at the
// bottom-left). Left <= Right and Bottom <= Top always hold for values built
// with NewRect.
type Rect struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

// NewRect builds a normalized rectangle from two opposite corners.
func NewRect(x1, y1, x2, y2 float64) Rect {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rect{Left: x1, Bottom: y1, Right: x2, Top: y2}
}

// FromSlice converts a [left, bottom, right, top] quadruple.
func FromSlice(v []float64) (Rect, error) {
	if len(v) != 4 {
		return Rect{}, fmt.Errorf("rect needs 4 numbers, got %d", len(v))
	}
	return NewRect(v[0], v[1], v[2], v[3]), nil
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// AtOrigin returns the rectangle translated so its lower-left corner is 0,0.
// Appearance streams use this as their bounding box.
func (r Rect) AtOrigin() Rect {
	return Rect{Right: r.Width(), Top: r.Height()}
}

// Inset shrinks the rectangle by d on every side. A rectangle too small to
// shrink collapses onto its center.
func (r Rect) Inset(d float64) Rect {
	out := Rect{Left: r.Left + d, Bottom: r.Bottom + d, Right: r.Right - d, Top: r.Top - d}
	if out.Left > out.Right {
		c := (r.Left + r.Right) / 2
		out.Left, out.Right = c, c
	}
	if out.Bottom > out.Top {
		c := (r.Bottom + r.Top) / 2
		out.Bottom, out.Top = c, c
	}
	return out
}

// Slice returns the [left, bottom, right, top] form.
func (r Rect) Slice() []float64 {
	return []float64{r.Left, r.Bottom, r.Right, r.Top}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g %g %g %g]", r.Left, r.Bottom, r.Right, r.Top)
}

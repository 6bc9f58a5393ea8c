// Package font provides glyph advance widths for laying out field text
// without a rendering engine. Widths come from the document's font
// dictionary when it carries a /Widths array, and from built-in tables for
// the standard 14 fonts otherwise.
package font

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Metrics maps single-byte character codes to advance widths in glyph space
// (1/1000 em) and carries the vertical metrics used for placement.
type Metrics struct {
	BaseFont  string
	Ascent    float64
	Descent   float64
	CapHeight float64

	// MissingWidth is used for codes without an explicit width.
	MissingWidth float64

	widths  [256]float64
	defined *bitset.BitSet
}

// Descriptor is the subset of a font dictionary needed to build Metrics
// from an embedded width array.
type Descriptor struct {
	BaseFont     string
	FirstChar    int
	Widths       []float64
	MissingWidth float64
	AvgWidth     float64
	MaxWidth     float64
	Ascent       float64
	Descent      float64
	CapHeight    float64
}

func newMetrics(baseFont string) *Metrics {
	return &Metrics{BaseFont: baseFont, defined: bitset.New(256)}
}

func (m *Metrics) set(code int, w float64) {
	if code < 0 || code > 255 {
		return
	}
	m.widths[code] = w
	m.defined.Set(uint(code))
}

// Width returns the advance of code in glyph space.
func (m *Metrics) Width(code byte) float64 {
	if m.defined.Test(uint(code)) {
		return m.widths[code]
	}
	return m.MissingWidth
}

// HasGlyph reports whether code has an explicit width, which is taken to
// mean the font can draw it.
func (m *Metrics) HasGlyph(code byte) bool {
	return m.defined.Test(uint(code))
}

// GlyphCount returns the number of codes with explicit widths.
func (m *Metrics) GlyphCount() uint {
	return m.defined.Count()
}

// StringWidth returns the advance of an encoded string in points.
func (m *Metrics) StringWidth(encoded string, size float64) float64 {
	var total float64
	for i := 0; i < len(encoded); i++ {
		total += m.Width(encoded[i])
	}
	return total * size / 1000
}

// CapHeightAt returns the cap height in points at the given size.
func (m *Metrics) CapHeightAt(size float64) float64 {
	return m.CapHeight * size / 1000
}

// FromDescriptor builds metrics from an embedded /Widths array. Gaps fall
// back to MissingWidth, then AvgWidth, then MaxWidth; absent vertical
// metrics are taken from the matching standard font.
func FromDescriptor(d Descriptor) *Metrics {
	std := Standard(d.BaseFont)
	m := newMetrics(d.BaseFont)

	m.MissingWidth = firstPositive(d.MissingWidth, d.AvgWidth, d.MaxWidth, std.MissingWidth)
	m.Ascent = firstNonZero(d.Ascent, std.Ascent)
	m.Descent = firstNonZero(d.Descent, std.Descent)
	m.CapHeight = firstPositive(d.CapHeight, std.CapHeight)

	for i, w := range d.Widths {
		if w <= 0 {
			continue
		}
		m.set(d.FirstChar+i, w)
	}
	return m
}

func firstPositive(vs ...float64) float64 {
	for _, v := range vs {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonZero(vs ...float64) float64 {
	for _, v := range vs {
		if v != 0 {
			return v
		}
	}
	return 0
}

// IsSymbolic reports whether the font uses its own built-in encoding rather
// than WinAnsi, so text must not be re-encoded.
func (m *Metrics) IsSymbolic() bool {
	family := familyOf(m.BaseFont)
	return family == ZapfDingbats || family == Symbol
}

// stripSubset removes the six-letter subset tag, "ABCDEF+Name" -> "Name".
func stripSubset(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		return name[i+1:]
	}
	return name
}

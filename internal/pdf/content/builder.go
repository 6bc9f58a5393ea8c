// Package content builds PDF content streams: the operator sequences used
// for widget appearance streams and for drawing stamped images on pages.
//
// Example:
//
//	b := content.NewBuilder()
//	b.BeginText()
//	b.SetFont("Helv", 12)
//	b.MoveText(2, 6.2)
//	b.ShowText("Bob Smith")
//	b.EndText()
//	stream := b.Bytes()
package content

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/a3tai/pdfform/internal/pdf/geom"
)

// Builder accumulates operators in order. It is meant to be used once: build,
// then call Bytes.
type Builder struct {
	buf bytes.Buffer
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Bytes returns the accumulated stream.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// String returns the stream as text.
func (b *Builder) String() string {
	return b.buf.String()
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// writeOp writes one operator line, operands first.
func (b *Builder) writeOp(operator string, operands ...string) {
	for _, o := range operands {
		b.buf.WriteString(o)
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(operator)
	b.buf.WriteByte('\n')
}

// Num formats a coordinate with two decimals, dropping trailing zeros.
func Num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func nums(vs ...float64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = Num(v)
	}
	return out
}

// Name formats a PDF name operand. Delimiters and non-regular bytes are
// written as #xx escapes.
func Name(n string) string {
	var sb strings.Builder
	sb.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < '!' || c > '~' || strings.IndexByte("()<>[]{}/%#", c) >= 0 {
			sb.WriteByte('#')
			sb.WriteString(strconv.FormatUint(uint64(c)>>4, 16))
			sb.WriteString(strconv.FormatUint(uint64(c)&0xf, 16))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// EscapeString returns s as a PDF literal string including the parentheses.
// The bytes of s are copied as-is apart from the reserved characters.
func EscapeString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('(')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// --- marked content ---

// BeginMarkedContent opens a marked-content sequence (BMC).
func (b *Builder) BeginMarkedContent(tag string) {
	b.writeOp("BMC", Name(tag))
}

// EndMarkedContent closes a marked-content sequence (EMC).
func (b *Builder) EndMarkedContent() {
	b.writeOp("EMC")
}

// --- graphics state ---

// SaveState pushes the graphics state (q).
func (b *Builder) SaveState() {
	b.writeOp("q")
}

// RestoreState pops the graphics state (Q).
func (b *Builder) RestoreState() {
	b.writeOp("Q")
}

// ConcatMatrix multiplies the CTM (cm).
func (b *Builder) ConcatMatrix(a, bb, c, d, e, f float64) {
	b.writeOp("cm", nums(a, bb, c, d, e, f)...)
}

// SetLineWidth sets the stroke width (w).
func (b *Builder) SetLineWidth(w float64) {
	b.writeOp("w", Num(w))
}

// SetFillGray sets a DeviceGray fill color (g).
func (b *Builder) SetFillGray(gray float64) {
	b.writeOp("g", Num(gray))
}

// SetFillRGB sets a DeviceRGB fill color (rg).
func (b *Builder) SetFillRGB(r, g, bl float64) {
	b.writeOp("rg", nums(r, g, bl)...)
}

// SetFillCMYK sets a DeviceCMYK fill color (k).
func (b *Builder) SetFillCMYK(c, m, y, k float64) {
	b.writeOp("k", nums(c, m, y, k)...)
}

// SetStrokeGray sets a DeviceGray stroke color (G).
func (b *Builder) SetStrokeGray(gray float64) {
	b.writeOp("G", Num(gray))
}

// SetStrokeRGB sets a DeviceRGB stroke color (RG).
func (b *Builder) SetStrokeRGB(r, g, bl float64) {
	b.writeOp("RG", nums(r, g, bl)...)
}

// SetStrokeCMYK sets a DeviceCMYK stroke color (K).
func (b *Builder) SetStrokeCMYK(c, m, y, k float64) {
	b.writeOp("K", nums(c, m, y, k)...)
}

// --- paths ---

// Rectangle appends a rectangle subpath (re).
func (b *Builder) Rectangle(r geom.Rect) {
	b.writeOp("re", nums(r.Left, r.Bottom, r.Width(), r.Height())...)
}

// StrokeRect draws the outline of r.
func (b *Builder) StrokeRect(r geom.Rect) {
	b.Rectangle(r)
	b.writeOp("S")
}

// FillRect paints r with the fill color.
func (b *Builder) FillRect(r geom.Rect) {
	b.Rectangle(r)
	b.writeOp("f")
}

// ClipRect intersects the clipping path with r (re W n).
func (b *Builder) ClipRect(r geom.Rect) {
	b.Rectangle(r)
	b.writeOp("W")
	b.writeOp("n")
}

// MoveTo starts a subpath (m).
func (b *Builder) MoveTo(x, y float64) {
	b.writeOp("m", nums(x, y)...)
}

// LineTo appends a line segment (l).
func (b *Builder) LineTo(x, y float64) {
	b.writeOp("l", nums(x, y)...)
}

// CurveTo appends a cubic Bezier segment (c).
func (b *Builder) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	b.writeOp("c", nums(x1, y1, x2, y2, x3, y3)...)
}

// Stroke strokes the current path (S).
func (b *Builder) Stroke() {
	b.writeOp("S")
}

// Fill fills the current path (f).
func (b *Builder) Fill() {
	b.writeOp("f")
}

// Circle appends a circle approximated by four Bezier curves.
func (b *Builder) Circle(cx, cy, r float64) {
	const k = 0.5523
	b.MoveTo(cx+r, cy)
	b.CurveTo(cx+r, cy+r*k, cx+r*k, cy+r, cx, cy+r)
	b.CurveTo(cx-r*k, cy+r, cx-r, cy+r*k, cx-r, cy)
	b.CurveTo(cx-r, cy-r*k, cx-r*k, cy-r, cx, cy-r)
	b.CurveTo(cx+r*k, cy-r, cx+r, cy-r*k, cx+r, cy)
}

// --- text ---

// BeginText opens a text object (BT).
func (b *Builder) BeginText() {
	b.writeOp("BT")
}

// EndText closes a text object (ET).
func (b *Builder) EndText() {
	b.writeOp("ET")
}

// SetFont selects a font resource and size (Tf).
func (b *Builder) SetFont(name string, size float64) {
	b.writeOp("Tf", Name(name), Num(size))
}

// MoveText moves to the start of the next line, offset from the start of the
// current line (Td).
func (b *Builder) MoveText(dx, dy float64) {
	b.writeOp("Td", nums(dx, dy)...)
}

// ShowText shows an encoded byte string (Tj).
func (b *Builder) ShowText(s string) {
	b.writeOp("Tj", EscapeString(s))
}

// --- external objects ---

// DrawImage paints the named image XObject into dst. The image unit square
// is scaled by the rect size and translated to its origin.
func (b *Builder) DrawImage(name string, dst geom.Rect) {
	b.SaveState()
	b.ConcatMatrix(dst.Width(), 0, 0, dst.Height(), dst.Left, dst.Bottom)
	b.writeOp("Do", Name(name))
	b.RestoreState()
}

// Raw appends pre-formatted operator text on its own line.
func (b *Builder) Raw(ops string) {
	ops = strings.TrimSpace(ops)
	if ops == "" {
		return
	}
	b.buf.WriteString(ops)
	b.buf.WriteByte('\n')
}

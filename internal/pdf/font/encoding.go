package font

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Replacement is shown for characters the font encoding cannot represent.
const Replacement = '?'

// Encode converts UTF-8 text into single-byte codes for m. Text fonts use
// WinAnsiEncoding; characters outside it are replaced by their unaccented
// base letter when one exists, else by Replacement. Symbolic fonts take
// the low byte of each rune. The second result is false when anything was
// replaced.
func (m *Metrics) Encode(s string) (string, bool) {
	if m.IsSymbolic() {
		return encodeSymbolic(s)
	}
	return EncodeWinAnsi(s)
}

// EncodeWinAnsi encodes s with the Windows-1252 code page, which is what
// PDF's WinAnsiEncoding amounts to for the printable range.
func EncodeWinAnsi(s string) (string, bool) {
	var sb strings.Builder
	sb.Grow(len(s))
	lossless := true

	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			sb.WriteByte(b)
			continue
		}
		if b, ok := baseLetter(r); ok {
			sb.WriteByte(b)
			lossless = false
			continue
		}
		sb.WriteByte(Replacement)
		lossless = false
	}
	return sb.String(), lossless
}

func baseLetter(r rune) (byte, bool) {
	decomposed := []rune(norm.NFD.String(string(r)))
	if len(decomposed) < 2 {
		return 0, false
	}
	return charmap.Windows1252.EncodeRune(decomposed[0])
}

func encodeSymbolic(s string) (string, bool) {
	var sb strings.Builder
	lossless := true
	for _, r := range s {
		if r > 0xFF {
			sb.WriteByte(Replacement)
			lossless = false
			continue
		}
		sb.WriteByte(byte(r))
	}
	return sb.String(), lossless
}

// TextWidth measures UTF-8 text in points after encoding it for m.
func (m *Metrics) TextWidth(text string, size float64) float64 {
	encoded, _ := m.Encode(text)
	return m.StringWidth(encoded, size)
}

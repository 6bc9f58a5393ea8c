// Package layout positions field text inside a widget box: line wrapping,
// baseline placement, alignment, comb cells and automatic font sizing.
package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Measurer reports the advance width of UTF-8 text in points at a size.
// *font.Metrics satisfies it.
type Measurer interface {
	TextWidth(text string, size float64) float64
}

// Line is one wrapped line. Text keeps any trailing whitespace of the break
// so the lines of a segment concatenate back to the segment; Width is the
// rendered width without that trailing whitespace.
type Line struct {
	Text  string
	Width float64
}

// Visible returns the text to draw, trailing whitespace removed.
func (l Line) Visible() string {
	return strings.TrimRightFunc(l.Text, unicode.IsSpace)
}

const epsilon = 1e-9

// Wrap breaks text into lines no wider than width. Newlines (\n, \r\n, \r)
// are hard breaks and an empty segment yields an empty line. Words are
// packed greedily; a word wider than the box sits alone on its own line and
// is never split.
func Wrap(text string, m Measurer, size, width float64) []Line {
	var lines []Line
	for _, segment := range SplitHardBreaks(text) {
		lines = append(lines, wrapSegment(segment, m, size, width)...)
	}
	return lines
}

// SplitHardBreaks splits on \r\n, \r and \n. The result always has at least
// one element.
func SplitHardBreaks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func wrapSegment(segment string, m Measurer, size, width float64) []Line {
	var (
		lines   []Line
		cur     strings.Builder
		lineW   float64 // up to the end of the last word
		pendW   float64 // trailing whitespace
		hasWord bool
	)

	for _, tok := range tokenize(segment) {
		w := m.TextWidth(tok, size)
		if isSpaceRun(tok) {
			cur.WriteString(tok)
			pendW += w
			continue
		}
		if hasWord && lineW+pendW+w > width+epsilon {
			lines = append(lines, Line{Text: cur.String(), Width: lineW})
			cur.Reset()
			lineW, pendW = 0, 0
		}
		cur.WriteString(tok)
		lineW += pendW + w
		pendW = 0
		hasWord = true
	}

	return append(lines, Line{Text: cur.String(), Width: lineW})
}

// tokenize splits s into alternating runs of whitespace and non-whitespace.
func tokenize(s string) []string {
	var (
		tokens []string
		start  int
		inSp   bool
	)
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i > 0 && sp != inSp {
			tokens = append(tokens, s[start:i])
			start = i
		}
		inSp = sp
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func isSpaceRun(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsSpace(r)
}

// SingleLine measures text as one unwrapped line, hard breaks flattened to
// spaces.
func SingleLine(text string, m Measurer, size float64) Line {
	text = strings.Join(SplitHardBreaks(text), " ")
	l := Line{Text: text}
	l.Width = m.TextWidth(l.Visible(), size)
	return l
}

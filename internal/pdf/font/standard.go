package font

import (
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Standard font families with built-in width tables. Italic and oblique
// faces share the widths of their upright face.
const (
	Helvetica     = "Helvetica"
	HelveticaBold = "Helvetica-Bold"
	TimesRoman    = "Times-Roman"
	TimesBold     = "Times-Bold"
	Courier       = "Courier"
	CourierBold   = "Courier-Bold"
	Symbol        = "Symbol"
	ZapfDingbats  = "ZapfDingbats"
)

type stdFont struct {
	ascent, descent, capHeight float64
	missing                    float64
	ascii                      []float64 // codes 32..126
	extra                      map[byte]float64
	symbolic                   bool
}

var helveticaASCII = []float64{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556,
	278, 278, 584, 584, 584, 556, 1015,
	667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833,
	722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611,
	278, 278, 278, 469, 556, 333,
	556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833,
	556, 556, 556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500,
	334, 260, 334, 584,
}

var helveticaBoldASCII = []float64{
	278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556,
	333, 333, 584, 584, 584, 611, 975,
	722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833,
	722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611,
	333, 278, 333, 584, 556, 333,
	556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889,
	611, 611, 611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500,
	389, 280, 389, 584,
}

var timesRomanASCII = []float64{
	250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
	500, 500, 500, 500, 500, 500, 500, 500, 500, 500,
	278, 278, 564, 564, 564, 444, 921,
	722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889,
	722, 722, 556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611,
	333, 278, 333, 469, 500, 333,
	444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778,
	500, 500, 500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444,
	480, 200, 480, 541,
}

var timesBoldASCII = []float64{
	250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
	500, 500, 500, 500, 500, 500, 500, 500, 500, 500,
	333, 333, 570, 570, 570, 500, 930,
	722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944,
	722, 778, 611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667,
	333, 278, 333, 581, 500, 333,
	500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833,
	556, 500, 556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444,
	394, 220, 394, 520,
}

func uniform(w float64) []float64 {
	out := make([]float64, 95)
	for i := range out {
		out[i] = w
	}
	return out
}

func punctuation(quote, dquote, dash, bullet, times, copyright, germandbls float64) map[byte]float64 {
	return map[byte]float64{
		0x80: 556, 0x85: 1000,
		0x91: quote, 0x92: quote, 0x93: dquote, 0x94: dquote,
		0x95: bullet, 0x96: dash, 0x97: 1000,
		0xA9: copyright, 0xAE: copyright, 0xB0: 400,
		0xD7: times, 0xF7: times, 0xDF: germandbls,
	}
}

var zapfDingbatsASCII = func() []float64 {
	w := uniform(788)
	// caption glyphs used by check boxes and radio buttons
	for code, width := range map[byte]float64{
		' ': 278, '4': 846, '5': 762, '8': 759, 'H': 816, 'l': 791, 'n': 761, 'u': 759,
	} {
		w[code-32] = width
	}
	return w
}()

var standardFonts = map[string]stdFont{
	Helvetica: {
		ascent: 718, descent: -207, capHeight: 718, missing: 556,
		ascii: helveticaASCII,
		extra: punctuation(222, 333, 556, 350, 584, 737, 611),
	},
	HelveticaBold: {
		ascent: 718, descent: -207, capHeight: 718, missing: 556,
		ascii: helveticaBoldASCII,
		extra: punctuation(278, 500, 556, 350, 584, 737, 611),
	},
	TimesRoman: {
		ascent: 683, descent: -217, capHeight: 662, missing: 500,
		ascii: timesRomanASCII,
		extra: punctuation(333, 444, 500, 350, 564, 760, 500),
	},
	TimesBold: {
		ascent: 683, descent: -217, capHeight: 676, missing: 500,
		ascii: timesBoldASCII,
		extra: punctuation(333, 500, 500, 350, 570, 747, 556),
	},
	Courier: {
		ascent: 629, descent: -157, capHeight: 562, missing: 600,
		ascii: uniform(600),
		extra: map[byte]float64{},
	},
	CourierBold: {
		ascent: 629, descent: -157, capHeight: 562, missing: 600,
		ascii: uniform(600),
		extra: map[byte]float64{},
	},
	Symbol: {
		ascent: 1010, descent: -293, capHeight: 673, missing: 600,
		ascii: uniform(600), symbolic: true,
	},
	ZapfDingbats: {
		ascent: 820, descent: -143, capHeight: 700, missing: 788,
		ascii: zapfDingbatsASCII, symbolic: true,
	},
}

// undefined WinAnsi slots
var winAnsiHoles = map[byte]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

var (
	stdCacheMu sync.Mutex
	stdCache   = map[string]*Metrics{}
)

// Standard returns metrics for one of the standard 14 fonts, matching
// common aliases (Arial, TimesNewRoman, subset tags, style suffixes).
// Unknown names get Helvetica.
func Standard(baseFont string) *Metrics {
	family := familyOf(baseFont)

	stdCacheMu.Lock()
	defer stdCacheMu.Unlock()
	if m, ok := stdCache[family]; ok {
		return m
	}
	m := buildStandard(family)
	stdCache[family] = m
	return m
}

func buildStandard(family string) *Metrics {
	sf := standardFonts[family]
	m := newMetrics(family)
	m.Ascent, m.Descent, m.CapHeight = sf.ascent, sf.descent, sf.capHeight
	m.MissingWidth = sf.missing

	for i, w := range sf.ascii {
		m.set(32+i, w)
	}
	if sf.symbolic {
		return m
	}
	for c := 128; c < 256; c++ {
		code := byte(c)
		if winAnsiHoles[code] {
			continue
		}
		if w, ok := sf.extra[code]; ok {
			m.set(c, w)
			continue
		}
		m.set(c, latinWidth(sf, code))
	}
	m.set(0xA0, sf.ascii[0]) // no-break space
	return m
}

// latinWidth estimates an upper-half WinAnsi glyph from its unaccented base
// letter, e.g. é -> e.
func latinWidth(sf stdFont, code byte) float64 {
	r := charmap.Windows1252.DecodeByte(code)
	base := []rune(norm.NFD.String(string(r)))
	if len(base) > 0 && base[0] >= 32 && base[0] < 127 {
		return sf.ascii[base[0]-32]
	}
	return sf.missing
}

// familyOf maps a BaseFont name onto one of the built-in families.
func familyOf(baseFont string) string {
	name := strings.ToLower(stripSubset(baseFont))
	name = strings.NewReplacer(" ", "", ",", "-", "_", "-").Replace(name)

	bold := strings.Contains(name, "bold") || strings.Contains(name, "black") ||
		strings.Contains(name, "heavy")

	switch {
	case strings.Contains(name, "zapf") || strings.Contains(name, "dingbat"):
		return ZapfDingbats
	case strings.HasPrefix(name, "symbol"):
		return Symbol
	case strings.Contains(name, "courier") || strings.Contains(name, "mono"):
		if bold {
			return CourierBold
		}
		return Courier
	case strings.Contains(name, "times") || strings.Contains(name, "serif") &&
		!strings.Contains(name, "sans"):
		if bold {
			return TimesBold
		}
		return TimesRoman
	default:
		if bold {
			return HelveticaBold
		}
		return Helvetica
	}
}

// resourceAliases are the font resource names form authoring tools put in
// /DR and /DA.
var resourceAliases = map[string]string{
	"Helv": Helvetica,
	"HeBo": HelveticaBold,
	"HeOb": Helvetica,
	"HeBO": HelveticaBold,
	"TiRo": TimesRoman,
	"TiBo": TimesBold,
	"TiIt": TimesRoman,
	"TiBI": TimesBold,
	"Cour": Courier,
	"CoBo": CourierBold,
	"CoOb": Courier,
	"CoBO": CourierBold,
	"Symb": Symbol,
	"ZaDb": ZapfDingbats,
}

// ResourceBaseFont guesses the BaseFont behind a resource name such as
// "Helv" or "ZaDb". Unknown names resolve through familyOf.
func ResourceBaseFont(resourceName string) string {
	if bf, ok := resourceAliases[resourceName]; ok {
		return bf
	}
	return familyOf(resourceName)
}

package layout

import "math"

// SizeRange bounds automatic font sizing. Sizes are searched in half-point
// steps.
type SizeRange struct {
	Min float64
	Max float64
}

// AutoSize returns the largest size in r for which fits reports true,
// assuming fits is monotone (true up to some size, false beyond). If even
// r.Min does not fit it returns r.Min and false.
func AutoSize(r SizeRange, fits func(size float64) bool) (float64, bool) {
	lo := int(math.Ceil(r.Min * 2))
	hi := int(math.Floor(r.Max * 2))
	if lo < 1 {
		lo = 1
	}
	if hi < lo || !fits(float64(lo)/2) {
		return r.Min, false
	}

	for lo < hi {
		mid := (lo + hi + 1) / 2
		if fits(float64(mid) / 2) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return float64(lo) / 2, true
}

// FitsSingle reports whether one line of text fits the inner box at size.
func FitsSingle(text string, m Measurer, size, leading float64, p Params) bool {
	inner := p.Inner()
	if size*leading > inner.Height()+epsilon {
		return false
	}
	return SingleLine(text, m, size).Width <= inner.Width()+epsilon
}

// FitsMulti reports whether wrapped text fits the inner box at size.
func FitsMulti(text string, m Measurer, size, leading float64, p Params) bool {
	inner := p.Inner()
	lines := Wrap(text, m, size, inner.Width())
	if float64(len(lines))*size*leading > inner.Height()+epsilon {
		return false
	}
	for _, l := range lines {
		if l.Width > inner.Width()+epsilon {
			return false
		}
	}
	return true
}

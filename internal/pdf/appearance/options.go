// Package appearance generates widget appearance streams for filled form
// fields and applies fills to a document all at once.
package appearance

import (
	"fmt"

	"github.com/a3tai/pdfform/internal/pdf/layout"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
)

// Options tune text layout and stamping.
type Options struct {
	// Leading is the line height as a multiple of the font size.
	Leading float64
	// AutoSize enables size search for fields whose /DA size is 0.
	// Otherwise DefaultFontSize is used for them.
	AutoSize        bool
	AutoSizeMin     float64
	AutoSizeMax     float64
	DefaultFontSize float64
	// Padding is the inset between the widget border and its text.
	Padding float64

	Scale          stamp.ScaleMode
	ImageCacheSize int
}

// DefaultOptions returns the stock layout settings.
func DefaultOptions() Options {
	return Options{
		Leading:         1.15,
		AutoSize:        true,
		AutoSizeMin:     4,
		AutoSizeMax:     12,
		DefaultFontSize: 12,
		Padding:         2,
		Scale:           stamp.ScaleStretch,
		ImageCacheSize:  stamp.DefaultCacheSize,
	}
}

// Validate checks the options for consistency.
func (o Options) Validate() error {
	if o.Leading <= 0 {
		return fmt.Errorf("leading must be positive, got %g", o.Leading)
	}
	if o.AutoSizeMin <= 0 || o.AutoSizeMax < o.AutoSizeMin {
		return fmt.Errorf("auto size range [%g, %g] is invalid", o.AutoSizeMin, o.AutoSizeMax)
	}
	if o.DefaultFontSize <= 0 {
		return fmt.Errorf("default font size must be positive, got %g", o.DefaultFontSize)
	}
	if o.Padding < 0 {
		return fmt.Errorf("padding cannot be negative, got %g", o.Padding)
	}
	return nil
}

func (o Options) sizeRange() layout.SizeRange {
	return layout.SizeRange{Min: o.AutoSizeMin, Max: o.AutoSizeMax}
}

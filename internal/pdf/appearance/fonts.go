package appearance

import (
	"github.com/a3tai/pdfform/internal/pdf/font"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

type resolvedFont struct {
	resource string
	baseFont string
	metrics  *font.Metrics
}

// fontCache resolves /DA font resource names against the document's /DR,
// falling back to the standard font the name suggests.
type fontCache struct {
	doc   wrapper.FormDocument
	fonts map[string]resolvedFont
}

func newFontCache(doc wrapper.FormDocument) *fontCache {
	return &fontCache{doc: doc, fonts: map[string]resolvedFont{}}
}

func (c *fontCache) resolve(resource string) resolvedFont {
	if f, ok := c.fonts[resource]; ok {
		return f
	}

	f := resolvedFont{resource: resource}
	if desc, ok := c.doc.Font(resource); ok && desc.BaseFont != "" {
		f.baseFont = desc.BaseFont
		if len(desc.Widths) > 0 {
			f.metrics = font.FromDescriptor(desc)
		} else {
			f.metrics = font.Standard(desc.BaseFont)
		}
	} else {
		f.baseFont = font.ResourceBaseFont(resource)
		f.metrics = font.Standard(f.baseFont)
	}
	c.fonts[resource] = f
	return f
}

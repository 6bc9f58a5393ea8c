// Package stamp places raster images on document pages.
package stamp

import (
	"fmt"
	"strings"

	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf/content"
	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/geom"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

// ScaleMode specifies how an image is scaled into its target rectangle.
type ScaleMode int

const (
	// ScaleStretch fills the rectangle exactly, ignoring aspect ratio.
	ScaleStretch ScaleMode = iota
	// ScaleFit keeps the aspect ratio and centers the image in the rectangle.
	ScaleFit
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleFit:
		return "fit"
	default:
		return "stretch"
	}
}

// ParseScaleMode parses a scale mode name.
func ParseScaleMode(s string) (ScaleMode, error) {
	switch s {
	case "stretch", "":
		return ScaleStretch, nil
	case "fit":
		return ScaleFit, nil
	default:
		return ScaleStretch, fmt.Errorf("invalid scale mode: %s (valid: stretch, fit)", s)
	}
}

// Request places Image on the 1-based Page inside Rect.
type Request struct {
	Image string // file path or data URL
	Page  int
	Rect  geom.Rect
}

// Prepared is a validated stamp, ready to be applied.
type Prepared struct {
	Request Request
	Image   *wrapper.Image
	Dest    geom.Rect
}

// Resolver maps an image file reference to the path that is read, or
// rejects it. Data URLs never reach a Resolver.
type Resolver func(ref string) (string, error)

// Stamper draws images on top of page content. Decoded images are cached
// by resolved reference for the lifetime of the Stamper.
type Stamper struct {
	cache    *ImageCache
	scale    ScaleMode
	resolver Resolver
	logger   *logging.Logger
}

// NewStamper creates a stamper with the given cache capacity.
func NewStamper(scale ScaleMode, cacheSize int, logger *logging.Logger) *Stamper {
	return &Stamper{cache: NewImageCache(cacheSize), scale: scale, logger: logger}
}

// SetResolver installs r for image file references. Without one, file
// references are read as given.
func (s *Stamper) SetResolver(r Resolver) {
	s.resolver = r
}

func (s *Stamper) resolve(ref string) (string, error) {
	if s.resolver == nil || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	return s.resolver(ref)
}

// Cache exposes the image cache.
func (s *Stamper) Cache() *ImageCache {
	return s.cache
}

// Prepare checks the page, loads the image and computes its placement
// without touching the document.
func (s *Stamper) Prepare(doc wrapper.FormDocument, req Request) (*Prepared, error) {
	if req.Page < 1 || req.Page > doc.PageCount() {
		return nil, errors.PageNotFound(req.Page, doc.PageCount())
	}
	if req.Rect.IsEmpty() {
		return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidInput, "stamp rect %s has no area", req.Rect).WithPage(req.Page)
	}

	ref, err := s.resolve(req.Image)
	if err != nil {
		return nil, errors.ImageLoad(displayRef(req.Image), err).WithPage(req.Page)
	}
	img, ok := s.cache.Get(ref)
	if !ok {
		if img, err = LoadImage(ref); err != nil {
			return nil, err
		}
		s.cache.Put(ref, img)
		s.logger.Debugf("decoded image %s: %dx%d %s", displayRef(ref), img.Width, img.Height, img.ColorSpace)
	}

	return &Prepared{
		Request: req,
		Image:   img,
		Dest:    Placement(img.Width, img.Height, req.Rect, s.scale),
	}, nil
}

// Apply registers the image on the page and draws it.
func (s *Stamper) Apply(doc wrapper.FormDocument, p *Prepared) error {
	name, err := doc.AddPageImage(p.Request.Page, p.Request.Image, p.Image)
	if err != nil {
		return errors.WrapError(errors.ErrorTypeWriteFailed, err).WithPage(p.Request.Page)
	}

	b := content.NewBuilder()
	b.DrawImage(name, p.Dest)
	if err := doc.AppendPageContent(p.Request.Page, b.Bytes()); err != nil {
		return errors.WrapError(errors.ErrorTypeWriteFailed, err).WithPage(p.Request.Page)
	}
	s.logger.Debugf("stamped %s on page %d at %s", displayRef(p.Request.Image), p.Request.Page, p.Dest)
	return nil
}

// Stamp prepares and applies req.
func (s *Stamper) Stamp(doc wrapper.FormDocument, req Request) error {
	p, err := s.Prepare(doc, req)
	if err != nil {
		return err
	}
	return s.Apply(doc, p)
}

// Placement returns where an image of w×h pixels is drawn inside rect.
func Placement(w, h int, rect geom.Rect, mode ScaleMode) geom.Rect {
	if mode != ScaleFit || w <= 0 || h <= 0 {
		return rect
	}

	scale := rect.Width() / float64(w)
	if sh := rect.Height() / float64(h); sh < scale {
		scale = sh
	}
	dw, dh := float64(w)*scale, float64(h)*scale
	x := rect.Left + (rect.Width()-dw)/2
	y := rect.Bottom + (rect.Height()-dh)/2
	return geom.Rect{Left: x, Bottom: y, Right: x + dw, Top: y + dh}
}

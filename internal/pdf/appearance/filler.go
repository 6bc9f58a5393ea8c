package appearance

import (
	"sort"

	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/form"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

// Result summarizes a fill.
type Result struct {
	// Filled lists the qualified names written, in document order.
	Filled []string
	// Stamps counts the images drawn, signature stamps included.
	Stamps int
	// Warnings holds non-fatal layout problems.
	Warnings []*errors.PDFError
}

// Filler fills form fields and stamps images. Every value is validated and
// every appearance generated before the document is modified, so a failed
// fill leaves the document as it was.
type Filler struct {
	opts   Options
	images stamp.Resolver
	logger *logging.Logger
}

// NewFiller creates a Filler.
func NewFiller(opts Options, logger *logging.Logger) (*Filler, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidInput, err).WithContext("layout options")
	}
	return &Filler{opts: opts, logger: logger}, nil
}

// Options returns the layout options in use.
func (f *Filler) Options() Options {
	return f.opts
}

// SetImageResolver routes image file references, from stamps and
// signature values alike, through r.
func (f *Filler) SetImageResolver(r stamp.Resolver) {
	f.images = r
}

// Fill writes values (keyed by qualified name) and draws the stamps. Images
// are decoded once per call.
func (f *Filler) Fill(doc wrapper.FormDocument, values map[string]Input, stamps []stamp.Request) (*Result, error) {
	model, err := form.Load(doc)
	if err != nil {
		return nil, err
	}
	if len(model.Fields()) == 0 && len(values) > 0 {
		return nil, errors.NewPDFError(errors.ErrorTypeInvalidForm, "document has no form fields")
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := model.Lookup(name); err != nil {
			return nil, err
		}
	}

	stamper := stamp.NewStamper(f.opts.Scale, f.opts.ImageCacheSize, f.logger)
	stamper.SetResolver(f.images)
	gen := newGenerator(doc, f.opts, stamper, f.logger)

	var plans []*fieldPlan
	for _, field := range model.Fields() {
		in, ok := values[field.QualifiedName]
		if !ok {
			continue
		}
		p, err := gen.plan(field, in)
		if err != nil {
			return nil, err
		}
		f.logger.Debugf("planned %s (%s): %d widget(s)", field.QualifiedName, field.Type, len(p.widgets))
		plans = append(plans, p)
	}

	prepared := make([]*stamp.Prepared, 0, len(stamps))
	for _, req := range stamps {
		p, err := stamper.Prepare(doc, req)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, p)
	}

	res := &Result{}
	for _, p := range plans {
		if err := apply(doc, stamper, p); err != nil {
			return nil, err
		}
		res.Filled = append(res.Filled, p.field.QualifiedName)
		res.Stamps += len(p.stamps)
		res.Warnings = append(res.Warnings, p.warnings...)
	}
	for _, p := range prepared {
		if err := stamper.Apply(doc, p); err != nil {
			return nil, err
		}
		res.Stamps++
	}

	f.logger.Infof("filled %d field(s), %d stamp(s), %d warning(s)", len(res.Filled), res.Stamps, len(res.Warnings))
	return res, nil
}

func apply(doc wrapper.FormDocument, stamper *stamp.Stamper, p *fieldPlan) error {
	name := p.field.QualifiedName
	if p.value != nil {
		if err := doc.SetValue(p.field.ID, *p.value); err != nil {
			return errors.WrapError(errors.ErrorTypeWriteFailed, err).WithField(name)
		}
	}
	for _, w := range p.widgets {
		if err := doc.SetAppearance(w.id, w.ap); err != nil {
			return errors.WrapError(errors.ErrorTypeWriteFailed, err).WithField(name)
		}
		if w.state == "" {
			continue
		}
		if err := doc.SetAppearanceState(w.id, w.state); err != nil {
			return errors.WrapError(errors.ErrorTypeWriteFailed, err).WithField(name)
		}
	}
	for _, s := range p.stamps {
		if err := stamper.Apply(doc, s); err != nil {
			return err
		}
	}
	for _, id := range p.remove {
		if err := doc.RemoveWidget(id); err != nil {
			return errors.WrapError(errors.ErrorTypeWriteFailed, err).WithField(name)
		}
	}
	return nil
}

package appearance

import (
	"html"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf/content"
	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/font"
	"github.com/a3tai/pdfform/internal/pdf/form"
	"github.com/a3tai/pdfform/internal/pdf/geom"
	"github.com/a3tai/pdfform/internal/pdf/layout"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

// Caption glyphs drawn with ZapfDingbats when /MK has no /CA.
const (
	checkGlyph  = "4"
	bulletGlyph = "l"

	zapfResource = "ZaDb"
)

// widgetPlan is the appearance to install on one widget. An empty state
// leaves /AS alone.
type widgetPlan struct {
	id    wrapper.NodeID
	ap    wrapper.Appearance
	state string
}

// fieldPlan is everything one field fill will change, computed before the
// document is touched.
type fieldPlan struct {
	field    *form.Field
	value    *wrapper.Value
	widgets  []widgetPlan
	stamps   []*stamp.Prepared
	remove   []wrapper.NodeID
	warnings []*errors.PDFError
}

// generator builds field plans for one fill run.
type generator struct {
	doc     wrapper.FormDocument
	opts    Options
	fonts   *fontCache
	stamper *stamp.Stamper
	policy  *bluemonday.Policy
	logger  *logging.Logger
}

func newGenerator(doc wrapper.FormDocument, opts Options, stamper *stamp.Stamper, logger *logging.Logger) *generator {
	return &generator{
		doc:     doc,
		opts:    opts,
		fonts:   newFontCache(doc),
		stamper: stamper,
		policy:  bluemonday.StrictPolicy(),
		logger:  logger,
	}
}

// plan validates in against f and generates its appearances.
func (g *generator) plan(f *form.Field, in Input) (*fieldPlan, error) {
	switch f.Type {
	case form.InputText, form.InputTextarea, form.InputPassword, form.InputSelect, form.InputCombo:
		return g.planText(f, in)
	case form.InputCheckbox:
		return g.planCheckbox(f, in)
	case form.InputRadio:
		return g.planRadio(f, in)
	case form.InputSignature:
		return g.planSignature(f, in)
	case form.InputButton:
		return nil, errors.InvalidValue(f.QualifiedName, "push buttons cannot be filled")
	}
	return nil, errors.InvalidValue(f.QualifiedName, "unsupported input type %q", f.Type)
}

// --- text-like fields ---

func (g *generator) planText(f *form.Field, in Input) (*fieldPlan, error) {
	var (
		value   wrapper.Value
		display string
	)

	switch f.Type {
	case form.InputSelect, form.InputCombo:
		v, lines, err := choiceValue(f, in)
		if err != nil {
			return nil, err
		}
		value, display = v, strings.Join(lines, "\n")
	case form.InputText, form.InputTextarea, form.InputPassword:
		if in.Kind != KindText {
			return nil, errors.InvalidValue(f.QualifiedName, "%s field expects a string, got a %s", f.Type, in.Kind)
		}
		text := in.Text
		if f.Flags.Has(form.FlagRichText) {
			text = html.UnescapeString(g.policy.Sanitize(text))
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(text) > f.MaxLen {
			return nil, errors.InvalidValue(f.QualifiedName, "value has %d characters, at most %d allowed",
				utf8.RuneCountInString(text), f.MaxLen)
		}
		value, display = wrapper.TextValue(text), text
		if f.Type == form.InputPassword {
			display = strings.Repeat("*", utf8.RuneCountInString(text))
		}
	default:
		return nil, errors.InvalidValue(f.QualifiedName, "%s field is not text", f.Type)
	}

	p := &fieldPlan{field: f, value: &value}
	for _, w := range f.Widgets {
		stream, warns := g.textStream(f, w, display)
		p.warnings = append(p.warnings, warns...)
		p.widgets = append(p.widgets, widgetPlan{id: w.ID, ap: wrapper.Appearance{Normal: stream}})
	}
	return p, nil
}

// choiceValue matches the input against the field's options, returning the
// value to store and the display text of each selected option.
func choiceValue(f *form.Field, in Input) (wrapper.Value, []string, error) {
	multi := f.Type == form.InputSelect && f.Flags.Has(form.FlagMultiSelect)

	var items []string
	switch in.Kind {
	case KindText:
		items = []string{in.Text}
	case KindList:
		if !multi && len(in.Items) != 1 {
			return wrapper.Value{}, nil, errors.InvalidValue(f.QualifiedName, "%s field takes a single value, got %d", f.Type, len(in.Items))
		}
		items = in.Items
	case KindBool:
		return wrapper.Value{}, nil, errors.InvalidValue(f.QualifiedName, "%s field expects an option, got a boolean", f.Type)
	}

	free := len(f.Choices) == 0 || (f.Type == form.InputCombo && f.Flags.Has(form.FlagEdit))
	exports := make([]string, 0, len(items))
	displays := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" && in.Kind == KindText {
			continue
		}
		opt, ok := matchOption(f.Choices, item)
		switch {
		case ok:
			exports = append(exports, opt.Export)
			displays = append(displays, opt.Display)
		case free:
			exports = append(exports, item)
			displays = append(displays, item)
		default:
			return wrapper.Value{}, nil, errors.InvalidValue(f.QualifiedName, "%q is not one of %v", item, f.Options())
		}
	}

	if in.Kind == KindList {
		return wrapper.ListValue(exports), displays, nil
	}
	if len(exports) == 0 {
		return wrapper.TextValue(""), nil, nil
	}
	return wrapper.TextValue(exports[0]), displays, nil
}

func matchOption(opts []wrapper.Option, s string) (wrapper.Option, bool) {
	for _, o := range opts {
		if o.Export == s {
			return o, true
		}
	}
	for _, o := range opts {
		if o.Display == s {
			return o, true
		}
	}
	return wrapper.Option{}, false
}

// multiline reports whether f lays out text over several lines.
func multiline(f *form.Field) bool {
	return f.Type == form.InputTextarea || f.Type == form.InputSelect
}

func comb(f *form.Field) bool {
	return f.Type == form.InputText && f.Flags.Has(form.FlagComb) && f.MaxLen > 0
}

// textStream lays out text in the widget box:
//
//	/Tx BMC q <clip> re W n BT /F size Tf <color> x y Td (..) Tj ... ET Q EMC
func (g *generator) textStream(f *form.Field, w form.Widget, text string) (*wrapper.AppearanceStream, []*errors.PDFError) {
	da := w.DA
	rf := g.fonts.resolve(da.Font)
	m := rf.metrics
	box := w.Rect.AtOrigin()
	params := layout.Params{
		Box:     box,
		Padding: g.opts.Padding + w.BorderWidth,
		Align:   layout.AlignmentFromQ(w.Quadding),
	}

	var warns []*errors.PDFError
	size, warn := g.fontSize(f, da, m, text, params)
	if warn != nil {
		warns = append(warns, warn)
	}

	var placed []layout.Placed
	switch {
	case comb(f):
		placed = layout.PlaceComb(text, f.MaxLen, m, size, m.CapHeightAt(size), box)
	case multiline(f):
		lines := layout.Wrap(text, m, size, params.Inner().Width())
		placed = layout.PlaceMulti(lines, size*g.opts.Leading, params)
	default:
		placed = []layout.Placed{layout.PlaceSingle(layout.SingleLine(text, m, size), m.CapHeightAt(size), params)}
	}

	b := content.NewBuilder()
	drawFrame(b, w, box)
	b.BeginMarkedContent("Tx")
	b.SaveState()
	b.ClipRect(box.Inset(math.Max(w.BorderWidth, 1)))
	b.BeginText()
	b.SetFont(da.Font, size)
	da.Color.Apply(b)
	var x, y float64
	lossy := false
	for _, p := range placed {
		if p.Text == "" {
			continue
		}
		b.MoveText(p.X-x, p.Y-y)
		x, y = p.X, p.Y
		encoded, ok := m.Encode(p.Text)
		if !ok {
			lossy = true
		}
		b.ShowText(encoded)
	}
	if lossy {
		g.logger.Warnf("field %s: text has characters outside the %s encoding", f.QualifiedName, rf.baseFont)
		warns = append(warns, errors.LossyEncoding(f.QualifiedName, rf.baseFont))
	}
	b.EndText()
	b.RestoreState()
	b.EndMarkedContent()

	return &wrapper.AppearanceStream{
		BBox:    box,
		Content: b.Bytes(),
		Fonts:   map[string]string{da.Font: rf.baseFont},
	}, warns
}

// fontSize resolves a size of 0 by auto-sizing, or by the configured
// default when auto-sizing is off.
func (g *generator) fontSize(f *form.Field, da form.DefaultAppearance, m *font.Metrics, text string, p layout.Params) (float64, *errors.PDFError) {
	if !da.AutoSize() {
		return da.Size, nil
	}
	if !g.opts.AutoSize {
		return g.opts.DefaultFontSize, nil
	}

	fits := func(size float64) bool {
		if multiline(f) {
			return layout.FitsMulti(text, m, size, g.opts.Leading, p)
		}
		return layout.FitsSingle(text, m, size, g.opts.Leading, p)
	}
	size, ok := layout.AutoSize(g.opts.sizeRange(), fits)
	if !ok {
		g.logger.Warnf("field %s: text does not fit at %g pt", f.QualifiedName, size)
		return size, errors.LayoutOverflow(f.QualifiedName, size)
	}
	return size, nil
}

// drawFrame paints the /MK background and border.
func drawFrame(b *content.Builder, w form.Widget, box geom.Rect) {
	if bg, ok := form.ColorFromArray(w.Background); ok {
		b.SaveState()
		bg.Apply(b)
		b.FillRect(box)
		b.RestoreState()
	}
	if bc, ok := form.ColorFromArray(w.BorderColor); ok && w.BorderWidth > 0 {
		b.SaveState()
		bc.ApplyStroke(b)
		b.SetLineWidth(w.BorderWidth)
		b.StrokeRect(box.Inset(w.BorderWidth / 2))
		b.RestoreState()
	}
}

// --- buttons ---

func (g *generator) planCheckbox(f *form.Field, in Input) (*fieldPlan, error) {
	token, err := checkboxToken(f, in)
	if err != nil {
		return nil, err
	}

	value := wrapper.NameValue(form.OffState)
	if token != "" {
		value = wrapper.NameValue(token)
	}
	p := &fieldPlan{field: f, value: &value}
	for _, w := range f.Widgets {
		state := form.OffState
		if token != "" && w.OnState == token {
			state = token
		}
		p.widgets = append(p.widgets, g.buttonPlan(f, w, state))
	}
	return p, nil
}

// checkboxToken returns the on state to select, "" for off.
func checkboxToken(f *form.Field, in Input) (string, error) {
	states := f.OnStates()
	first := form.DefaultOnState
	if len(states) > 0 {
		first = states[0]
	}

	switch in.Kind {
	case KindBool:
		if in.Checked {
			return first, nil
		}
		return "", nil
	case KindText:
		s := buttonToken(strings.TrimSpace(in.Text))
		for _, st := range states {
			if st == s {
				return st, nil
			}
		}
		if s == "" || s == form.OffState {
			return "", nil
		}
		if b, err := strconv.ParseBool(s); err == nil {
			if b {
				return first, nil
			}
			return "", nil
		}
	case KindList:
	}
	return "", errors.InvalidValue(f.QualifiedName, "checkbox expects true, false or one of %v, got %q", f.Options(), in.String())
}

func (g *generator) planRadio(f *form.Field, in Input) (*fieldPlan, error) {
	states := f.OnStates()
	if in.Kind != KindText {
		return nil, errors.InvalidValue(f.QualifiedName, "radio group expects one of %v, got %q", f.Options(), in.String())
	}

	token := buttonToken(strings.TrimSpace(in.Text))
	found := false
	for _, s := range states {
		if s == token {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.InvalidValue(f.QualifiedName, "%q is not one of %v", in.Text, f.Options())
	}

	value := wrapper.NameValue(token)
	p := &fieldPlan{field: f, value: &value}
	for _, w := range f.Widgets {
		state := form.OffState
		if w.OnState == token {
			state = token
		}
		p.widgets = append(p.widgets, g.buttonPlan(f, w, state))
	}
	return p, nil
}

// buttonPlan builds the on/Off appearance pair of one button widget.
func (g *generator) buttonPlan(f *form.Field, w form.Widget, state string) widgetPlan {
	return widgetPlan{
		id: w.ID,
		ap: wrapper.Appearance{States: map[string]*wrapper.AppearanceStream{
			w.OnState:     g.buttonStream(f, w, true),
			form.OffState: g.buttonStream(f, w, false),
		}},
		state: state,
	}
}

// buttonStream draws the frame and, when on, the caption glyph or a drawn
// mark: an X for check boxes, a dot for radio buttons.
func (g *generator) buttonStream(f *form.Field, w form.Widget, on bool) *wrapper.AppearanceStream {
	box := w.Rect.AtOrigin()
	b := content.NewBuilder()
	drawFrame(b, w, box)
	stream := &wrapper.AppearanceStream{BBox: box}
	if !on {
		stream.Content = b.Bytes()
		return stream
	}

	inner := box.Inset(g.opts.Padding + w.BorderWidth)
	if resource, glyph, ok := g.caption(f, w); ok {
		rf := g.fonts.resolve(resource)
		size := w.DA.Size
		if size <= 0 {
			size = inner.Height()
		}
		if gw := rf.metrics.TextWidth(glyph, size); gw > inner.Width() && gw > 0 {
			size *= inner.Width() / gw
		}
		gw := rf.metrics.TextWidth(glyph, size)

		b.SaveState()
		b.BeginText()
		b.SetFont(resource, size)
		w.DA.Color.Apply(b)
		b.MoveText(box.Left+(box.Width()-gw)/2, box.Bottom+(box.Height()-rf.metrics.CapHeightAt(size))/2)
		b.ShowText(glyph)
		b.EndText()
		b.RestoreState()
		stream.Fonts = map[string]string{resource: rf.baseFont}
		stream.Content = b.Bytes()
		return stream
	}

	b.SaveState()
	if f.Type == form.InputRadio {
		w.DA.Color.Apply(b)
		r := math.Min(inner.Width(), inner.Height()) / 2
		b.Circle(box.Left+box.Width()/2, box.Bottom+box.Height()/2, r)
		b.Fill()
	} else {
		w.DA.Color.ApplyStroke(b)
		b.SetLineWidth(1)
		b.MoveTo(inner.Left, inner.Bottom)
		b.LineTo(inner.Right, inner.Top)
		b.MoveTo(inner.Left, inner.Top)
		b.LineTo(inner.Right, inner.Bottom)
		b.Stroke()
	}
	b.RestoreState()
	stream.Content = b.Bytes()
	return stream
}

// caption picks the font resource and glyph of a button's on state. The
// /MK /CA caption is a ZapfDingbats code; a /DA in ZapfDingbats without a
// caption gets the default check or bullet.
func (g *generator) caption(f *form.Field, w form.Widget) (string, string, bool) {
	resource := w.DA.Font
	rf := g.fonts.resolve(resource)
	glyph := w.Caption

	if font.Standard(rf.baseFont).BaseFont != font.ZapfDingbats {
		if glyph == "" {
			return "", "", false
		}
		resource = zapfResource
		rf = g.fonts.resolve(resource)
	}
	if glyph == "" {
		glyph = checkGlyph
		if f.Type == form.InputRadio {
			glyph = bulletGlyph
		}
	}

	encoded, lossless := rf.metrics.Encode(glyph)
	if !lossless || len(encoded) != 1 || !rf.metrics.HasGlyph(encoded[0]) {
		return "", "", false
	}
	return resource, encoded, true
}

// --- signatures ---

func (g *generator) planSignature(f *form.Field, in Input) (*fieldPlan, error) {
	ref := strings.TrimSpace(in.Text)
	if in.Kind != KindText || ref == "" {
		return nil, errors.InvalidValue(f.QualifiedName, "signature field expects an image path")
	}

	p := &fieldPlan{field: f}
	for _, w := range f.Widgets {
		if w.Page == 0 {
			continue
		}
		prep, err := g.stamper.Prepare(g.doc, stamp.Request{Image: ref, Page: w.Page, Rect: w.Rect})
		if err != nil {
			if perr, ok := err.(*errors.PDFError); ok && perr.Field == "" {
				return nil, perr.WithField(f.QualifiedName)
			}
			return nil, err
		}
		p.stamps = append(p.stamps, prep)
		p.remove = append(p.remove, w.ID)
	}
	if len(p.stamps) == 0 {
		return nil, errors.InvalidValue(f.QualifiedName, "signature field has no widget on a page")
	}
	return p, nil
}

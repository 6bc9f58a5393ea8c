package wrapper

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/unicode"

	"github.com/a3tai/pdfform/internal/pdf/font"
	"github.com/a3tai/pdfform/internal/pdf/geom"
)

// PDFCPUDocument implements FormDocument on a pdfcpu model.Context
type PDFCPUDocument struct {
	ctx      *model.Context
	acroForm types.Dict

	nodes  []pdfcpuNode
	fields []FieldNode

	annotPage map[int]int // annotation object number -> page
	pageObj   map[int]int // page object number -> page

	images     map[string]types.IndirectRef
	pageImages map[int]map[string]string
	wrapped    map[int]bool
}

type pdfcpuNode struct {
	dict types.Dict
	ref  *types.IndirectRef
}

// OpenPDFCPU reads a PDF file into a FormDocument. The file is closed
// before returning.
func OpenPDFCPU(path string) (*PDFCPUDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open", Err: err}
	}
	defer file.Close()

	return ReadPDFCPU(file)
}

// ReadPDFCPU reads a PDF from rs into a FormDocument.
func ReadPDFCPU(rs io.ReadSeeker) (*PDFCPUDocument, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	d := &PDFCPUDocument{
		ctx:        ctx,
		annotPage:  map[int]int{},
		pageObj:    map[int]int{},
		images:     map[string]types.IndirectRef{},
		pageImages: map[int]map[string]string{},
		wrapped:    map[int]bool{},
	}
	if err := d.indexPages(); err != nil {
		return nil, err
	}
	if err := d.loadFields(); err != nil {
		return nil, err
	}
	return d, nil
}

// Context exposes the underlying pdfcpu context.
func (d *PDFCPUDocument) Context() *model.Context {
	return d.ctx
}

func (d *PDFCPUDocument) indexPages() error {
	for p := 1; p <= d.ctx.PageCount; p++ {
		pageDict, pageRef, _, err := d.ctx.PageDict(p, false)
		if err != nil {
			return &WrapperError{Library: LibraryPDFCPU, Op: "index pages", Err: fmt.Errorf("page %d: %w", p, err)}
		}
		if pageDict == nil {
			continue
		}
		if pageRef != nil {
			d.pageObj[pageRef.ObjectNumber.Value()] = p
		}

		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := d.ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for _, a := range annots {
			if ref, ok := a.(types.IndirectRef); ok {
				d.annotPage[ref.ObjectNumber.Value()] = p
			}
		}
	}
	return nil
}

func (d *PDFCPUDocument) loadFields() error {
	rootDict, err := d.ctx.Catalog()
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "read fields", Err: fmt.Errorf("failed to get catalog: %w", err)}
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil
	}
	acroFormDict, err := d.ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "read fields", Err: fmt.Errorf("failed to dereference AcroForm: %w", err)}
	}
	if acroFormDict == nil {
		return nil
	}
	d.acroForm = acroFormDict

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil
	}
	fieldsArray, err := d.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "read fields", Err: fmt.Errorf("failed to dereference Fields array: %w", err)}
	}

	visited := map[int]bool{}
	for _, obj := range fieldsArray {
		if err := d.loadNode(obj, NoNode, visited); err != nil {
			return err
		}
	}
	return nil
}

func (d *PDFCPUDocument) loadNode(obj types.Object, parent NodeID, visited map[int]bool) error {
	var ref *types.IndirectRef
	if r, ok := obj.(types.IndirectRef); ok {
		if visited[r.ObjectNumber.Value()] {
			return nil
		}
		visited[r.ObjectNumber.Value()] = true
		ref = &r
	}

	dict, err := d.ctx.DereferenceDict(obj)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "read fields", Err: fmt.Errorf("failed to dereference field: %w", err)}
	}
	if dict == nil {
		return nil
	}

	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, pdfcpuNode{dict: dict, ref: ref})
	node := d.parseNode(dict, ref)
	node.ID = id
	node.Parent = parent
	d.fields = append(d.fields, node)
	if parent != NoNode {
		d.fields[parent].Kids = append(d.fields[parent].Kids, id)
	}

	kidsObj, found := dict.Find("Kids")
	if !found {
		return nil
	}
	kids, err := d.ctx.DereferenceArray(kidsObj)
	if err != nil {
		return nil
	}
	for _, kid := range kids {
		if err := d.loadNode(kid, id, visited); err != nil {
			return err
		}
	}
	return nil
}

func (d *PDFCPUDocument) parseNode(dict types.Dict, ref *types.IndirectRef) FieldNode {
	var n FieldNode

	if o, found := dict.Find("T"); found {
		if s, err := d.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil); err == nil {
			n.Name = &s
		}
	}
	n.Label = d.stringEntry(dict, "TU")
	n.FieldType = d.nameEntry(dict, "FT")
	n.Flags = d.intEntry(dict, "Ff")
	n.Quadding = d.intEntry(dict, "Q")
	n.MaxLen = d.intEntry(dict, "MaxLen")
	if o, found := dict.Find("DA"); found {
		if s, err := d.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil); err == nil {
			n.DA = &s
		}
	}
	if o, found := dict.Find("V"); found {
		n.Value = d.parseValue(o)
	}
	n.Options = d.parseOptions(dict)

	subtype := d.nameEntry(dict, "Subtype")
	_, hasRect := dict.Find("Rect")
	n.IsWidget = subtype == "Widget" || hasRect
	if !n.IsWidget {
		return n
	}

	if r, ok := d.rectEntry(dict, "Rect"); ok {
		n.Rect = r
	}
	if ref != nil {
		n.Page = d.annotPage[ref.ObjectNumber.Value()]
	}
	if n.Page == 0 {
		if o, found := dict.Find("P"); found {
			if pr, ok := o.(types.IndirectRef); ok {
				n.Page = d.pageObj[pr.ObjectNumber.Value()]
			}
		}
	}
	n.States = d.appearanceStates(dict)
	n.State = d.nameEntry(dict, "AS")

	if o, found := dict.Find("MK"); found {
		if mk, err := d.ctx.DereferenceDict(o); err == nil && mk != nil {
			n.Caption = d.stringEntry(mk, "CA")
			n.Background = d.numbers(mk, "BG")
			n.BorderColor = d.numbers(mk, "BC")
		}
	}
	if len(n.BorderColor) > 0 {
		n.BorderWidth = 1
	}
	if o, found := dict.Find("BS"); found {
		if bs, err := d.ctx.DereferenceDict(o); err == nil && bs != nil {
			if wObj, found := bs.Find("W"); found {
				if w, err := d.ctx.DereferenceNumber(wObj); err == nil {
					n.BorderWidth = w
				}
			}
		}
	}
	return n
}

func (d *PDFCPUDocument) stringEntry(dict types.Dict, key string) string {
	o, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := d.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

func (d *PDFCPUDocument) nameEntry(dict types.Dict, key string) string {
	o, found := dict.Find(key)
	if !found {
		return ""
	}
	n, err := d.ctx.DereferenceName(o, model.V10, nil)
	if err != nil {
		return ""
	}
	return string(n)
}

func (d *PDFCPUDocument) intEntry(dict types.Dict, key string) *int {
	o, found := dict.Find(key)
	if !found {
		return nil
	}
	i, err := d.ctx.DereferenceInteger(o)
	if err != nil || i == nil {
		return nil
	}
	v := i.Value()
	return &v
}

func (d *PDFCPUDocument) numbers(dict types.Dict, key string) []float64 {
	o, found := dict.Find(key)
	if !found {
		return nil
	}
	arr, err := d.ctx.DereferenceArray(o)
	if err != nil {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		f, err := d.ctx.DereferenceNumber(item)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func (d *PDFCPUDocument) rectEntry(dict types.Dict, key string) (geom.Rect, bool) {
	v := d.numbers(dict, key)
	if len(v) != 4 {
		return geom.Rect{}, false
	}
	return geom.NewRect(v[0], v[1], v[2], v[3]), true
}

func (d *PDFCPUDocument) parseValue(o types.Object) *Value {
	obj, err := d.ctx.Dereference(o)
	if err != nil || obj == nil {
		return nil
	}
	switch v := obj.(type) {
	case types.Name:
		val := NameValue(string(v))
		return &val
	case types.StringLiteral, types.HexLiteral:
		s, err := d.ctx.DereferenceStringOrHexLiteral(v, model.V10, nil)
		if err != nil {
			return nil
		}
		val := TextValue(s)
		return &val
	case types.Array:
		var items []string
		for _, item := range v {
			if s, err := d.ctx.DereferenceStringOrHexLiteral(item, model.V10, nil); err == nil {
				items = append(items, s)
			}
		}
		val := ListValue(items)
		return &val
	}
	return nil
}

func (d *PDFCPUDocument) parseOptions(dict types.Dict) []Option {
	o, found := dict.Find("Opt")
	if !found {
		return nil
	}
	arr, err := d.ctx.DereferenceArray(o)
	if err != nil {
		return nil
	}

	options := make([]Option, 0, len(arr))
	for _, item := range arr {
		// a string, or an [export display] pair
		if s, err := d.ctx.DereferenceStringOrHexLiteral(item, model.V10, nil); err == nil {
			options = append(options, Option{Export: s, Display: s})
			continue
		}
		pair, err := d.ctx.DereferenceArray(item)
		if err != nil || len(pair) < 2 {
			continue
		}
		export, err1 := d.ctx.DereferenceStringOrHexLiteral(pair[0], model.V10, nil)
		display, err2 := d.ctx.DereferenceStringOrHexLiteral(pair[1], model.V10, nil)
		if err1 == nil && err2 == nil {
			options = append(options, Option{Export: export, Display: display})
		}
	}
	return options
}

// appearanceStates returns the sorted state names of /AP /N.
func (d *PDFCPUDocument) appearanceStates(dict types.Dict) []string {
	apObj, found := dict.Find("AP")
	if !found {
		return nil
	}
	ap, err := d.ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return nil
	}
	nObj, found := ap.Find("N")
	if !found {
		return nil
	}
	obj, err := d.ctx.Dereference(nObj)
	if err != nil {
		return nil
	}
	states, ok := obj.(types.Dict)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(states))
	for k := range states {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (d *PDFCPUDocument) Fields() ([]FieldNode, error) {
	out := make([]FieldNode, len(d.fields))
	copy(out, d.fields)
	return out, nil
}

func (d *PDFCPUDocument) FormDefaults() FormDefaults {
	var fd FormDefaults
	if d.acroForm == nil {
		return fd
	}
	if o, found := d.acroForm.Find("DA"); found {
		if s, err := d.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil); err == nil {
			fd.DA, fd.HasDA = s, true
		}
	}
	if q := d.intEntry(d.acroForm, "Q"); q != nil {
		fd.Quadding = *q
	}
	return fd
}

func (d *PDFCPUDocument) PageCount() int {
	return d.ctx.PageCount
}

func (d *PDFCPUDocument) drFonts() types.Dict {
	if d.acroForm == nil {
		return nil
	}
	drObj, found := d.acroForm.Find("DR")
	if !found {
		return nil
	}
	dr, err := d.ctx.DereferenceDict(drObj)
	if err != nil || dr == nil {
		return nil
	}
	fontsObj, found := dr.Find("Font")
	if !found {
		return nil
	}
	fonts, err := d.ctx.DereferenceDict(fontsObj)
	if err != nil {
		return nil
	}
	return fonts
}

func (d *PDFCPUDocument) Font(resourceName string) (font.Descriptor, bool) {
	fonts := d.drFonts()
	if fonts == nil {
		return font.Descriptor{}, false
	}
	fObj, found := fonts.Find(resourceName)
	if !found {
		return font.Descriptor{}, false
	}
	fd, err := d.ctx.DereferenceDict(fObj)
	if err != nil || fd == nil {
		return font.Descriptor{}, false
	}

	desc := font.Descriptor{BaseFont: d.nameEntry(fd, "BaseFont")}
	if fc := d.intEntry(fd, "FirstChar"); fc != nil {
		desc.FirstChar = *fc
	}
	desc.Widths = d.numbers(fd, "Widths")

	if o, found := fd.Find("FontDescriptor"); found {
		if fdesc, err := d.ctx.DereferenceDict(o); err == nil && fdesc != nil {
			num := func(key string) float64 {
				if o, found := fdesc.Find(key); found {
					if f, err := d.ctx.DereferenceNumber(o); err == nil {
						return f
					}
				}
				return 0
			}
			desc.MissingWidth = num("MissingWidth")
			desc.AvgWidth = num("AvgWidth")
			desc.MaxWidth = num("MaxWidth")
			desc.Ascent = num("Ascent")
			desc.Descent = num("Descent")
			desc.CapHeight = num("CapHeight")
		}
	}
	return desc, true
}

func (d *PDFCPUDocument) SetValue(id NodeID, v Value) error {
	if err := checkNode(LibraryPDFCPU, "set value", id, len(d.nodes)); err != nil {
		return err
	}
	var obj types.Object
	switch v.Kind {
	case ValueName:
		obj = types.Name(v.Text)
	case ValueList:
		arr := make(types.Array, 0, len(v.List))
		for _, s := range v.List {
			arr = append(arr, encodeText(s))
		}
		obj = arr
	default:
		obj = encodeText(v.Text)
	}
	d.nodes[id].dict["V"] = obj
	d.fields[id].Value = &v
	return nil
}

// encodeText returns a literal string for printable ASCII and a UTF-16BE hex
// string otherwise.
func encodeText(s string) types.Object {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(escapeLiteral(s))
	}
	b, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return types.StringLiteral(escapeLiteral(s))
	}
	return types.HexLiteral(hex.EncodeToString(b))
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

func (d *PDFCPUDocument) newStream(content []byte) (*types.StreamDict, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	return sd, nil
}

func (d *PDFCPUDocument) addStream(sd *types.StreamDict) (types.IndirectRef, error) {
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, err
	}
	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return types.IndirectRef{}, err
	}
	return *ref, nil
}

func (d *PDFCPUDocument) formXObject(s *AppearanceStream) (types.IndirectRef, error) {
	sd, err := d.newStream(s.Content)
	if err != nil {
		return types.IndirectRef{}, err
	}
	sd.Dict["Type"] = types.Name("XObject")
	sd.Dict["Subtype"] = types.Name("Form")
	sd.Dict["FormType"] = types.Integer(1)
	sd.Dict["BBox"] = types.Array{
		types.Float(s.BBox.Left), types.Float(s.BBox.Bottom),
		types.Float(s.BBox.Right), types.Float(s.BBox.Top),
	}
	sd.Dict["Resources"] = d.appearanceResources(s.Fonts)
	return d.addStream(sd)
}

// appearanceResources links the named fonts to the /DR entries of the same
// name, adding standard Type1 fonts to /DR for names it lacks.
func (d *PDFCPUDocument) appearanceResources(fonts map[string]string) types.Dict {
	if len(fonts) == 0 {
		return types.Dict{}
	}
	dr := d.drFonts()
	fontDict := types.Dict{}
	for name, baseFont := range fonts {
		if dr != nil {
			if o, found := dr.Find(name); found {
				fontDict[name] = o
				continue
			}
		}
		fd := standardFontDict(baseFont)
		ref, err := d.ctx.IndRefForNewObject(fd)
		if err != nil {
			fontDict[name] = fd
			continue
		}
		fontDict[name] = *ref
		d.addDRFont(name, *ref)
	}
	return types.Dict{"Font": fontDict}
}

func standardFontDict(baseFont string) types.Dict {
	fd := types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name(baseFont),
	}
	if !font.Standard(baseFont).IsSymbolic() {
		fd["Encoding"] = types.Name("WinAnsiEncoding")
	}
	return fd
}

func (d *PDFCPUDocument) addDRFont(name string, ref types.IndirectRef) {
	if d.acroForm == nil {
		return
	}
	var dr types.Dict
	if drObj, found := d.acroForm.Find("DR"); found {
		dr, _ = d.ctx.DereferenceDict(drObj)
	}
	if dr == nil {
		dr = types.Dict{}
		d.acroForm["DR"] = dr
	}
	var fonts types.Dict
	if fObj, found := dr.Find("Font"); found {
		fonts, _ = d.ctx.DereferenceDict(fObj)
	}
	if fonts == nil {
		fonts = types.Dict{}
		dr["Font"] = fonts
	}
	fonts[name] = ref
}

func (d *PDFCPUDocument) SetAppearance(id NodeID, ap Appearance) error {
	if err := checkNode(LibraryPDFCPU, "set appearance", id, len(d.nodes)); err != nil {
		return err
	}

	var n types.Object
	if ap.States != nil {
		states := types.Dict{}
		names := make([]string, 0, len(ap.States))
		for state := range ap.States {
			names = append(names, state)
		}
		sort.Strings(names)
		for _, state := range names {
			ref, err := d.formXObject(ap.States[state])
			if err != nil {
				return &WrapperError{Library: LibraryPDFCPU, Op: "set appearance", Err: err}
			}
			states[state] = ref
		}
		n = states
		d.fields[id].States = names
	} else if ap.Normal != nil {
		ref, err := d.formXObject(ap.Normal)
		if err != nil {
			return &WrapperError{Library: LibraryPDFCPU, Op: "set appearance", Err: err}
		}
		n = ref
		d.fields[id].States = nil
	} else {
		return &WrapperError{Library: LibraryPDFCPU, Op: "set appearance", Err: fmt.Errorf("empty appearance")}
	}

	// replaces any prior /AP, including stale down appearances
	d.nodes[id].dict["AP"] = types.Dict{"N": n}
	return nil
}

func (d *PDFCPUDocument) SetAppearanceState(id NodeID, state string) error {
	if err := checkNode(LibraryPDFCPU, "set appearance state", id, len(d.nodes)); err != nil {
		return err
	}
	d.nodes[id].dict["AS"] = types.Name(state)
	d.fields[id].State = state
	return nil
}

func (d *PDFCPUDocument) RemoveWidget(id NodeID) error {
	if err := checkNode(LibraryPDFCPU, "remove widget", id, len(d.nodes)); err != nil {
		return err
	}
	node := d.nodes[id]
	page := d.fields[id].Page
	if node.ref == nil || page == 0 {
		return nil
	}

	pageDict, _, _, err := d.ctx.PageDict(page, false)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "remove widget", Err: err}
	}
	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil
	}
	annots, err := d.ctx.DereferenceArray(annotsObj)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "remove widget", Err: err}
	}

	kept := make(types.Array, 0, len(annots))
	for _, a := range annots {
		if ref, ok := a.(types.IndirectRef); ok && ref.ObjectNumber == node.ref.ObjectNumber {
			continue
		}
		kept = append(kept, a)
	}
	pageDict["Annots"] = kept
	delete(d.annotPage, node.ref.ObjectNumber.Value())
	d.fields[id].Page = 0
	return nil
}

func (d *PDFCPUDocument) AppendPageContent(page int, content []byte) error {
	if err := checkPage(LibraryPDFCPU, "append content", page, d.ctx.PageCount); err != nil {
		return err
	}
	pageDict, _, _, err := d.ctx.PageDict(page, false)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "append content", Err: err}
	}

	var contents types.Array
	if o, found := pageDict.Find("Contents"); found {
		obj, err := d.ctx.Dereference(o)
		if err != nil {
			return &WrapperError{Library: LibraryPDFCPU, Op: "append content", Err: err}
		}
		if arr, ok := obj.(types.Array); ok {
			contents = append(contents, arr...)
		} else {
			contents = types.Array{o}
		}
	}

	// Existing content may leave the graphics state modified; isolate it
	// once per page so appended drawing starts from the default state.
	if len(contents) > 0 && !d.wrapped[page] {
		sd, err := d.newStream([]byte("q\n"))
		if err != nil {
			return &WrapperError{Library: LibraryPDFCPU, Op: "append content", Err: err}
		}
		qRef, err := d.addStream(sd)
		if err != nil {
			return &WrapperError{Library: LibraryPDFCPU, Op: "append content", Err: err}
		}
		contents = append(types.Array{qRef}, contents...)
		content = append([]byte("Q\n"), content...)
		d.wrapped[page] = true
	}

	sd, err := d.newStream(content)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "append content", Err: err}
	}
	ref, err := d.addStream(sd)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "append content", Err: err}
	}
	pageDict["Contents"] = append(contents, ref)
	return nil
}

func (d *PDFCPUDocument) AddPageImage(page int, key string, img *Image) (string, error) {
	if err := checkPage(LibraryPDFCPU, "add image", page, d.ctx.PageCount); err != nil {
		return "", err
	}
	if name, ok := d.pageImages[page][key]; ok {
		return name, nil
	}

	ref, ok := d.images[key]
	if !ok {
		var err error
		if ref, err = d.imageXObject(img); err != nil {
			return "", &WrapperError{Library: LibraryPDFCPU, Op: "add image", Err: err}
		}
		d.images[key] = ref
	}

	xobjects, err := d.pageXObjects(page)
	if err != nil {
		return "", &WrapperError{Library: LibraryPDFCPU, Op: "add image", Err: err}
	}
	name := freshName("Im", func(n string) bool { _, taken := xobjects.Find(n); return taken })
	xobjects[name] = ref

	if d.pageImages[page] == nil {
		d.pageImages[page] = map[string]string{}
	}
	d.pageImages[page][key] = name
	return name, nil
}

func (d *PDFCPUDocument) imageXObject(img *Image) (types.IndirectRef, error) {
	var sd *types.StreamDict
	if img.Filter != "" {
		// already encoded, store as-is
		sd = &types.StreamDict{Dict: types.NewDict(), Content: img.Data}
		sd.Dict["Filter"] = types.Name(img.Filter)
	} else {
		var err error
		if sd, err = d.newStream(img.Data); err != nil {
			return types.IndirectRef{}, err
		}
	}
	imageDict(sd.Dict, img.Width, img.Height, img.ColorSpace, img.BitsPerComponent)

	if img.SMask != nil {
		mask, err := d.newStream(img.SMask)
		if err != nil {
			return types.IndirectRef{}, err
		}
		imageDict(mask.Dict, img.Width, img.Height, "DeviceGray", 8)
		maskRef, err := d.addStream(mask)
		if err != nil {
			return types.IndirectRef{}, err
		}
		sd.Dict["SMask"] = maskRef
	}
	return d.addStream(sd)
}

func imageDict(dict types.Dict, w, h int, colorSpace string, bpc int) {
	dict["Type"] = types.Name("XObject")
	dict["Subtype"] = types.Name("Image")
	dict["Width"] = types.Integer(w)
	dict["Height"] = types.Integer(h)
	dict["ColorSpace"] = types.Name(colorSpace)
	dict["BitsPerComponent"] = types.Integer(bpc)
}

// pageXObjects returns the page's /Resources /XObject dictionary, creating
// it, and a page-level /Resources copied from the nearest ancestor, when
// missing.
func (d *PDFCPUDocument) pageXObjects(page int) (types.Dict, error) {
	pageDict, _, _, err := d.ctx.PageDict(page, false)
	if err != nil {
		return nil, err
	}

	var res types.Dict
	if o, found := pageDict.Find("Resources"); found {
		if res, err = d.ctx.DereferenceDict(o); err != nil {
			return nil, err
		}
	}
	if res == nil {
		res = d.inheritedResources(pageDict)
		pageDict["Resources"] = res
	}

	var xobjects types.Dict
	if o, found := res.Find("XObject"); found {
		if xobjects, err = d.ctx.DereferenceDict(o); err != nil {
			return nil, err
		}
	}
	if xobjects == nil {
		xobjects = types.Dict{}
		res["XObject"] = xobjects
	}
	return xobjects, nil
}

func (d *PDFCPUDocument) inheritedResources(pageDict types.Dict) types.Dict {
	cur := pageDict
	for i := 0; i < 64; i++ {
		parentObj, found := cur.Find("Parent")
		if !found {
			break
		}
		parent, err := d.ctx.DereferenceDict(parentObj)
		if err != nil || parent == nil {
			break
		}
		if o, found := parent.Find("Resources"); found {
			if res, err := d.ctx.DereferenceDict(o); err == nil && res != nil {
				return res.Clone().(types.Dict)
			}
		}
		cur = parent
	}
	return types.Dict{}
}

func (d *PDFCPUDocument) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "write", Err: err}
	}
	return nil
}

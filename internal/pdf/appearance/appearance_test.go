package appearance

import (
	"bytes"
	stderrors "errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/form"
	"github.com/a3tai/pdfform/internal/pdf/geom"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
	"github.com/a3tai/pdfform/internal/pdf/testpdf"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

type fixture struct {
	doc                         *wrapper.MemoryDocument
	name, notes, agree, choice  wrapper.NodeID
	kids                        []wrapper.NodeID
	color, edit, list, pin      wrapper.NodeID
	secret, rich, tiny, sig, pb wrapper.NodeID
}

func field(name, ft string, page int, r geom.Rect, da string) wrapper.FieldNode {
	n := wrapper.NewWidget(page, r)
	n.Name = wrapper.StringPtr(name)
	n.FieldType = ft
	if da != "" {
		n.DA = wrapper.StringPtr(da)
	}
	return n
}

func newFixture() *fixture {
	doc := wrapper.NewMemoryDocument(2)
	fx := &fixture{doc: doc}

	fx.name = doc.AddNode(wrapper.NoNode, field("name", "Tx", 1, geom.NewRect(50, 700, 250, 720), "/Helv 12 Tf 0 g"))

	notes := field("notes", "Tx", 1, geom.NewRect(50, 500, 300, 600), "/Helv 0 Tf 0 0 1 rg")
	notes.Flags = wrapper.IntPtr(int(form.FlagMultiline))
	fx.notes = doc.AddNode(wrapper.NoNode, notes)

	agree := field("agree", "Btn", 1, geom.NewRect(50, 450, 70, 470), "/ZaDb 0 Tf 0 g")
	agree.States = []string{"3", "Off"}
	agree.State = "Off"
	fx.agree = doc.AddNode(wrapper.NoNode, agree)

	fx.choice = doc.AddNode(wrapper.NoNode, wrapper.FieldNode{
		Name:      wrapper.StringPtr("choice"),
		FieldType: "Btn",
		Flags:     wrapper.IntPtr(int(form.FlagRadio | form.FlagNoToggleToOff)),
	})
	for i, s := range []string{"1", "2", "3"} {
		kid := wrapper.NewWidget(1, geom.NewRect(50+30*float64(i), 400, 66+30*float64(i), 416))
		kid.States = []string{s, "Off"}
		kid.State = "Off"
		fx.kids = append(fx.kids, doc.AddNode(fx.choice, kid))
	}

	opts := []wrapper.Option{{Export: "R", Display: "Red"}, {Export: "G", Display: "Green"}, {Export: "B", Display: "Blue"}}
	combo := field("color", "Ch", 1, geom.NewRect(50, 350, 200, 370), "")
	combo.Flags = wrapper.IntPtr(int(form.FlagCombo))
	combo.Options = opts
	fx.color = doc.AddNode(wrapper.NoNode, combo)

	edit := field("edit", "Ch", 1, geom.NewRect(50, 320, 200, 340), "")
	edit.Flags = wrapper.IntPtr(int(form.FlagCombo | form.FlagEdit))
	edit.Options = opts
	fx.edit = doc.AddNode(wrapper.NoNode, edit)

	list := field("list", "Ch", 1, geom.NewRect(50, 250, 200, 310), "/Helv 10 Tf 0 g")
	list.Flags = wrapper.IntPtr(int(form.FlagMultiSelect))
	list.Options = opts
	fx.list = doc.AddNode(wrapper.NoNode, list)

	pin := field("pin", "Tx", 1, geom.NewRect(50, 200, 130, 220), "/Helv 12 Tf 0 g")
	pin.Flags = wrapper.IntPtr(int(form.FlagComb))
	pin.MaxLen = wrapper.IntPtr(4)
	fx.pin = doc.AddNode(wrapper.NoNode, pin)

	secret := field("secret", "Tx", 1, geom.NewRect(50, 170, 200, 190), "/Helv 12 Tf 0 g")
	secret.Flags = wrapper.IntPtr(int(form.FlagPassword))
	fx.secret = doc.AddNode(wrapper.NoNode, secret)

	rich := field("rich", "Tx", 1, geom.NewRect(50, 140, 200, 160), "/Helv 12 Tf 0 g")
	rich.Flags = wrapper.IntPtr(int(form.FlagRichText))
	fx.rich = doc.AddNode(wrapper.NoNode, rich)

	fx.tiny = doc.AddNode(wrapper.NoNode, field("tiny", "Tx", 1, geom.NewRect(0, 0, 10, 5), ""))
	fx.sig = doc.AddNode(wrapper.NoNode, field("sig", "Sig", 2, geom.NewRect(303, 30, 504, 59), ""))

	pb := field("reset", "Btn", 1, geom.NewRect(0, 0, 40, 20), "")
	pb.Flags = wrapper.IntPtr(int(form.FlagPushbutton))
	fx.pb = doc.AddNode(wrapper.NoNode, pb)
	return fx
}

func newTestFiller(t *testing.T) *Filler {
	t.Helper()
	f, err := NewFiller(DefaultOptions(), logging.Discard())
	require.NoError(t, err)
	return f
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 5))
	for x := 0; x < 20; x++ {
		img.Set(x, 2, color.NRGBA{A: 0xff})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "sig.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func normal(t *testing.T, doc *wrapper.MemoryDocument, id wrapper.NodeID) string {
	t.Helper()
	ap, ok := doc.Appearances[id]
	require.True(t, ok, "node %d has no appearance", id)
	require.NotNil(t, ap.Normal)
	return string(ap.Normal.Content)
}

func TestFill_TextSingleLine(t *testing.T) {
	fx := newFixture()
	res, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"name": TextInput("Bob Smith")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, res.Filled)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, wrapper.TextValue("Bob Smith"), *fx.doc.Node(fx.name).Value)

	// baseline at (20 - 8.616)/2, left inset 2
	want := "/Tx BMC\nq\n1 1 198 18 re\nW\nn\nBT\n/Helv 12 Tf\n0 g\n2 5.69 Td\n(Bob Smith) Tj\nET\nQ\nEMC\n"
	assert.Equal(t, want, normal(t, fx.doc, fx.name))

	ap := fx.doc.Appearances[fx.name].Normal
	assert.Equal(t, geom.Rect{Right: 200, Top: 20}, ap.BBox)
	assert.Equal(t, map[string]string{"Helv": "Helvetica"}, ap.Fonts)
}

func TestFill_Textarea(t *testing.T) {
	fx := newFixture()
	text := strings.Repeat("lorem ipsum dolor sit amet ", 12) + "\nlast line"
	res, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"notes": TextInput(text)}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	got := normal(t, fx.doc, fx.notes)
	assert.Greater(t, strings.Count(got, " Tj\n"), 2)
	assert.Contains(t, got, "0 0 1 rg\n")
	assert.Contains(t, got, "(last line) Tj")
	assert.NotContains(t, got, "/Helv 12 Tf", "auto size shrinks wrapped text to fit")
	// lines after the first move straight down
	assert.Regexp(t, `\n0 -[0-9.]+ Td\n`, got)
}

func TestFill_Checkbox(t *testing.T) {
	tests := []struct {
		name      string
		in        Input
		wantValue string
		wantState string
	}{
		{"true", BoolInput(true), "/3", "3"},
		{"false", BoolInput(false), "/Off", "Off"},
		{"token with slash", TextInput("/3"), "/3", "3"},
		{"bare token", TextInput("3"), "/3", "3"},
		{"string true", TextInput("true"), "/3", "3"},
		{"Off", TextInput("Off"), "/Off", "Off"},
		{"empty", TextInput(""), "/Off", "Off"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"agree": tt.in}, nil)
			require.NoError(t, err)

			n := fx.doc.Node(fx.agree)
			assert.Equal(t, tt.wantValue, n.Value.String())
			assert.Equal(t, tt.wantState, n.State)
			assert.Equal(t, []string{"3", "Off"}, n.States)
		})
	}

	t.Run("glyph", func(t *testing.T) {
		fx := newFixture()
		_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"agree": BoolInput(true)}, nil)
		require.NoError(t, err)

		ap := fx.doc.Appearances[fx.agree]
		on := string(ap.States["3"].Content)
		assert.Contains(t, on, "/ZaDb 16 Tf\n")
		assert.Contains(t, on, "(4) Tj\n")
		assert.Equal(t, map[string]string{"ZaDb": "ZapfDingbats"}, ap.States["3"].Fonts)
		assert.Empty(t, ap.States["Off"].Content)
	})

	t.Run("invalid", func(t *testing.T) {
		fx := newFixture()
		_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"agree": TextInput("maybe")}, nil)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidValue))
		assert.Empty(t, fx.doc.Appearances)
	})
}

func TestFill_CheckboxDrawnMark(t *testing.T) {
	doc := wrapper.NewMemoryDocument(1)
	n := field("box", "Btn", 1, geom.NewRect(0, 0, 14, 14), "/Helv 0 Tf 1 0 0 rg")
	n.BorderColor = []float64{0}
	n.BorderWidth = 1
	id := doc.AddNode(wrapper.NoNode, n)

	_, err := newTestFiller(t).Fill(doc, map[string]Input{"box": BoolInput(true)}, nil)
	require.NoError(t, err)

	// no appearance states existed, so the on state is the conventional one
	assert.Equal(t, "Yes", doc.Node(id).State)
	on := string(doc.Appearances[id].States["Yes"].Content)
	assert.Contains(t, on, "0 G\n1 w\n0.5 0.5 13 13 re\nS\n", "border")
	assert.Contains(t, on, "1 0 0 RG\n1 w\n3 3 m\n11 11 l\n3 11 m\n11 3 l\nS\n")
	assert.NotContains(t, on, "Tj")
}

func TestFill_Radio(t *testing.T) {
	fx := newFixture()
	_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"choice": TextInput("/2")}, nil)
	require.NoError(t, err)

	assert.Equal(t, wrapper.NameValue("2"), *fx.doc.Node(fx.choice).Value)
	var on []wrapper.NodeID
	for _, kid := range fx.kids {
		state := fx.doc.Node(kid).State
		if state != "Off" {
			on = append(on, kid)
			assert.Equal(t, "2", state)
		}
	}
	assert.Equal(t, []wrapper.NodeID{fx.kids[1]}, on, "exactly one widget is on")

	ap := fx.doc.Appearances[fx.kids[1]]
	require.Contains(t, ap.States, "2")
	assert.Contains(t, string(ap.States["2"].Content), "\nf\n", "filled dot")
}

func TestFill_RadioUnknownValue(t *testing.T) {
	fx := newFixture()
	before, err := fx.doc.Fields()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   Input
	}{
		{"unlisted", TextInput("/4")},
		{"Off", TextInput("Off")},
		{"boolean", BoolInput(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{
				"name":   TextInput("Bob"),
				"choice": tt.in,
			}, nil)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidValue))

			var perr *errors.PDFError
			require.True(t, stderrors.As(err, &perr))
			assert.Equal(t, "choice", perr.Field)
		})
	}

	after, err := fx.doc.Fields()
	require.NoError(t, err)
	assert.Equal(t, before, after, "document untouched")
	assert.Empty(t, fx.doc.Appearances)
}

func TestFill_Signature(t *testing.T) {
	fx := newFixture()
	img := writePNG(t, t.TempDir())

	res, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"sig": TextInput(img)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stamps)

	page := fx.doc.Pages[1]
	require.Len(t, page.Content, 1)
	assert.Equal(t, "q\n201 0 0 29 303 30 cm\n/Im1 Do\nQ\n", string(page.Content[0]))
	assert.True(t, fx.doc.Removed[fx.sig])
	assert.Equal(t, 0, fx.doc.Node(fx.sig).Page)
	assert.Nil(t, fx.doc.Node(fx.sig).Value)
	assert.Empty(t, fx.doc.Pages[0].Content)
}

func TestFill_SignatureErrors(t *testing.T) {
	fx := newFixture()
	missing := filepath.Join(t.TempDir(), "missing.png")

	_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"sig": TextInput(missing)}, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrImageLoad))
	var perr *errors.PDFError
	require.True(t, stderrors.As(err, &perr))
	assert.Equal(t, "sig", perr.Field)
	assert.Equal(t, missing, perr.FilePath)

	_, err = newTestFiller(t).Fill(fx.doc, map[string]Input{"sig": TextInput("  ")}, nil)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidValue))

	assert.False(t, fx.doc.Removed[fx.sig])
}

func TestFill_LayoutOverflow(t *testing.T) {
	fx := newFixture()
	res, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"tiny": TextInput("far too much text")}, nil)
	require.NoError(t, err, "overflow is not fatal")

	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, errors.ErrorTypeLayoutOverflow, w.Type)
	assert.Equal(t, "tiny", w.Field)
	assert.Contains(t, normal(t, fx.doc, fx.tiny), "/Helv 4 Tf\n")
}

func TestFill_LossyEncoding(t *testing.T) {
	fx := newFixture()
	res, err := newTestFiller(t).Fill(fx.doc, map[string]Input{
		"name":  TextInput("Snowman \u2603"),
		"notes": TextInput("plain text"),
	}, nil)
	require.NoError(t, err, "unencodable text is not fatal")

	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, errors.ErrorTypeLossyEncoding, w.Type)
	assert.Equal(t, "name", w.Field)
	assert.Contains(t, w.Message, "Helvetica")

	assert.Equal(t, "Snowman \u2603", fx.doc.Node(fx.name).Value.Text)
	assert.Contains(t, normal(t, fx.doc, fx.name), "(Snowman ?) Tj")
}

func TestFill_AutoSizeDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoSize = false
	opts.DefaultFontSize = 9
	f, err := NewFiller(opts, nil)
	require.NoError(t, err)

	fx := newFixture()
	res, err := f.Fill(fx.doc, map[string]Input{"tiny": TextInput("far too much text")}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Contains(t, normal(t, fx.doc, fx.tiny), "/Helv 9 Tf\n")
}

func TestFill_Idempotent(t *testing.T) {
	values := map[string]Input{
		"name":   TextInput("Bob Smith"),
		"notes":  TextInput("one two three four five six seven eight nine ten"),
		"agree":  BoolInput(true),
		"choice": TextInput("3"),
		"color":  TextInput("Green"),
	}

	fx := newFixture()
	filler := newTestFiller(t)
	_, err := filler.Fill(fx.doc, values, nil)
	require.NoError(t, err)
	first := map[wrapper.NodeID]wrapper.Appearance{}
	for id, ap := range fx.doc.Appearances {
		first[id] = ap
	}

	_, err = filler.Fill(fx.doc, values, nil)
	require.NoError(t, err)
	assert.Equal(t, first, fx.doc.Appearances)

	var outs [2]bytes.Buffer
	for i := range outs {
		other := newFixture()
		_, err := filler.Fill(other.doc, values, nil)
		require.NoError(t, err)
		require.NoError(t, other.doc.Write(&outs[i]))
	}
	assert.Equal(t, outs[0].String(), outs[1].String())
}

func TestFill_TextValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		in    Input
	}{
		{"max length", "pin", TextInput("12345")},
		{"boolean for text", "name", BoolInput(true)},
		{"list for text", "name", ListInput([]string{"a"})},
		{"unknown option", "color", TextInput("Purple")},
		{"list for combo", "color", ListInput([]string{"R", "G"})},
		{"boolean for select", "list", BoolInput(true)},
		{"push button", "reset", TextInput("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{tt.field: tt.in}, nil)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidValue), "got %v", err)
			assert.Empty(t, fx.doc.Appearances)
		})
	}
}

func TestFill_Choice(t *testing.T) {
	tests := []struct {
		name  string
		field string
		in    Input
		want  wrapper.Value
		shown []string
	}{
		{"display text normalized", "color", TextInput("Red"), wrapper.TextValue("R"), []string{"(Red) Tj"}},
		{"export value", "color", TextInput("G"), wrapper.TextValue("G"), []string{"(Green) Tj"}},
		{"editable combo", "edit", TextInput("Purple"), wrapper.TextValue("Purple"), []string{"(Purple) Tj"}},
		{"clear", "color", TextInput(""), wrapper.TextValue(""), nil},
		{"multi select", "list", ListInput([]string{"Blue", "R"}), wrapper.ListValue([]string{"B", "R"}),
			[]string{"(Blue) Tj", "(Red) Tj"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture()
			_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{tt.field: tt.in}, nil)
			require.NoError(t, err)

			model, err := form.Load(fx.doc)
			require.NoError(t, err)
			f, err := model.Lookup(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *f.Value)

			got := normal(t, fx.doc, f.ID)
			for _, s := range tt.shown {
				assert.Contains(t, got, s)
			}
			if tt.shown == nil {
				assert.NotContains(t, got, "Tj")
			}
		})
	}
}

func TestFill_Comb(t *testing.T) {
	fx := newFixture()
	_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{"pin": TextInput("1234")}, nil)
	require.NoError(t, err)

	got := normal(t, fx.doc, fx.pin)
	assert.Equal(t, 4, strings.Count(got, " Tj\n"))
	// 20 pt cells, "1" is 6.672 pt wide at 12 pt
	assert.Contains(t, got, "6.66 5.69 Td\n(1) Tj\n20 0 Td\n(2) Tj\n")
}

func TestFill_PasswordAndRichText(t *testing.T) {
	fx := newFixture()
	_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{
		"secret": TextInput("hunter2"),
		"rich":   TextInput("<b>Hi</b> &amp; <i>bye</i>"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hunter2", fx.doc.Node(fx.secret).Value.Text)
	assert.Contains(t, normal(t, fx.doc, fx.secret), "(*******) Tj")
	assert.NotContains(t, normal(t, fx.doc, fx.secret), "hunter2")

	assert.Equal(t, "Hi & bye", fx.doc.Node(fx.rich).Value.Text)
	assert.Contains(t, normal(t, fx.doc, fx.rich), "(Hi & bye) Tj")
}

func TestFill_FieldNotFound(t *testing.T) {
	fx := newFixture()
	_, err := newTestFiller(t).Fill(fx.doc, map[string]Input{
		"name":    TextInput("Bob"),
		"nope":    TextInput("x"),
		"missing": TextInput("y"),
	}, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFieldNotFound))

	var perr *errors.PDFError
	require.True(t, stderrors.As(err, &perr))
	assert.Equal(t, "missing", perr.Field, "names are checked in sorted order")
	assert.Nil(t, fx.doc.Node(fx.name).Value)
}

func TestFill_Stamps(t *testing.T) {
	img := writePNG(t, t.TempDir())

	t.Run("page out of range aborts the fill", func(t *testing.T) {
		fx := newFixture()
		_, err := newTestFiller(t).Fill(fx.doc,
			map[string]Input{"name": TextInput("Bob")},
			[]stamp.Request{{Image: img, Page: 3, Rect: geom.NewRect(0, 0, 10, 10)}})
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrPageNotFound))
		assert.Nil(t, fx.doc.Node(fx.name).Value)
	})

	t.Run("form-less document", func(t *testing.T) {
		doc := wrapper.NewMemoryDocument(1)
		res, err := newTestFiller(t).Fill(doc, nil,
			[]stamp.Request{{Image: img, Page: 1, Rect: geom.NewRect(0, 0, 10, 10)}})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Stamps)
		assert.Len(t, doc.Pages[0].Content, 1)

		_, err = newTestFiller(t).Fill(doc, map[string]Input{"x": TextInput("y")}, nil)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidForm))
	})
}

func TestNewFiller_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoSizeMax = 1
	_, err := NewFiller(opts, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
}

func TestFill_PDFCPU(t *testing.T) {
	doc, err := wrapper.ReadPDFCPU(bytes.NewReader(testpdf.FormFixture()))
	if err != nil {
		t.Skipf("pdfcpu could not read generated fixture: %v", err)
	}
	img := writePNG(t, t.TempDir())

	res, err := newTestFiller(t).Fill(doc, map[string]Input{
		"Name[0]":   TextInput("Bob Smith"),
		"Notes":     TextInput("First line\nSecond line"),
		"Agree":     BoolInput(true),
		"Choice":    TextInput("/3"),
		"Color":     TextInput("Blue"),
		"Signature": TextInput(img),
	}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Filled, 6)
	assert.Equal(t, 1, res.Stamps)

	var out bytes.Buffer
	require.NoError(t, doc.Write(&out))

	reread, err := wrapper.ReadPDFCPU(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	model, err := form.Load(reread)
	require.NoError(t, err)

	want := map[string]any{
		"Name[0]": "Bob Smith",
		"Notes":   "First line\nSecond line",
		"Agree":   "/3",
		"Choice":  "/3",
		"Color":   "Blue",
	}
	for name, v := range want {
		f, err := model.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, v, f.ReportedValue(), name)
	}

	choice, err := model.Lookup("Choice")
	require.NoError(t, err)
	for _, w := range choice.Widgets {
		if w.OnState == "3" {
			assert.Equal(t, "3", w.State)
		} else {
			assert.Equal(t, "Off", w.State)
		}
	}

	sig, err := model.Lookup("Signature")
	require.NoError(t, err)
	assert.Equal(t, 0, sig.Page())
}

// Package testpdf generates small, valid PDF files for tests.
package testpdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Builder assembles numbered objects and writes them with a cross-reference
// table.
type Builder struct {
	objs []string
}

// Reserve allocates an object number to be filled in with Set.
func (b *Builder) Reserve() int {
	b.objs = append(b.objs, "")
	return len(b.objs)
}

// Add appends an object and returns its number.
func (b *Builder) Add(body string) int {
	b.objs = append(b.objs, body)
	return len(b.objs)
}

// Set replaces the body of object num.
func (b *Builder) Set(num int, body string) {
	b.objs[num-1] = body
}

// Stream returns a stream object body for content.
func Stream(dict, content string) string {
	return fmt.Sprintf("<<\n%s\n/Length %d\n>>\nstream\n%s\nendstream", dict, len(content)+1, content)
}

// Ref formats an indirect reference.
func Ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

// Bytes writes the file with root as the document catalog.
func (b *Builder) Bytes(root int) []byte {
	pdf := "%PDF-1.7\n"
	offsets := make([]int, len(b.objs))
	for i, body := range b.objs {
		offsets[i] = len(pdf)
		pdf += fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefStart := len(pdf)
	pdf += fmt.Sprintf("xref\n0 %d\n0000000000 65535 f \n", len(b.objs)+1)
	for _, off := range offsets {
		pdf += fmt.Sprintf("%010d 00000 n \n", off)
	}
	pdf += fmt.Sprintf("trailer\n<<\n/Size %d\n/Root %d 0 R\n>>\nstartxref\n", len(b.objs)+1, root)
	pdf += fmt.Sprintf("%d\n", xrefStart)
	pdf += "%%EOF"
	return []byte(pdf)
}

// Form field rects in the fixture.
var (
	NameRect      = [4]float64{50, 700, 250, 720}
	Name1Rect     = [4]float64{50, 670, 250, 690}
	NotesRect     = [4]float64{50, 500, 300, 600}
	AgreeRect     = [4]float64{50, 450, 70, 470}
	ChoiceRects   = [3][4]float64{{50, 400, 66, 416}, {80, 400, 96, 416}, {110, 400, 126, 416}}
	ColorRect     = [4]float64{50, 350, 200, 370}
	SignatureRect = [4]float64{303, 30, 504, 59}
)

// Form fixture field names and pages.
const (
	FormPages     = 3
	SignaturePage = 2
)

func rect(r [4]float64) string {
	return fmt.Sprintf("[%g %g %g %g]", r[0], r[1], r[2], r[3])
}

// FormFixture returns a three-page document with an AcroForm holding:
//
//	Name[0], Name[1]  text fields sharing the partial name "Name"
//	Notes             multi-line text
//	Agree             checkbox whose on state is /3
//	Choice            radio group with kids /1 /2 /3
//	Color             combo box with options Red, Green, Blue
//	Signature         signature field on page 2
func FormFixture() []byte {
	b := &Builder{}
	catalog := b.Reserve()
	pages := b.Reserve()
	page1 := b.Reserve()
	page2 := b.Reserve()
	page3 := b.Reserve()
	acroForm := b.Reserve()
	helv := b.Add("<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n/Encoding /WinAnsiEncoding\n>>")

	blank := b.Add(Stream("/BBox [0 0 20 20]\n/Subtype /Form", ""))
	onMark := b.Add(Stream("/BBox [0 0 20 20]\n/Subtype /Form", "0 g\n2 2 16 16 re\nf"))

	widget := func(page int, r [4]float64, extra string) string {
		return fmt.Sprintf("<<\n/Type /Annot\n/Subtype /Widget\n/F 4\n/P %s\n/Rect %s\n%s\n>>", Ref(page), rect(r), extra)
	}

	name0 := b.Add(widget(page1, NameRect, "/FT /Tx\n/T (Name)\n/TU (Full name)\n/DA (/Helv 12 Tf 0 g)"))
	name1 := b.Add(widget(page1, Name1Rect, "/FT /Tx\n/T (Name)\n/DA (/Helv 0 Tf 0 g)"))
	notes := b.Add(widget(page1, NotesRect, "/FT /Tx\n/T (Notes)\n/Ff 4096\n/DA (/Helv 10 Tf 0 0 1 rg)"))
	agree := b.Add(widget(page1, AgreeRect, fmt.Sprintf(
		"/FT /Btn\n/T (Agree)\n/Ff 2\n/V /Off\n/AS /Off\n/DA (/ZaDb 0 Tf 0 g)\n/MK << /CA (4) >>\n/AP << /N << /3 %s /Off %s >> >>",
		Ref(onMark), Ref(blank))))

	choice := b.Reserve()
	var kids []string
	var annots1 = []string{Ref(name0), Ref(name1), Ref(notes), Ref(agree)}
	for i, r := range ChoiceRects {
		state := fmt.Sprint(i + 1)
		kid := b.Add(widget(page1, r, fmt.Sprintf(
			"/Parent %s\n/AS /Off\n/MK << /BC [0 0 0] >>\n/AP << /N << /%s %s /Off %s >> >>",
			Ref(choice), state, Ref(onMark), Ref(blank))))
		kids = append(kids, Ref(kid))
		annots1 = append(annots1, Ref(kid))
	}
	b.Set(choice, fmt.Sprintf("<<\n/FT /Btn\n/T (Choice)\n/Ff 49152\n/V /Off\n/Kids [%s]\n>>", strings.Join(kids, " ")))

	color := b.Add(widget(page1, ColorRect, "/FT /Ch\n/T (Color)\n/Ff 131072\n/Opt [(Red) (Green) (Blue)]\n/V (Red)\n/DA (/Helv 0 Tf 0 g)"))
	annots1 = append(annots1, Ref(color))

	sig := b.Add(widget(page2, SignatureRect, "/FT /Sig\n/T (Signature)"))

	content := func(text string) int {
		return b.Add(Stream("", fmt.Sprintf("BT\n/F1 12 Tf\n72 740 Td\n(%s) Tj\nET", text)))
	}
	resources := fmt.Sprintf("<<\n/Font << /F1 %s >>\n>>", Ref(helv))
	pageDict := func(contents int, annots []string) string {
		s := fmt.Sprintf("<<\n/Type /Page\n/Parent %s\n/MediaBox [0 0 612 792]\n/Contents %s\n/Resources %s\n",
			Ref(pages), Ref(contents), resources)
		if len(annots) > 0 {
			s += fmt.Sprintf("/Annots [%s]\n", strings.Join(annots, " "))
		}
		return s + ">>"
	}

	b.Set(page1, pageDict(content("Page 1"), annots1))
	b.Set(page2, pageDict(content("Page 2"), []string{Ref(sig)}))
	b.Set(page3, pageDict(content("Page 3"), nil))
	b.Set(pages, fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s %s %s]\n/Count 3\n>>", Ref(page1), Ref(page2), Ref(page3)))

	fields := []string{Ref(name0), Ref(name1), Ref(notes), Ref(agree), Ref(choice), Ref(color), Ref(sig)}
	b.Set(acroForm, fmt.Sprintf("<<\n/Fields [%s]\n/DA (/Helv 0 Tf 0 g)\n/DR << /Font << /Helv %s >> >>\n>>",
		strings.Join(fields, " "), Ref(helv)))
	b.Set(catalog, fmt.Sprintf("<<\n/Type /Catalog\n/Pages %s\n/AcroForm %s\n>>", Ref(pages), Ref(acroForm)))

	return b.Bytes(catalog)
}

// PlainFixture returns a single-page document without a form.
func PlainFixture() []byte {
	b := &Builder{}
	catalog := b.Reserve()
	pages := b.Reserve()
	page := b.Reserve()
	contents := b.Add(Stream("", "BT\n/F1 12 Tf\n72 740 Td\n(Hello) Tj\nET"))
	b.Set(page, fmt.Sprintf("<<\n/Type /Page\n/Parent %s\n/MediaBox [0 0 612 792]\n/Contents %s\n/Resources << /Font << /F1 << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> >> >>\n>>",
		Ref(pages), Ref(contents)))
	b.Set(pages, fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s]\n/Count 1\n>>", Ref(page)))
	b.Set(catalog, fmt.Sprintf("<<\n/Type /Catalog\n/Pages %s\n>>", Ref(pages)))
	return b.Bytes(catalog)
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

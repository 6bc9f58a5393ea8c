package stamp

import (
	"bytes"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/geom"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

func writePNG(t *testing.T, dir, name string, w, h int, alpha uint8) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: alpha})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestParseScaleMode(t *testing.T) {
	m, err := ParseScaleMode("fit")
	require.NoError(t, err)
	assert.Equal(t, ScaleFit, m)
	assert.Equal(t, "fit", m.String())

	m, err = ParseScaleMode("")
	require.NoError(t, err)
	assert.Equal(t, ScaleStretch, m)

	_, err = ParseScaleMode("fill")
	assert.Error(t, err)
}

func TestPlacement(t *testing.T) {
	rect := geom.NewRect(303, 30, 504, 59)

	tests := []struct {
		name string
		w, h int
		mode ScaleMode
		want geom.Rect
	}{
		{"stretch", 100, 100, ScaleStretch, rect},
		{"fit tall image", 10, 29, ScaleFit, geom.Rect{Left: 398.5, Bottom: 30, Right: 408.5, Top: 59}},
		{"fit wide image", 402, 29, ScaleFit, geom.Rect{Left: 303, Bottom: 37.25, Right: 504, Top: 51.75}},
		{"fit degenerate", 0, 0, ScaleFit, rect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Placement(tt.w, tt.h, rect, tt.mode)
			assert.InDelta(t, tt.want.Left, got.Left, 1e-9)
			assert.InDelta(t, tt.want.Bottom, got.Bottom, 1e-9)
			assert.InDelta(t, tt.want.Right, got.Right, 1e-9)
			assert.InDelta(t, tt.want.Top, got.Top, 1e-9)
		})
	}
}

func TestStamp_Scenario(t *testing.T) {
	dir := t.TempDir()
	sig := writePNG(t, dir, "sig.png", 40, 10, 0xff)

	doc := wrapper.NewMemoryDocument(3)
	s := NewStamper(ScaleStretch, 4, logging.Discard())

	err := s.Stamp(doc, Request{Image: sig, Page: 3, Rect: geom.NewRect(303, 30, 504, 59)})
	require.NoError(t, err)

	page := doc.Pages[2]
	require.Len(t, page.Content, 1)
	assert.Equal(t, "q\n201 0 0 29 303 30 cm\n/Im1 Do\nQ\n", string(page.Content[0]))
	require.Len(t, page.Images, 1)
	img := page.Images["Im1"]
	require.NotNil(t, img)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, "DeviceRGB", img.ColorSpace)
	assert.Nil(t, img.SMask, "opaque images need no soft mask")

	assert.Empty(t, doc.Pages[0].Content)
	assert.Empty(t, doc.Pages[1].Content)
}

func TestStamp_ReusesImage(t *testing.T) {
	dir := t.TempDir()
	sig := writePNG(t, dir, "sig.png", 4, 4, 0x80)

	doc := wrapper.NewMemoryDocument(1)
	s := NewStamper(ScaleFit, 4, nil)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Stamp(doc, Request{Image: sig, Page: 1, Rect: geom.NewRect(0, 0, 10, 10)}))
	}
	assert.Len(t, doc.Pages[0].Images, 1)
	assert.Len(t, doc.Pages[0].Content, 2)

	stats := s.Cache().Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	img := doc.Pages[0].Images["Im1"]
	require.NotNil(t, img.SMask)
	assert.Len(t, img.SMask, 16)
	assert.Equal(t, byte(0x80), img.SMask[0])
}

func TestStamp_Errors(t *testing.T) {
	dir := t.TempDir()
	sig := writePNG(t, dir, "sig.png", 2, 2, 0xff)
	bogus := filepath.Join(dir, "bogus.png")
	require.NoError(t, os.WriteFile(bogus, []byte("not an image"), 0o644))

	doc := wrapper.NewMemoryDocument(2)
	s := NewStamper(ScaleStretch, 0, nil)
	rect := geom.NewRect(0, 0, 10, 10)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"page zero", Request{Image: sig, Page: 0, Rect: rect}, errors.ErrPageNotFound},
		{"page past end", Request{Image: sig, Page: 3, Rect: rect}, errors.ErrPageNotFound},
		{"missing file", Request{Image: filepath.Join(dir, "nope.png"), Page: 1, Rect: rect}, errors.ErrImageLoad},
		{"not an image", Request{Image: bogus, Page: 1, Rect: rect}, errors.ErrImageLoad},
		{"empty rect", Request{Image: sig, Page: 1, Rect: geom.NewRect(5, 5, 5, 9)}, errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Stamp(doc, tt.req)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.want), "got %v", err)
		})
	}

	err := s.Stamp(doc, Request{Image: sig, Page: 5, Rect: rect})
	var perr *errors.PDFError
	require.True(t, stderrors.As(err, &perr))
	assert.Equal(t, 5, perr.PageNumber)

	assert.Empty(t, doc.Pages[0].Content, "failed stamps leave pages untouched")
}

func TestStamp_Resolver(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "sig.png", 2, 2, 0xff)
	dot := writePNG(t, t.TempDir(), "dot.png", 1, 1, 0xff)
	raw, err := os.ReadFile(dot)
	require.NoError(t, err)
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	var seen []string
	s := NewStamper(ScaleStretch, 4, nil)
	s.SetResolver(func(ref string) (string, error) {
		seen = append(seen, ref)
		if filepath.IsAbs(ref) {
			return "", fmt.Errorf("outside root: %s", ref)
		}
		return filepath.Join(dir, ref), nil
	})

	doc := wrapper.NewMemoryDocument(1)
	rect := geom.NewRect(0, 0, 10, 10)
	require.NoError(t, s.Stamp(doc, Request{Image: "sig.png", Page: 1, Rect: rect}))
	require.NoError(t, s.Stamp(doc, Request{Image: dataURL, Page: 1, Rect: rect}))

	err = s.Stamp(doc, Request{Image: dot, Page: 1, Rect: rect})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrImageLoad))
	assert.Contains(t, err.Error(), "outside root")
	var perr *errors.PDFError
	require.True(t, stderrors.As(err, &perr))
	assert.Equal(t, 1, perr.PageNumber)

	assert.Equal(t, []string{"sig.png", dot}, seen, "data URLs bypass the resolver")
	assert.Len(t, doc.Pages[0].Content, 2)
}

func TestLoadImage_JPEG(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", 8, 6)
	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "DCTDecode", img.Filter)
	assert.Equal(t, "DeviceRGB", img.ColorSpace)
	assert.Equal(t, 8, img.Width)
	assert.Equal(t, 6, img.Height)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, img.Data, "JPEG data is embedded unchanged")
}

func TestLoadImage_DataURL(t *testing.T) {
	path := writePNG(t, t.TempDir(), "dot.png", 1, 1, 0xff)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	img, err := LoadImage("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, []byte{200, 10, 10}, img.Data)

	_, err = LoadImage("data:image/png;base64,!!!" + strings.Repeat("x", 40))
	require.Error(t, err)
	var perr *errors.PDFError
	require.True(t, stderrors.As(err, &perr))
	assert.True(t, strings.HasSuffix(perr.FilePath, "..."))
}

func TestFromImage_Gray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 1))
	g.SetGray(1, 0, color.Gray{Y: 0x7f})
	img := FromImage(g)
	assert.Equal(t, "DeviceGray", img.ColorSpace)
	assert.Equal(t, []byte{0, 0x7f}, img.Data)
	assert.Nil(t, img.SMask)
}

func TestImageCache_Eviction(t *testing.T) {
	c := NewImageCache(2)
	a, b, d := &wrapper.Image{Width: 1}, &wrapper.Image{Width: 2}, &wrapper.Image{Width: 3}

	c.Put("a", a)
	c.Put("b", b)
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Put("d", d)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	assert.Equal(t, []string{"d", "a"}, c.Keys())
	assert.Equal(t, 2, c.Len())

	c.Put("a", d)
	got, _ := c.Get("a")
	assert.Same(t, d, got)

	assert.Equal(t, DefaultCacheSize, NewImageCache(0).Stats().Capacity)
}

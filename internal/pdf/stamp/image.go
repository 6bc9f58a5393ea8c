package stamp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF format
	_ "image/jpeg" // register JPEG format
	_ "image/png"  // register PNG format
	"net/url"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP format
	_ "golang.org/x/image/tiff" // register TIFF format
	_ "golang.org/x/image/webp" // register WebP format

	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

// SupportedFormats lists the image formats that can be stamped.
func SupportedFormats() []string {
	return []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"}
}

// readImageRef returns the bytes behind an image reference: a file path or
// a base64 data URL.
func readImageRef(ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}
	return os.ReadFile(ref)
}

func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed base64 payload: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// displayRef shortens data URLs for error messages.
func displayRef(ref string) string {
	if strings.HasPrefix(ref, "data:") && len(ref) > 32 {
		return ref[:32] + "..."
	}
	return ref
}

// LoadImage reads and converts an image into an embeddable XObject. JPEG
// files in gray or YCbCr are embedded unchanged; everything else becomes
// 8-bit samples with an alpha soft mask when any pixel is translucent.
func LoadImage(ref string) (*wrapper.Image, error) {
	data, err := readImageRef(ref)
	if err != nil {
		return nil, errors.ImageLoad(displayRef(ref), err)
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, errors.ImageLoad(displayRef(ref), err)
	}
	return img, nil
}

// DecodeImage converts encoded image bytes.
func DecodeImage(data []byte) (*wrapper.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	if format == "jpeg" {
		switch cfg.ColorModel {
		case color.GrayModel:
			return &wrapper.Image{Width: cfg.Width, Height: cfg.Height, ColorSpace: "DeviceGray",
				BitsPerComponent: 8, Data: data, Filter: "DCTDecode"}, nil
		case color.YCbCrModel:
			return &wrapper.Image{Width: cfg.Width, Height: cfg.Height, ColorSpace: "DeviceRGB",
				BitsPerComponent: 8, Data: data, Filter: "DCTDecode"}, nil
		}
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return FromImage(decoded), nil
}

// FromImage converts a decoded image into 8-bit samples.
func FromImage(img image.Image) *wrapper.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model

	out := &wrapper.Image{Width: w, Height: h, BitsPerComponent: 8, ColorSpace: "DeviceRGB"}
	if gray {
		out.ColorSpace = "DeviceGray"
		out.Data = make([]byte, 0, w*h)
	} else {
		out.Data = make([]byte, 0, w*h*3)
	}
	alpha := make([]byte, 0, w*h)
	translucent := false

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if gray {
				out.Data = append(out.Data, c.R)
			} else {
				out.Data = append(out.Data, c.R, c.G, c.B)
			}
			alpha = append(alpha, c.A)
			if c.A != 0xff {
				translucent = true
			}
		}
	}
	if translucent {
		out.SMask = alpha
	}
	return out
}

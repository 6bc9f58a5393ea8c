// Package filldata decodes fill instructions: a JSON or YAML object that maps
// qualified field names to values, with the reserved key ".stamps" holding
// image stamps.
package filldata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/pdfform/internal/pdf/appearance"
	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/geom"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
)

// StampsKey is the reserved key for image stamps.
const StampsKey = ".stamps"

// Format of a fill data document.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("invalid data format: %s (valid: json, yaml)", s)
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatAuto
}

// Data is decoded fill data.
type Data struct {
	Values map[string]appearance.Input
	Stamps []stamp.Request
}

// Names returns the field names in sorted order.
func (d *Data) Names() []string {
	names := make([]string, 0, len(d.Values))
	for n := range d.Values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load reads fill data from a file.
func Load(path string, format Format) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidInput, err).WithFile(path)
	}
	if format == FormatAuto {
		format = FormatForPath(path)
	}
	d, err := Parse(raw, format)
	if err != nil {
		if perr, ok := err.(*errors.PDFError); ok {
			return nil, perr.WithFile(path)
		}
		return nil, err
	}
	return d, nil
}

// Parse decodes fill data. FormatAuto treats input starting with '{' as
// JSON and anything else as YAML.
func Parse(raw []byte, format Format) (*Data, error) {
	if format == FormatAuto {
		format = FormatYAML
		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			format = FormatJSON
		}
	}

	var m map[string]any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidInput, "invalid JSON fill data: %v", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidInput, "invalid YAML fill data: %v", err)
		}
	default:
		return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidInput, "unknown data format %q", format)
	}
	return FromMap(m)
}

// FromMap converts an already decoded object, such as tool call arguments.
// Strings, booleans, numbers and lists of those are accepted; null values
// are skipped.
func FromMap(m map[string]any) (*Data, error) {
	d := &Data{Values: map[string]appearance.Input{}}
	for name, v := range m {
		if name == StampsKey {
			stamps, err := parseStamps(v)
			if err != nil {
				return nil, err
			}
			d.Stamps = stamps
			continue
		}
		if v == nil {
			continue
		}
		in, err := toInput(v)
		if err != nil {
			return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidInput, "%v", err).WithField(name)
		}
		d.Values[name] = in
	}
	return d, nil
}

func toInput(v any) (appearance.Input, error) {
	switch x := v.(type) {
	case bool:
		return appearance.BoolInput(x), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := scalarString(item)
			if !ok {
				return appearance.Input{}, fmt.Errorf("list items must be strings or numbers, got %T", item)
			}
			items = append(items, s)
		}
		return appearance.ListInput(items), nil
	case []string:
		return appearance.ListInput(x), nil
	}
	if s, ok := scalarString(v); ok {
		return appearance.TextInput(s), nil
	}
	return appearance.Input{}, fmt.Errorf("unsupported value of type %T", v)
}

// scalarString formats strings and numbers.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func parseStamps(v any) ([]stamp.Request, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidInput, "%s must be a list, got %T", StampsKey, v)
	}

	out := make([]stamp.Request, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, stampError(i, "must be an object with img, page and rect")
		}

		// entries without an image are placeholders and draw nothing
		var img string
		switch x := entry["img"].(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(x) == "" {
				continue
			}
			img = x
		default:
			return nil, stampError(i, "img must be a string")
		}
		page, ok := number(entry["page"])
		if !ok || page != float64(int(page)) {
			return nil, stampError(i, "page must be an integer")
		}
		coords, ok := entry["rect"].([]any)
		if !ok || len(coords) != 4 {
			return nil, stampError(i, "rect must be [left, bottom, right, top]")
		}
		var r [4]float64
		for j, c := range coords {
			if r[j], ok = number(c); !ok {
				return nil, stampError(i, "rect must hold numbers")
			}
		}

		out = append(out, stamp.Request{
			Image: img,
			Page:  int(page),
			Rect:  geom.NewRect(r[0], r[1], r[2], r[3]),
		})
	}
	return out, nil
}

func stampError(i int, msg string) *errors.PDFError {
	return errors.NewPDFErrorf(errors.ErrorTypeInvalidInput, "%s[%d]: %s", StampsKey, i, msg)
}

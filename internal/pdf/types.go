package pdf

import (
	"github.com/a3tai/pdfform/internal/pdf/filldata"
	"github.com/a3tai/pdfform/internal/pdf/form"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// PDFInspectFormRequest asks for the fields of a form
type PDFInspectFormRequest struct {
	Path string `json:"path"`
}

// PDFFillFormRequest fills a template with decoded fill data. An empty
// Output (or "-") is only valid with FillFormTo.
type PDFFillFormRequest struct {
	Path   string         `json:"path"`
	Output string         `json:"output"`
	Data   *filldata.Data `json:"-"`
}

// PDFStampImageRequest draws one image on a page of a document
type PDFStampImageRequest struct {
	Path   string    `json:"path"`
	Output string    `json:"output"`
	Image  string    `json:"image"`
	Page   int       `json:"page"`
	Rect   []float64 `json:"rect"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// Response Types

// PDFInspectFormResult lists the fields of a form in document order
type PDFInspectFormResult struct {
	Path       string      `json:"path"`
	FieldCount int         `json:"field_count"`
	Fields     []form.Info `json:"fields"`
}

// PDFFillFormResult summarizes a fill
type PDFFillFormResult struct {
	Path     string   `json:"path"`
	Output   string   `json:"output"`
	Size     int64    `json:"size"`
	Filled   []string `json:"filled"`
	Stamps   int      `json:"stamps"`
	Warnings []string `json:"warnings,omitempty"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFServerInfoRequest represents a request to get server information and capabilities
type PDFServerInfoRequest struct {
	// No parameters needed for server info
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
	SupportedFormats  []string   `json:"supported_formats"`
	Layout            LayoutInfo `json:"layout"`
}

// LayoutInfo reports the layout settings fills are rendered with
type LayoutInfo struct {
	Leading         float64 `json:"leading"`
	AutoSize        bool    `json:"auto_size"`
	AutoSizeMin     float64 `json:"auto_size_min"`
	AutoSizeMax     float64 `json:"auto_size_max"`
	DefaultFontSize float64 `json:"default_font_size"`
	StampScale      string  `json:"stamp_scale"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

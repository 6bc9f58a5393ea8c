package errors

import (
	"fmt"
	"strings"
	"time"
)

// PDFError is the typed error returned by the form filling and stamping
// pipeline. It carries the offending field, page or file so callers can
// report exactly what went wrong.
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Field       string    `json:"field,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of form filling errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeFieldNotFound
	ErrorTypeInvalidValue
	ErrorTypePageNotFound
	ErrorTypeImageLoad
	ErrorTypeLayoutOverflow
	ErrorTypeInvalidForm
	ErrorTypeInvalidDocument
	ErrorTypeInvalidInput
	ErrorTypeWriteFailed
	ErrorTypeLossyEncoding
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Sentinels for errors.Is comparisons. Only the Type is compared.
var (
	ErrFieldNotFound   = &PDFError{Type: ErrorTypeFieldNotFound}
	ErrInvalidValue    = &PDFError{Type: ErrorTypeInvalidValue}
	ErrPageNotFound    = &PDFError{Type: ErrorTypePageNotFound}
	ErrImageLoad       = &PDFError{Type: ErrorTypeImageLoad}
	ErrLayoutOverflow  = &PDFError{Type: ErrorTypeLayoutOverflow}
	ErrInvalidForm     = &PDFError{Type: ErrorTypeInvalidForm}
	ErrInvalidDocument = &PDFError{Type: ErrorTypeInvalidDocument}
	ErrInvalidInput    = &PDFError{Type: ErrorTypeInvalidInput}
	ErrWriteFailed     = &PDFError{Type: ErrorTypeWriteFailed}
	ErrLossyEncoding   = &PDFError{Type: ErrorTypeLossyEncoding}
)

// Error implements the error interface
func (e *PDFError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.Type.String())
	b.WriteString("] ")
	b.WriteString(e.Message)

	var loc []string
	if e.Field != "" {
		loc = append(loc, fmt.Sprintf("field %q", e.Field))
	}
	if e.PageNumber > 0 {
		loc = append(loc, fmt.Sprintf("page %d", e.PageNumber))
	}
	if e.FilePath != "" {
		loc = append(loc, fmt.Sprintf("file %s", e.FilePath))
	}
	if len(loc) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(loc, ", "))
		b.WriteString(")")
	}
	if e.Context != "" {
		b.WriteString(": ")
		b.WriteString(e.Context)
	}
	return b.String()
}

// Unwrap exposes the wrapped cause, if any.
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is matches any PDFError of the same type, so the package sentinels work
// with errors.Is.
func (e *PDFError) Is(target error) bool {
	t, ok := target.(*PDFError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeFieldNotFound:
		return "FIELD_NOT_FOUND"
	case ErrorTypeInvalidValue:
		return "INVALID_VALUE"
	case ErrorTypePageNotFound:
		return "PAGE_NOT_FOUND"
	case ErrorTypeImageLoad:
		return "IMAGE_LOAD_ERROR"
	case ErrorTypeLayoutOverflow:
		return "LAYOUT_OVERFLOW"
	case ErrorTypeInvalidForm:
		return "INVALID_FORM"
	case ErrorTypeInvalidDocument:
		return "INVALID_DOCUMENT"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeWriteFailed:
		return "WRITE_FAILED"
	case ErrorTypeLossyEncoding:
		return "LOSSY_ENCODING"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeLayoutOverflow, ErrorTypeLossyEncoding:
		return SeverityWarning
	case ErrorTypeFieldNotFound, ErrorTypeInvalidValue, ErrorTypePageNotFound,
		ErrorTypeImageLoad, ErrorTypeInvalidInput:
		return SeverityError
	case ErrorTypeInvalidForm, ErrorTypeInvalidDocument, ErrorTypeWriteFailed:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether the fill can continue past this error.
// Layout overflow degrades to clipped rendering and lossy encoding to
// replacement glyphs.
func (et ErrorType) IsRecoverable() bool {
	return et == ErrorTypeLayoutOverflow || et == ErrorTypeLossyEncoding
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// NewPDFErrorf creates a new PDFError with a formatted message
func NewPDFErrorf(errorType ErrorType, format string, args ...any) *PDFError {
	return NewPDFError(errorType, fmt.Sprintf(format, args...))
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, err error) *PDFError {
	e := NewPDFError(errorType, err.Error())
	e.Err = err
	return e
}

// FieldNotFound reports a qualified name that is absent from the form.
func FieldNotFound(name string) *PDFError {
	return NewPDFError(ErrorTypeFieldNotFound, "no such field").WithField(name)
}

// InvalidValue reports a value that does not suit the field's input type.
func InvalidValue(name, format string, args ...any) *PDFError {
	return NewPDFErrorf(ErrorTypeInvalidValue, format, args...).WithField(name)
}

// PageNotFound reports an out of range 1-based page number.
func PageNotFound(page, pageCount int) *PDFError {
	return NewPDFErrorf(ErrorTypePageNotFound, "document has %d page(s)", pageCount).WithPage(page)
}

// ImageLoad reports an image that is missing, corrupt or unsupported.
func ImageLoad(path string, err error) *PDFError {
	e := WrapError(ErrorTypeImageLoad, err)
	e.Message = "cannot load image"
	e.Context = err.Error()
	return e.WithFile(path)
}

// LayoutOverflow reports text that does not fit even at the minimum size.
func LayoutOverflow(name string, size float64) *PDFError {
	return NewPDFErrorf(ErrorTypeLayoutOverflow, "text does not fit at %g pt, clipped", size).WithField(name)
}

// LossyEncoding reports text the field font cannot encode exactly. Only
// the appearance is degraded; the stored value keeps the original text.
func LossyEncoding(name, font string) *PDFError {
	return NewPDFErrorf(ErrorTypeLossyEncoding, "characters outside the %s encoding were replaced", font).WithField(name)
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithField records the qualified field name
func (e *PDFError) WithField(name string) *PDFError {
	e.Field = name
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// ErrorCollection gathers the non-fatal problems of one operation
type ErrorCollection struct {
	Errors   []*PDFError `json:"errors"`
	Warnings []*PDFError `json:"warnings"`
	FilePath string      `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PDFError, 0),
		Warnings: make([]*PDFError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *PDFError) {
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}

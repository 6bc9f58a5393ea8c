package pdf

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf/appearance"
	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/filldata"
	"github.com/a3tai/pdfform/internal/pdf/form"
	"github.com/a3tai/pdfform/internal/pdf/geom"
	"github.com/a3tai/pdfform/internal/pdf/security"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
	"github.com/a3tai/pdfform/internal/pdf/wrapper"
)

// Service handles form operations on PDF files by orchestrating the
// validator, the document backend and the filler
type Service struct {
	maxFileSize   int64
	validator     *Validator
	factory       *wrapper.DocumentFactory
	filler        *appearance.Filler
	pathValidator *security.PathValidator
	serverInfo    *PDFServerInfo
	logger        *logging.Logger
}

// NewService creates a new PDF service with all components
func NewService(maxFileSize int64, configuredDirectory string, opts appearance.Options,
	logger *logging.Logger,
) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	filler, err := appearance.NewFiller(opts, logger)
	if err != nil {
		return nil, err
	}
	filler.SetImageResolver(func(ref string) (string, error) {
		path, err := pathValidator.Resolve(ref)
		if err != nil {
			return "", fmt.Errorf("security validation failed: %w", err)
		}
		return path, nil
	})

	s := &Service{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
		factory: wrapper.NewDocumentFactoryWithConfig(wrapper.FactoryConfig{
			Library:     wrapper.LibraryPDFCPU,
			MaxFileSize: maxFileSize,
		}),
		filler:        filler,
		pathValidator: pathValidator,
		logger:        logger,
	}
	s.serverInfo = NewPDFServerInfo(s)
	return s, nil
}

// InspectForm lists the fields of a form in document order
func (s *Service) InspectForm(req PDFInspectFormRequest) (*PDFInspectFormResult, error) {
	doc, err := s.open(req.Path)
	if err != nil {
		return nil, err
	}
	model, err := form.Load(doc)
	if err != nil {
		return nil, withFile(err, req.Path)
	}

	infos := model.Infos()
	s.logger.Debugf("inspected %s: %d field(s)", req.Path, len(infos))
	return &PDFInspectFormResult{
		Path:       req.Path,
		FieldCount: len(infos),
		Fields:     infos,
	}, nil
}

// FillForm fills the template and writes the document to req.Output. The
// output appears only when the whole fill succeeded.
func (s *Service) FillForm(req PDFFillFormRequest) (*PDFFillFormResult, error) {
	if req.Output == "" || req.Output == "-" {
		return nil, errors.NewPDFError(errors.ErrorTypeInvalidInput, "output path is required")
	}
	output, err := s.pathValidator.ResolveOutput(req.Output)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	doc, res, err := s.fill(req.Path, req.Data)
	if err != nil {
		return nil, err
	}
	size, err := writeFile(output, doc)
	if err != nil {
		return nil, err
	}

	s.serverInfo.cache.Invalidate(filepath.Dir(output))
	s.serverInfo.cache.Invalidate(s.pathValidator.Root())
	s.logger.Infof("wrote %s (%d bytes)", output, size)
	return fillResult(req.Path, req.Output, size, res), nil
}

// FillFormTo fills the template and streams the document to w.
func (s *Service) FillFormTo(w io.Writer, req PDFFillFormRequest) (*PDFFillFormResult, error) {
	doc, res, err := s.fill(req.Path, req.Data)
	if err != nil {
		return nil, err
	}
	cw := &countingWriter{w: w}
	if err := doc.Write(cw); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeWriteFailed, err).WithFile(req.Path)
	}
	return fillResult(req.Path, "-", cw.n, res), nil
}

// StampImage draws one image on a page and writes the document to
// req.Output.
func (s *Service) StampImage(req PDFStampImageRequest) (*PDFFillFormResult, error) {
	if len(req.Rect) != 4 {
		return nil, errors.NewPDFErrorf(errors.ErrorTypeInvalidInput,
			"rect must be [left, bottom, right, top], got %d number(s)", len(req.Rect))
	}
	if req.Image == "" {
		return nil, errors.NewPDFError(errors.ErrorTypeInvalidInput, "image cannot be empty")
	}

	data := &filldata.Data{
		Stamps: []stamp.Request{{
			Image: req.Image,
			Page:  req.Page,
			Rect:  geom.NewRect(req.Rect[0], req.Rect[1], req.Rect[2], req.Rect[3]),
		}},
	}
	return s.FillForm(PDFFillFormRequest{Path: req.Path, Output: req.Output, Data: data})
}

// ValidateFile reports whether a file is a readable PDF
func (s *Service) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	res, err := s.validator.ValidateFile(PDFValidateFileRequest{Path: path})
	if err != nil {
		return nil, err
	}
	res.Path = req.Path
	return res, nil
}

// GetServerInfo returns comprehensive server information and usage guidance
func (s *Service) GetServerInfo(ctx context.Context, serverName, version,
	defaultDirectory string,
) (*PDFServerInfoResult, error) {
	return s.serverInfo.GetServerInfo(ctx, serverName, version, defaultDirectory)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Options returns the layout options fills are rendered with
func (s *Service) Options() appearance.Options {
	return s.filler.Options()
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(filePath string) bool {
	return s.validator.IsValidPDF(filePath)
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	return nil
}

// open checks the path and reads the document. Relative paths are taken
// from the configured directory.
func (s *Service) open(path string) (wrapper.FormDocument, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.Check(resolved); err != nil {
		return nil, withFile(err, path)
	}
	doc, err := s.factory.Open(resolved)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidDocument, err).WithFile(path)
	}
	return doc, nil
}

func (s *Service) fill(path string, data *filldata.Data) (wrapper.FormDocument, *appearance.Result, error) {
	if data == nil {
		data = &filldata.Data{}
	}
	doc, err := s.open(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.filler.Fill(doc, data.Values, data.Stamps)
	if err != nil {
		return nil, nil, withFile(err, path)
	}
	for _, w := range res.Warnings {
		s.logger.Warnf("%s: %v", path, w)
	}
	return doc, res, nil
}

func fillResult(path, output string, size int64, res *appearance.Result) *PDFFillFormResult {
	out := &PDFFillFormResult{
		Path:   path,
		Output: output,
		Size:   size,
		Filled: res.Filled,
		Stamps: res.Stamps,
	}
	if out.Filled == nil {
		out.Filled = []string{}
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out
}

// writeFile writes doc next to path under a temporary name and renames it
// into place.
func writeFile(path string, doc wrapper.FormDocument) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfform-*.pdf")
	if err != nil {
		return 0, errors.WrapError(errors.ErrorTypeWriteFailed, err).WithFile(path)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	cw := &countingWriter{w: tmp}
	if err := doc.Write(cw); err != nil {
		cleanup()
		return 0, errors.WrapError(errors.ErrorTypeWriteFailed, err).WithFile(path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, errors.WrapError(errors.ErrorTypeWriteFailed, err).WithFile(path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, errors.WrapError(errors.ErrorTypeWriteFailed, err).WithFile(path)
	}
	return cw.n, nil
}

// withFile attaches the document path to pipeline errors that lack one.
func withFile(err error, path string) error {
	var perr *errors.PDFError
	if stderrors.As(err, &perr) && perr.FilePath == "" {
		return perr.WithFile(path)
	}
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

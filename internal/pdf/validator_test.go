package pdf

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/pdfform/internal/pdf/errors"
	"github.com/a3tai/pdfform/internal/pdf/testpdf"
)

func TestValidator_ValidateFile(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit
	dir := t.TempDir()

	fake := filepath.Join(dir, "fake.pdf")
	if err := os.WriteFile(fake, []byte("This is not a PDF file"), 0o644); err != nil {
		t.Fatalf("failed to create fake PDF: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"empty path", "", "path cannot be empty"},
		{"non-existent file", "/non/existent/file.pdf", "file does not exist"},
		{"directory", dir, "path is a directory"},
		{"not a PDF", fake, "invalid PDF file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateFile(PDFValidateFileRequest{Path: tt.path})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Valid {
				t.Errorf("expected Valid=false for %q", tt.path)
			}
			if result.Path != tt.path {
				t.Errorf("expected Path=%s but got %s", tt.path, result.Path)
			}
			if !strings.Contains(result.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", result.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidator_ValidateFile_Fixture(t *testing.T) {
	path, err := testpdf.WriteFile(t.TempDir(), "form.pdf", testpdf.FormFixture())
	if err != nil {
		t.Fatal(err)
	}

	result, err := NewValidator(1024 * 1024).ValidateFile(PDFValidateFileRequest{Path: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Skipf("fixture not readable by the validator: %s", result.Message)
	}
	if result.Pages != testpdf.FormPages {
		t.Errorf("Pages = %d, want %d", result.Pages, testpdf.FormPages)
	}
}

func TestValidator_Check(t *testing.T) {
	err := NewValidator(1024).Check("/non/existent/file.pdf")
	if !stderrors.Is(err, errors.ErrInvalidDocument) {
		t.Fatalf("Check() error = %v, want InvalidDocument", err)
	}
	var perr *errors.PDFError
	if !stderrors.As(err, &perr) || perr.FilePath != "/non/existent/file.pdf" {
		t.Errorf("Check() error should carry the file path, got %v", err)
	}
}

func TestValidator_ValidateFileInfo(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit
	tempDir := t.TempDir()

	validPDFPath := filepath.Join(tempDir, "valid.pdf")
	largePDFPath := filepath.Join(tempDir, "large.pdf")
	emptyPDFPath := filepath.Join(tempDir, "empty.pdf")
	nonPDFPath := filepath.Join(tempDir, "document.txt")

	files := map[string][]byte{
		validPDFPath: make([]byte, 1024),
		largePDFPath: make([]byte, 2*1024*1024),
		emptyPDFPath: {},
		nonPDFPath:   []byte("not a pdf"),
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}

	tests := []struct {
		name     string
		filePath string
		errorMsg string
	}{
		{"valid PDF file", validPDFPath, ""},
		{"large PDF file", largePDFPath, "file too large"},
		{"empty PDF file", emptyPDFPath, "file is empty"},
		{"non-PDF file", nonPDFPath, "file is not a PDF"},
		{"directory instead of file", tempDir, "path is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileInfo, err := os.Stat(tt.filePath)
			if err != nil {
				t.Fatalf("failed to stat file: %v", err)
			}

			err = validator.ValidateFileInfo(tt.filePath, fileInfo)
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing '%s', got %v", tt.errorMsg, err)
			}
		})
	}
}

func TestValidator_IsValidPDF(t *testing.T) {
	validator := NewValidator(1024 * 1024)

	for _, path := range []string{"", "/non/existent/file.pdf", "/path/to/document.txt"} {
		if validator.IsValidPDF(path) {
			t.Errorf("IsValidPDF(%q) = true, want false", path)
		}
	}
}

func TestNewValidator(t *testing.T) {
	maxFileSize := int64(2 * 1024 * 1024) // 2MB
	validator := NewValidator(maxFileSize)

	if validator.maxFileSize != maxFileSize {
		t.Errorf("expected maxFileSize=%d but got %d", maxFileSize, validator.maxFileSize)
	}
}

func BenchmarkValidator_ValidateFileInfo(b *testing.B) {
	validator := NewValidator(1024 * 1024)

	testFile := filepath.Join(b.TempDir(), "test.pdf")
	if err := os.WriteFile(testFile, make([]byte, 1024), 0o644); err != nil {
		b.Fatalf("failed to create test file: %v", err)
	}

	fileInfo, err := os.Stat(testFile)
	if err != nil {
		b.Fatalf("failed to stat file: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = validator.ValidateFileInfo(testFile, fileInfo)
	}
}

package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentFactory opens FormDocuments from files
type DocumentFactory struct {
	config FactoryConfig
}

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// Library is the backend used to open files
	Library LibraryType `json:"library"`

	// MaxFileSize limits the size of files opened (in bytes)
	MaxFileSize int64 `json:"max_file_size"`
}

// NewDocumentFactory creates a new factory with default configuration
func NewDocumentFactory() *DocumentFactory {
	return &DocumentFactory{
		config: FactoryConfig{
			Library:     LibraryPDFCPU,
			MaxFileSize: 100 * 1024 * 1024, // 100MB
		},
	}
}

// NewDocumentFactoryWithConfig creates a factory with custom configuration
func NewDocumentFactoryWithConfig(config FactoryConfig) *DocumentFactory {
	if config.Library == "" {
		config.Library = LibraryPDFCPU
	}
	return &DocumentFactory{config: config}
}

// Open checks the file and reads it with the configured library
func (f *DocumentFactory) Open(filePath string) (FormDocument, error) {
	if err := f.checkFile(filePath); err != nil {
		return nil, err
	}

	switch f.config.Library {
	case LibraryPDFCPU:
		return OpenPDFCPU(filePath)
	default:
		return nil, &WrapperError{
			Library: f.config.Library,
			Op:      "open",
			Err:     fmt.Errorf("library cannot open files: %s", f.config.Library),
		}
	}
}

func (f *DocumentFactory) checkFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return &WrapperError{
			Library: f.config.Library,
			Op:      "open",
			Err:     fmt.Errorf("cannot access file: %w", err),
		}
	}
	if info.IsDir() {
		return &WrapperError{
			Library: f.config.Library,
			Op:      "open",
			Err:     fmt.Errorf("path is a directory: %s", filePath),
		}
	}

	if f.config.MaxFileSize > 0 && info.Size() > f.config.MaxFileSize {
		return &WrapperError{
			Library: f.config.Library,
			Op:      "open",
			Err:     fmt.Errorf("file size %d exceeds maximum %d", info.Size(), f.config.MaxFileSize),
		}
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if ext != ".pdf" {
		return &WrapperError{
			Library: f.config.Library,
			Op:      "open",
			Err:     fmt.Errorf("file does not have .pdf extension: %s", ext),
		}
	}
	return nil
}

// GetConfig returns the current factory configuration
func (f *DocumentFactory) GetConfig() FactoryConfig {
	return f.config
}

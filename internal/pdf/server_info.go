package pdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/pdfform/internal/descriptions"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
)

// DirectoryCache keeps template listings for a limited time
type DirectoryCache struct {
	entries  map[string]*CacheEntry
	scanning map[string]bool
	ttl      time.Duration
	mu       sync.RWMutex
}

// CacheEntry is one cached directory listing
type CacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

// TemplateScanner lists the PDF files under a directory within depth,
// count and time limits
type TemplateScanner struct {
	maxDepth   int
	fileLimit  int
	timeLimit  time.Duration
	skipHidden bool
}

// PDFServerInfo assembles the server info report
type PDFServerInfo struct {
	cache   *DirectoryCache
	scanner *TemplateScanner
	service *Service
}

// ScanResult represents the result of a directory scan
type ScanResult struct {
	Files        []FileInfo
	ScanTime     time.Duration
	FilesScanned int
	Truncated    bool
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries:  make(map[string]*CacheEntry),
		scanning: make(map[string]bool),
		ttl:      ttl,
	}
}

// Get returns the listing for path unless it expired
func (c *DirectoryCache) Get(path string) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || time.Since(entry.lastUpdate) > c.ttl {
		return nil
	}
	return entry
}

// Set stores a listing
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = &CacheEntry{files: files, lastUpdate: time.Now()}
}

// Invalidate drops the listing for path, e.g. after a new file was written
// into it
func (c *DirectoryCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// TryScan marks path as being scanned. It returns false when a scan is
// already running.
func (c *DirectoryCache) TryScan(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanning[path] {
		return false
	}
	c.scanning[path] = true
	return true
}

// DoneScan clears the scanning mark
func (c *DirectoryCache) DoneScan(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scanning, path)
}

// Clear removes expired entries from cache
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for path, entry := range c.entries {
		if now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// Stats reports the number of entries and how many are still fresh
func (c *DirectoryCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	valid := 0
	for _, entry := range c.entries {
		if time.Since(entry.lastUpdate) <= c.ttl {
			valid++
		}
	}
	return map[string]interface{}{
		"total_entries":     len(c.entries),
		"valid_entries":     valid,
		"cache_ttl_minutes": c.ttl.Minutes(),
	}
}

// NewTemplateScanner creates a scanner; zero limits mean unlimited
func NewTemplateScanner(maxDepth, fileLimit int, timeLimit time.Duration) *TemplateScanner {
	return &TemplateScanner{
		maxDepth:   maxDepth,
		fileLimit:  fileLimit,
		timeLimit:  timeLimit,
		skipHidden: true,
	}
}

var errScanLimit = errors.New("scan limit reached")

// ScanDirectory walks root and collects PDF files. Symlinks are not
// followed.
func (s *TemplateScanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{Files: []FileInfo{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}
		result.FilesScanned++

		if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
			result.Truncated = true
			return errScanLimit
		}
		if s.skipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if s.maxDepth > 0 && depth(root, path) >= s.maxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !isPDFFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		result.Files = append(result.Files, FileInfo{
			Name:         d.Name(),
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		if s.fileLimit > 0 && len(result.Files) >= s.fileLimit {
			result.Truncated = true
			return errScanLimit
		}
		return nil
	})

	result.ScanTime = time.Since(start)
	if errors.Is(err, errScanLimit) {
		err = nil
	}
	return result, err
}

// depth counts the directories between root and path.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func isPDFFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// NewPDFServerInfo creates a new server info handler. Listings are cached
// for 5 minutes; scans stop at 5 levels, 100 files or 3 seconds.
func NewPDFServerInfo(service *Service) *PDFServerInfo {
	return &PDFServerInfo{
		cache:   NewDirectoryCache(5 * time.Minute),
		scanner: NewTemplateScanner(5, 100, 3*time.Second),
		service: service,
	}
}

// GetServerInfo reports the tools, the layout settings and the templates in
// the default directory
func (p *PDFServerInfo) GetServerInfo(ctx context.Context, serverName, version, defaultDirectory string) (*PDFServerInfoResult, error) {
	validatedDir := defaultDirectory
	if err := p.service.pathValidator.ValidateDirectory(defaultDirectory); err != nil {
		validatedDir = p.service.pathValidator.Root()
	}

	files := p.listTemplates(ctx, validatedDir)
	opts := p.service.Options()

	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  validatedDir,
		MaxFileSize:       p.service.maxFileSize,
		AvailableTools:    p.getAvailableTools(),
		DirectoryContents: files,
		UsageGuidance:     p.getUsageGuidance(),
		SupportedFormats:  stamp.SupportedFormats(),
		Layout: LayoutInfo{
			Leading:         opts.Leading,
			AutoSize:        opts.AutoSize,
			AutoSizeMin:     opts.AutoSizeMin,
			AutoSizeMax:     opts.AutoSizeMax,
			DefaultFontSize: opts.DefaultFontSize,
			StampScale:      opts.Scale.String(),
		},
	}, nil
}

func (p *PDFServerInfo) listTemplates(ctx context.Context, dir string) []FileInfo {
	if cached := p.cache.Get(dir); cached != nil {
		return cached.files
	}
	// a concurrent scan fills the cache; don't block on it
	if !p.cache.TryScan(dir) {
		return []FileInfo{}
	}
	defer p.cache.DoneScan(dir)

	scanCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := p.scanner.ScanDirectory(scanCtx, dir)
	if err != nil {
		p.service.logger.Debugf("scan of %s stopped: %v", dir, err)
		return res.Files
	}
	if res.Truncated {
		p.service.logger.Debugf("scan of %s truncated after %d entries", dir, res.FilesScanned)
	}
	p.cache.Set(dir, res.Files)
	return res.Files
}

// getAvailableTools returns the list of available tools
func (p *PDFServerInfo) getAvailableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_inspect_form",
			Description: descriptions.GetToolDescription("pdf_inspect_form"),
			Usage:       "Use this tool first to learn the qualified field names, input types and options of a form.",
			Parameters:  "path (required): Full path to the PDF form",
		},
		{
			Name:        "pdf_fill_form",
			Description: descriptions.GetToolDescription("pdf_fill_form"),
			Usage: "Use this tool to write values into a form. Keys are qualified names from pdf_inspect_form; " +
				"the reserved key '.stamps' holds images to draw.",
			Parameters: "path (required): template PDF, output (required): where to write the filled PDF, " +
				"values (required): object mapping qualified names to strings, booleans, numbers or lists",
		},
		{
			Name:        "pdf_stamp_image",
			Description: descriptions.GetToolDescription("pdf_stamp_image"),
			Usage:       "Use this tool to draw an image, such as a signature or logo, on one page.",
			Parameters: "path (required), output (required), image (required): file path or data URL, " +
				"page (required): 1-based page number, rect (required): [left, bottom, right, top] in points",
		},
		{
			Name:        "pdf_validate_file",
			Description: descriptions.GetToolDescription("pdf_validate_file"),
			Usage:       "Use this tool to check if a file is a readable PDF before filling it.",
			Parameters:  "path (required): Full path to the PDF file",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to get server capabilities, layout settings and the templates in the default directory.",
			Parameters:  "No parameters required",
		},
	}
}

// getUsageGuidance returns comprehensive usage guidance
func (p *PDFServerInfo) getUsageGuidance() string {
	maxFileSizeMB := p.service.maxFileSize / (1024 * 1024)

	return fmt.Sprintf(`PDF Form Server Usage Guide:

1. DISCOVER THE FORM:
   - Use 'pdf_server_info' to list templates in the default directory
   - Use 'pdf_inspect_form' to get every field with its qualified name,
     input type (text, textarea, password, checkbox, radio, select,
     button, signature), options and current value

2. FILL THE FORM:
   - Use 'pdf_fill_form' with an object of qualified name -> value:
     * text, textarea, password: a string (numbers are accepted)
     * checkbox: true/false or one of its options
     * radio: one of its options, with or without the leading '/'
     * select: one option, or a list for multi-select lists
     * signature: an image path; the image replaces the widget
   - Add '.stamps': [{"img": ..., "page": 1, "rect": [l, b, r, t]}]
     to draw images anywhere

3. STAMP IMAGES:
   - Use 'pdf_stamp_image' to draw a single image without filling fields

IMPORTANT NOTES:
- Every value is checked before anything is written; one bad value fails the whole fill
- Text that does not fit is shrunk down to the minimum size and clipped, with a warning
- Image paths, like document paths, are relative to the configured directory and must stay inside it
- The server can handle files up to %dMB
- Supported image formats: %s`, maxFileSizeMB, strings.Join(stamp.SupportedFormats(), ", "))
}

// ClearCache clears expired cache entries
func (p *PDFServerInfo) ClearCache() {
	p.cache.Clear()
}

// GetCacheStats returns cache statistics
func (p *PDFServerInfo) GetCacheStats() map[string]interface{} {
	return p.cache.Stats()
}

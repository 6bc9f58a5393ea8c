package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newRoot creates a root with templates/form.pdf and an outside directory.
func newRoot(t *testing.T) (root, outside string) {
	t.Helper()
	base := t.TempDir()
	root = filepath.Join(base, "root")
	outside = filepath.Join(base, "outside")
	for _, dir := range []string{filepath.Join(root, "templates"), outside} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "templates", "form.pdf"), []byte("test"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return root, outside
}

func TestNewPathValidator(t *testing.T) {
	tests := []struct {
		name      string
		dir       string
		wantError bool
	}{
		{"valid directory", t.TempDir(), false},
		{"empty directory", "", true},
		{"non-existent directory", "/non/existent/path", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := NewPathValidator(tt.dir)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if validator.Root() != tt.dir {
				t.Errorf("Root() = %s, want %s", validator.Root(), tt.dir)
			}
		})
	}
}

func TestPathValidator_ValidatePath(t *testing.T) {
	root, outside := newRoot(t)
	validator, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{"empty path", "", true},
		{"root itself", root, false},
		{"file in subdirectory", filepath.Join(root, "templates", "form.pdf"), false},
		{"not yet written output", filepath.Join(root, "filled.pdf"), false},
		{"file outside directory", "/etc/passwd", true},
		{"sibling directory", filepath.Join(outside, "x.pdf"), true},
		{"sibling with common prefix", root + "-evil/x.pdf", true},
		{"parent directory traversal", filepath.Join(root, "..", "outside.pdf"), true},
		{"dot segments within directory", filepath.Join(root, ".", "templates", "form.pdf"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePath(tt.path)
			if tt.wantError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestPathValidator_Symlinks(t *testing.T) {
	root, outside := newRoot(t)
	secret := filepath.Join(outside, "secret.pdf")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	dirLink := filepath.Join(root, "out")
	if err := os.Symlink(outside, dirLink); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	validator, _ := NewPathValidator(root)

	if ok, err := validator.IsPathWithinDirectory(link); err != nil || ok {
		t.Errorf("symlink escaping the root accepted (ok=%v, err=%v)", ok, err)
	}
	if _, err := validator.ResolveOutput(filepath.Join(dirLink, "filled.pdf")); err == nil {
		t.Error("output below a symlinked directory outside the root accepted")
	}
}

func TestPathValidator_Resolve(t *testing.T) {
	root, _ := newRoot(t)
	validator, _ := NewPathValidator(root)

	tests := []struct {
		name      string
		path      string
		want      string
		wantError bool
	}{
		{"absolute path", filepath.Join(root, "templates", "form.pdf"), filepath.Join(root, "templates", "form.pdf"), false},
		{"relative to root", "templates/form.pdf", filepath.Join(root, "templates", "form.pdf"), false},
		{"NUL bytes stripped", "templates/form\x00.pdf", filepath.Join(root, "templates", "form.pdf"), false},
		{"relative traversal", "../outside/x.pdf", "", true},
		{"empty", "", "", true},
		{"only NUL", "\x00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validator.Resolve(tt.path)
			if tt.wantError {
				if err == nil {
					t.Errorf("Resolve(%q) = %s, want error", tt.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathValidator_ResolveOutput(t *testing.T) {
	root, _ := newRoot(t)
	validator, _ := NewPathValidator(root)

	got, err := validator.ResolveOutput("filled.pdf")
	if err != nil {
		t.Fatalf("ResolveOutput: %v", err)
	}
	if got != filepath.Join(root, "filled.pdf") {
		t.Errorf("ResolveOutput = %s", got)
	}

	if _, err := validator.ResolveOutput("templates"); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Errorf("directory output should fail, got %v", err)
	}
	if _, err := validator.ResolveOutput("/etc/filled.pdf"); err == nil {
		t.Error("output outside the root accepted")
	}
}

func TestPathValidator_ValidateDirectory(t *testing.T) {
	root, outside := newRoot(t)
	validator, _ := NewPathValidator(root)

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{"subdirectory", filepath.Join(root, "templates"), false},
		{"missing subdirectory", filepath.Join(root, "later"), false},
		{"file", filepath.Join(root, "templates", "form.pdf"), true},
		{"outside", outside, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateDirectory(tt.path)
			if tt.wantError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestPathValidator_MissingRoot(t *testing.T) {
	validator, _ := NewPathValidator(filepath.Join(t.TempDir(), "not-created"))
	if err := validator.ValidatePath("/anywhere/file.pdf"); err != nil {
		t.Errorf("a missing root should accept any path, got %v", err)
	}
}

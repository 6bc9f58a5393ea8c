package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envKeys = []string{
	"MODE", "HOST", "PORT", "DIR", "LOGLEVEL", "MAXFILESIZE", "CONFIG",
	"LEADING", "AUTOSIZE", "AUTOSIZEMIN", "AUTOSIZEMAX", "DEFAULTFONTSIZE",
	"PADDING", "STAMPSCALE", "IMAGECACHE",
}

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to clear environment variables
func clearEnvVars() {
	for _, k := range envKeys {
		os.Unsetenv(EnvPrefix + "_" + k)
	}
}

// loadWith runs LoadFromFlags with the given arguments and restores the
// process state afterwards.
func loadWith(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})

	os.Args = append([]string{"pdfform-mcp"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	clearEnvVars()
	cfg, err := loadWith(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.Leading != 1.15 || !cfg.AutoSize || cfg.AutoSizeMin != 4 || cfg.AutoSizeMax != 12 {
		t.Errorf("LoadFromFlags() layout defaults = %v", cfg)
	}
	if cfg.StampScale != "stretch" {
		t.Errorf("LoadFromFlags() StampScale = %v, want stretch", cfg.StampScale)
	}
	if cfg.PDFDirectory == "" {
		t.Error("LoadFromFlags() PDFDirectory should not be empty")
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(*Config) bool
	}{
		{"server mode", []string{"--mode=server", "--port=9090"}, func(c *Config) bool {
			return c.Mode == "server" && c.Port == 9090
		}},
		{"debug logging", []string{"--loglevel=debug"}, func(c *Config) bool {
			return c.IsDebug()
		}},
		{"custom max file size", []string{"--maxfilesize=50000000"}, func(c *Config) bool {
			return c.MaxFileSize == 50000000
		}},
		{"layout", []string{"--leading=1.5", "--autosizemin=6", "--autosizemax=20", "--padding=1"}, func(c *Config) bool {
			return c.Leading == 1.5 && c.AutoSizeMin == 6 && c.AutoSizeMax == 20 && c.Padding == 1
		}},
		{"fixed size", []string{"--autosize=false", "--defaultfontsize=10"}, func(c *Config) bool {
			return !c.AutoSize && c.DefaultFontSize == 10
		}},
		{"stamping", []string{"--stampscale=fit", "--imagecache=4"}, func(c *Config) bool {
			return c.StampScale == "fit" && c.ImageCacheSize == 4
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			args := append([]string{"--dir=" + t.TempDir()}, tt.args...)
			cfg, err := loadWith(t, args...)
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("LoadFromFlags(%v) = %v", tt.args, cfg)
			}
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("PDFFORM_MODE", "server")
	t.Setenv("PDFFORM_PORT", "3000")
	t.Setenv("PDFFORM_DIR", tempDir)
	t.Setenv("PDFFORM_LOGLEVEL", "warn")
	t.Setenv("PDFFORM_STAMPSCALE", "fit")
	t.Setenv("PDFFORM_AUTOSIZEMAX", "9")

	cfg, err := loadWith(t)
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" || cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Mode/Port = %v/%v, want server/3000", cfg.Mode, cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.StampScale != "fit" || cfg.AutoSizeMax != 9 {
		t.Errorf("LoadFromFlags() StampScale/AutoSizeMax = %v/%v, want fit/9", cfg.StampScale, cfg.AutoSizeMax)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("PDFFORM_MODE", "server")
	t.Setenv("PDFFORM_LEADING", "2")

	cfg, err := loadWith(t, "--mode=stdio", "--leading=1.2")
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want stdio (should override env)", cfg.Mode)
	}
	if cfg.Leading != 1.2 {
		t.Errorf("LoadFromFlags() Leading = %v, want 1.2 (should override env)", cfg.Leading)
	}
}

func TestLoadFromFlags_ConfigFile(t *testing.T) {
	clearEnvVars()
	dir := t.TempDir()
	path := filepath.Join(dir, "pdfform.yaml")
	data := "loglevel: debug\nstampscale: fit\nautosizemin: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadWith(t, "--dir="+dir, "--config="+path, "--autosizemin=6")
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.StampScale != "fit" {
		t.Errorf("LoadFromFlags() did not apply config file: %v", cfg)
	}
	if cfg.AutoSizeMin != 6 {
		t.Errorf("LoadFromFlags() AutoSizeMin = %v, want 6 (flag beats file)", cfg.AutoSizeMin)
	}
	if cfg.ConfigFile != path {
		t.Errorf("LoadFromFlags() ConfigFile = %v, want %v", cfg.ConfigFile, path)
	}

	_, err = loadWith(t, "--config="+filepath.Join(dir, "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "cannot read config file") {
		t.Errorf("LoadFromFlags() error = %v, want config file error", err)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"log level", []string{"--loglevel=invalid"}, "invalid log level"},
		{"scale", []string{"--stampscale=crop"}, "invalid scale mode"},
		{"size range", []string{"--autosizemin=10", "--autosizemax=8"}, "auto size range"},
		{"leading", []string{"--leading=0"}, "leading must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			args := append([]string{"--dir=" + t.TempDir()}, tt.args...)
			_, err := loadWith(t, args...)
			if err == nil {
				t.Fatalf("LoadFromFlags(%v) expected error", tt.args)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	_, err := loadWith(t, "--version")
	if err == nil || err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf/appearance"
	"github.com/a3tai/pdfform/internal/pdf/stamp"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. PDFFORM_DIR.
	EnvPrefix = "PDFFORM"
)

// Config holds all configuration for the form filler and its MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
	ConfigFile  string

	// Layout configuration
	Leading         float64
	AutoSize        bool
	AutoSizeMin     float64
	AutoSizeMax     float64
	DefaultFontSize float64
	Padding         float64
	StampScale      string
	ImageCacheSize  int
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	layout := appearance.DefaultOptions()
	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    currentDir,
		Version:         "1.0.0",
		ServerName:      "pdfform",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
		Leading:         layout.Leading,
		AutoSize:        layout.AutoSize,
		AutoSizeMin:     layout.AutoSizeMin,
		AutoSizeMax:     layout.AutoSizeMax,
		DefaultFontSize: layout.DefaultFontSize,
		Padding:         layout.Padding,
		StampScale:      layout.Scale.String(),
		ImageCacheSize:  layout.ImageCacheSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("config", "")

	viper.SetDefault("leading", cfg.Leading)
	viper.SetDefault("autosize", cfg.AutoSize)
	viper.SetDefault("autosizemin", cfg.AutoSizeMin)
	viper.SetDefault("autosizemax", cfg.AutoSizeMax)
	viper.SetDefault("defaultfontsize", cfg.DefaultFontSize)
	viper.SetDefault("padding", cfg.Padding)
	viper.SetDefault("stampscale", cfg.StampScale)
	viper.SetDefault("imagecache", cfg.ImageCacheSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("config", "", "Configuration file (YAML, JSON or TOML)")

	pflag.Float64("leading", cfg.Leading, "Line height as a multiple of the font size")
	pflag.Bool("autosize", cfg.AutoSize, "Fit text of auto-sized fields to the widget")
	pflag.Float64("autosizemin", cfg.AutoSizeMin, "Smallest auto font size in points")
	pflag.Float64("autosizemax", cfg.AutoSizeMax, "Largest auto font size in points")
	pflag.Float64("defaultfontsize", cfg.DefaultFontSize, "Font size for auto-sized fields when --autosize=false")
	pflag.Float64("padding", cfg.Padding, "Inset between widget border and text in points")
	pflag.String("stampscale", cfg.StampScale, "Image scaling: 'stretch' or 'fit'")
	pflag.Int("imagecache", cfg.ImageCacheSize, "Decoded images kept per fill")
}

var flagKeys = []string{
	"mode", "host", "port", "dir", "loglevel", "maxfilesize", "config",
	"leading", "autosize", "autosizemin", "autosizemax", "defaultfontsize",
	"padding", "stampscale", "imagecache",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// readConfigFile merges the --config file, if any, under flags and
// environment variables.
func readConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\npdfform - fills PDF forms and stamps images, as a Model Context Protocol server\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs               "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --stampscale=fit --autosizemax=10 # layout tuning\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config=pdfform.yaml             # settings from a file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDFFORM_MODE        Server mode\n")
		fmt.Fprintf(os.Stderr, "  PDFFORM_DIR         PDF directory\n")
		fmt.Fprintf(os.Stderr, "  PDFFORM_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  PDFFORM_MAXFILESIZE Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  PDFFORM_STAMPSCALE  Image scaling\n")
		fmt.Fprintf(os.Stderr, "  (every option has a PDFFORM_ variable of the same name)\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.ConfigFile = viper.GetString("config")

	cfg.Leading = viper.GetFloat64("leading")
	cfg.AutoSize = viper.GetBool("autosize")
	cfg.AutoSizeMin = viper.GetFloat64("autosizemin")
	cfg.AutoSizeMax = viper.GetFloat64("autosizemax")
	cfg.DefaultFontSize = viper.GetFloat64("defaultfontsize")
	cfg.Padding = viper.GetFloat64("padding")
	cfg.StampScale = viper.GetString("stampscale")
	cfg.ImageCacheSize = viper.GetInt("imagecache")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if _, err := c.Layout(); err != nil {
		return err
	}

	return nil
}

// Layout returns the appearance options described by the configuration.
func (c *Config) Layout() (appearance.Options, error) {
	scale, err := stamp.ParseScaleMode(c.StampScale)
	if err != nil {
		return appearance.Options{}, err
	}
	opts := appearance.Options{
		Leading:         c.Leading,
		AutoSize:        c.AutoSize,
		AutoSizeMin:     c.AutoSizeMin,
		AutoSizeMax:     c.AutoSizeMax,
		DefaultFontSize: c.DefaultFontSize,
		Padding:         c.Padding,
		Scale:           scale,
		ImageCacheSize:  c.ImageCacheSize,
	}
	if err := opts.Validate(); err != nil {
		return appearance.Options{}, err
	}
	return opts, nil
}

// Logger returns a stderr logger at the configured level.
func (c *Config) Logger() *logging.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewStderr(level)
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Leading: %g, AutoSize: %t [%g, %g], StampScale: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.Leading, c.AutoSize, c.AutoSizeMin, c.AutoSizeMax, c.StampScale)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

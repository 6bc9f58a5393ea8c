package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/pdfform/internal/config"
	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/mcp"
	"github.com/a3tai/pdfform/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging routes the standard logger to stderr so stdout carries only
// MCP frames, and returns the leveled logger for the configuration.
func setupLogging(cfg *config.Config) *logging.Logger {
	log.SetOutput(os.Stderr)
	if cfg.IsServerMode() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return cfg.Logger()
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *logging.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Infof("Received signal: %s, shutting down", sig)
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Errorf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	}

	logger.Infof("Server stopped successfully")
}

// runStdioMode handles stdio mode execution; the parent process owns our
// lifecycle and we exit when stdin closes.
func runStdioMode(ctx context.Context, server *mcp.Server, logger *logging.Logger) {
	if err := server.Run(ctx); err != nil {
		logger.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}

func main() {
	if hasVersionFlag(os.Args[1:]) {
		printVersion()
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}
	logger.Debugf("Starting with configuration: %s", cfg.String())

	layout, err := cfg.Layout()
	if err != nil {
		log.Fatalf("Invalid layout configuration: %v", err)
	}

	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, layout, logger)
	if err != nil {
		log.Fatalf("Failed to create PDF service: %v", err)
	}

	server, err := mcp.NewServer(cfg, pdfService)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server, logger)
	} else {
		runStdioMode(ctx, server, logger)
	}
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("pdfform MCP server\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}

// Command pdfform inspects and fills PDF forms from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/pdfform/internal/config"
	"github.com/a3tai/pdfform/internal/pdf"
	"github.com/a3tai/pdfform/internal/pdf/appearance"
	"github.com/a3tai/pdfform/internal/pdf/filldata"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

var (
	interactive = pflag.Bool("interactive", false, "Prompt for every field of the template (fill-form)")
	format      = pflag.String("format", "", "Inspect output or fill data format: json, yaml (default json / by extension)")
	scale       = pflag.String("scale", "", "Image scaling for stamps: stretch or fit (overrides --stampscale)")
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// The CLI reads and writes wherever the local user points it.
	if os.Getenv(config.EnvPrefix+"_DIR") == "" {
		os.Setenv(config.EnvPrefix+"_DIR", string(os.PathSeparator))
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	pflag.Usage = printUsage

	if err := run(cfg, pflag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches a subcommand.
func run(cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("command required")
	}
	if *scale != "" {
		cfg.StampScale = *scale
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "inspect-form":
		if len(rest) != 1 {
			return fmt.Errorf("usage: pdfform inspect-form <pdf>")
		}
		return inspectForm(svc, rest[0], *format, stdout)

	case "fill-form":
		req, err := fillRequest(rest, *format, *interactive)
		if err != nil {
			return err
		}
		if *interactive {
			if err := promptValues(svc, req, surveyAsker{}); err != nil {
				return err
			}
		}
		return fillForm(svc, req, stdout, cfg.Logger())

	case "help":
		printUsage()
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func newService(cfg *config.Config) (*pdf.Service, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, fmt.Errorf("invalid layout configuration: %w", err)
	}
	return pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, layout, cfg.Logger())
}

// inspectForm writes the field list of path as JSON or YAML.
func inspectForm(svc *pdf.Service, path, outFormat string, w io.Writer) error {
	res, err := svc.InspectForm(pdf.PDFInspectFormRequest{Path: path})
	if err != nil {
		return err
	}
	switch outFormat {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Fields)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res.Fields); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("invalid output format: %s (valid: json, yaml)", outFormat)
}

// fillRequest builds a fill request from the positional arguments
// <template> <data> [output|-], or <template> [output|-] when prompting.
// A data argument starting with '{' is inline JSON rather than a file.
func fillRequest(args []string, dataFormat string, prompting bool) (pdf.PDFFillFormRequest, error) {
	var req pdf.PDFFillFormRequest

	want := "<template> <data> [output|-]"
	need := 2
	if prompting {
		want = "<template> [output|-]"
		need = 1
	}
	if len(args) < need || len(args) > need+1 {
		return req, fmt.Errorf("usage: pdfform fill-form %s", want)
	}
	req.Path = args[0]
	req.Output = "-"
	if len(args) == need+1 {
		req.Output = args[need]
	}

	if prompting {
		req.Data = &filldata.Data{Values: map[string]appearance.Input{}}
		return req, nil
	}

	var err error
	if strings.HasPrefix(strings.TrimSpace(args[1]), "{") {
		if req.Data, err = filldata.Parse([]byte(args[1]), filldata.FormatJSON); err != nil {
			return req, fmt.Errorf("inline data: %w", err)
		}
		return req, nil
	}

	f, err := filldata.ParseFormat(dataFormat)
	if err != nil {
		return req, err
	}
	if req.Data, err = filldata.Load(args[1], f); err != nil {
		return req, err
	}
	return req, nil
}

type warnLogger interface {
	Warnf(format string, args ...any)
}

// fillForm writes the filled document to req.Output, or to w for "-".
func fillForm(svc *pdf.Service, req pdf.PDFFillFormRequest, w io.Writer, logger warnLogger) error {
	var (
		res *pdf.PDFFillFormResult
		err error
	)
	if req.Output == "-" {
		res, err = svc.FillFormTo(w, req)
	} else {
		res, err = svc.FillForm(req)
	}
	if err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		logger.Warnf("%s", warning)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  pdfform [options] inspect-form <pdf>\n")
	fmt.Fprintf(os.Stderr, "  pdfform [options] fill-form <template> <data> [output|-]\n")
	fmt.Fprintf(os.Stderr, "  pdfform [options] --interactive fill-form <template> [output|-]\n")
	fmt.Fprintf(os.Stderr, "\nThe filled PDF goes to stdout when output is '-' or omitted.\n")
	fmt.Fprintf(os.Stderr, "Fill data is a JSON or YAML object of qualified field names; the key\n")
	fmt.Fprintf(os.Stderr, "'.stamps' takes a list of {img, page, rect} image stamps. <data> is a\n")
	fmt.Fprintf(os.Stderr, "file path, or inline JSON when it starts with '{'.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	pflag.PrintDefaults()
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("pdfform\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}

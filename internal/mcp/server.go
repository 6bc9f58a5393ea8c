package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdfform/internal/config"
	"github.com/a3tai/pdfform/internal/descriptions"
	"github.com/a3tai/pdfform/internal/logging"
	"github.com/a3tai/pdfform/internal/pdf"
	"github.com/a3tai/pdfform/internal/pdf/filldata"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *logging.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     cfg.Logger(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	inspectTool := mcp.NewTool(
		"pdf_inspect_form",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_inspect_form")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF form"),
		),
	)
	s.mcpServer.AddTool(inspectTool, s.handleInspectForm)

	fillTool := mcp.NewTool(
		"pdf_fill_form",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_fill_form")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the template PDF"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Full path of the filled PDF to write"),
		),
		mcp.WithObject("values",
			mcp.Required(),
			mcp.Description("Qualified field name -> value; the key '.stamps' holds a list of {img, page, rect}"),
		),
	)
	s.mcpServer.AddTool(fillTool, s.handleFillForm)

	stampTool := mcp.NewTool(
		"pdf_stamp_image",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_stamp_image")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Full path of the stamped PDF to write"),
		),
		mcp.WithString("image",
			mcp.Required(),
			mcp.Description("Image file path or data URL"),
		),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("1-based page number"),
		),
		mcp.WithArray("rect",
			mcp.Required(),
			mcp.Description("[left, bottom, right, top] in PDF points"),
			mcp.Items(map[string]any{"type": "number"}),
		),
	)
	s.mcpServer.AddTool(stampTool, s.handleStampImage)

	validateTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	serverInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleInspectForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.InspectForm(pdf.PDFInspectFormRequest{Path: path})
	if err != nil {
		return s.toolError("pdf_inspect_form", err), nil
	}

	fields, err := json.MarshalIndent(result.Fields, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var text string
	if result.FieldCount == 0 {
		text = fmt.Sprintf("%s has no form fields\n", result.Path)
	} else {
		text = fmt.Sprintf("Form fields in %s (%d):\n", result.Path, result.FieldCount)
	}
	text += string(fields)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFillForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	values, ok := request.GetArguments()["values"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("values must be an object of qualified field names"), nil
	}
	data, err := filldata.FromMap(values)
	if err != nil {
		return s.toolError("pdf_fill_form", err), nil
	}

	result, err := s.pdfService.FillForm(pdf.PDFFillFormRequest{Path: path, Output: output, Data: data})
	if err != nil {
		return s.toolError("pdf_fill_form", err), nil
	}
	return mcp.NewToolResultText(formatFillResult(result)), nil
}

func (s *Server) handleStampImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var req pdf.PDFStampImageRequest
	var err error
	if req.Path, err = request.RequireString("path"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Output, err = request.RequireString("output"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Image, err = request.RequireString("image"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, ok := args["page"].(float64)
	if !ok || page != float64(int(page)) {
		return mcp.NewToolResultError("page must be an integer"), nil
	}
	req.Page = int(page)

	rect, ok := args["rect"].([]any)
	if !ok {
		return mcp.NewToolResultError("rect must be an array of 4 numbers"), nil
	}
	for _, v := range rect {
		n, ok := v.(float64)
		if !ok {
			return mcp.NewToolResultError("rect must be an array of 4 numbers"), nil
		}
		req.Rect = append(req.Rect, n)
	}

	result, err := s.pdfService.StampImage(req)
	if err != nil {
		return s.toolError("pdf_stamp_image", err), nil
	}
	return mcp.NewToolResultText(formatFillResult(result)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.GetServerInfo(ctx, s.config.ServerName, s.config.Version, s.config.PDFDirectory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatServerInfoResult(result)), nil
}

// toolError logs a failed call and turns it into a tool result.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warnf("%s: %v", tool, err)
	return mcp.NewToolResultError(err.Error())
}

// Formatting methods
func formatFillResult(result *pdf.PDFFillFormResult) string {
	text := fmt.Sprintf("Wrote %s (%d bytes) from %s\n", result.Output, result.Size, result.Path)
	if len(result.Filled) > 0 {
		text += fmt.Sprintf("Filled %d field(s): %s\n", len(result.Filled), strings.Join(result.Filled, ", "))
	}
	if result.Stamps > 0 {
		text += fmt.Sprintf("Stamped %d image(s)\n", result.Stamps)
	}
	if len(result.Warnings) > 0 {
		text += "\nWarnings:\n"
		for _, w := range result.Warnings {
			text += fmt.Sprintf("  • %s\n", w)
		}
	}
	return text
}

func formatServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔤 Layout: leading %g, auto-size %t (%g-%g pt), default size %g pt, stamp scale %s\n\n",
		result.Layout.Leading, result.Layout.AutoSize, result.Layout.AutoSizeMin, result.Layout.AutoSizeMax,
		result.Layout.DefaultFontSize, result.Layout.StampScale)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Templates (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Templates: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		text += "\n🖼️  Supported Image Formats: " + strings.Join(result.SupportedFormats, ", ") + "\n"
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debugf("Starting PDF form server in stdio mode")
	s.logger.Debugf("PDF directory: %s", s.config.PDFDirectory)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode falls back to stdio; mcp-go's transports are not wired for
// a TCP listener here.
func (s *Server) runServerMode(ctx context.Context) error {
	s.logger.Warnf("Server mode is not implemented, falling back to stdio mode on %s", s.config.Address())
	return s.runStdioMode(ctx)
}

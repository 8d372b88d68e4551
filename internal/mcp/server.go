package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/packlist/internal/config"
	"github.com/a3tai/packlist/internal/descriptions"
	"github.com/a3tai/packlist/internal/pdf"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
	"github.com/a3tai/packlist/internal/service"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolPackingListExtract,
		mcp.WithDescription(descriptions.PackingListExtractDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the packing list PDF, relative to the served directory or absolute inside it"),
		),
		mcp.WithString("mode",
			mcp.Description("Extraction mode: auto (default), table or text"),
			mcp.Enum("auto", "table", "text"),
		),
	), s.handleExtract)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.ValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handleValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolSearchDirectory,
		mcp.WithDescription(descriptions.SearchDirectoryDescription),
		mcp.WithString("query",
			mcp.Description("Optional words to match against file names"),
		),
	), s.handleSearchDirectory)

	s.mcpServer.AddTool(templateTool(descriptions.ToolDGDeclaration, descriptions.DGDeclarationDescription, ".xlsx"),
		s.handleDGDeclaration)
	s.mcpServer.AddTool(templateTool(descriptions.ToolPreadvise, descriptions.PreadviseDescription, ".docx"),
		s.handlePreadvise)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

func templateTool(name, description, ext string) mcp.Tool {
	return mcp.NewTool(
		name,
		mcp.WithDescription(description),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Path to the "+ext+" template"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Path of the "+ext+" file to write; its directory is created"),
		),
		mcp.WithString("payload",
			mcp.Required(),
			mcp.Description("Inline JSON payload, or the path of a JSON payload file"),
		),
	)
}

// Handler functions
func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.service.Extract(ctx, service.ExtractRequest{
		Path: path,
		Mode: request.GetString("mode", ""),
	})
	if err != nil {
		return toolError(err), nil
	}

	text, err := marshal(res)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.OK {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(pdf.ValidateFileRequest{Path: path})
	if err != nil {
		return toolError(err), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages", result.Path, result.Pages)
		if result.Version != "" {
			responseText += ", PDF " + result.Version
		}
		responseText += ")"
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.SearchDirectory(request.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.Query != "" {
			text += fmt.Sprintf(" (searched for: %s)", result.Query)
		}
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(formatSearchResult(result)), nil
}

func (s *Server) handleDGDeclaration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := templateRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.GenerateDGDeclaration(req)
	if err != nil {
		return toolError(err), nil
	}

	text := fmt.Sprintf("DG declaration written to %s", result.Output)
	if result.Item != "" {
		text += fmt.Sprintf(" (item: %s)", result.Item)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePreadvise(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := templateRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.GeneratePreadvise(req)
	if err != nil {
		return toolError(err), nil
	}

	text := fmt.Sprintf("Pre-advice written to %s", result.Output)
	if len(result.Unmatched) > 0 {
		text += "\nPlaceholders not found in the document body:"
		for _, token := range result.Unmatched {
			text += "\n  " + token
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatServerInfo(s.service.ServerInfo())), nil
}

func templateRequest(request mcp.CallToolRequest) (service.TemplateRequest, error) {
	var req service.TemplateRequest
	var err error
	if req.Template, err = request.RequireString("template"); err != nil {
		return req, err
	}
	if req.Output, err = request.RequireString("output"); err != nil {
		return req, err
	}
	if req.Payload, err = request.RequireString("payload"); err != nil {
		return req, err
	}
	return req, nil
}

// toolError reports a classified error with its category
func toolError(err error) *mcp.CallToolResult {
	text := pdferrors.Message(err)
	if t := pdferrors.TypeOf(err); t != pdferrors.ErrorTypeUnknown {
		text = fmt.Sprintf("%s error: %s", t, text)
	}
	return mcp.NewToolResultError(text)
}

func marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// Formatting helpers
func formatSearchResult(result *pdf.SearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.Query != "" {
		text += fmt.Sprintf("Search query: %s\n", result.Query)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
	}

	return text
}

func formatServerInfo(info *service.ServerInfo) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", info.ServerName, info.Version)
	text += fmt.Sprintf("📁 Directory: %s\n", info.Directory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", info.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("⚙️  Extraction: mode=%s engine=%s\n", info.Mode, info.Engine)
	if info.Cache != nil {
		text += fmt.Sprintf("🗄️  Result cache: %d/%d entries, %d hits, %d misses\n",
			info.Cache.Size, info.Cache.Capacity, info.Cache.Hits, info.Cache.Misses)
	}
	text += "\n"

	if len(info.Files) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(info.Files))
		for i, file := range info.Files {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(info.Files)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range info.Tools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\nPaths are resolved against the served directory; files outside it are refused.\n"
	return text
}

// Run serves MCP over the process stdio until the client disconnects or
// the process is interrupted
func (s *Server) Run(_ context.Context) error {
	s.logger.Info("starting MCP server on stdio",
		zap.String("name", s.config.ServerName),
		zap.String("version", s.config.Version),
		zap.String("directory", s.config.Directory),
	)

	if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(zap.NewStdLog(s.logger))); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// Serve handles newline-delimited JSON-RPC messages from in until EOF or
// until ctx is cancelled
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	return stdio.Listen(ctx, in, out)
}

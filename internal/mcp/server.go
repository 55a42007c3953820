package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/descriptions"
	"github.com/a3tai/mcp-pdf-regions/internal/extract"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
	"github.com/a3tai/mcp-pdf-regions/internal/security"
	"github.com/a3tai/mcp-pdf-regions/internal/template"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	store     template.Service
	extractor *extract.Client
	paths     *security.PathValidator
	search    *pdf.Search
	logger    *slog.Logger
	mcpServer *server.MCPServer

	// fieldsMu guards registry. Session handlers hold it for reading while they run.
	fieldsMu sync.RWMutex
	registry *region.Registry

	sessions *sessionRegistry
}

// Option configures a Server
type Option func(*Server)

// WithExtractor sets the extraction service client. It takes precedence over the
// configured service URL.
func WithExtractor(c *extract.Client) Option {
	return func(s *Server) {
		s.extractor = c
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, store template.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("template store cannot be nil")
	}

	s := &Server{
		config:   cfg,
		store:    store,
		sessions: newSessionRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if s.extractor == nil && cfg.RemoteExtractionEnabled() {
		c, err := extract.NewClient(cfg.ExtractURL, extract.WithTimeout(cfg.ExtractTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to create extraction client: %w", err)
		}
		s.extractor = c
	}

	paths, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("invalid documents directory: %w", err)
	}
	s.paths = paths
	s.search = pdf.NewSearch(paths, cfg.MaxFileSize)

	registry, err := region.NewRegistry(store.CustomFields()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom fields: %w", err)
	}
	s.registry = registry

	s.mcpServer = server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set never changes at runtime
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func tool(name string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append([]mcp.ToolOption{mcp.WithDescription(descriptions.GetToolDescription(name))}, opts...)
	return mcp.NewTool(name, opts...)
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by document_open"),
	)
}

func vendorParam() mcp.ToolOption {
	return mcp.WithString("vendor",
		mcp.Required(),
		mcp.Description("Vendor name the template is saved under"),
	)
}

func pointerParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		sessionParam(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Horizontal pixel position from the left edge of the rendered page")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Vertical pixel position from the top edge of the rendered page")),
	}
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Documents
	s.mcpServer.AddTool(tool("document_open",
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the PDF, relative to the documents directory"),
		),
	), s.handleDocumentOpen)
	s.mcpServer.AddTool(tool("document_close", sessionParam()), s.handleDocumentClose)
	s.mcpServer.AddTool(tool("documents_list",
		mcp.WithString("query", mcp.Description("Optional case-insensitive file name filter")),
	), s.handleDocumentsList)
	s.mcpServer.AddTool(tool("page_select",
		sessionParam(),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("Zero-based page index")),
	), s.handlePageSelect)

	// Annotation
	s.mcpServer.AddTool(tool("field_select",
		sessionParam(),
		mcp.WithString("field", mcp.Required(), mcp.Description("Name of a built-in or custom field")),
	), s.handleFieldSelect)
	s.mcpServer.AddTool(tool("field_deselect", sessionParam()), s.handleFieldDeselect)
	s.mcpServer.AddTool(tool("pointer_down", pointerParams()...), s.handlePointerDown)
	s.mcpServer.AddTool(tool("pointer_move", pointerParams()...), s.handlePointerMove)
	s.mcpServer.AddTool(tool("pointer_up", pointerParams()...), s.handlePointerUp)
	s.mcpServer.AddTool(tool("region_remove",
		sessionParam(),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field whose region is removed")),
		mcp.WithNumber("page", mcp.Description("Zero-based page index (defaults to the current page)")),
	), s.handleRegionRemove)
	s.mcpServer.AddTool(tool("regions_clear", sessionParam()), s.handleRegionsClear)
	s.mcpServer.AddTool(tool("regions_list", sessionParam()), s.handleRegionsList)
	s.mcpServer.AddTool(tool("history_undo", sessionParam()), s.handleHistoryUndo)
	s.mcpServer.AddTool(tool("history_redo", sessionParam()), s.handleHistoryRedo)

	// Templates
	s.mcpServer.AddTool(tool("template_save", sessionParam(), vendorParam()), s.handleTemplateSave)
	s.mcpServer.AddTool(tool("template_load", sessionParam(), vendorParam()), s.handleTemplateLoad)
	s.mcpServer.AddTool(tool("template_get", vendorParam()), s.handleTemplateGet)
	s.mcpServer.AddTool(tool("template_list"), s.handleTemplateList)
	s.mcpServer.AddTool(tool("template_delete",
		vendorParam(),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to delete")),
	), s.handleTemplateDelete)
	s.mcpServer.AddTool(tool("template_export"), s.handleTemplateExport)
	s.mcpServer.AddTool(tool("template_import",
		mcp.WithString("data", mcp.Required(), mcp.Description("JSON document as produced by template_export")),
	), s.handleTemplateImport)

	// Fields
	s.mcpServer.AddTool(tool("fields_list"), s.handleFieldsList)
	s.mcpServer.AddTool(tool("field_register",
		mcp.WithString("name", mcp.Required(), mcp.Description("Field name without whitespace")),
		mcp.WithString("label", mcp.Description("Display label (defaults to the name)")),
		mcp.WithString("color", mcp.Description("Overlay color as #rrggbb")),
		mcp.WithString("type", mcp.Description("Extraction type: text or table")),
	), s.handleFieldRegister)
	s.mcpServer.AddTool(tool("field_unregister",
		mcp.WithString("name", mcp.Required(), mcp.Description("Custom field name")),
	), s.handleFieldUnregister)

	// Extraction
	s.mcpServer.AddTool(tool("extract_local", sessionParam(), vendorParam()), s.handleExtractLocal)
	s.mcpServer.AddTool(tool("extract_remote", sessionParam(), vendorParam()), s.handleExtractRemote)
	s.mcpServer.AddTool(tool("service_health"), s.handleServiceHealth)
	s.mcpServer.AddTool(tool("server_info"), s.handleServerInfo)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch {
	case s.config.IsServerMode():
		return s.runServerMode(ctx)
	case s.config.IsStdioMode():
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves the protocol on stdin and stdout until ctx is done or stdin closes
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", "dir", s.paths.Root())

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the protocol over HTTP with server-sent events
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()
	s.logger.Info("MCP server listening", "addr", addr, "dir", s.paths.Root())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		s.logger.Info("MCP server stopped")
		return nil
	}
}

package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-regions/internal/descriptions"
	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
)

var errRemoteDisabled = apperrors.New(apperrors.KindPrecondition, "extract",
	"remote extraction is disabled: start the server with --extract-url")

type extractionResult struct {
	Vendor   string         `json:"vendor"`
	Document string         `json:"document"`
	Source   string         `json:"source"`
	Data     map[string]any `json:"data"`
}

func (s *Server) handleExtractLocal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendor, err := request.RequireString("vendor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		tmpl, err := s.lookupTemplate(vendor)
		if err != nil {
			return errorResult(err), nil
		}
		data, err := sess.doc.ExtractLocal(tmpl)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(extractionResult{
			Vendor:   strings.TrimSpace(vendor),
			Document: sess.doc.Name(),
			Source:   "local",
			Data:     data,
		})
	})
}

func (s *Server) handleExtractRemote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendor, err := request.RequireString("vendor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.extractor == nil {
		return errorResult(errRemoteDisabled), nil
	}

	// The document is immutable once open, so the upload runs without the session lock
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.sessions.get(id)
	if err != nil {
		return errorResult(err), nil
	}
	doc := sess.doc

	tmpl, err := s.lookupTemplate(vendor)
	if err != nil {
		return errorResult(err), nil
	}

	data, err := s.extractor.Extract(ctx, strings.TrimSpace(vendor), tmpl, doc.Name(), doc.Reader())
	if err != nil {
		s.logger.Warn("remote extraction failed", "vendor", vendor, "document", doc.Name(), "error", err)
		return errorResult(err), nil
	}
	s.logger.Info("remote extraction finished", "vendor", vendor, "document", doc.Name(), "fields", len(data))
	return jsonResult(extractionResult{
		Vendor:   strings.TrimSpace(vendor),
		Document: doc.Name(),
		Source:   s.extractor.BaseURL(),
		Data:     data,
	})
}

func (s *Server) handleServiceHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.extractor == nil {
		return errorResult(errRemoteDisabled), nil
	}
	if err := s.extractor.Health(ctx); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Extraction service at %s is healthy", s.extractor.BaseURL())), nil
}

func (s *Server) handleDocumentsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	files, err := s.search.FindDocuments(query)
	if err != nil {
		return errorResult(err), nil
	}

	if len(files) == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", s.paths.Root())
		if query != "" {
			text += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(formatDocuments(s.paths.Root(), query, files)), nil
}

func formatDocuments(root, query string, files []pdf.FileInfo) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", len(files), root)
	if query != "" {
		text += fmt.Sprintf("Search query: %s\n", query)
	}
	text += "\nFiles:\n"

	for i, file := range files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(files)-1 {
			text += "\n"
		}
	}
	return text
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.search.FindDocuments("")
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Documents Directory: %s\n", s.paths.Root())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔍 Render Scale: %g, Minimum Drag: %g px\n", s.config.Scale, s.config.MinDrag)
	if s.extractor != nil {
		text += fmt.Sprintf("🌐 Extraction Service: %s\n", s.extractor.BaseURL())
	} else {
		text += "🌐 Extraction Service: disabled\n"
	}
	text += fmt.Sprintf("🗂️  Templates: %d, Open Sessions: %d\n\n", s.store.Len(), s.sessions.count())

	if len(files) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(files))
		for i, file := range files {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Path, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found\n\n"
	}

	text += "🛠️  Available Tools:\n"
	names := descriptions.GetAllToolNames()
	sort.Strings(names)
	for _, name := range names {
		text += fmt.Sprintf("• %s\n", name)
	}

	text += "\nWorkflow: document_open → field_select → pointer_down/pointer_up → template_save → extract_remote\n"
	return text
}

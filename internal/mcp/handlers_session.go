package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-regions/internal/annotation"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// withSession runs fn with the session named by the session_id argument locked
func (s *Server) withSession(
	request mcp.CallToolRequest, fn func(*session) (*mcp.CallToolResult, error),
) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.sessions.get(id)
	if err != nil {
		return errorResult(err), nil
	}

	s.fieldsMu.RLock()
	defer s.fieldsMu.RUnlock()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess)
}

func pointerEvent(request mcp.CallToolRequest) (annotation.PointerEvent, error) {
	x, err := request.RequireFloat("x")
	if err != nil {
		return annotation.PointerEvent{}, err
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return annotation.PointerEvent{}, err
	}
	return annotation.PointerEvent{X: x, Y: y}, nil
}

func (s *Server) handleDocumentOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return errorResult(err), nil
	}
	doc, err := pdf.Open(ctx, resolved, s.config.MaxFileSize)
	if err != nil {
		s.logger.Warn("failed to open document", "path", path, "error", err)
		return errorResult(err), nil
	}

	s.fieldsMu.RLock()
	defer s.fieldsMu.RUnlock()

	ann := annotation.New(annotation.Options{
		Scale:        s.config.Scale,
		MinDrag:      s.config.MinDrag,
		HistoryDepth: s.config.HistoryDepth,
		Registry:     s.registry,
	})
	if err := ann.LoadDocument(doc); err != nil {
		return errorResult(err), nil
	}

	sess := s.sessions.add(doc, ann)
	s.logger.Info("document opened", "session", sess.id, "document", doc.Name(), "pages", doc.PageCount())

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return jsonResult(s.view(sess))
}

func (s *Server) handleDocumentClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.sessions.get(id); err != nil {
		return errorResult(err), nil
	}
	s.sessions.remove(id)
	s.logger.Info("document closed", "session", id)
	return mcp.NewToolResultText("Session closed: " + id), nil
}

func (s *Server) handlePageSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		if err := sess.ann.SetPage(page); err != nil {
			return errorResult(err), nil
		}
		return jsonResult(s.view(sess))
	})
}

func (s *Server) handleFieldSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := request.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		if err := sess.ann.SelectField(field); err != nil {
			return errorResult(err), nil
		}
		return jsonResult(s.view(sess))
	})
}

func (s *Server) handleFieldDeselect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		sess.ann.Deselect()
		return jsonResult(s.view(sess))
	})
}

func (s *Server) handlePointerDown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ev, err := pointerEvent(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		if err := sess.ann.PointerDown(ev); err != nil {
			return errorResult(err), nil
		}
		return jsonResult(s.view(sess))
	})
}

func (s *Server) handlePointerMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ev, err := pointerEvent(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		rect, err := sess.ann.PointerMove(ev)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(struct {
			Field string          `json:"field"`
			Rect  annotation.Rect `json:"rect"`
		}{Field: sess.ann.SelectedField(), Rect: rect})
	})
}

func (s *Server) handlePointerUp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ev, err := pointerEvent(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		r, err := sess.ann.PointerUp(ev)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(struct {
			Region *region.Region `json:"region"`
			Click  bool           `json:"click"`
			sessionView
		}{Region: r, Click: r == nil, sessionView: s.view(sess)})
	})
}

func (s *Server) handleRegionRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := request.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		page := request.GetInt("page", sess.ann.Page())
		removed := sess.ann.RemoveRegion(field, page)
		return jsonResult(struct {
			Removed bool `json:"removed"`
			sessionView
		}{Removed: removed, sessionView: s.view(sess)})
	})
}

func (s *Server) handleRegionsClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		sess.ann.Clear()
		return jsonResult(s.view(sess))
	})
}

func (s *Server) handleRegionsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		regions := sess.ann.Regions()
		if regions == nil {
			regions = []region.Region{}
		}
		return jsonResult(struct {
			All []region.Region `json:"all_regions"`
			sessionView
		}{All: regions, sessionView: s.view(sess)})
	})
}

func (s *Server) handleHistoryUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		changed := sess.ann.Undo()
		return jsonResult(struct {
			Changed bool `json:"changed"`
			sessionView
		}{Changed: changed, sessionView: s.view(sess)})
	})
}

func (s *Server) handleHistoryRedo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		changed := sess.ann.Redo()
		return jsonResult(struct {
			Changed bool `json:"changed"`
			sessionView
		}{Changed: changed, sessionView: s.view(sess)})
	})
}

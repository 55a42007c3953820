package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-regions/internal/annotation"
	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/extract"
)

// sessionView is the state of a session after an event
type sessionView struct {
	SessionID     string               `json:"session_id"`
	Document      string               `json:"document"`
	Fingerprint   string               `json:"fingerprint"`
	Pages         int                  `json:"pages"`
	Page          int                  `json:"page"`
	PixelWidth    float64              `json:"pixel_width"`
	PixelHeight   float64              `json:"pixel_height"`
	Width         float64              `json:"width"`
	Height        float64              `json:"height"`
	Scale         float64              `json:"scale"`
	State         string               `json:"state"`
	SelectedField string               `json:"selected_field,omitempty"`
	Regions       int                  `json:"regions"`
	Overlays      []annotation.Overlay `json:"overlays"`
	CanUndo       bool                 `json:"can_undo"`
	CanRedo       bool                 `json:"can_redo"`
}

// view snapshots sess. The caller holds the session lock and the fields read lock.
func (s *Server) view(sess *session) sessionView {
	v := sessionView{
		SessionID:     sess.id,
		Document:      sess.doc.Name(),
		Fingerprint:   sess.doc.Fingerprint(),
		Pages:         sess.ann.PageCount(),
		Page:          sess.ann.Page(),
		State:         sess.ann.State().String(),
		SelectedField: sess.ann.SelectedField(),
		Regions:       len(sess.ann.Regions()),
		Overlays:      sess.ann.Overlays(),
		CanUndo:       sess.ann.CanUndo(),
		CanRedo:       sess.ann.CanRedo(),
	}
	if t := sess.ann.Transform(); t != nil {
		v.PixelWidth = t.PixelSize().Width
		v.PixelHeight = t.PixelSize().Height
		v.Width = t.IntrinsicSize().Width
		v.Height = t.IntrinsicSize().Height
		v.Scale = s.config.Scale
		if v.Scale <= 0 {
			v.Scale = annotation.DefaultScale
		}
	}
	if v.Overlays == nil {
		v.Overlays = []annotation.Overlay{}
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports err to the client. Extraction service failures carry the
// service's message verbatim followed by a hint.
func errorResult(err error) *mcp.CallToolResult {
	if apperrors.IsKind(err, apperrors.KindService) {
		return mcp.NewToolResultError(fmt.Sprintf("extraction service error: %s (%s)", apperrors.Message(err), extract.Hint))
	}
	return mcp.NewToolResultError(err.Error())
}

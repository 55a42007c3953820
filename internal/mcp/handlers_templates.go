package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// lookupTemplate returns the saved template of vendor
func (s *Server) lookupTemplate(vendor string) (region.Template, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return region.Template{}, apperrors.New(apperrors.KindPrecondition, "template", "vendor name is required")
	}
	t, ok := s.store.Get(vendor)
	if !ok {
		return region.Template{}, apperrors.Newf(apperrors.KindPrecondition, "template", "no template saved for vendor %q", vendor)
	}
	return t, nil
}

func (s *Server) handleTemplateSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendor, err := request.RequireString("vendor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		tmpl := sess.ann.Template()
		if err := s.store.Save(ctx, strings.TrimSpace(vendor), tmpl); err != nil {
			return errorResult(err), nil
		}
		// Regions are cleared after saving; history_undo brings them back
		sess.ann.Clear()
		return jsonResult(struct {
			Vendor string `json:"vendor"`
			Fields int    `json:"fields"`
			sessionView
		}{Vendor: strings.TrimSpace(vendor), Fields: len(tmpl.Fields), sessionView: s.view(sess)})
	})
}

func (s *Server) handleTemplateLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendor, err := request.RequireString("vendor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.withSession(request, func(sess *session) (*mcp.CallToolResult, error) {
		tmpl, err := s.lookupTemplate(vendor)
		if err != nil {
			return errorResult(err), nil
		}
		sess.ann.LoadTemplate(tmpl)
		return jsonResult(s.view(sess))
	})
}

func (s *Server) handleTemplateGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendor, err := request.RequireString("vendor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tmpl, err := s.lookupTemplate(vendor)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(struct {
		Vendor string `json:"vendor"`
		region.Template
	}{Vendor: strings.TrimSpace(vendor), Template: tmpl})
}

func (s *Server) handleTemplateList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendors := s.store.List()
	if len(vendors) == 0 {
		return mcp.NewToolResultText("No templates saved"), nil
	}

	text := fmt.Sprintf("Found %d template(s):\n", len(vendors))
	for i, v := range vendors {
		t, _ := s.store.Get(v)
		text += fmt.Sprintf("%d. %s (%d fields)\n", i+1, v, len(t.Fields))
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleTemplateDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vendor, err := request.RequireString("vendor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !request.GetBool("confirm", false) {
		return mcp.NewToolResultError(fmt.Sprintf("deleting the template of %s needs confirm=true", vendor)), nil
	}

	deleted, err := s.store.Delete(ctx, strings.TrimSpace(vendor))
	if err != nil {
		return errorResult(err), nil
	}
	if !deleted {
		return errorResult(apperrors.Newf(apperrors.KindPrecondition, "delete template",
			"no template saved for vendor %q", vendor)), nil
	}
	return mcp.NewToolResultText("Template deleted: " + vendor), nil
}

func (s *Server) handleTemplateExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.store.Export()
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleTemplateImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := request.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.Import(ctx, []byte(data))
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Imported %d template(s); %d saved in total", n, s.store.Len())), nil
}

// fieldView is a field as listed to clients
type fieldView struct {
	region.FieldDefinition
	Type    region.FieldType `json:"type"`
	Builtin bool             `json:"builtin"`
}

func (s *Server) handleFieldsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.fieldsMu.RLock()
	defer s.fieldsMu.RUnlock()

	builtin := make(map[string]bool)
	for _, d := range region.BuiltinFields() {
		builtin[d.Name] = true
	}
	var fields []fieldView
	for _, d := range s.registry.All() {
		fields = append(fields, fieldView{
			FieldDefinition: d,
			Type:            s.registry.TypeOf(d.Name),
			Builtin:         builtin[d.Name],
		})
	}
	return jsonResult(fields)
}

func (s *Server) handleFieldRegister(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	def := region.FieldDefinition{
		Name:  name,
		Label: request.GetString("label", ""),
		Color: request.GetString("color", ""),
		Type:  region.FieldType(request.GetString("type", "")),
	}

	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()

	if err := s.registry.Register(def); err != nil {
		return errorResult(err), nil
	}
	if err := s.store.SetCustomFields(ctx, s.registry.Custom()); err != nil {
		return errorResult(err), nil
	}
	registered, _ := s.registry.Lookup(strings.TrimSpace(name))
	return jsonResult(registered)
}

func (s *Server) handleFieldUnregister(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()

	if err := s.registry.Unregister(name); err != nil {
		return errorResult(err), nil
	}
	if err := s.store.SetCustomFields(ctx, s.registry.Custom()); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("Field removed: " + name), nil
}

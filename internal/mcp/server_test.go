package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf/pdftest"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
	"github.com/a3tai/mcp-pdf-regions/internal/storage"
	"github.com/a3tai/mcp-pdf-regions/internal/template"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Mode:         "stdio",
		Host:         "127.0.0.1",
		Port:         8080,
		PDFDirectory: dir,
		Version:      "1.0.0",
		ServerName:   "test-server",
		LogLevel:     "info",
		MaxFileSize:  1024 * 1024,
		Scale:        1.5,
		MinDrag:      10,
		HistoryDepth: 50,
	}
}

func newTestStore(t *testing.T) *template.Store {
	t.Helper()
	store, err := template.Open(context.Background(), storage.NewMemory())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return store
}

// newTestServer creates a server over an empty documents directory
func newTestServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewServer(testConfig(dir), newTestStore(t), opts...)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return s, dir
}

func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := h(context.Background(), request)
	if err != nil {
		t.Fatalf("handler returned transport error: %v", err)
	}
	if result == nil {
		t.Fatal("handler returned nil result")
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

// callOK calls h and decodes its JSON result into out
func callOK(t *testing.T, h handler, args map[string]interface{}, out interface{}) {
	t.Helper()
	result := call(t, h, args)
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), out); err != nil {
		t.Fatalf("failed to decode result %q: %v", resultText(t, result), err)
	}
}

// callErr calls h, expects a tool error and returns its message
func callErr(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	result := call(t, h, args)
	if !result.IsError {
		t.Fatalf("expected tool error, got %s", resultText(t, result))
	}
	return resultText(t, result)
}

// openCatalog writes the test catalog into dir and opens it
func openCatalog(t *testing.T, s *Server, dir string) sessionView {
	t.Helper()
	pdftest.WriteFile(t, dir, "catalog.pdf", pdftest.Catalog()...)
	var v sessionView
	callOK(t, s.handleDocumentOpen, map[string]interface{}{"path": "catalog.pdf"}, &v)
	return v
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		config      *config.Config
		store       template.Service
		expectError bool
	}{
		{
			name:   "valid stdio mode config",
			config: testConfig(dir),
			store:  newTestStore(t),
		},
		{
			name: "valid server mode config",
			config: func() *config.Config {
				c := testConfig(dir)
				c.Mode = "server"
				return c
			}(),
			store: newTestStore(t),
		},
		{
			name: "with extraction service",
			config: func() *config.Config {
				c := testConfig(dir)
				c.ExtractURL = "http://localhost:5001"
				c.ExtractTimeout = config.DefaultExtractTimeout
				return c
			}(),
			store: newTestStore(t),
		},
		{
			name:        "nil config",
			config:      nil,
			store:       newTestStore(t),
			expectError: true,
		},
		{
			name:        "nil store",
			config:      testConfig(dir),
			store:       nil,
			expectError: true,
		},
		{
			name: "missing documents directory",
			config: func() *config.Config {
				c := testConfig(filepath.Join(dir, "missing"))
				return c
			}(),
			store:       newTestStore(t),
			expectError: true,
		},
		{
			name: "invalid extraction service URL",
			config: func() *config.Config {
				c := testConfig(dir)
				c.ExtractURL = "localhost:5001"
				return c
			}(),
			store:       newTestStore(t),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, tt.store)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if server.config != tt.config {
				t.Error("server config not set correctly")
			}
			if server.mcpServer == nil {
				t.Error("mcpServer should be initialized")
			}
			if tt.config.ExtractURL != "" && server.extractor == nil {
				t.Error("extractor should be created from the configured URL")
			}
		})
	}
}

func TestNewServer_LoadsCustomFields(t *testing.T) {
	store := newTestStore(t)
	err := store.SetCustomFields(context.Background(), []region.FieldDefinition{
		{Name: "material", Label: "Material", Color: "#123456"},
	})
	if err != nil {
		t.Fatalf("failed to set custom fields: %v", err)
	}

	s, err := NewServer(testConfig(t.TempDir()), store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.registry.Lookup("material"); !ok {
		t.Error("expected persisted custom field to be registered")
	}
}

func TestServer_DocumentOpen(t *testing.T) {
	s, dir := newTestServer(t)
	v := openCatalog(t, s, dir)

	if v.SessionID == "" {
		t.Error("expected a session id")
	}
	if v.Document != "catalog.pdf" {
		t.Errorf("expected document catalog.pdf, got %s", v.Document)
	}
	if v.Pages != 2 || v.Page != 0 {
		t.Errorf("expected page 0 of 2, got %d of %d", v.Page, v.Pages)
	}
	if v.PixelWidth != 892 || v.PixelHeight != 1263 {
		t.Errorf("expected 892x1263 pixels, got %gx%g", v.PixelWidth, v.PixelHeight)
	}
	if v.Width != 595 || v.Height != 842 {
		t.Errorf("expected 595x842 intrinsic size, got %gx%g", v.Width, v.Height)
	}
	if v.State != "idle" {
		t.Errorf("expected idle state, got %s", v.State)
	}
	if s.sessions.count() != 1 {
		t.Errorf("expected 1 session, got %d", s.sessions.count())
	}
}

func TestServer_DocumentOpen_Errors(t *testing.T) {
	s, dir := newTestServer(t)
	pdftest.WriteFile(t, t.TempDir(), "outside.pdf", pdftest.Catalog()...)
	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	malformed := "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF"
	if err := os.WriteFile(filepath.Join(dir, "malformed.pdf"), []byte(malformed), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantMsg string
	}{
		{name: "missing path", args: map[string]interface{}{}, wantMsg: "path"},
		{name: "traversal", args: map[string]interface{}{"path": "../outside.pdf"}, wantMsg: "outside the documents directory"},
		{name: "missing file", args: map[string]interface{}{"path": "nope.pdf"}, wantMsg: "does not exist"},
		{name: "not a pdf", args: map[string]interface{}{"path": "broken.pdf"}, wantMsg: "open document"},
		{name: "malformed objects", args: map[string]interface{}{"path": "malformed.pdf"}, wantMsg: "open document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := callErr(t, s.handleDocumentOpen, tt.args)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, msg)
			}
		})
	}
	if s.sessions.count() != 0 {
		t.Errorf("expected no sessions after failed opens, got %d", s.sessions.count())
	}

	// The server keeps serving after a failed open.
	if v := openCatalog(t, s, dir); v.SessionID == "" {
		t.Error("expected a session after opening a valid document")
	}
}

func TestServer_DocumentClose(t *testing.T) {
	s, dir := newTestServer(t)
	v := openCatalog(t, s, dir)

	result := call(t, s.handleDocumentClose, map[string]interface{}{"session_id": v.SessionID})
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
	msg := callErr(t, s.handleRegionsList, map[string]interface{}{"session_id": v.SessionID})
	if !strings.Contains(msg, "unknown session") {
		t.Errorf("expected unknown session error, got %q", msg)
	}
	callErr(t, s.handleDocumentClose, map[string]interface{}{"session_id": v.SessionID})
}

func TestServer_InvalidArguments(t *testing.T) {
	s, dir := newTestServer(t)
	v := openCatalog(t, s, dir)

	tests := []struct {
		name    string
		handler handler
		args    map[string]interface{}
	}{
		{name: "page_select without page", handler: s.handlePageSelect, args: map[string]interface{}{"session_id": v.SessionID}},
		{name: "page_select without session", handler: s.handlePageSelect, args: map[string]interface{}{"page": float64(0)}},
		{name: "field_select without field", handler: s.handleFieldSelect, args: map[string]interface{}{"session_id": v.SessionID}},
		{name: "pointer_down without y", handler: s.handlePointerDown, args: map[string]interface{}{"session_id": v.SessionID, "x": float64(1)}},
		{name: "pointer_up with text x", handler: s.handlePointerUp, args: map[string]interface{}{"session_id": v.SessionID, "x": "left", "y": float64(1)}},
		{name: "template_save without vendor", handler: s.handleTemplateSave, args: map[string]interface{}{"session_id": v.SessionID}},
		{name: "template_import without data", handler: s.handleTemplateImport, args: map[string]interface{}{}},
		{name: "field_register without name", handler: s.handleFieldRegister, args: map[string]interface{}{}},
		{name: "unknown session", handler: s.handleFieldDeselect, args: map[string]interface{}{"session_id": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callErr(t, tt.handler, tt.args)
		})
	}
}

func TestServer_PageSelect(t *testing.T) {
	s, dir := newTestServer(t)
	v := openCatalog(t, s, dir)

	var page sessionView
	callOK(t, s.handlePageSelect, map[string]interface{}{"session_id": v.SessionID, "page": float64(1)}, &page)
	if page.Page != 1 {
		t.Errorf("expected page 1, got %d", page.Page)
	}
	if page.PixelWidth != 918 || page.PixelHeight != 1188 {
		t.Errorf("expected 918x1188 pixels for a letter page, got %gx%g", page.PixelWidth, page.PixelHeight)
	}

	msg := callErr(t, s.handlePageSelect, map[string]interface{}{"session_id": v.SessionID, "page": float64(2)})
	if !strings.Contains(msg, "out of range") {
		t.Errorf("expected out of range error, got %q", msg)
	}
}

func TestServer_PointerWithoutField(t *testing.T) {
	s, dir := newTestServer(t)
	v := openCatalog(t, s, dir)

	msg := callErr(t, s.handlePointerDown, map[string]interface{}{"session_id": v.SessionID, "x": float64(10), "y": float64(10)})
	if !strings.Contains(msg, "no field selected") {
		t.Errorf("expected no field selected error, got %q", msg)
	}

	msg = callErr(t, s.handleFieldSelect, map[string]interface{}{"session_id": v.SessionID, "field": "weight"})
	if !strings.Contains(msg, "unknown field") {
		t.Errorf("expected unknown field error, got %q", msg)
	}
}

func TestServer_TemplateDeleteNeedsConfirmation(t *testing.T) {
	s, _ := newTestServer(t)
	tmpl := region.Template{Fields: []region.TemplateField{
		{Field: "code", BBox: region.BoundingBox{X0: 1, Y0: 2, X1: 3, Y1: 4}, Type: region.TypeText},
	}}
	if err := s.store.Save(context.Background(), "Acme", tmpl); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}

	msg := callErr(t, s.handleTemplateDelete, map[string]interface{}{"vendor": "Acme"})
	if !strings.Contains(msg, "confirm=true") {
		t.Errorf("expected confirmation error, got %q", msg)
	}
	if s.store.Len() != 1 {
		t.Fatal("template deleted without confirmation")
	}

	callOK(t, s.handleTemplateDelete, map[string]interface{}{"vendor": "Acme", "confirm": true}, nil)
	if s.store.Len() != 0 {
		t.Error("expected template to be deleted")
	}

	msg = callErr(t, s.handleTemplateDelete, map[string]interface{}{"vendor": "Acme", "confirm": true})
	if !strings.Contains(msg, "no template saved") {
		t.Errorf("expected missing template error, got %q", msg)
	}
}

func TestServer_TemplateListAndImport(t *testing.T) {
	s, _ := newTestServer(t)

	text := resultText(t, call(t, s.handleTemplateList, nil))
	if text != "No templates saved" {
		t.Errorf("unexpected empty listing: %q", text)
	}

	data := `{"Acme":{"fields":[{"field":"code","bbox":{"x0":1,"y0":2,"x1":3,"y1":4,"page":0}}]},
		"Globex":{"fields":[{"field":"size_grid","bbox":{"x0":1,"y0":2,"x1":3,"y1":4,"page":1}}]}}`
	text = resultText(t, call(t, s.handleTemplateImport, map[string]interface{}{"data": data}))
	if !strings.Contains(text, "Imported 2 template(s)") {
		t.Errorf("unexpected import result: %q", text)
	}

	text = resultText(t, call(t, s.handleTemplateList, nil))
	for _, want := range []string{"Found 2 template(s)", "1. Acme (1 fields)", "2. Globex (1 fields)"} {
		if !strings.Contains(text, want) {
			t.Errorf("listing %q does not contain %q", text, want)
		}
	}

	var got struct {
		Vendor string                 `json:"vendor"`
		Fields []region.TemplateField `json:"fields"`
	}
	callOK(t, s.handleTemplateGet, map[string]interface{}{"vendor": "Globex"}, &got)
	if got.Vendor != "Globex" || len(got.Fields) != 1 || got.Fields[0].Type != region.TypeTable {
		t.Errorf("unexpected template: %+v", got)
	}

	msg := callErr(t, s.handleTemplateImport, map[string]interface{}{"data": `{"Broken":{}}`})
	if !strings.Contains(msg, "fields") {
		t.Errorf("expected format error, got %q", msg)
	}
	if s.store.Len() != 2 {
		t.Errorf("failed import changed the store: %d templates", s.store.Len())
	}
}

func TestServer_Fields(t *testing.T) {
	s, _ := newTestServer(t)

	var registered region.FieldDefinition
	callOK(t, s.handleFieldRegister, map[string]interface{}{
		"name":  "material",
		"label": "Material",
		"color": "#ABCDEF",
		"type":  "table",
	}, &registered)
	if registered.Color != "#abcdef" || registered.Type != region.TypeTable {
		t.Errorf("unexpected registered field: %+v", registered)
	}
	if custom := s.store.CustomFields(); len(custom) != 1 || custom[0].Name != "material" {
		t.Errorf("expected custom field to be persisted, got %+v", custom)
	}

	msg := callErr(t, s.handleFieldRegister, map[string]interface{}{"name": "code"})
	if !strings.Contains(msg, "built-in") {
		t.Errorf("expected built-in collision error, got %q", msg)
	}
	callErr(t, s.handleFieldRegister, map[string]interface{}{"name": "bad", "color": "blue-ish"})

	var fields []struct {
		Name    string           `json:"name"`
		Type    region.FieldType `json:"type"`
		Builtin bool             `json:"builtin"`
	}
	callOK(t, s.handleFieldsList, nil, &fields)
	if len(fields) != len(region.BuiltinFields())+1 {
		t.Fatalf("expected %d fields, got %d", len(region.BuiltinFields())+1, len(fields))
	}
	last := fields[len(fields)-1]
	if last.Name != "material" || last.Builtin || last.Type != region.TypeTable {
		t.Errorf("unexpected custom field listing: %+v", last)
	}
	if !fields[0].Builtin || fields[0].Name != region.FieldCode || fields[0].Type != region.TypeText {
		t.Errorf("unexpected first field: %+v", fields[0])
	}

	callOK(t, s.handleFieldUnregister, map[string]interface{}{"name": "material"}, nil)
	if len(s.store.CustomFields()) != 0 {
		t.Error("expected custom field removal to be persisted")
	}
	callErr(t, s.handleFieldUnregister, map[string]interface{}{"name": "material"})
	callErr(t, s.handleFieldUnregister, map[string]interface{}{"name": "price"})
}

func TestServer_DocumentsList(t *testing.T) {
	s, dir := newTestServer(t)

	text := resultText(t, call(t, s.handleDocumentsList, nil))
	if !strings.Contains(text, "No PDF files found") {
		t.Errorf("unexpected empty listing: %q", text)
	}

	pdftest.WriteFile(t, dir, "acme.pdf", pdftest.Catalog()...)
	pdftest.WriteFile(t, dir, "globex.pdf", pdftest.A4())

	text = resultText(t, call(t, s.handleDocumentsList, map[string]interface{}{"query": "acme"}))
	if !strings.Contains(text, "Found 1 PDF file(s)") || !strings.Contains(text, "acme.pdf") {
		t.Errorf("unexpected listing: %q", text)
	}
	if strings.Contains(text, "globex.pdf") {
		t.Errorf("query did not filter: %q", text)
	}
}

func TestServer_ServerInfo(t *testing.T) {
	s, dir := newTestServer(t)
	pdftest.WriteFile(t, dir, "acme.pdf", pdftest.Catalog()...)

	text := resultText(t, call(t, s.handleServerInfo, nil))
	for _, want := range []string{"test-server v1.0.0", "acme.pdf", "Extraction Service: disabled", "document_open", "template_save"} {
		if !strings.Contains(text, want) {
			t.Errorf("server info does not contain %q:\n%s", want, text)
		}
	}
}

func TestServer_RemoteDisabled(t *testing.T) {
	s, dir := newTestServer(t)
	v := openCatalog(t, s, dir)

	msg := callErr(t, s.handleExtractRemote, map[string]interface{}{"session_id": v.SessionID, "vendor": "Acme"})
	if !strings.Contains(msg, "remote extraction is disabled") {
		t.Errorf("unexpected error: %q", msg)
	}
	msg = callErr(t, s.handleServiceHealth, nil)
	if !strings.Contains(msg, "remote extraction is disabled") {
		t.Errorf("unexpected error: %q", msg)
	}
}

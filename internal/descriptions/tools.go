package descriptions

// Tool descriptions shown to MCP clients

const (
	// Documents
	DocumentOpenDescription = `Open a PDF from the documents directory and start an annotation session.

**When to use:** First step of every annotation workflow. Returns a session_id that every other session tool takes.

**Why it's useful:** The page is reported at its rendered pixel size, which is the coordinate space pointer events use.

**Examples:**
• Start annotating a catalog: "Open catalogs/acme-spring.pdf"
• Re-open a document to test an existing template: "Open acme-fall.pdf, then extract_local with vendor Acme"

**Best practices:** Paths are relative to the documents directory. Opening a document never touches saved templates.`

	DocumentCloseDescription = `Close an annotation session and release its document. Unsaved regions are discarded.`

	DocumentsListDescription = `List the PDF files available in the documents directory, optionally filtered by a case-insensitive name query.`

	PageSelectDescription = `Make another page of the open document current.

**When to use:** Before drawing regions that live on a page other than the first.

**Best practices:** Pages are zero-based. Any drag in progress is cancelled; regions of the new page are returned as overlays.`

	// Annotation
	FieldSelectDescription = `Arm a field for drawing. The next pointer_down starts a region for this field.

**When to use:** Before every drag. Use fields_list to see the built-in and custom field names.

**Best practices:** Drawing a field that already has a region on the current page replaces that region.`

	FieldDeselectDescription = `Disarm the selected field. A drag in progress is dropped.`

	PointerDownDescription = `Start a drag at pixel position (x, y) of the rendered page. Requires a selected field.`

	PointerMoveDescription = `Report the live selection rectangle from the drag anchor to (x, y).`

	PointerUpDescription = `Finish the drag at (x, y).

**When to use:** To commit the region drawn since pointer_down.

**Why it's useful:** The rectangle is converted to page coordinates, so regions stay valid at any magnification.

**Best practices:** Gestures no larger than the minimum drag extent on both axes are treated as clicks and add nothing.`

	RegionRemoveDescription = `Remove the region of a field on a page (the current page when page is omitted). Undoable.`

	RegionsClearDescription = `Remove every region of the session and disarm the field. Undoable.`

	RegionsListDescription = `List all regions of the session plus the overlays of the current page in pixel coordinates.`

	HistoryUndoDescription = `Undo the last region edit. Shortcut: Ctrl+Z.`

	HistoryRedoDescription = `Redo the last undone region edit. Shortcut: Ctrl+Y or Ctrl+Shift+Z.`

	// Templates
	TemplateSaveDescription = `Save the session's regions as the template of a vendor.

**When to use:** After drawing every field of a vendor's catalog layout.

**Why it's useful:** A saved template extracts the same fields from every catalog of that vendor.

**Examples:**
• "Save the regions as vendor Acme"

**Best practices:** Saving replaces an existing template of the same vendor, then clears the session's regions. Use history_undo to bring them back.`

	TemplateLoadDescription = `Load a vendor's template into the session for re-editing. Undoable.`

	TemplateGetDescription = `Show the fields of a saved template.`

	TemplateListDescription = `List the vendors that have a saved template.`

	TemplateDeleteDescription = `Delete a vendor's template. Requires confirm=true.`

	TemplateExportDescription = `Export every template as a JSON document mapping vendor names to templates.`

	TemplateImportDescription = `Import templates from a JSON document produced by template_export.

**Best practices:** The import is all or nothing. Imported vendors replace existing templates of the same name; other templates are kept.`

	// Fields
	FieldsListDescription = `List the built-in and custom fields with their labels, colors and extraction types.`

	FieldRegisterDescription = `Register or update a custom field. Built-in field names cannot be redefined.

**Best practices:** Colors are hex (#rrggbb). Use type "table" for fields whose text forms rows and columns.`

	FieldUnregisterDescription = `Remove a custom field. Regions already drawn for it are kept.`

	// Extraction
	ExtractLocalDescription = `Apply a vendor's template to the session's document and return the text inside each region.

**When to use:** To check a template against a catalog without the extraction service.

**Best practices:** Text fields return a string and table fields return rows of cells.`

	ExtractRemoteDescription = `Send the session's document and a vendor's template to the extraction service and return its data.

**When to use:** For production extraction once a template is saved.

**Best practices:** Run service_health first when the service may be down. Failures are reported verbatim and never retried.`

	ServiceHealthDescription = `Check that the extraction service is reachable and healthy.`

	ServerInfoDescription = `Show the server configuration, the documents directory contents and the available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"document_open":    DocumentOpenDescription,
	"document_close":   DocumentCloseDescription,
	"documents_list":   DocumentsListDescription,
	"page_select":      PageSelectDescription,
	"field_select":     FieldSelectDescription,
	"field_deselect":   FieldDeselectDescription,
	"pointer_down":     PointerDownDescription,
	"pointer_move":     PointerMoveDescription,
	"pointer_up":       PointerUpDescription,
	"region_remove":    RegionRemoveDescription,
	"regions_clear":    RegionsClearDescription,
	"regions_list":     RegionsListDescription,
	"history_undo":     HistoryUndoDescription,
	"history_redo":     HistoryRedoDescription,
	"template_save":    TemplateSaveDescription,
	"template_load":    TemplateLoadDescription,
	"template_get":     TemplateGetDescription,
	"template_list":    TemplateListDescription,
	"template_delete":  TemplateDeleteDescription,
	"template_export":  TemplateExportDescription,
	"template_import":  TemplateImportDescription,
	"fields_list":      FieldsListDescription,
	"field_register":   FieldRegisterDescription,
	"field_unregister": FieldUnregisterDescription,
	"extract_local":    ExtractLocalDescription,
	"extract_remote":   ExtractRemoteDescription,
	"service_health":   ServiceHealthDescription,
	"server_info":      ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}

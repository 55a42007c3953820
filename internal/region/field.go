package region

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
)

// FieldType selects how the text of a region is extracted
type FieldType string

const (
	TypeText  FieldType = "text"
	TypeTable FieldType = "table"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	return t == TypeText || t == TypeTable
}

// Built-in field names
const (
	FieldCode        = "code"
	FieldBrand       = "brand"
	FieldSeason      = "season"
	FieldDescription = "description"
	FieldColor       = "color"
	FieldPrice       = "price"
	FieldOrigin      = "origin"
	FieldSizeGrid    = "size_grid"
)

// DefaultColor is used for fields registered without a color
const DefaultColor = "#ff6b6b"

// FieldDefinition describes a field a region can be drawn for
type FieldDefinition struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Color string    `json:"color"`
	Type  FieldType `json:"type,omitempty"`
}

// Validate checks the definition and canonicalizes its color to lowercase #rrggbb
func (d *FieldDefinition) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperrors.New(apperrors.KindPrecondition, "field", "field name is required")
	}
	if strings.ContainsAny(d.Name, " \t\r\n") {
		return apperrors.Newf(apperrors.KindPrecondition, "field", "field name %q must not contain whitespace", d.Name)
	}
	if d.Label == "" {
		d.Label = d.Name
	}
	if d.Color == "" {
		d.Color = DefaultColor
	}
	c, err := colorful.Hex(d.Color)
	if err != nil {
		return apperrors.Newf(apperrors.KindPrecondition, "field", "invalid color %q for field %s", d.Color, d.Name)
	}
	d.Color = c.Hex()
	if d.Type != "" && !d.Type.Valid() {
		return apperrors.Newf(apperrors.KindPrecondition, "field", "invalid type %q for field %s", d.Type, d.Name)
	}
	return nil
}

// UnmarshalJSON rejects definitions missing required members
func (d *FieldDefinition) UnmarshalJSON(data []byte) error {
	type plain FieldDefinition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = FieldDefinition(p)
	if err := d.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindFormat, "field", err)
	}
	return nil
}

// BuiltinFields returns the fixed field set in display order
func BuiltinFields() []FieldDefinition {
	return []FieldDefinition{
		{Name: FieldCode, Label: "Product Code", Color: "#ff6b6b"},
		{Name: FieldBrand, Label: "Brand", Color: "#f59f00"},
		{Name: FieldSeason, Label: "Season", Color: "#37b24d"},
		{Name: FieldDescription, Label: "Description", Color: "#1c7ed6"},
		{Name: FieldColor, Label: "Color", Color: "#ae3ec9"},
		{Name: FieldPrice, Label: "Price", Color: "#e8590c"},
		{Name: FieldOrigin, Label: "Origin", Color: "#0ca678"},
		{Name: FieldSizeGrid, Label: "Size Grid", Color: "#667eea", Type: TypeTable},
	}
}

// DefaultType derives the extraction type from a field name alone
func DefaultType(field string) FieldType {
	if field == FieldSizeGrid {
		return TypeTable
	}
	return TypeText
}

// Registry is the union of the built-in fields and user-registered custom fields.
// Built-in names can never be shadowed, so every name resolves to exactly one definition.
type Registry struct {
	builtin map[string]FieldDefinition
	order   []string
	custom  map[string]FieldDefinition
}

// NewRegistry creates a registry holding the built-in fields and the given custom fields
func NewRegistry(custom ...FieldDefinition) (*Registry, error) {
	r := &Registry{
		builtin: make(map[string]FieldDefinition),
		custom:  make(map[string]FieldDefinition),
	}
	for _, d := range BuiltinFields() {
		r.builtin[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	for _, d := range custom {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a custom field. Reusing a built-in name is an error.
func (r *Registry) Register(def FieldDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, ok := r.builtin[def.Name]; ok {
		return apperrors.Newf(apperrors.KindPrecondition, "register field",
			"%q is a built-in field and cannot be redefined", def.Name)
	}
	r.custom[def.Name] = def
	return nil
}

// Unregister removes a custom field. Built-in fields cannot be removed.
func (r *Registry) Unregister(name string) error {
	if _, ok := r.builtin[name]; ok {
		return apperrors.Newf(apperrors.KindPrecondition, "unregister field",
			"%q is a built-in field and cannot be removed", name)
	}
	if _, ok := r.custom[name]; !ok {
		return apperrors.Newf(apperrors.KindPrecondition, "unregister field", "unknown field %q", name)
	}
	delete(r.custom, name)
	return nil
}

// Lookup returns the definition for name
func (r *Registry) Lookup(name string) (FieldDefinition, bool) {
	if d, ok := r.builtin[name]; ok {
		return d, true
	}
	d, ok := r.custom[name]
	return d, ok
}

// TypeOf returns the extraction type for a field, honoring custom definitions
func (r *Registry) TypeOf(name string) FieldType {
	if d, ok := r.Lookup(name); ok && d.Type != "" {
		return d.Type
	}
	return DefaultType(name)
}

// All returns built-in fields in display order followed by custom fields sorted by name
func (r *Registry) All() []FieldDefinition {
	defs := make([]FieldDefinition, 0, len(r.order)+len(r.custom))
	for _, name := range r.order {
		defs = append(defs, r.builtin[name])
	}
	return append(defs, r.Custom()...)
}

// Custom returns the custom fields sorted by name
func (r *Registry) Custom() []FieldDefinition {
	defs := make([]FieldDefinition, 0, len(r.custom))
	for _, d := range r.custom {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// String returns a short description of the registry
func (r *Registry) String() string {
	return fmt.Sprintf("Registry{builtin: %d, custom: %d}", len(r.builtin), len(r.custom))
}

package region

import (
	"encoding/json"
	"strings"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
)

// TemplateField is one field entry of a saved template
type TemplateField struct {
	Field string      `json:"field"`
	BBox  BoundingBox `json:"bbox"`
	Type  FieldType   `json:"type"`
}

// Validate checks a single template field
func (f TemplateField) Validate() error {
	if strings.TrimSpace(f.Field) == "" {
		return apperrors.New(apperrors.KindFormat, "template field", "field name is required")
	}
	if !f.Type.Valid() {
		return apperrors.Newf(apperrors.KindFormat, "template field", "field %s has invalid type %q", f.Field, f.Type)
	}
	return f.BBox.Validate()
}

// UnmarshalJSON derives a missing type from the field name and validates the entry
func (f *TemplateField) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field string       `json:"field"`
		BBox  *BoundingBox `json:"bbox"`
		Type  FieldType    `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.BBox == nil {
		return apperrors.Newf(apperrors.KindFormat, "template field", "field %q has no bbox", raw.Field)
	}
	if raw.Type == "" {
		raw.Type = DefaultType(raw.Field)
	}
	*f = TemplateField{Field: raw.Field, BBox: *raw.BBox, Type: raw.Type}
	return f.Validate()
}

// Template is an immutable snapshot of a region set saved under a vendor name
type Template struct {
	Fields []TemplateField `json:"fields"`
}

// Validate checks every field of the template
func (t Template) Validate() error {
	for _, f := range t.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalJSON requires the fields member
func (t *Template) UnmarshalJSON(data []byte) error {
	var raw struct {
		Fields *[]TemplateField `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Fields == nil {
		return apperrors.New(apperrors.KindFormat, "template", "template requires a fields array")
	}
	t.Fields = *raw.Fields
	return nil
}

// Clone returns a deep copy of the template
func (t Template) Clone() Template {
	fields := make([]TemplateField, len(t.Fields))
	copy(fields, t.Fields)
	return Template{Fields: fields}
}

// Equal reports whether both templates hold the same fields in the same order
func (t Template) Equal(o Template) bool {
	if len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// ToTemplate snapshots the set. Types come from the region override, then the
// registry, then the field name. A nil registry uses the field name only.
func (s *Set) ToTemplate(reg *Registry) Template {
	fields := make([]TemplateField, 0, len(s.regions))
	for _, r := range s.regions {
		typ := r.Type
		if typ == "" {
			if reg != nil {
				typ = reg.TypeOf(r.Field)
			} else {
				typ = DefaultType(r.Field)
			}
		}
		fields = append(fields, TemplateField{Field: r.Field, BBox: r.BBox, Type: typ})
	}
	return Template{Fields: fields}
}

// FromTemplate rebuilds a region set from a template for re-editing. Types equal to
// the derived type are dropped so that the registry keeps deciding them.
func FromTemplate(t Template, reg *Registry) *Set {
	s := &Set{}
	for _, f := range t.Fields {
		r := Region{Field: f.Field, BBox: f.BBox}
		derived := DefaultType(f.Field)
		if reg != nil {
			derived = reg.TypeOf(f.Field)
		}
		if f.Type != derived {
			r.Type = f.Type
		}
		s.Upsert(r)
	}
	return s
}

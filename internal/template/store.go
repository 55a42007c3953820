// Package template keeps the vendor templates and custom field definitions and
// persists them in a storage.KV.
package template

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
	"github.com/a3tai/mcp-pdf-regions/internal/storage"
)

// Keys of the persisted records
const (
	TemplatesKey    = "templates"
	CustomFieldsKey = "customFields"
)

// Service is the template store as used by the tool server and the admin CLI
type Service interface {
	Save(ctx context.Context, vendor string, t region.Template) error
	Get(vendor string) (region.Template, bool)
	List() []string
	Len() int
	Delete(ctx context.Context, vendor string) (bool, error)
	Export() ([]byte, error)
	Import(ctx context.Context, data []byte) (int, error)
	CustomFields() []region.FieldDefinition
	SetCustomFields(ctx context.Context, defs []region.FieldDefinition) error
}

var _ Service = (*Store)(nil)

// Store is a Service backed by a KV. All mutations are serialized.
type Store struct {
	mu        sync.RWMutex
	kv        storage.KV
	templates map[string]region.Template
	custom    []region.FieldDefinition
}

// Open loads the persisted templates and custom fields from kv
func Open(ctx context.Context, kv storage.KV) (*Store, error) {
	s := &Store{kv: kv, templates: make(map[string]region.Template)}

	data, err := kv.Get(ctx, TemplatesKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, apperrors.Wrap(apperrors.KindStorage, "load templates", err)
	default:
		templates, err := parseTemplates(data)
		if err != nil {
			return nil, err
		}
		s.templates = templates
	}

	data, err = kv.Get(ctx, CustomFieldsKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, apperrors.Wrap(apperrors.KindStorage, "load custom fields", err)
	default:
		if err := json.Unmarshal(data, &s.custom); err != nil {
			return nil, apperrors.Wrap(apperrors.KindFormat, "load custom fields", err)
		}
		// The record must load into a registry: no built-in names, no invalid colors.
		if _, err := region.NewRegistry(s.custom...); err != nil {
			return nil, apperrors.Wrap(apperrors.KindFormat, "load custom fields", err)
		}
	}

	return s, nil
}

// Save stores t under vendor, replacing any previous template of that vendor.
// An empty vendor name or an empty template is rejected without changes.
func (s *Store) Save(ctx context.Context, vendor string, t region.Template) error {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return apperrors.New(apperrors.KindPrecondition, "save template", "vendor name is required")
	}
	if len(t.Fields) == 0 {
		return apperrors.New(apperrors.KindPrecondition, "save template", "template has no regions")
	}
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[vendor] = t.Clone()
	return s.persistTemplates(ctx)
}

// Get returns a copy of the template saved under vendor
func (s *Store) Get(vendor string) (region.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[vendor]
	if !ok {
		return region.Template{}, false
	}
	return t.Clone(), true
}

// List returns the vendor names in sorted order
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vendors := make([]string, 0, len(s.templates))
	for v := range s.templates {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	return vendors
}

// Len returns the number of saved templates
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// Delete removes the template of vendor and reports whether it existed
func (s *Store) Delete(ctx context.Context, vendor string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[vendor]; !ok {
		return false, nil
	}
	delete(s.templates, vendor)
	return true, s.persistTemplates(ctx)
}

// Export serializes every template in the interchange format
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.templates, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindFormat, "export templates", err)
	}
	return data, nil
}

// Import merges templates from the interchange format, imported entries winning on
// conflict, and returns how many were imported. Nothing changes unless every entry
// parses and validates.
func (s *Store) Import(ctx context.Context, data []byte) (int, error) {
	imported, err := parseTemplates(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for vendor, t := range imported {
		s.templates[vendor] = t
	}
	return len(imported), s.persistTemplates(ctx)
}

// CustomFields returns the persisted custom field definitions
func (s *Store) CustomFields() []region.FieldDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]region.FieldDefinition(nil), s.custom...)
}

// SetCustomFields replaces and persists the custom field definitions
func (s *Store) SetCustomFields(ctx context.Context, defs []region.FieldDefinition) error {
	data, err := json.Marshal(defs)
	if err != nil {
		return apperrors.Wrap(apperrors.KindFormat, "save custom fields", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom = append([]region.FieldDefinition(nil), defs...)
	if err := s.kv.Put(ctx, CustomFieldsKey, data); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, "save custom fields", err)
	}
	return nil
}

// persistTemplates writes the whole template map. The caller holds the lock.
// On failure the in-memory map keeps the change.
func (s *Store) persistTemplates(ctx context.Context) error {
	data, err := json.Marshal(s.templates)
	if err != nil {
		return apperrors.Wrap(apperrors.KindFormat, "save templates", err)
	}
	if err := s.kv.Put(ctx, TemplatesKey, data); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, "save templates", err)
	}
	return nil
}

func parseTemplates(data []byte) (map[string]region.Template, error) {
	var templates map[string]region.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		if apperrors.KindOf(err) != apperrors.KindUnknown {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.KindFormat, "parse templates", err)
	}
	if templates == nil {
		return nil, apperrors.New(apperrors.KindFormat, "parse templates", "expected an object of vendor templates")
	}
	// Vendor names are trimmed the way Save trims them.
	parsed := make(map[string]region.Template, len(templates))
	for vendor, t := range templates {
		name := strings.TrimSpace(vendor)
		if name == "" {
			return nil, apperrors.New(apperrors.KindFormat, "parse templates", "vendor name is required")
		}
		if _, dup := parsed[name]; dup {
			return nil, apperrors.Newf(apperrors.KindFormat, "parse templates", "vendor %q appears more than once", name)
		}
		if len(t.Fields) == 0 {
			return nil, apperrors.Newf(apperrors.KindFormat, "parse templates", "template of vendor %q has no regions", name)
		}
		parsed[name] = t
	}
	return parsed, nil
}

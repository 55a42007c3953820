package template

import (
	"context"
	"log/slog"
	"time"

	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

var _ Service = (*LoggingStore)(nil)

// LoggingStore wraps a Service with logging of every mutation.
type LoggingStore struct {
	next   Service
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next Service, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

// Save delegates and logs the outcome.
func (s *LoggingStore) Save(ctx context.Context, vendor string, t region.Template) error {
	begin := time.Now()
	err := s.next.Save(ctx, vendor, t)
	s.log(ctx, "save template", err,
		"vendor", vendor,
		"fields", len(t.Fields),
		"duration", time.Since(begin),
	)
	return err
}

// Get delegates to the wrapped store.
func (s *LoggingStore) Get(vendor string) (region.Template, bool) {
	return s.next.Get(vendor)
}

// List delegates to the wrapped store.
func (s *LoggingStore) List() []string {
	return s.next.List()
}

// Len delegates to the wrapped store.
func (s *LoggingStore) Len() int {
	return s.next.Len()
}

// Delete delegates and logs the outcome.
func (s *LoggingStore) Delete(ctx context.Context, vendor string) (bool, error) {
	existed, err := s.next.Delete(ctx, vendor)
	s.log(ctx, "delete template", err, "vendor", vendor, "existed", existed)
	return existed, err
}

// Export delegates and logs the size of the export.
func (s *LoggingStore) Export() ([]byte, error) {
	data, err := s.next.Export()
	s.log(context.Background(), "export templates", err, "bytes", len(data))
	return data, err
}

// Import delegates and logs how many templates were merged.
func (s *LoggingStore) Import(ctx context.Context, data []byte) (int, error) {
	n, err := s.next.Import(ctx, data)
	s.log(ctx, "import templates", err, "imported", n, "total", s.next.Len())
	return n, err
}

// CustomFields delegates to the wrapped store.
func (s *LoggingStore) CustomFields() []region.FieldDefinition {
	return s.next.CustomFields()
}

// SetCustomFields delegates and logs the outcome.
func (s *LoggingStore) SetCustomFields(ctx context.Context, defs []region.FieldDefinition) error {
	err := s.next.SetCustomFields(ctx, defs)
	s.log(ctx, "save custom fields", err, "fields", len(defs))
	return err
}

func (s *LoggingStore) log(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		s.logger.WarnContext(ctx, msg, append(args, "error", err)...)
		return
	}
	s.logger.InfoContext(ctx, msg, args...)
}

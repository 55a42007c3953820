package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-pdf-regions/internal/security"
)

func newTestSearch(t *testing.T, dir string) *Search {
	t.Helper()
	paths, err := security.NewPathValidator(dir)
	if err != nil {
		t.Fatalf("failed to create path validator: %v", err)
	}
	return NewSearch(paths, 1024*1024)
}

func TestSearch_FindDocuments(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tempDir, "spring"), 0o755); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}

	testFiles := map[string][]byte{
		"acme-catalog.pdf":       make([]byte, 1024),
		"Globex-Catalog.PDF":     make([]byte, 2048),
		"spring/acme-spring.pdf": make([]byte, 512),
		"notes.txt":              []byte("not a pdf"),
		"empty.pdf":              {},
		"large.pdf":              make([]byte, 2*1024*1024),
	}
	for filename, content := range testFiles {
		if err := os.WriteFile(filepath.Join(tempDir, filename), content, 0o644); err != nil {
			t.Fatalf("failed to create test file %s: %v", filename, err)
		}
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "all documents",
			query: "",
			want:  []string{"Globex-Catalog.PDF", "acme-catalog.pdf", filepath.Join("spring", "acme-spring.pdf")},
		},
		{
			name:  "query matches case-insensitively",
			query: "ACME",
			want:  []string{"acme-catalog.pdf", filepath.Join("spring", "acme-spring.pdf")},
		},
		{
			name:  "query with surrounding spaces",
			query: "  globex ",
			want:  []string{"Globex-Catalog.PDF"},
		},
		{
			name:  "no matches",
			query: "initech",
			want:  nil,
		},
	}

	search := newTestSearch(t, tempDir)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := search.FindDocuments(tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(files) != len(tt.want) {
				t.Fatalf("expected %d files, got %d: %+v", len(tt.want), len(files), files)
			}
			for i, f := range files {
				if f.Path != tt.want[i] {
					t.Errorf("file %d: expected path %s, got %s", i, tt.want[i], f.Path)
				}
				if f.Name != filepath.Base(tt.want[i]) {
					t.Errorf("file %d: expected name %s, got %s", i, filepath.Base(tt.want[i]), f.Name)
				}
				if f.ModifiedTime == "" {
					t.Errorf("file %d: expected a modification time", i)
				}
			}
		})
	}
}

func TestSearch_FindDocuments_SkipsLinksOutsideRoot(t *testing.T) {
	tempDir := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.pdf")
	if err := os.WriteFile(secret, make([]byte, 10), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.Symlink(secret, filepath.Join(tempDir, "secret.pdf")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	files, err := newTestSearch(t, tempDir).FindDocuments("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %+v", files)
	}
}

package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "github.com/a3tai/mcp-pdf-regions/cmd/region-templates"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf/pdftest"
)

const acmeTemplates = `{
  "Acme": {
    "fields": [
      {"field": "code", "bbox": {"x0": 66.7, "y0": 748.7, "x1": 200.1, "y1": 775.3, "page": 0}, "type": "text"},
      {"field": "size_grid", "bbox": {"x0": 86.7, "y0": 466.7, "x1": 233.3, "y1": 510, "page": 0}}
    ]
  }
}`

// run executes the CLI against the store at storePath.
func run(t *testing.T, storePath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	m := main.NewMain()
	err = m.Run(context.Background(), append([]string{"--store", storePath}, args...), &out, &errOut)
	return out.String(), errOut.String(), err
}

// seededStore returns a store path holding the Acme template.
func seededStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "acme.json")
	require.NoError(t, os.WriteFile(file, []byte(acmeTemplates), 0o644))

	store := filepath.Join(dir, "db", "regions.db")
	stdout, _, err := run(t, store, "import", file)
	require.NoError(t, err)
	require.Contains(t, stdout, "Imported 1 template(s)")
	return store
}

func TestMain_Run_NoArgsShowsHelp(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := main.NewMain().Run(context.Background(), nil, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
	for _, cmd := range []string{"list", "show", "delete", "export", "import", "fields", "extract", "health"} {
		assert.Contains(t, stdout.String(), cmd, "help should mention %s", cmd)
	}
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := main.NewMain().Run(context.Background(), []string{"help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "region-templates")
}

func TestCmdList(t *testing.T) {
	t.Parallel()

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		stdout, stderr, err := run(t, filepath.Join(t.TempDir(), "regions.db"), "list")

		require.NoError(t, err)
		assert.Contains(t, stdout, "No templates found")
		assert.Empty(t, stderr)
	})

	t.Run("lists vendors", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, seededStore(t), "list")

		require.NoError(t, err)
		assert.Equal(t, "Acme  2 field(s)\n", stdout)
	})
}

func TestCmdShow(t *testing.T) {
	t.Parallel()

	store := seededStore(t)

	t.Run("prints template", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, store, "show", "Acme")
		require.NoError(t, err)

		var got struct {
			Fields []struct {
				Field string `json:"field"`
				Type  string `json:"type"`
			} `json:"fields"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
		require.Len(t, got.Fields, 2)
		assert.Equal(t, "code", got.Fields[0].Field)
		assert.Equal(t, "table", got.Fields[1].Type)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := run(t, store, "show", "Nobody")
		require.Error(t, err)
		assert.Contains(t, stderr, `no template for "Nobody"`)
	})
}

func TestCmdDelete(t *testing.T) {
	t.Parallel()

	t.Run("requires force", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t)
		_, stderr, err := run(t, store, "delete", "Acme")

		require.Error(t, err)
		assert.Contains(t, stderr, "use --force to confirm deletion")

		stdout, _, err := run(t, store, "list")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Acme")
	})

	t.Run("deletes with force", func(t *testing.T) {
		t.Parallel()

		store := seededStore(t)
		stdout, _, err := run(t, store, "delete", "Acme", "--force")
		require.NoError(t, err)
		assert.Contains(t, stdout, `Deleted template "Acme"`)

		stdout, _, err = run(t, store, "list")
		require.NoError(t, err)
		assert.Contains(t, stdout, "No templates found")
	})

	t.Run("unknown vendor", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := run(t, seededStore(t), "delete", "Nobody", "--force")
		require.Error(t, err)
		assert.Contains(t, stderr, `no template for "Nobody"`)
	})
}

func TestCmdExportImport(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "export.json")
	stdout, _, err := run(t, seededStore(t), "export", "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 1 template(s)")

	other := filepath.Join(t.TempDir(), "other.db")
	stdout, _, err = run(t, other, "import", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported 1 template(s); 1 saved in total")

	stdout, _, err = run(t, other, "list")
	require.NoError(t, err)
	assert.Equal(t, "Acme  2 field(s)\n", stdout)
}

func TestCmdImport_Invalid(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"Acme": {"fields": [{"field": "code"}]}}`), 0o644))

	_, stderr, err := run(t, filepath.Join(t.TempDir(), "regions.db"), "import", file)
	require.Error(t, err)
	assert.Contains(t, stderr, "error:")
}

func TestCmdFields(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, filepath.Join(t.TempDir(), "regions.db"), "fields")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Product Code")
	assert.Regexp(t, `size_grid\s+Size Grid\s+#667eea\s+table\s+builtin`, stdout)
}

func TestCmdExtract(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	file := pdftest.WriteFile(t, t.TempDir(), "catalog.pdf", pdftest.Catalog()...)

	t.Run("local", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, store, "extract", "Acme", file)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
		assert.Equal(t, "ACME-001", got["code"])
		assert.Equal(t, []any{
			[]any{"S", "M", "L"},
			[]any{"10", "12", "14"},
		}, got["size_grid"])
	})

	t.Run("remote without service", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := run(t, store, "extract", "Acme", file, "--remote")
		require.Error(t, err)
		assert.Contains(t, stderr, "no extraction service configured")
	})

	t.Run("remote", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/extract", r.URL.Path)
			assert.Contains(t, r.FormValue("template"), `"vendor":"Acme"`)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": {"code": "REMOTE-1"}}`))
		}))
		defer srv.Close()

		stdout, _, err := run(t, store, "--extract-url", srv.URL, "extract", "Acme", file, "--remote")
		require.NoError(t, err)
		assert.JSONEq(t, `{"code": "REMOTE-1"}`, stdout)
	})

	t.Run("remote failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "model not loaded"}`))
		}))
		defer srv.Close()

		_, stderr, err := run(t, store, "--extract-url", srv.URL, "extract", "Acme", file, "--remote")
		require.Error(t, err)
		assert.Contains(t, stderr, "model not loaded")
		assert.Contains(t, stderr, "Hint:")
	})
}

func TestCmdHealth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	store := filepath.Join(t.TempDir(), "regions.db")
	stdout, _, err := run(t, store, "--extract-url", srv.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is healthy")

	_, stderr, err := run(t, store, "health")
	require.Error(t, err)
	assert.Contains(t, stderr, "no extraction service configured")
}

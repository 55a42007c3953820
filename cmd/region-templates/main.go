package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/extract"
	"github.com/a3tai/mcp-pdf-regions/internal/storage/sqlite"
	"github.com/a3tai/mcp-pdf-regions/internal/template"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Template database opened by Run.
	KV *sqlite.KV
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases the template database.
func (m *Main) Close() error {
	if m.KV == nil {
		return nil
	}
	err := m.KV.Close()
	m.KV = nil
	return err
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("region-templates"),
		kong.Description("Inspect and maintain saved region templates."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{
			"store":           config.DefaultStorePath(),
			"extract_timeout": config.DefaultExtractTimeout.String(),
			"max_file_size":   strconv.FormatInt(config.DefaultMaxFileSize, 10),
		},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'region-templates --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cli.Store); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	m.KV, err = sqlite.Open(cli.Store)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set MCP_REGIONS_STORE to use a different database path")
		return fmt.Errorf("failed to open template database at %q: %w", cli.Store, err)
	}
	defer m.Close()

	store, err := template.Open(ctx, m.KV)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	deps.Templates = store
	deps.MaxFileSize = cli.MaxFileSize

	if cli.ExtractURL != "" {
		deps.Extractor, err = extract.NewClient(cli.ExtractURL, extract.WithTimeout(cli.ExtractTimeout))
		if err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

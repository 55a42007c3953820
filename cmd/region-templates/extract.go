package main

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/extract"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
)

var errNoService = apperrors.New(apperrors.KindPrecondition, "extract",
	"no extraction service configured: pass --extract-url or set MCP_REGIONS_EXTRACT_URL")

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	t, err := findTemplate(deps, c.Vendor)
	if err != nil {
		return err
	}

	doc, err := pdf.Open(deps.Ctx, c.File, deps.MaxFileSize)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
		return err
	}

	var data map[string]any
	if c.Remote {
		if deps.Extractor == nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(errNoService))
			return errNoService
		}
		data, err = deps.Extractor.Extract(deps.Ctx, c.Vendor, t, doc.Name(), doc.Reader())
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
			if apperrors.IsKind(err, apperrors.KindService) {
				fmt.Fprintf(deps.Stderr, "Hint: %s\n", extract.Hint)
			}
			return err
		}
	} else {
		data, err = doc.ExtractLocal(t)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
			return err
		}
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(out))
	return nil
}

// Run executes the health command.
func (c *HealthCmd) Run(deps *Dependencies) error {
	if deps.Extractor == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(errNoService))
		return errNoService
	}
	if err := deps.Extractor.Health(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Extraction service at %s is healthy\n", deps.Extractor.BaseURL())
	return nil
}

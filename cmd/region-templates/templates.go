package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	vendors := deps.Templates.List()
	if len(vendors) == 0 {
		fmt.Fprintln(deps.Stdout, "No templates found. Save one with the template_save tool.")
		return nil
	}

	for _, v := range vendors {
		t, _ := deps.Templates.Get(v)
		fmt.Fprintf(deps.Stdout, "%s  %d field(s)\n", v, len(t.Fields))
	}
	return nil
}

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	t, err := findTemplate(deps, c.Vendor)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(data))
	return nil
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return apperrors.New(apperrors.KindPrecondition, "delete", "use --force to confirm deletion")
	}

	vendor := strings.TrimSpace(c.Vendor)
	deleted, err := deps.Templates.Delete(deps.Ctx, vendor)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
		return err
	}
	if !deleted {
		fmt.Fprintf(deps.Stderr, "error: no template for %q. Use 'region-templates list' to see saved vendors.\n", vendor)
		return apperrors.Newf(apperrors.KindPrecondition, "delete", "no template saved for vendor %q", vendor)
	}

	fmt.Fprintf(deps.Stdout, "Deleted template %q\n", vendor)
	return nil
}

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	data, err := deps.Templates.Export()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
		return err
	}

	if c.Output == "" {
		fmt.Fprintln(deps.Stdout, string(data))
		return nil
	}
	if err := os.WriteFile(c.Output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Output, err)
	}
	fmt.Fprintf(deps.Stdout, "Exported %d template(s) to %s\n", deps.Templates.Len(), c.Output)
	return nil
}

// Run executes the import command.
func (c *ImportCmd) Run(deps *Dependencies) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}

	n, err := deps.Templates.Import(deps.Ctx, data)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Imported %d template(s); %d saved in total\n", n, deps.Templates.Len())
	return nil
}

func findTemplate(deps *Dependencies, vendor string) (region.Template, error) {
	vendor = strings.TrimSpace(vendor)
	t, ok := deps.Templates.Get(vendor)
	if !ok {
		fmt.Fprintf(deps.Stderr, "error: no template for %q. Use 'region-templates list' to see saved vendors.\n", vendor)
		return region.Template{}, apperrors.Newf(apperrors.KindPrecondition, "template", "no template saved for vendor %q", vendor)
	}
	return t, nil
}

package main

import (
	"fmt"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// Run executes the fields command.
func (c *FieldsCmd) Run(deps *Dependencies) error {
	reg, err := region.NewRegistry(deps.Templates.CustomFields()...)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", apperrors.Message(err))
		return err
	}

	custom := make(map[string]bool)
	for _, d := range reg.Custom() {
		custom[d.Name] = true
	}
	for _, d := range reg.All() {
		origin := "builtin"
		if custom[d.Name] {
			origin = "custom"
		}
		fmt.Fprintf(deps.Stdout, "%-14s %-18s %s  %-5s  %s\n", d.Name, d.Label, d.Color, reg.TypeOf(d.Name), origin)
	}
	return nil
}

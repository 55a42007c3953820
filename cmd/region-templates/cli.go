package main

import (
	"context"
	"io"
	"time"

	"github.com/a3tai/mcp-pdf-regions/internal/extract"
	"github.com/a3tai/mcp-pdf-regions/internal/template"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	Templates   template.Service
	Extractor   *extract.Client // nil unless --extract-url is set
	MaxFileSize int64
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Store          string        `help:"Template database path" env:"MCP_REGIONS_STORE" default:"${store}" type:"path"`
	ExtractURL     string        `name:"extract-url" help:"Base URL of the extraction service" env:"MCP_REGIONS_EXTRACT_URL"`
	ExtractTimeout time.Duration `name:"extract-timeout" help:"Timeout of one extraction request" env:"MCP_REGIONS_EXTRACT_TIMEOUT" default:"${extract_timeout}"`
	MaxFileSize    int64         `name:"max-file-size" help:"Largest PDF accepted, in bytes" env:"MCP_REGIONS_MAXFILESIZE" default:"${max_file_size}"`

	List    ListCmd    `cmd:"" help:"List saved templates"`
	Show    ShowCmd    `cmd:"" help:"Print the template of a vendor as JSON"`
	Delete  DeleteCmd  `cmd:"" help:"Delete the template of a vendor"`
	Export  ExportCmd  `cmd:"" help:"Write every template as one JSON document"`
	Import  ImportCmd  `cmd:"" help:"Merge templates from a JSON document"`
	Fields  FieldsCmd  `cmd:"" help:"List the fields regions can be drawn for"`
	Extract ExtractCmd `cmd:"" help:"Extract the fields of a template from a PDF"`
	Health  HealthCmd  `cmd:"" help:"Check that the extraction service is reachable"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	Vendor string `arg:"" help:"Vendor name"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	Vendor string `arg:"" help:"Vendor name"`
	Force  bool   `help:"Confirm deletion"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Output string `short:"o" help:"Write to this file instead of stdout" type:"path"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	File string `arg:"" help:"JSON document produced by export" type:"existingfile"`
}

// FieldsCmd is the "fields" subcommand.
type FieldsCmd struct{}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Vendor string `arg:"" help:"Vendor whose template is applied"`
	File   string `arg:"" help:"PDF document" type:"existingfile"`
	Remote bool   `help:"Send the document to the extraction service instead of reading its text layer"`
}

// HealthCmd is the "health" subcommand.
type HealthCmd struct{}

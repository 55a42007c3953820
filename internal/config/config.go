package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultScale          = 1.5
	DefaultMinDrag        = 10.0
	DefaultHistoryDepth   = 50
	DefaultExtractTimeout = 60 * time.Second
	DefaultStoreFile      = "templates.db"

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. MCP_REGIONS_PORT
	EnvPrefix = "MCP_REGIONS"

	maxScale = 10.0
)

// ErrVersionRequested is returned when the version flag is present
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the region template server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes

	// Template storage
	StorePath string

	// Annotation configuration
	Scale        float64 // Render magnification
	MinDrag      float64 // Pixels a drag must exceed on both axes
	HistoryDepth int     // Undo steps kept per session

	// Extraction service
	ExtractURL     string
	ExtractTimeout time.Duration

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:           ModeStdio, // Default to stdio mode for MCP compatibility
		Host:           DefaultHost,
		Port:           DefaultPort,
		PDFDirectory:   currentDir,
		MaxFileSize:    DefaultMaxFileSize,
		StorePath:      DefaultStorePath(),
		Scale:          DefaultScale,
		MinDrag:        DefaultMinDrag,
		HistoryDepth:   DefaultHistoryDepth,
		ExtractTimeout: DefaultExtractTimeout,
		Version:        "1.0.0",
		ServerName:     "mcp-pdf-regions",
		LogLevel:       DefaultLogLevel,
	}
}

// DefaultStorePath places the template database in the user configuration directory
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultStoreFile
	}
	return filepath.Join(dir, "mcp-pdf-regions", DefaultStoreFile)
}

// LoadFromFlags parses the process arguments and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:])
}

// Load parses args and the environment into a validated configuration
func Load(program string, args []string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(flags, cfg)
	bindFlagsToViper(v, flags)
	setupUsageMessage(flags, program)

	// Check for version flag before parsing
	if err := checkVersionFlag(args); err != nil {
		return nil, err
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("store", cfg.StorePath)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("scale", cfg.Scale)
	v.SetDefault("mindrag", cfg.MinDrag)
	v.SetDefault("history", cfg.HistoryDepth)
	v.SetDefault("extract-url", cfg.ExtractURL)
	v.SetDefault("extract-timeout", cfg.ExtractTimeout)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	flags.String("store", cfg.StorePath, "SQLite file templates and custom fields are stored in")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	flags.Float64("scale", cfg.Scale, "Magnification pages are rendered at")
	flags.Float64("mindrag", cfg.MinDrag, "Pixels a drag must exceed on both axes to create a region")
	flags.Int("history", cfg.HistoryDepth, "Undo steps kept per document")
	flags.String("extract-url", cfg.ExtractURL, "Base URL of the extraction service (empty disables remote extraction)")
	flags.Duration("extract-timeout", cfg.ExtractTimeout, "Timeout for extraction service requests")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet, program string) {
	flags.Usage = func() {
		printUsage(os.Stderr, flags, program)
	}
}

func printUsage(w io.Writer, flags *pflag.FlagSet, program string) {
	fmt.Fprintf(w, "Usage of %s:\n", program)
	fmt.Fprintf(w, "\nMCP PDF Regions - draw field regions on PDF pages, save them as vendor templates and extract data\n\n")
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s                                          # stdio mode, current directory (default)\n", program)
	fmt.Fprintf(w, "  %s --dir=/path/to/pdfs                      # stdio mode with custom directory\n", program)
	fmt.Fprintf(w, "  %s --mode=server --dir=/path/to/pdfs        # server mode\n", program)
	fmt.Fprintf(w, "  %s --extract-url=http://localhost:5000      # enable remote extraction\n", program)
	fmt.Fprintf(w, "\nEnvironment Variables:\n")
	flags.VisitAll(func(f *pflag.Flag) {
		fmt.Fprintf(w, "  %s_%s\n", EnvPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")))
	})
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.StorePath = v.GetString("store")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.Scale = v.GetFloat64("scale")
	cfg.MinDrag = v.GetFloat64("mindrag")
	cfg.HistoryDepth = v.GetInt("history")
	cfg.ExtractURL = v.GetString("extract-url")
	cfg.ExtractTimeout = v.GetDuration("extract-timeout")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Create the PDF directory if it doesn't exist
	if err := ensureDir(c.PDFDirectory); err != nil {
		return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.StorePath == "" {
		return errors.New("store path cannot be empty")
	}
	if c.StorePath != ":memory:" {
		if err := ensureDir(filepath.Dir(c.StorePath)); err != nil {
			return fmt.Errorf("cannot create store directory for %s: %w", c.StorePath, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Scale <= 0 || c.Scale > maxScale {
		return fmt.Errorf("scale must be in (0, %g]", maxScale)
	}

	if c.MinDrag < 0 {
		return errors.New("minimum drag cannot be negative")
	}

	if c.HistoryDepth < 1 {
		return errors.New("history depth must be at least 1")
	}

	if c.ExtractURL != "" {
		u, err := url.Parse(c.ExtractURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid extraction service URL: %s", c.ExtractURL)
		}
	}

	if c.ExtractTimeout <= 0 {
		return errors.New("extraction timeout must be positive")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, DefaultDirPerm)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	return logLevels[c.LogLevel]
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// RemoteExtractionEnabled reports whether an extraction service is configured
func (c *Config) RemoteExtractionEnabled() bool {
	return c.ExtractURL != ""
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, StorePath: %s, LogLevel: %s, "+
		"MaxFileSize: %d, Scale: %g, MinDrag: %g, HistoryDepth: %d, ExtractURL: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.StorePath, c.LogLevel,
		c.MaxFileSize, c.Scale, c.MinDrag, c.HistoryDepth, c.ExtractURL)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

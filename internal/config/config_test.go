package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validation and keeps every
// path inside a temporary directory
func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.PDFDirectory = filepath.Join(dir, "pdfs")
	cfg.StorePath = filepath.Join(dir, "store", DefaultStoreFile)
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.ServerName != "mcp-pdf-regions" {
		t.Errorf("Expected default server name to be 'mcp-pdf-regions', got '%s'", cfg.ServerName)
	}

	if cfg.Scale != 1.5 {
		t.Errorf("Expected default scale to be 1.5, got %g", cfg.Scale)
	}

	if cfg.MinDrag != 10 {
		t.Errorf("Expected default minimum drag to be 10, got %g", cfg.MinDrag)
	}

	if cfg.HistoryDepth != 50 {
		t.Errorf("Expected default history depth to be 50, got %d", cfg.HistoryDepth)
	}

	if cfg.ExtractURL != "" || cfg.RemoteExtractionEnabled() {
		t.Errorf("Expected remote extraction to be disabled by default, got '%s'", cfg.ExtractURL)
	}

	if !strings.HasSuffix(cfg.StorePath, DefaultStoreFile) {
		t.Errorf("Expected default store path to end in %s, got '%s'", DefaultStoreFile, cfg.StorePath)
	}

	currentDir, _ := os.Getwd()
	if cfg.PDFDirectory != currentDir {
		t.Errorf("Expected default PDF directory to be '%s', got '%s'", currentDir, cfg.PDFDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid stdio config", mutate: func(*Config) {}},
		{name: "valid server config", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "port ignored in stdio mode", mutate: func(c *Config) { c.Port = 0 }},
		{name: "in-memory store", mutate: func(c *Config) { c.StorePath = ":memory:" }},
		{name: "https service", mutate: func(c *Config) { c.ExtractURL = "https://extractor.example.com" }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be"},
		{name: "invalid port", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }, wantErr: "port must be"},
		{name: "empty directory", mutate: func(c *Config) { c.PDFDirectory = "" }, wantErr: "PDF directory cannot be empty"},
		{name: "empty store", mutate: func(c *Config) { c.StorePath = "" }, wantErr: "store path"},
		{name: "zero max file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "maximum file size"},
		{name: "zero scale", mutate: func(c *Config) { c.Scale = 0 }, wantErr: "scale"},
		{name: "huge scale", mutate: func(c *Config) { c.Scale = 11 }, wantErr: "scale"},
		{name: "negative drag", mutate: func(c *Config) { c.MinDrag = -1 }, wantErr: "minimum drag"},
		{name: "no history", mutate: func(c *Config) { c.HistoryDepth = 0 }, wantErr: "history depth"},
		{name: "service without scheme", mutate: func(c *Config) { c.ExtractURL = "localhost:5000" }, wantErr: "extraction service URL"},
		{name: "zero timeout", mutate: func(c *Config) { c.ExtractTimeout = 0 }, wantErr: "timeout"},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	cfg := validConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	if info, err := os.Stat(cfg.PDFDirectory); err != nil || !info.IsDir() {
		t.Errorf("Expected PDF directory %s to be created", cfg.PDFDirectory)
	}
	if info, err := os.Stat(filepath.Dir(cfg.StorePath)); err != nil || !info.IsDir() {
		t.Errorf("Expected store directory %s to be created", filepath.Dir(cfg.StorePath))
	}
}

func TestConfigValidateDirectoryIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file.pdf")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.PDFDirectory = file

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for a PDF directory that is a file")
	}
}

func TestConfigSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for level, want := range tests {
		cfg := &Config{LogLevel: level}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel() for %s = %v, want %v", level, got, want)
		}
		if cfg.IsDebug() != (level == "debug") {
			t.Errorf("IsDebug() for %s = %v", level, cfg.IsDebug())
		}
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9090}
	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Address() = %s, want 0.0.0.0:9090", got)
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:           ModeServer,
		Host:           "localhost",
		Port:           8080,
		PDFDirectory:   "/tmp/pdfs",
		StorePath:      "/tmp/templates.db",
		LogLevel:       "debug",
		MaxFileSize:    1024,
		Scale:          2,
		MinDrag:        10,
		HistoryDepth:   50,
		ExtractURL:     "http://localhost:5000",
		ExtractTimeout: time.Second,
	}

	want := "Config{Mode: server, Host: localhost, Port: 8080, PDFDirectory: /tmp/pdfs, " +
		"StorePath: /tmp/templates.db, LogLevel: debug, MaxFileSize: 1024, Scale: 2, MinDrag: 10, " +
		"HistoryDepth: 50, ExtractURL: http://localhost:5000}"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestConfigModes(t *testing.T) {
	cfg := &Config{Mode: ModeServer}
	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("Expected server mode")
	}
	cfg.Mode = ModeStdio
	if cfg.IsServerMode() || !cfg.IsStdioMode() {
		t.Error("Expected stdio mode")
	}
}

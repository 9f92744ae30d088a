package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing file, got %s", path)
	}
	if cfg.Packaging.OutputFormat != "mov" {
		t.Fatalf("unexpected default format: %q", cfg.Packaging.OutputFormat)
	}
	if cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected ffprobe binary: %q", cfg.FFprobeBinary())
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
destination_dir = "` + filepath.Join(dir, "out") + `"

[packaging]
operator = "  B. Operator  "
output_format = ".MKV"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Packaging.Operator != "B. Operator" {
		t.Fatalf("operator not trimmed: %q", cfg.Packaging.Operator)
	}
	if cfg.Packaging.OutputFormat != "mkv" {
		t.Fatalf("format not normalized: %q", cfg.Packaging.OutputFormat)
	}
	if !filepath.IsAbs(cfg.Paths.DestinationDir) {
		t.Fatalf("destination not absolute: %q", cfg.Paths.DestinationDir)
	}
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	cfg.Packaging.OutputFormat = "avi"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "output_format") {
		t.Fatalf("expected output_format error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[packaging]") {
		t.Fatalf("sample missing packaging section")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/cards")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "cards") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

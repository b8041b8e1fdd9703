package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.View.Height != 720 {
		t.Errorf("expected height 720, got %v", cfg.View.Height)
	}
	if cfg.View.FitPadding != 36 {
		t.Errorf("expected fit padding 36, got %v", cfg.View.FitPadding)
	}
	if cfg.View.Margin != tree.DefaultMargin {
		t.Errorf("expected default margin, got %+v", cfg.View.Margin)
	}
	if cfg.Export.Format != "svg" {
		t.Errorf("expected svg export, got %q", cfg.Export.Format)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.View.Height != 720 {
		t.Errorf("expected default config, got height %v", cfg.View.Height)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
data: ~/site/trees.json
view:
  height: 600
  default_width: 1200
  margin:
    top: 10
    right: 20
    bottom: 10
    left: 20
theme:
  decision: "#ff0000"
export:
  format: PNG
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.View.Height != 600 || cfg.View.DefaultWidth != 1200 {
		t.Errorf("view = %+v", cfg.View)
	}
	if cfg.View.FitPadding != 36 {
		t.Errorf("unset fit padding should keep default, got %v", cfg.View.FitPadding)
	}
	if cfg.View.Margin != (tree.Margin{Top: 10, Right: 20, Bottom: 10, Left: 20}) {
		t.Errorf("margin = %+v", cfg.View.Margin)
	}
	if cfg.Export.Format != "png" {
		t.Errorf("format = %q", cfg.Export.Format)
	}
	home, _ := os.UserHomeDir()
	if cfg.Data != filepath.Join(home, "site/trees.json") {
		t.Errorf("data path not expanded: %q", cfg.Data)
	}

	th, err := cfg.ResolveTheme()
	if err != nil {
		t.Fatalf("ResolveTheme: %v", err)
	}
	if th.Decision.R != 0xff || th.Decision.G != 0 {
		t.Errorf("decision colour = %v", th.Decision)
	}
	if th.Outcome != render.DefaultTheme.Outcome {
		t.Error("unset colour changed")
	}

	opts := cfg.VizOptions()
	if opts.Height != 600 || opts.Margin.Left != 20 {
		t.Errorf("viz options = %+v", opts)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("view: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolveTheme_BadColour(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Theme.Link = "blue"
	if _, err := cfg.ResolveTheme(); err == nil {
		t.Error("expected error for non-hex colour")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Data = "/srv/trees.yaml"
	cfg.Export.Concurrency = 8
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Data != cfg.Data || got.Export.Concurrency != 8 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigDir(); got != "/custom/config/dtv" {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigPath(); got != "/custom/config/dtv/config.yaml" {
		t.Errorf("ConfigPath() = %q", got)
	}
}

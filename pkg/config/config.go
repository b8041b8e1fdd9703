// Package config handles loading and saving dtv configuration.
//
// The config file follows the XDG Base Directory specification and lives at
// ~/.config/dtv/config.yaml unless XDG_CONFIG_HOME says otherwise.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
	"github.com/vanderheijden86/decisiontree/pkg/viz"
)

// AppName is the directory name used under the XDG roots.
const AppName = "dtv"

// ViewConfig holds drawing surface settings.
type ViewConfig struct {
	Height       float64     `yaml:"height,omitempty"`        // fixed surface height
	DefaultWidth float64     `yaml:"default_width,omitempty"` // container width when the page gives none
	FitPadding   float64     `yaml:"fit_padding,omitempty"`   // padding around the drawing when fitting
	Margin       tree.Margin `yaml:"margin,omitempty"`
}

// ThemeConfig overrides colours as "#rrggbb" strings. Empty keeps the
// default.
type ThemeConfig struct {
	Decision string `yaml:"decision,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
	Outcome  string `yaml:"outcome,omitempty"`
	Link     string `yaml:"link,omitempty"`
	Text     string `yaml:"text,omitempty"`
	Backdrop string `yaml:"backdrop,omitempty"`
}

// ExportConfig holds snapshot export defaults.
type ExportConfig struct {
	Format      string `yaml:"format,omitempty"`      // svg or png
	Concurrency int    `yaml:"concurrency,omitempty"` // trees rendered in parallel
}

// Config is the top-level configuration for dtv.
type Config struct {
	Data   string       `yaml:"data,omitempty"` // default dataset location
	View   ViewConfig   `yaml:"view,omitempty"`
	Theme  ThemeConfig  `yaml:"theme,omitempty"`
	Export ExportConfig `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		View: ViewConfig{
			Height:       viz.DefaultViewHeight,
			DefaultWidth: 960,
			FitPadding:   render.DefaultFitPadding,
			Margin:       tree.DefaultMargin,
		},
		Export: ExportConfig{
			Format:      "svg",
			Concurrency: 4,
		},
	}
}

// ConfigDir returns the XDG config directory for dtv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data = expandHome(cfg.Data)
	cfg.normalize()
	return cfg, nil
}

// normalize restores defaults for values a config file zeroed out.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.View.Height <= 0 {
		c.View.Height = def.View.Height
	}
	if c.View.DefaultWidth <= 0 {
		c.View.DefaultWidth = def.View.DefaultWidth
	}
	if c.View.FitPadding <= 0 {
		c.View.FitPadding = def.View.FitPadding
	}
	if c.View.Margin == (tree.Margin{}) {
		c.View.Margin = def.View.Margin
	}
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	if c.Export.Format == "" {
		c.Export.Format = def.Export.Format
	}
	if c.Export.Concurrency <= 0 {
		c.Export.Concurrency = def.Export.Concurrency
	}
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// VizOptions converts the view settings into visualizer options.
func (c Config) VizOptions() viz.Options {
	m := c.View.Margin
	return viz.Options{
		Height:     c.View.Height,
		Margin:     &m,
		FitPadding: c.View.FitPadding,
	}
}

// ResolveTheme applies the colour overrides to the default theme.
func (c Config) ResolveTheme() (render.Theme, error) {
	th := render.DefaultTheme
	overrides := []struct {
		name string
		val  string
		dst  *color.RGBA
	}{
		{"decision", c.Theme.Decision, &th.Decision},
		{"strategy", c.Theme.Strategy, &th.Strategy},
		{"outcome", c.Theme.Outcome, &th.Outcome},
		{"link", c.Theme.Link, &th.Link},
		{"text", c.Theme.Text, &th.Text},
		{"backdrop", c.Theme.Backdrop, &th.Backdrop},
	}
	for _, o := range overrides {
		if strings.TrimSpace(o.val) == "" {
			continue
		}
		col, err := render.ParseHex(o.val)
		if err != nil {
			return render.DefaultTheme, fmt.Errorf("theme.%s: %w", o.name, err)
		}
		*o.dst = col
	}
	return th, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Package hooks runs user commands around dtv's file outputs. Hooks are
// configured in .dtv/hooks.yaml under the project directory and run before
// (pre-export) and after (post-export) snapshots or a built page are written.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Phase is the point in an export at which a hook runs.
type Phase string

const (
	// PreExport runs before anything is written. A failure cancels the export.
	PreExport Phase = "pre-export"
	// PostExport runs after the output is written. Failures are reported.
	PostExport Phase = "post-export"
)

// Error policies.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// DefaultTimeout bounds a hook that does not set its own timeout.
const DefaultTimeout = 30 * time.Second

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config is the parsed hooks file.
type Config struct {
	Hooks ByPhase `yaml:"hooks" json:"hooks"`
}

// ByPhase groups hooks by phase.
type ByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// ExportContext describes the export to hook commands through the
// environment.
type ExportContext struct {
	ExportPath   string // DTV_EXPORT_PATH: output file or directory
	ExportFormat string // DTV_EXPORT_FORMAT: svg, png or html
	TreeCount    int    // DTV_TREE_COUNT
	Timestamp    time.Time
}

// ToEnv renders the context as KEY=value pairs.
func (c ExportContext) ToEnv() []string {
	return []string{
		"DTV_EXPORT_PATH=" + c.ExportPath,
		"DTV_EXPORT_FORMAT=" + c.ExportFormat,
		"DTV_TREE_COUNT=" + strconv.Itoa(c.TreeCount),
		"DTV_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Loader reads .dtv/hooks.yaml.
type Loader struct {
	projectDir string
	config     *Config
	warnings   []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithProjectDir sets the directory holding .dtv/ (default: working directory).
func WithProjectDir(dir string) LoaderOption {
	return func(l *Loader) { l.projectDir = dir }
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.projectDir == "" {
		l.projectDir, _ = os.Getwd()
	}
	return l
}

// Path returns the hooks file location.
func (l *Loader) Path() string {
	return filepath.Join(l.projectDir, ".dtv", "hooks.yaml")
}

// Load reads and normalizes the hooks file. A missing file means no hooks.
func (l *Loader) Load() error {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.config = &Config{}
			return nil
		}
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Hooks.PreExport, l.warnings = normalize(cfg.Hooks.PreExport, PreExport, l.warnings)
	cfg.Hooks.PostExport, l.warnings = normalize(cfg.Hooks.PostExport, PostExport, l.warnings)
	l.config = &cfg
	return nil
}

func normalize(hooks []Hook, phase Phase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, h)
	}
	return out, warnings
}

// Config returns the loaded configuration, empty before Load.
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// HasHooks reports whether any hook is configured.
func (l *Loader) HasHooks() bool {
	return l.config != nil && len(l.config.Hooks.PreExport)+len(l.config.Hooks.PostExport) > 0
}

// Hooks returns the hooks of one phase.
func (l *Loader) Hooks(phase Phase) []Hook {
	if l.config == nil {
		return nil
	}
	switch phase {
	case PreExport:
		return l.config.Hooks.PreExport
	case PostExport:
		return l.config.Hooks.PostExport
	}
	return nil
}

// Warnings returns problems found while loading.
func (l *Loader) Warnings() []string { return l.warnings }

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds ("5").
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	var dto struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}
	if err := node.Decode(&dto); err != nil {
		return err
	}
	*h = Hook{Name: dto.Name, Command: dto.Command, Env: dto.Env, OnError: dto.OnError}

	if dto.Timeout == "" {
		return nil
	}
	d, err := time.ParseDuration(dto.Timeout)
	if err == nil {
		h.Timeout = d
		return nil
	}
	secs, serr := strconv.ParseFloat(dto.Timeout, 64)
	if serr != nil {
		return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
	}
	h.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}

package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/decisiontree/pkg/metrics"
	"github.com/vanderheijden86/decisiontree/pkg/model"
)

// DataEnvVar is the environment variable naming the default dataset.
const DataEnvVar = "DTV_DATA"

// MaxBytes caps how much of a dataset is read.
const MaxBytes = 32 << 20

// DefaultTimeout bounds a remote fetch.
const DefaultTimeout = 15 * time.Second

// ErrFetchStatus is returned when a remote dataset answers with a
// non-success status.
var ErrFetchStatus = errors.New("dataset fetch failed")

// ErrNoSource is returned when no dataset location is known.
var ErrNoSource = errors.New("no dataset source")

// ResolveSource picks the dataset location: the explicit value, then
// DTV_DATA, then the page-declared fallback.
func ResolveSource(explicit, pageDeclared string) (string, error) {
	for _, s := range []string{explicit, os.Getenv(DataEnvVar), pageDeclared} {
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
	return "", ErrNoSource
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Loader fetches tree datasets.
type Loader struct {
	Client *http.Client
	// BaseDir resolves relative file paths, e.g. the directory of the page
	// that declared the source.
	BaseDir string
}

// New returns a Loader with a bounded HTTP client.
func New() *Loader {
	return &Loader{Client: &http.Client{Timeout: DefaultTimeout}}
}

// Load fetches and decodes the forest at src. It is a single best-effort
// attempt: any failure aborts the whole load.
func (l *Loader) Load(ctx context.Context, src string) ([]model.TreeSpec, error) {
	defer metrics.Timer(metrics.DataLoad)()
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return Decode(data, formatOf(src))
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	if IsRemote(src) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", src, err)
		}
		client := l.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", src, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: %s returned %s", ErrFetchStatus, src, resp.Status)
		}
		return readLimited(resp.Body, src)
	}

	path := src
	if l.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.BaseDir, strings.TrimPrefix(path, "/"))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return readLimited(f, path)
}

func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxBytes {
		return nil, fmt.Errorf("dataset %s exceeds %d bytes", name, MaxBytes)
	}
	return data, nil
}

// Format is a dataset encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatOf(src string) Format {
	p := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses a forest. Entries without a root node are dropped.
func Decode(data []byte, format Format) ([]model.TreeSpec, error) {
	var specs []model.TreeSpec
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &specs); err != nil {
			return nil, fmt.Errorf("parsing dataset: %w", err)
		}
	default:
		if err := json.Unmarshal(bytes.TrimSpace(data), &specs); err != nil {
			return nil, fmt.Errorf("parsing dataset: %w", err)
		}
	}
	out := specs[:0]
	for _, s := range specs {
		if s.Data != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

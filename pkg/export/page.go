package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/decisiontree/pkg/debug"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/page"
	"github.com/vanderheijden86/decisiontree/pkg/viz"
)

// PageResult reports what BuildPage mounted.
type PageResult struct {
	Mounted []*viz.Visualizer
	Skipped []model.TreeSpec // mount points missing from the page
}

// BuildPage mounts every tree into doc. Trees whose container or drawing
// surface is missing are skipped.
func BuildPage(doc *page.Document, specs []model.TreeSpec, opts viz.Options) PageResult {
	var res PageResult
	for _, spec := range specs {
		v := viz.New(spec, doc.Mount(spec), opts)
		if v == nil {
			debug.Log("export: no mount for %s (#%s, #%s), skipped", spec.Label(), spec.CanvasID, spec.SvgID)
			res.Skipped = append(res.Skipped, spec)
			continue
		}
		res.Mounted = append(res.Mounted, v)
	}
	return res
}

// WritePage renders doc to path, creating parent directories.
func WritePage(doc *page.Document, path string) (int, error) {
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return 0, fmt.Errorf("rendering page: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("writing page: %w", err)
	}
	return buf.Len(), nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/decisiontree/pkg/config"
	"github.com/vanderheijden86/decisiontree/pkg/debug"
	"github.com/vanderheijden86/decisiontree/pkg/export"
	"github.com/vanderheijden86/decisiontree/pkg/hooks"
	"github.com/vanderheijden86/decisiontree/pkg/loader"
	"github.com/vanderheijden86/decisiontree/pkg/metrics"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/page"
	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/ui"
	"github.com/vanderheijden86/decisiontree/pkg/version"
	"github.com/vanderheijden86/decisiontree/pkg/watcher"
)

type options struct {
	data        string
	configPath  string
	pagePath    string
	out         string
	exportDir   string
	format      string
	collapse    string
	width       float64
	concurrency int
	tui         bool
	watch       bool
	noHooks     bool
	debug       bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dtv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.data, "data", "", "Tree dataset: file path or http(s) URL (default $"+loader.DataEnvVar+", the page's "+page.DataSourceAttr+", then config)")
	fs.StringVar(&o.configPath, "config", "", "Config file (default "+config.ConfigPath()+")")
	fs.StringVar(&o.pagePath, "page", "", "HTML page whose mount points receive the rendered trees")
	fs.StringVar(&o.out, "out", "", "Where to write the built page (default stdout)")
	fs.StringVar(&o.exportDir, "export", "", "Write one snapshot per tree into this directory")
	fs.StringVar(&o.format, "format", "", "Snapshot format: svg or png")
	fs.StringVar(&o.collapse, "collapse", "", "Comma-separated node names to collapse in snapshots")
	fs.Float64Var(&o.width, "width", 0, "Container width in px when the page does not give one")
	fs.IntVar(&o.concurrency, "concurrency", 0, "Trees exported in parallel")
	fs.BoolVar(&o.tui, "tui", false, "Open the interactive viewer even when stdout is not a terminal")
	fs.BoolVar(&o.watch, "watch", false, "Rebuild when the dataset file changes")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip the commands in .dtv/hooks.yaml")
	fs.BoolVar(&o.debug, "debug", false, "Print debug logs (same as DTV_DEBUG=1)")
	help := fs.Bool("help", false, "Show help")
	versionFlag := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *help {
		fmt.Fprintln(stdout, "Usage: dtv [options]")
		fmt.Fprintln(stdout, "\nRender collapsible decision trees: into an HTML page, as snapshots, or interactively.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if *versionFlag {
		fmt.Fprintf(stdout, "dtv %s\n", version.Version)
		return 0
	}

	logger := log.New(stderr, "dtv: ", 0)
	if o.debug {
		debug.SetOutput(stderr)
		debug.SetEnabled(true)
	}
	defer logMetrics()

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		// Non-fatal: continue with defaults
		logger.Printf("%v (using defaults)", err)
		cfg = config.DefaultConfig()
	}
	theme, err := cfg.ResolveTheme()
	if err != nil {
		logger.Printf("config: %v (using default colours)", err)
	}
	if o.width <= 0 {
		o.width = cfg.View.DefaultWidth
	}
	if o.format == "" {
		o.format = cfg.Export.Format
	}
	if o.concurrency <= 0 {
		o.concurrency = cfg.Export.Concurrency
	}

	var declared string
	if o.pagePath != "" {
		doc, err := readPage(o.pagePath)
		if err != nil {
			logger.Print(err)
			return 1
		}
		declared = doc.DataSource()
	}

	src, baseDir := resolveSource(o, cfg, declared)
	ld := loader.New()
	ld.BaseDir = baseDir
	load := func() ([]model.TreeSpec, error) {
		if src == "" {
			return nil, loader.ErrNoSource
		}
		ctx, cancel := context.WithTimeout(context.Background(), loader.DefaultTimeout)
		defer cancel()
		return ld.Load(ctx, src)
	}

	specs, err := load()
	if err != nil {
		// One attempt only; carry on with no trees.
		logger.Printf("loading trees: %v", err)
		specs = nil
	}
	debug.Log("cmd: %d trees from %q", len(specs), src)

	var build func([]model.TreeSpec) error
	switch {
	case o.pagePath != "":
		build = func(specs []model.TreeSpec) error {
			return buildPage(o, cfg, theme, specs, stdout, stderr)
		}
	case o.exportDir != "":
		build = func(specs []model.TreeSpec) error {
			return exportAll(o, cfg, theme, specs, stderr)
		}
	case o.tui || isTerminal(stdout):
		return runTUI(o, cfg, theme, specs, src, load, logger)
	default:
		printSummary(stdout, specs)
		return 0
	}

	if err := build(specs); err != nil {
		logger.Print(err)
		return 1
	}
	if !o.watch {
		return 0
	}

	w, err := newWatcher(src, baseDir, logger)
	if err != nil {
		logger.Print(err)
		return 1
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(stderr, "Watching %s (Ctrl-C to stop)\n", w.Path())
	watchLoop(ctx, w, load, build, logger)
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func readPage(path string) (*page.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()
	return page.Parse(f)
}

// resolveSource picks the dataset and the directory relative paths are
// resolved against. A source declared by the page is relative to the page.
func resolveSource(o options, cfg config.Config, declared string) (src, baseDir string) {
	fallback := declared
	if fallback == "" {
		fallback = cfg.Data
	}
	src, err := loader.ResolveSource(o.data, fallback)
	if err != nil {
		return "", ""
	}
	if declared != "" && src == declared && o.pagePath != "" {
		baseDir = filepath.Dir(o.pagePath)
	}
	return src, baseDir
}

func forestOptions(o options, cfg config.Config) export.ForestOptions {
	return export.ForestOptions{
		Dir:         o.exportDir,
		Format:      o.format,
		Width:       o.width,
		Viz:         cfg.VizOptions(),
		Concurrency: o.concurrency,
		Collapsed:   splitList(o.collapse),
	}
}

func buildPage(o options, cfg config.Config, theme render.Theme, specs []model.TreeSpec, stdout, stderr io.Writer) error {
	// Re-read on every build so a rebuild starts from the pristine page.
	doc, err := readPage(o.pagePath)
	if err != nil {
		return err
	}
	doc.SetTheme(theme)
	doc.DefaultWidth = o.width

	res := export.BuildPage(doc, specs, cfg.VizOptions())
	for _, s := range res.Skipped {
		debug.Log("cmd: %s has no mount point on the page", s.Label())
	}

	if o.out == "" {
		return doc.Render(stdout)
	}
	hx := hooks.ExportContext{ExportPath: o.out, ExportFormat: "html", TreeCount: len(res.Mounted)}
	return withHooks(o, hx, stderr, func() error {
		n, err := export.WritePage(doc, o.out)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Wrote %s (%d bytes, %d trees, %d skipped)\n", o.out, n, len(res.Mounted), len(res.Skipped))
		return nil
	})
}

func exportAll(o options, cfg config.Config, theme render.Theme, specs []model.TreeSpec, stderr io.Writer) error {
	fo := forestOptions(o, cfg)
	fo.Theme = theme
	format := fo.Format
	if format == "" {
		format = "svg"
	}
	hx := hooks.ExportContext{ExportPath: o.exportDir, ExportFormat: format, TreeCount: len(specs)}
	return withHooks(o, hx, stderr, func() error {
		start := time.Now()
		paths, err := export.ExportForest(context.Background(), specs, fo)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		debug.LogTiming("export", time.Since(start))
		for _, p := range paths {
			fmt.Fprintf(stderr, "Wrote %s\n", p)
		}
		return nil
	})
}

// withHooks runs write between the pre- and post-export hooks of the
// working directory. A failed pre-export hook cancels the write.
func withHooks(o options, hx hooks.ExportContext, stderr io.Writer, write func() error) error {
	hx.Timestamp = time.Now()
	ex, err := hooks.RunHooks("", hx, o.noHooks)
	if err != nil {
		return fmt.Errorf("hooks: %w", err)
	}
	if ex == nil {
		return write()
	}
	defer func() {
		if s := ex.Summary(); s != "" {
			fmt.Fprintln(stderr, s)
		}
	}()

	ctx := context.Background()
	if err := ex.RunPreExport(ctx); err != nil {
		return err
	}
	if err := write(); err != nil {
		return err
	}
	return ex.RunPostExport(ctx)
}

func printSummary(w io.Writer, specs []model.TreeSpec) {
	if len(specs) == 0 {
		fmt.Fprintln(w, "No decision trees loaded.")
		return
	}
	for _, s := range specs {
		fmt.Fprintf(w, "%-40s %4d nodes  #%s in #%s\n", s.Label(), s.Data.Count(), s.SvgID, s.CanvasID)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newWatcher(src, baseDir string, logger *log.Logger) (*watcher.Watcher, error) {
	if src == "" || loader.IsRemote(src) {
		return nil, fmt.Errorf("-watch needs a local dataset file, have %q", src)
	}
	path := src
	if baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	w, err := watcher.New(path, watcher.WithOnError(func(err error) {
		logger.Printf("watch: %v", err)
	}))
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return w, nil
}

func watchLoop(ctx context.Context, w *watcher.Watcher, load func() ([]model.TreeSpec, error), build func([]model.TreeSpec) error, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Changed():
			specs, err := load()
			if err != nil {
				logger.Printf("reloading trees: %v", err)
				continue
			}
			if err := build(specs); err != nil {
				logger.Print(err)
			}
		}
	}
}

func runTUI(o options, cfg config.Config, theme render.Theme, specs []model.TreeSpec, src string, load func() ([]model.TreeSpec, error), logger *log.Logger) int {
	start, err := ui.PickTree(specs)
	if err != nil && !errors.Is(err, ui.ErrNoTrees) {
		logger.Print(err)
		return 1
	}

	opts := ui.Options{
		Viz:    cfg.VizOptions(),
		Theme:  theme,
		Start:  start,
		Reload: load,
	}
	if o.watch {
		w, err := newWatcher(src, "", logger)
		if err != nil {
			logger.Print(err)
			return 1
		}
		defer w.Stop()
		opts.Watcher = w
	}

	if err := runTUIProgram(ui.New(specs, opts)); err != nil {
		logger.Printf("running viewer: %v", err)
		return 1
	}
	return 0
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated runs: set DTV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("DTV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

func logMetrics() {
	if !debug.Enabled() {
		return
	}
	for _, s := range metrics.AllTimingStats() {
		debug.Log("metrics: %-12s n=%d avg=%.2fms max=%.2fms", s.Name, s.Count, s.AvgMs, s.MaxMs)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

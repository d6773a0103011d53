// Package druck is the generation orchestrator. It resolves a request's
// source to pages, fans out over collections and pagination, and renders and
// writes every leaf page.
package druck

import (
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"dario.cat/mergo"

	"git.home.luguber.info/inful/kartoffeldruck/internal/content"
	"git.home.luguber.info/inful/kartoffeldruck/internal/files"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/metrics"
	"git.home.luguber.info/inful/kartoffeldruck/internal/output"
	"git.home.luguber.info/inful/kartoffeldruck/internal/render"
)

// Default locations, relative to Cwd.
const (
	DefaultSource    = "pages"
	DefaultDest      = "dist"
	DefaultTemplates = "templates"
	DefaultAssets    = "assets"
)

// Config is the site configuration. Relative locations resolve against Cwd.
type Config struct {
	Cwd       string
	Source    string
	Dest      string
	Templates string
	Assets    string

	// Locals are available to every page, below page fields and call-site
	// locals in precedence.
	Locals map[string]any

	// ContentProcessors selects body processors per page; see
	// content.Selector for the accepted shapes. nil renders `*.md` as
	// markdown.
	ContentProcessors any
}

// Option configures a Druck.
type Option func(*Druck)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Druck) { d.logger = logger }
}

// WithRecorder sets the metrics recorder. Defaults to metrics.NoopRecorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Druck) { d.recorder = r }
}

// WithSink replaces the destination directory writer.
func WithSink(s output.Sink) Option {
	return func(d *Druck) {
		d.sink = s
		d.customSink = true
	}
}

// WithFiles replaces the source file resolver.
func WithFiles(r *files.Resolver) Option {
	return func(d *Druck) {
		d.files = r
		d.customFiles = true
	}
}

// WithGenerator replaces the render-and-write step for leaf pages.
func WithGenerator(g Generator) Option {
	return func(d *Druck) { d.generator = g }
}

// WithConcurrency bounds the number of pages generated in parallel per
// fan-out. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(d *Druck) { d.concurrency = n }
}

// Druck generates pages from a source directory into a destination directory.
type Druck struct {
	logger      *slog.Logger
	recorder    metrics.Recorder
	generator   Generator
	concurrency int

	mu          sync.RWMutex
	cfg         Config
	files       *files.Resolver
	customFiles bool
	sink        output.Sink
	customSink  bool
	renderer    *render.Renderer

	listenersMu sync.Mutex
	listeners   []func(*Result)
}

// New creates a Druck configured with cfg.
func New(cfg Config, opts ...Option) (*Druck, error) {
	d := &Druck{
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.generator == nil {
		d.generator = &pipeline{d: d}
	}

	if err := d.Configure(cfg); err != nil {
		return nil, err
	}
	return d, nil
}

// Configure merges partial into the current configuration. Given locations
// replace the current ones; Locals merge deeply with partial winning; a
// non-nil ContentProcessors replaces the current selection.
func (d *Druck) Configure(partial Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.cfg

	cwd := partial.Cwd
	if cwd == "" {
		cwd = current.Cwd
	}
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "cannot determine working directory").Build()
		}
		cwd = wd
	}

	next := Config{
		Cwd:               cwd,
		Source:            location(cwd, partial.Source, current.Source, DefaultSource),
		Dest:              location(cwd, partial.Dest, current.Dest, DefaultDest),
		Templates:         location(cwd, partial.Templates, current.Templates, DefaultTemplates),
		Assets:            location(cwd, partial.Assets, current.Assets, DefaultAssets),
		Locals:            maps.Clone(current.Locals),
		ContentProcessors: current.ContentProcessors,
	}
	if next.Locals == nil {
		next.Locals = map[string]any{}
	}
	if len(partial.Locals) > 0 {
		if err := mergo.Merge(&next.Locals, partial.Locals, mergo.WithOverride); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "cannot merge locals").Build()
		}
	}
	if partial.ContentProcessors != nil {
		next.ContentProcessors = partial.ContentProcessors
	}

	selector, err := content.NewSelector(next.ContentProcessors)
	if err != nil {
		return err
	}

	if d.renderer == nil || next.Templates != current.Templates || partial.ContentProcessors != nil {
		engine, err := render.NewPongo(next.Templates, d.logger)
		if err != nil {
			return err
		}
		d.renderer = render.New(engine, selector, d.logger)
	}
	if !d.customFiles && (d.files == nil || next.Source != current.Source) {
		d.files = files.New(os.DirFS(next.Source), files.WithLogger(d.logger))
	}
	if !d.customSink && (d.sink == nil || next.Dest != current.Dest) {
		d.sink = output.NewDir(next.Dest)
	}

	d.cfg = next
	return nil
}

func location(cwd, given, current, fallback string) string {
	switch {
	case given != "" && filepath.IsAbs(given):
		return given
	case given != "":
		return filepath.Join(cwd, given)
	case current != "":
		return current
	default:
		return filepath.Join(cwd, fallback)
	}
}

// Config returns a copy of the effective configuration.
func (d *Druck) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cfg := d.cfg
	cfg.Locals = maps.Clone(d.cfg.Locals)
	return cfg
}

// Files returns the source file resolver.
func (d *Druck) Files() *files.Resolver {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.files
}

// OnGenerated registers fn to receive every leaf result after its output has
// been written. fn may be called from several goroutines at once.
func (d *Druck) OnGenerated(fn func(*Result)) {
	d.listenersMu.Lock()
	defer d.listenersMu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *Druck) emit(res *Result) {
	d.listenersMu.Lock()
	listeners := append([]func(*Result){}, d.listeners...)
	d.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
}

type snapshot struct {
	cfg      Config
	files    *files.Resolver
	sink     output.Sink
	renderer *render.Renderer
}

func (d *Druck) snapshot() snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot{cfg: d.cfg, files: d.files, sink: d.sink, renderer: d.renderer}
}

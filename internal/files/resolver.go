// Package files resolves page ids and glob patterns against the source
// directory and caches loaded pages for the lifetime of a resolver.
package files

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/frontmatter"
	"git.home.luguber.info/inful/kartoffeldruck/internal/logfields"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
)

// LoaderFunc loads the page for id. A nil page with a nil error means the id
// does not resolve.
type LoaderFunc func(ctx context.Context, fsys fs.FS, id string) (page.Page, error)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLoader replaces the front matter loader.
func WithLoader(load LoaderFunc) Option {
	return func(r *Resolver) { r.load = load }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// Resolver maps ids to pages. Each id is loaded at most once; concurrent
// requests for the same id share one load and observe the same page.
type Resolver struct {
	fsys   fs.FS
	load   LoaderFunc
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]page.Page
	group singleflight.Group
}

// New creates a resolver rooted at fsys.
func New(fsys fs.FS, opts ...Option) *Resolver {
	r := &Resolver{
		fsys:   fsys,
		load:   LoadFrontMatter,
		logger: slog.Default(),
		cache:  make(map[string]page.Page),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the page for id, or nil when it cannot be read. Misses are not
// cached so a later Get retries.
func (r *Resolver) Get(ctx context.Context, id string) (page.Page, error) {
	r.mu.RLock()
	p, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := r.group.Do(id, func() (any, error) {
		r.mu.RLock()
		cached, ok := r.cache[id]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := r.load(ctx, r.fsys, id)
		if err != nil || loaded == nil {
			return loaded, err
		}

		r.mu.Lock()
		r.cache[id] = loaded
		r.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	p, _ = v.(page.Page)
	return p, nil
}

// All returns the pages whose ids match pattern, in glob order. Only regular
// files match.
func (r *Resolver) All(ctx context.Context, pattern string) ([]page.Page, error) {
	ids, err := doublestar.Glob(r.fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid glob pattern").
			WithContext("pattern", pattern).
			Build()
	}

	loaded := make([]page.Page, len(ids))
	g := new(errgroup.Group)
	for i, id := range ids {
		g.Go(func() error {
			p, err := r.Get(ctx, id)
			if err != nil {
				return err
			}
			loaded[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages := make([]page.Page, 0, len(loaded))
	for i, p := range loaded {
		if p == nil {
			r.logger.Debug("Skipping vanished page", logfields.PageID(ids[i]), logfields.Pattern(pattern))
			continue
		}
		pages = append(pages, p)
	}

	r.logger.Debug("Resolved pattern", logfields.Pattern(pattern), logfields.Count(len(pages)))
	return pages, nil
}

// Cached reports whether id is in the cache.
func (r *Resolver) Cached(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[id]
	return ok
}

// LoadFrontMatter reads id from fsys and parses its YAML front matter. Read
// failures surface as a miss; malformed front matter is an error.
func LoadFrontMatter(_ context.Context, fsys fs.FS, id string) (page.Page, error) {
	raw, err := fs.ReadFile(fsys, id)
	if err != nil {
		//nolint:nilnil // nil page + nil error means the id did not resolve.
		return nil, nil
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		if stderrors.Is(err, frontmatter.ErrMissingClosingDelimiter) {
			return page.New(id, nil, string(raw)), nil
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid front matter").
			WithContext("id", id).
			Build()
	}

	return page.New(id, doc.Attributes, doc.Body), nil
}

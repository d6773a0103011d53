package druck

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/logfields"
	"git.home.luguber.info/inful/kartoffeldruck/internal/metrics"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
	"git.home.luguber.info/inful/kartoffeldruck/internal/paginate"
	"git.home.luguber.info/inful/kartoffeldruck/internal/uri"
)

// Locals keys set while paginating.
const (
	AllItemsKey = "allItems"
	PageKey     = "page"
)

// Request describes one generate call.
type Request struct {
	// Source is a glob pattern (contains `*`), a page id, a page.Page, or a
	// []page.Page.
	Source any
	// Dest is the destination pattern; `:token` placeholders expand against
	// the source page and locals.
	Dest     string
	Locals   map[string]any
	Paginate int

	// Extra is carried through to every Result unchanged.
	Extra map[string]any
}

// Result is one generated page.
type Result struct {
	Source   page.Page
	Dest     string
	Locals   map[string]any
	Rendered string
	Extra    map[string]any
}

// Generate runs req and returns every generated page in source order (and
// page order within a pagination). Sibling pages render concurrently; when
// one fails the others still finish and the first error is returned. Output
// already written is not rolled back.
func (d *Druck) Generate(ctx context.Context, req Request) ([]*Result, error) {
	return d.generate(ctx, req)
}

func (d *Druck) generate(ctx context.Context, req Request) ([]*Result, error) {
	switch src := req.Source.(type) {
	case string:
		if strings.Contains(src, "*") {
			pages, err := d.Files().All(ctx, src)
			if err != nil {
				return nil, err
			}
			return d.generateEach(ctx, pages, req)
		}
		p, err := d.Files().Get(ctx, src)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, errors.NotFoundError("file not found: "+src).
				WithContext("id", src).
				Build()
		}
		return d.generatePage(ctx, p, req)
	case page.Page:
		return d.generatePage(ctx, src, req)
	case []page.Page:
		return d.generateEach(ctx, src, req)
	case []any:
		pages := make([]page.Page, 0, len(src))
		for _, el := range src {
			p, ok := el.(page.Page)
			if !ok {
				return nil, errors.SourceTypeError("source sequence must contain pages").
					WithContext("type", fmt.Sprintf("%T", el)).
					Build()
			}
			pages = append(pages, p)
		}
		return d.generateEach(ctx, pages, req)
	default:
		return nil, errors.SourceTypeError("unsupported source").
			WithContext("type", fmt.Sprintf("%T", req.Source)).
			Build()
	}
}

func (d *Druck) generatePage(ctx context.Context, p page.Page, req Request) ([]*Result, error) {
	if req.Paginate > 0 {
		return d.paginate(ctx, p, req)
	}
	res, err := d.generateLeaf(ctx, p, req)
	if err != nil {
		return nil, err
	}
	return []*Result{res}, nil
}

func (d *Druck) generateEach(ctx context.Context, pages []page.Page, req Request) ([]*Result, error) {
	batches := make([][]*Result, len(pages))

	g := d.group()
	for i, p := range pages {
		sub := req
		sub.Source = p
		// Paginated destinations expand per page index further down.
		if req.Paginate == 0 {
			sub.Dest = uri.Expand(req.Dest, p, req.Locals)
		}
		g.Go(func() error {
			res, err := d.generatePage(ctx, p, sub)
			batches[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(batches), nil
}

func (d *Druck) paginate(ctx context.Context, p page.Page, req Request) ([]*Result, error) {
	items, ok := req.Locals[paginate.ItemsKey]
	if !ok {
		return nil, errors.ConfigError("pagination requires locals.items").
			WithContext("id", p.ID()).
			WithContext("dest", req.Dest).
			Build()
	}

	chunks, err := paginate.Split(items, req.Paginate)
	if err != nil {
		return nil, err
	}

	total := len(chunks)
	ref := func(idx int) string {
		return uri.Expand(req.Dest, p, req.Locals, idx)
	}

	batches := make([][]*Result, total)
	g := d.group()
	for _, chunk := range chunks {
		locals := maps.Clone(req.Locals)
		locals[paginate.ItemsKey] = chunk.Items
		locals[AllItemsKey] = items
		locals[PageKey] = paginate.Navigate(chunk.Index, total, ref).Locals()

		sub := Request{
			Source: p,
			Dest:   ref(chunk.Index),
			Locals: locals,
			Extra:  req.Extra,
		}
		g.Go(func() error {
			res, err := d.generatePage(ctx, p, sub)
			batches[chunk.Index] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(batches), nil
}

func (d *Druck) generateLeaf(ctx context.Context, p page.Page, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := d.snapshot()
	locals := mergeLocals(s.cfg.Locals, req.Locals)
	dest := uri.Expand(req.Dest, p, locals)

	start := time.Now()
	rendered, err := d.generator.Generate(ctx, Target{
		Source:  p,
		Dest:    dest,
		Globals: s.cfg.Locals,
		Locals:  req.Locals,
	})
	d.recorder.ObservePageDuration(time.Since(start))
	d.recorder.IncPageResult(metrics.ResultOf(err))
	if err != nil {
		d.logger.Debug("Page generation failed",
			logfields.PageID(p.ID()),
			logfields.Dest(dest),
			logfields.Error(err))
		return nil, err
	}

	res := &Result{
		Source:   p,
		Dest:     dest,
		Locals:   locals,
		Rendered: rendered,
		Extra:    req.Extra,
	}
	d.emit(res)
	return res, nil
}

func (d *Druck) group() *errgroup.Group {
	g := new(errgroup.Group)
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	return g
}

func flatten(batches [][]*Result) []*Result {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]*Result, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

func mergeLocals(layers ...map[string]any) map[string]any {
	merged := map[string]any{}
	for _, l := range layers {
		maps.Copy(merged, l)
	}
	return merged
}

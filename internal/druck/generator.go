package druck

import (
	"context"

	"git.home.luguber.info/inful/kartoffeldruck/internal/logfields"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
	"git.home.luguber.info/inful/kartoffeldruck/internal/render"
)

// Target is a single concrete page to render and persist.
type Target struct {
	Source page.Page
	Dest   string
	// Globals are the configured site locals.
	Globals map[string]any
	// Locals are the call-site locals.
	Locals map[string]any
}

// Generator renders and persists one Target, returning the rendered output.
type Generator interface {
	Generate(ctx context.Context, t Target) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, t Target) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, t Target) (string, error) {
	return f(ctx, t)
}

// pipeline renders through the configured renderer and writes to the sink.
type pipeline struct {
	d *Druck
}

func (p *pipeline) Generate(_ context.Context, t Target) (string, error) {
	s := p.d.snapshot()

	helpers := render.NewHelpers(s.renderer, t.Dest)
	locals := mergeLocals(t.Globals, t.Source, t.Locals, helpers.Locals())

	rendered, err := s.renderer.Render(t.Source, locals, true)
	if err != nil {
		return "", err
	}

	if _, err := s.sink.Write(t.Dest, []byte(rendered)); err != nil {
		return "", err
	}
	p.d.logger.Debug("Created page", logfields.PageID(t.Source.ID()), logfields.Dest(t.Dest))
	return rendered, nil
}

package render

import (
	"log/slog"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/kartoffeldruck/internal/content"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
)

// ContentMarker delimits the page body inside the intermediate render. A page
// or template that produces it on its own cannot be rendered.
const ContentMarker = "<~~content~marker~~>"

// BodyBlock is the layout block that receives the processed page body.
const BodyBlock = "item_body"

const defaultLayoutExt = ".html"

var expressionRe = regexp.MustCompile(`\{\{.*\}\}`)

// ProcessorSelector picks the content processors for a page.
type ProcessorSelector interface {
	Select(p page.Page) ([]content.Processor, error)
}

// Renderer renders pages through an Engine.
type Renderer struct {
	engine     Engine
	processors ProcessorSelector
	logger     *slog.Logger
}

// New creates a renderer. processors may be nil for no content processing.
func New(engine Engine, processors ProcessorSelector, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{engine: engine, processors: processors, logger: logger}
}

// Render produces the output for p.
//
// String locals containing `{{ ... }}` are expanded first, each against the
// unexpanded locals; `body` is left alone. When p has content processors its
// body is rendered between two content markers so that the processed region
// can be cut out, run through the processors and spliced back. With
// applyLayout the result extends the page's layout (or the `layout` local),
// filling the item_body block.
func (r *Renderer) Render(p page.Page, locals map[string]any, applyLayout bool) (string, error) {
	id := p.ID()

	expanded, err := r.expandLocals(id, locals)
	if err != nil {
		return "", err
	}

	procs, err := r.selectProcessors(p)
	if err != nil {
		return "", err
	}

	body := p.Body()
	if len(procs) > 0 {
		body = ContentMarker + body + ContentMarker
	}

	var tpl strings.Builder
	layout := r.layoutFor(p, expanded, applyLayout)
	if layout != "" {
		tpl.WriteString(`{% extends "` + layout + `" %}` + "\n")
	}
	tpl.WriteString("{% block " + BodyBlock + " %}\n")
	tpl.WriteString(body)
	tpl.WriteString("\n{% endblock %}\n")

	rendered, err := r.engine.RenderString(tpl.String(), expanded)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "failed to render page").
			WithContext("id", id).
			WithContext("layout", layout).
			Build()
	}

	if len(procs) == 0 {
		return rendered, nil
	}

	parts := strings.Split(rendered, ContentMarker)
	if len(parts) != 3 {
		return "", errors.TemplateError("must not use content marker in template or page").
			WithContext("id", id).
			WithContext("marker", ContentMarker).
			WithContext("parts", len(parts)).
			Build()
	}

	processed, err := content.Apply(parts[1], p, procs)
	if err != nil {
		return "", errors.WrapError(err, errors.GetCategory(err), "content processing failed").
			WithContext("id", id).
			Build()
	}

	return parts[0] + processed + parts[2], nil
}

func (r *Renderer) selectProcessors(p page.Page) ([]content.Processor, error) {
	if r.processors == nil {
		return nil, nil
	}
	return r.processors.Select(p)
}

func (r *Renderer) expandLocals(id string, locals map[string]any) (map[string]any, error) {
	expanded := make(map[string]any, len(locals))
	for k, v := range locals {
		expanded[k] = v

		s, ok := v.(string)
		if !ok || k == page.KeyBody || !expressionRe.MatchString(s) {
			continue
		}

		out, err := r.engine.RenderString(s, locals)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to expand local").
				WithContext("id", id).
				WithContext("local", k).
				Build()
		}
		expanded[k] = out
	}
	return expanded, nil
}

func (r *Renderer) layoutFor(p page.Page, locals map[string]any, applyLayout bool) string {
	if !applyLayout {
		return ""
	}
	layout := p.Layout()
	if layout == "" {
		layout, _ = locals[page.KeyLayout].(string)
	}
	if layout == "" {
		return ""
	}
	if !strings.Contains(layout, ".") {
		layout += defaultLayoutExt
	}
	return layout
}

package render

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
)

// AssetsDir is the destination-relative directory static assets are copied to.
const AssetsDir = "assets"

// Helpers are the template functions bound to one destination.
type Helpers struct {
	renderer *Renderer
	prefix   string
}

// NewHelpers binds helpers to dest, the output path relative to the
// destination root.
func NewHelpers(r *Renderer, dest string) *Helpers {
	return &Helpers{renderer: r, prefix: RelativePrefix(dest)}
}

// RelativePrefix is one `../` per directory dest is nested in.
func RelativePrefix(dest string) string {
	segments := 0
	for _, s := range strings.Split(dest, "/") {
		if s != "" {
			segments++
		}
	}
	if segments <= 1 {
		return ""
	}
	return strings.Repeat("../", segments-1)
}

// Relative rewrites a destination-root path to be relative to dest.
func (h *Helpers) Relative(path string) string {
	return h.prefix + strings.TrimPrefix(path, "/")
}

// Assets is the relative path to the assets directory.
func (h *Helpers) Assets() string {
	return h.Relative(AssetsDir)
}

// Render renders another page inline. Without a layout argument the nested
// page is rendered bare; with one it extends that layout.
func (h *Helpers) Render(target any, layout ...string) (string, error) {
	var p page.Page
	switch t := target.(type) {
	case page.Page:
		p = t
	case map[string]any:
		p = page.Page(t)
	default:
		return "", errors.SourceTypeError("render expects a page").
			WithContext("type", fmt.Sprintf("%T", target)).
			Build()
	}

	applyLayout := len(layout) > 0 && layout[0] != ""
	if applyLayout {
		p = p.With(page.KeyLayout, layout[0])
	}

	locals := mergeLocals(h.Locals(), p)
	return h.renderer.Render(p, locals, applyLayout)
}

// Locals exposes the helpers to templates as relative, assets and render.
func (h *Helpers) Locals() map[string]any {
	return map[string]any{
		"relative": h.Relative,
		"assets":   h.Assets(),
		"render":   h.Render,
	}
}

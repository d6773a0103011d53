package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/flosch/pongo2/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/kartoffeldruck/internal/content"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	return dir
}

func newRenderer(t *testing.T, templates map[string]string, processors any) *Renderer {
	t.Helper()
	engine, err := NewPongo(writeTemplates(t, templates), nil)
	require.NoError(t, err)
	selector, err := content.NewSelector(processors)
	require.NoError(t, err)
	return New(engine, selector, nil)
}

// localsFor mirrors what the orchestrator hands to the renderer.
func localsFor(r *Renderer, p page.Page, dest string, extra map[string]any) map[string]any {
	return mergeLocals(p, extra, NewHelpers(r, dest).Locals())
}

func TestRender_MarkdownWithLayout(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"post.html": `<title>{{ title }}</title><div class="sidebar"></div><article>{% block item_body %}{% endblock %}</article>`,
	}, nil)

	p := page.New("posts/01-first.md", map[string]any{"title": "first", "layout": "post"},
		"## This is a subheading\n\n{{ relative(\"some-absolute-path\") }}\n")

	out, err := r.Render(p, localsFor(r, p, "posts/01-first/index.html", nil), true)
	require.NoError(t, err)

	assert.Contains(t, out, "<title>first</title>")
	assert.Contains(t, out, `<h2 id="this-is-a-subheading">This is a subheading</h2>`)
	assert.Contains(t, out, "<p>../../some-absolute-path</p>")
	assert.Contains(t, out, `<div class="sidebar">`)
	assert.NotContains(t, out, ContentMarker)
}

func TestRender_WithoutLayoutFlagIgnoresLayout(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"post.html": `LAYOUT{% block item_body %}{% endblock %}`,
	}, nil)

	p := page.New("a.html", map[string]any{"layout": "post"}, "BODY")
	out, err := r.Render(p, localsFor(r, p, "a.html", nil), false)
	require.NoError(t, err)

	assert.Contains(t, out, "BODY")
	assert.NotContains(t, out, "LAYOUT")
}

func TestRender_DefaultLayoutFromLocals(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"default.html": `DEFAULT{% block item_body %}{% endblock %}`,
		"other.html":   `OTHER{% block item_body %}{% endblock %}`,
	}, nil)

	plain := page.New("no-layout.md", nil, "NO_LAYOUT")
	out, err := r.Render(plain, localsFor(r, plain, "no-layout.html", map[string]any{"layout": "default"}), true)
	require.NoError(t, err)
	assert.Contains(t, out, "DEFAULT")
	assert.Contains(t, out, "NO_LAYOUT")

	own := page.New("layout.md", map[string]any{"layout": "other"}, "LAYOUT")
	out, err = r.Render(own, localsFor(r, own, "layout.html", map[string]any{"layout": "default"}), true)
	require.NoError(t, err)
	assert.Contains(t, out, "OTHER")
	assert.NotContains(t, out, "DEFAULT")
}

func TestRender_LayoutWithExplicitExtension(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"feed.xml": `<feed>{% block item_body %}{% endblock %}</feed>`,
	}, false)

	p := page.New("feed.html", map[string]any{"layout": "feed.xml"}, "<entry/>")
	out, err := r.Render(p, localsFor(r, p, "feed.xml", nil), true)
	require.NoError(t, err)
	assert.Contains(t, out, "<feed>\n<entry/>\n</feed>")
}

func TestRender_PreExpandsLocals(t *testing.T) {
	r := newRenderer(t, nil, nil)

	p := page.New("a.html", nil, "<h1>{{ headline }}</h1>")
	locals := localsFor(r, p, "a.html", map[string]any{
		"site":     "Kartoffel",
		"headline": "{{ site }} blog",
	})

	out, err := r.Render(p, locals, true)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Kartoffel blog</h1>")
}

func TestRender_MarkerCollisionInPage(t *testing.T) {
	r := newRenderer(t, nil, nil)

	p := page.New("evil.md", nil, "before "+ContentMarker+" after")
	_, err := r.Render(p, localsFor(r, p, "evil.html", nil), true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))

	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	id, _ := classified.Context().GetString("id")
	assert.Equal(t, "evil.md", id)
}

func TestRender_MarkerCollisionInLayout(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"evil.html": ContentMarker + `{% block item_body %}{% endblock %}`,
	}, nil)

	p := page.New("a.md", map[string]any{"layout": "evil"}, "text")
	_, err := r.Render(p, localsFor(r, p, "a.html", nil), true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRender_LayoutWithoutBodyBlock(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"empty.html": `NOTHING HERE`,
	}, nil)

	p := page.New("a.md", map[string]any{"layout": "empty"}, "text")
	_, err := r.Render(p, localsFor(r, p, "a.html", nil), true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRender_NoProcessorsSkipsMarkers(t *testing.T) {
	r := newRenderer(t, nil, nil)

	p := page.New("raw.html", nil, "# not a heading")
	out, err := r.Render(p, localsFor(r, p, "raw.html", nil), true)
	require.NoError(t, err)
	assert.Contains(t, out, "# not a heading")
}

func TestRender_ProcessorsDisabled(t *testing.T) {
	r := newRenderer(t, nil, false)

	p := page.New("a.md", nil, "# heading")
	out, err := r.Render(p, localsFor(r, p, "a.html", nil), true)
	require.NoError(t, err)
	assert.Contains(t, out, "# heading")
	assert.NotContains(t, out, "<h1")
}

func TestRender_TemplateError(t *testing.T) {
	r := newRenderer(t, nil, nil)

	p := page.New("broken.html", nil, "{% if %}")
	_, err := r.Render(p, localsFor(r, p, "broken.html", nil), true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRender_MissingLayout(t *testing.T) {
	r := newRenderer(t, nil, nil)

	p := page.New("a.html", map[string]any{"layout": "nope"}, "x")
	_, err := r.Render(p, localsFor(r, p, "a.html", nil), true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRender_Filters(t *testing.T) {
	r := newRenderer(t, nil, false)

	p := page.New("a.html", map[string]any{"title": "Crème Brûlée Recipes"}, "{{ title|slug }}|{{ \"hello world\"|titlecase }}")
	out, err := r.Render(p, localsFor(r, p, "a.html", nil), true)
	require.NoError(t, err)
	assert.Contains(t, out, "creme-brulee-recipes|Hello World")
}

func TestRender_InvalidIdentifierLocalsAreDropped(t *testing.T) {
	r := newRenderer(t, nil, false)

	p := page.New("a.html", map[string]any{"og-image": "x.png", "title": "ok"}, "{{ title }}")
	out, err := r.Render(p, localsFor(r, p, "a.html", nil), true)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestPongo_ConcurrentRenders(t *testing.T) {
	engine, err := NewPongo(writeTemplates(t, map[string]string{
		"base.html": `<main>{% block item_body %}{% endblock %}</main>`,
	}), nil)
	require.NoError(t, err)

	const n = 32
	outs := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := fmt.Sprintf(`{%% extends "base.html" %%}{%% block item_body %%}{{ n }}-%d{%% endblock %%}`, i)
			outs[i], errs[i] = engine.RenderString(src, map[string]any{"n": i})
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("<main>%d-%d</main>", i, i), outs[i])
	}
}

func TestRegisterFilters_LogsDuplicate(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	upper := func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(in.String()), nil
	}

	registerFilters(logger, map[string]pongo2.FilterFunction{"kd_register_twice": upper})
	assert.Empty(t, logs.String())

	registerFilters(logger, map[string]pongo2.FilterFunction{"kd_register_twice": upper})
	assert.Contains(t, logs.String(), "Failed to register template filter")
	assert.Contains(t, logs.String(), "filter=kd_register_twice")
}

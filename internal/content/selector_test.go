package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
)

func upper(body string, _ page.Page) (string, error) { return strings.ToUpper(body), nil }

func suffix(s string) Processor {
	return func(body string, _ page.Page) (string, error) { return body + s, nil }
}

func selectFor(t *testing.T, cfg any, id string) []Processor {
	t.Helper()
	s, err := NewSelector(cfg)
	require.NoError(t, err)
	procs, err := s.Select(page.New(id, nil, ""))
	require.NoError(t, err)
	return procs
}

func run(t *testing.T, procs []Processor, body string) string {
	t.Helper()
	out, err := Apply(body, page.New("x", nil, body), procs)
	require.NoError(t, err)
	return out
}

func TestSelect_DefaultMarkdown(t *testing.T) {
	assert.Len(t, selectFor(t, nil, "posts/01-first.md"), 1)
	assert.Len(t, selectFor(t, nil, "posts/01-first.MD"), 1)
	assert.Empty(t, selectFor(t, nil, "index.html"))
}

func TestSelect_Disabled(t *testing.T) {
	assert.Empty(t, selectFor(t, false, "a.md"))
}

func TestSelect_SingleProcessor(t *testing.T) {
	procs := selectFor(t, Processor(upper), "a.html")
	assert.Equal(t, "HI", run(t, procs, "hi"))

	procs = selectFor(t, upper, "a.html")
	assert.Equal(t, "HI", run(t, procs, "hi"))
}

func TestSelect_Sequence(t *testing.T) {
	procs := selectFor(t, []Processor{upper, suffix("!")}, "a.html")
	assert.Equal(t, "HI!", run(t, procs, "hi"))
}

func TestSelect_RulesApplyAllMatchesInOrder(t *testing.T) {
	rules := Rules{
		{Pattern: "*.md", Processors: []Processor{suffix("-md")}},
		{Pattern: "posts/**", Processors: []Processor{suffix("-post")}},
		{Pattern: "*", Processors: []Processor{suffix("-any")}},
	}

	assert.Equal(t, "x-md-post-any", run(t, selectFor(t, rules, "posts/a.md"), "x"))
	assert.Equal(t, "x-post-any", run(t, selectFor(t, rules, "posts/a.html"), "x"))
	assert.Equal(t, "x-any", run(t, selectFor(t, rules, "a.txt"), "x"))
}

func TestSelect_Map(t *testing.T) {
	cfg := map[string]Processor{"*.html": suffix("-html")}

	assert.Equal(t, "x-html", run(t, selectFor(t, cfg, "sub/a.HTML"), "x"))
	assert.Empty(t, selectFor(t, cfg, "a.md"))
}

func TestSelect_Factory(t *testing.T) {
	factory := Factory(func(p page.Page) any {
		if p.String("raw") == "yes" {
			return false
		}
		return []Processor{upper}
	})

	s, err := NewSelector(factory)
	require.NoError(t, err)

	procs, err := s.Select(page.New("a.md", map[string]any{"raw": "yes"}, ""))
	require.NoError(t, err)
	assert.Empty(t, procs)

	procs, err = s.Select(page.New("a.md", nil, ""))
	require.NoError(t, err)
	assert.Len(t, procs, 1)
}

func TestSelect_FactoryReturningNilMeansNone(t *testing.T) {
	s, err := NewSelector(func(page.Page) any { return nil })
	require.NoError(t, err)

	procs, err := s.Select(page.New("a.md", nil, ""))
	require.NoError(t, err)
	assert.Empty(t, procs)
}

func TestSelect_UnsupportedShape(t *testing.T) {
	_, err := NewSelector(42)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = NewSelector(true)
	require.Error(t, err)

	s, err := NewSelector(func(page.Page) any { return "markdown" })
	require.NoError(t, err)
	_, err = s.Select(page.New("a.md", nil, ""))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("*.md", "deep/nested/a.md"))
	assert.True(t, Match("posts/*.md", "posts/a.md"))
	assert.False(t, Match("posts/*.md", "other/a.md"))
	assert.True(t, Match("**/*.MD", "x/y/a.md"))
}

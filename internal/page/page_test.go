package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DerivesNameAndContext(t *testing.T) {
	tests := []struct {
		id      string
		name    string
		context string
	}{
		{"posts/01-first.md", "posts/01-first", "posts/01-first"},
		{"index.html", "index", ""},
		{"sub/index.md", "sub/index", "sub"},
		{"sub/nested.html", "sub/nested", "sub/nested"},
		{"reindex.html", "reindex", "reindex"},
		{"sub/reindex.html", "sub/reindex", "sub/reindex"},
		{"noext", "noext", "noext"},
		{"a.b/c", "a.b/c", "a.b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p := New(tt.id, nil, "")
			assert.Equal(t, tt.id, p.ID())
			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.context, p.Context())
		})
	}
}

func TestNew_MergesAttributes(t *testing.T) {
	p := New("posts/01-first.md", map[string]any{
		"title":  "first",
		"tags":   []any{"a", "b", "c"},
		"layout": "post",
		"id":     "spoofed",
	}, "Hello blog!")

	assert.Equal(t, "posts/01-first.md", p.ID())
	assert.Equal(t, "Hello blog!", p.Body())
	assert.Equal(t, "post", p.Layout())
	assert.Equal(t, "first", p.String("title"))

	tags, ok := p.Get("tags")
	assert.True(t, ok)
	assert.Equal(t, []any{"a", "b", "c"}, tags)
}

func TestWith_LeavesOriginalUntouched(t *testing.T) {
	p := New("include.html", map[string]any{"layout": "a"}, "FOO")
	q := p.With(KeyLayout, "b")

	assert.Equal(t, "a", p.Layout())
	assert.Equal(t, "b", q.Layout())
	assert.Equal(t, p.ID(), q.ID())
}

func TestString_NonString(t *testing.T) {
	p := New("a.md", map[string]any{"draft": true}, "")
	assert.Empty(t, p.String("draft"))
	assert.Empty(t, p.String("missing"))
}

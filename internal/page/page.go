// Package page defines the content unit the generation pipeline works on.
package page

import (
	"maps"
	"path"
	"strings"
)

// Reserved field names. Front matter may add any other key.
const (
	KeyID      = "id"
	KeyName    = "name"
	KeyContext = "context"
	KeyBody    = "body"
	KeyLayout  = "layout"
)

// Page is one content unit: id, derived name and context, raw body, plus the
// front matter attributes as additional fields.
//
// Page is a map so that templates reach every field by its authored name
// (`item.title`). Treat it as immutable once constructed; use With to derive
// a modified copy.
type Page map[string]any

// New constructs a Page for id. The reserved fields always win over
// attributes of the same name.
func New(id string, attrs map[string]any, body string) Page {
	p := make(Page, len(attrs)+4)
	maps.Copy(p, attrs)
	p[KeyID] = id
	p[KeyName] = NameOf(id)
	p[KeyContext] = ContextOf(id)
	p[KeyBody] = body
	return p
}

// NameOf strips the final extension from id.
func NameOf(id string) string {
	return strings.TrimSuffix(id, path.Ext(id))
}

// ContextOf strips the extension and a trailing `index` segment from id.
//
//	index.html       -> ""
//	sub/index.md     -> "sub"
//	sub/nested.html  -> "sub/nested"
func ContextOf(id string) string {
	name := NameOf(id)
	if name == "index" {
		return ""
	}
	return strings.TrimSuffix(name, "/index")
}

func (p Page) ID() string      { return p.String(KeyID) }
func (p Page) Name() string    { return p.String(KeyName) }
func (p Page) Context() string { return p.String(KeyContext) }
func (p Page) Body() string    { return p.String(KeyBody) }
func (p Page) Layout() string  { return p.String(KeyLayout) }

// Get returns the raw field value.
func (p Page) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// String returns the field as a string, or "" when absent or not a string.
func (p Page) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// With returns a copy of p with key set to value.
func (p Page) With(key string, value any) Page {
	c := p.Clone()
	c[key] = value
	return c
}

// Clone returns a shallow copy of p.
func (p Page) Clone() Page {
	return maps.Clone(p)
}

// Fields returns a shallow copy of all fields as a plain map.
func (p Page) Fields() map[string]any {
	return map[string]any(maps.Clone(p))
}

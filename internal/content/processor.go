// Package content selects and applies the content processors that turn a
// page's rendered body into its final form (for example markdown to HTML).
package content

import (
	"bytes"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
)

// Processor transforms the rendered body of p.
type Processor func(body string, p page.Page) (string, error)

// Apply runs procs left to right.
func Apply(body string, p page.Page, procs []Processor) (string, error) {
	var err error
	for _, proc := range procs {
		if body, err = proc(body, p); err != nil {
			return "", err
		}
	}
	return body, nil
}

// Markdown converts GitHub flavoured markdown to HTML. Raw HTML passes
// through and headings get generated ids.
func Markdown() Processor {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return func(body string, _ page.Page) (string, error) {
		var buf bytes.Buffer
		if err := md.Convert([]byte(body), &buf); err != nil {
			return "", errors.WrapError(err, errors.CategoryTemplate, "markdown conversion failed").Build()
		}
		return buf.String(), nil
	}
}

// Sanitize strips markup a user generated content policy does not allow.
func Sanitize() Processor {
	policy := bluemonday.UGCPolicy()
	return func(body string, _ page.Page) (string, error) {
		return policy.Sanitize(body), nil
	}
}

// Identity returns the body unchanged.
func Identity() Processor {
	return func(body string, _ page.Page) (string, error) {
		return body, nil
	}
}

var builtins = map[string]func() Processor{
	"markdown": Markdown,
	"sanitize": Sanitize,
	"identity": Identity,
}

// Lookup returns a fresh instance of the named built-in processor.
func Lookup(name string) (Processor, error) {
	ctor, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, errors.ConfigError("unknown content processor").
			WithContext("processor", name).
			WithContext("known", strings.Join(Names(), ", ")).
			Build()
	}
	return ctor(), nil
}

// Names lists the built-in processors.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

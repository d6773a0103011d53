// Package render turns a page plus locals into output HTML: it expands the
// page body and locals as templates, runs content processors on the body, and
// optionally wraps the result in the page's layout.
package render

import (
	"log/slog"
	"maps"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

// Engine renders template source against locals. Template references
// (extends, include, import) resolve against the engine's template root.
type Engine interface {
	RenderString(src string, locals map[string]any) (string, error)
}

// Pongo is the Django/Jinja style engine backed by pongo2.
type Pongo struct {
	logger *slog.Logger

	// parseMu serializes parsing; TemplateSet is only safe for concurrent
	// cache lookups. Execution runs unlocked.
	parseMu sync.Mutex
	set     *pongo2.TemplateSet
}

var setupOnce sync.Once

var identRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// NewPongo creates an engine rooted at templatesDir. A missing directory is
// not an error; references then resolve against the working directory.
func NewPongo(templatesDir string, logger *slog.Logger) (*Pongo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	setupOnce.Do(func() { setupPongo(logger) })

	base := templatesDir
	if info, err := os.Stat(templatesDir); err != nil || !info.IsDir() {
		logger.Debug("Templates directory not found", slog.String("path", templatesDir))
		base = ""
	}

	loader, err := pongo2.NewLocalFileSystemLoader(base)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid templates directory").
			WithContext("path", templatesDir).
			Build()
	}

	return &Pongo{
		set:    pongo2.NewSet("kartoffeldruck", loader),
		logger: logger,
	}, nil
}

// RenderString parses and executes src. Locals whose keys are not valid
// template identifiers are dropped.
func (e *Pongo) RenderString(src string, locals map[string]any) (string, error) {
	e.parseMu.Lock()
	tpl, err := e.set.FromString(src)
	e.parseMu.Unlock()
	if err != nil {
		return "", err
	}

	ctx := make(pongo2.Context, len(locals))
	for k, v := range locals {
		if !identRe.MatchString(k) {
			e.logger.Debug("Dropping local with invalid identifier", slog.String("key", k))
			continue
		}
		ctx[k] = v
	}

	return tpl.Execute(ctx)
}

func setupPongo(logger *slog.Logger) {
	// Processed bodies are already HTML.
	pongo2.SetAutoescape(false)

	registerFilters(logger, map[string]pongo2.FilterFunction{
		"slug":      filterSlug,
		"titlecase": filterTitlecase,
	})
}

// registerFilters adds filters to pongo2's global registry. Names that are
// already taken keep their existing filter.
func registerFilters(logger *slog.Logger, filters map[string]pongo2.FilterFunction) {
	for name, fn := range filters {
		if err := pongo2.RegisterFilter(name, fn); err != nil {
			logger.Debug("Failed to register template filter", slog.String("filter", name), slog.Any("error", err))
		}
	}
}

var slugStrip = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug lowercases s, strips diacritics and joins alphanumeric runs with '-'.
func Slug(s string) string {
	folded, _, err := transform.String(slugStrip, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func filterSlug(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(Slug(in.String())), nil
}

func filterTitlecase(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(cases.Title(language.Und).String(in.String())), nil
}

func mergeLocals(layers ...map[string]any) map[string]any {
	n := 0
	for _, l := range layers {
		n += len(l)
	}
	merged := make(map[string]any, n)
	for _, l := range layers {
		maps.Copy(merged, l)
	}
	return merged
}

package content

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
)

// Rule binds the processors for pages whose id matches Pattern.
type Rule struct {
	Pattern    string
	Processors []Processor
}

// Rules is an ordered pattern to processor mapping. Every matching rule
// contributes its processors, in rule order.
type Rules []Rule

// Factory computes the configuration for one page. It may return any shape
// Select accepts except another Factory.
type Factory func(p page.Page) any

// DefaultRules renders `*.md` pages as markdown.
func DefaultRules() Rules {
	return Rules{{Pattern: "*.md", Processors: []Processor{Markdown()}}}
}

// Selector resolves the processors for a page from a configuration value.
//
// Accepted shapes:
//
//	nil                       default rules
//	false                     no processing
//	Processor, []Processor    applied to every page
//	Rules                     every matching pattern, in order
//	map[string]Processor      matched in sorted key order
//	map[string][]Processor    matched in sorted key order
//	Factory                   evaluated per page, then any shape above
type Selector struct {
	cfg      any
	defaults Rules
}

// NewSelector validates cfg up front where its shape allows.
func NewSelector(cfg any) (*Selector, error) {
	s := &Selector{cfg: cfg, defaults: DefaultRules()}
	if _, isFactory := asFactory(cfg); isFactory {
		return s, nil
	}
	if _, err := s.resolve(cfg, nil, false); err != nil {
		return nil, err
	}
	return s, nil
}

// Select returns the processors for p, possibly empty.
func (s *Selector) Select(p page.Page) ([]Processor, error) {
	if factory, ok := asFactory(s.cfg); ok {
		return s.resolve(factory(p), p, true)
	}
	return s.resolve(s.cfg, p, false)
}

func (s *Selector) resolve(cfg any, p page.Page, fromFactory bool) ([]Processor, error) {
	switch c := cfg.(type) {
	case nil:
		if fromFactory {
			return nil, nil
		}
		return s.defaults.match(p), nil
	case bool:
		if !c {
			return nil, nil
		}
	case Processor:
		return []Processor{c}, nil
	case func(string, page.Page) (string, error):
		return []Processor{c}, nil
	case []Processor:
		return c, nil
	case Rules:
		return c.match(p), nil
	case []Rule:
		return Rules(c).match(p), nil
	case map[string]Processor:
		rules := make(Rules, 0, len(c))
		for _, pattern := range sortedKeys(c) {
			rules = append(rules, Rule{Pattern: pattern, Processors: []Processor{c[pattern]}})
		}
		return rules.match(p), nil
	case map[string][]Processor:
		rules := make(Rules, 0, len(c))
		for _, pattern := range sortedKeys(c) {
			rules = append(rules, Rule{Pattern: pattern, Processors: c[pattern]})
		}
		return rules.match(p), nil
	}

	return nil, errors.ConfigError("unsupported content processor configuration").
		WithContext("type", fmt.Sprintf("%T", cfg)).
		Build()
}

func (rs Rules) match(p page.Page) []Processor {
	if p == nil {
		return nil
	}
	id := p.ID()
	var procs []Processor
	for _, r := range rs {
		if Match(r.Pattern, id) {
			procs = append(procs, r.Processors...)
		}
	}
	return procs
}

// Match reports whether id matches pattern, ignoring case. Patterns without
// a slash match the base name.
func Match(pattern, id string) bool {
	target := id
	if !strings.Contains(pattern, "/") {
		target = path.Base(id)
	}
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(target))
	return err == nil && ok
}

func asFactory(cfg any) (Factory, bool) {
	switch f := cfg.(type) {
	case Factory:
		return f, true
	case func(page.Page) any:
		return f, true
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package runner

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/kartoffeldruck/internal/config"
	"git.home.luguber.info/inful/kartoffeldruck/internal/files"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/page"
	"git.home.luguber.info/inful/kartoffeldruck/internal/paginate"
)

// Collection is a resolved config.Collection.
type Collection struct {
	Pages  []page.Page
	Groups []Group
}

// Group is the set of pages sharing one value of the grouping field.
type Group struct {
	Field string
	Key   string
	Items []page.Page
}

// Locals exposes the group as `{<field>: key, items: [...]}`.
func (g Group) Locals() map[string]any {
	return map[string]any{g.Field: g.Key, paginate.ItemsKey: g.Items}
}

// Value is what a binding of the collection puts into locals: the pages,
// or for grouped collections a map from key to group locals.
func (c Collection) Value() any {
	if c.Groups == nil {
		return c.Pages
	}
	byKey := make(map[string]any, len(c.Groups))
	for _, g := range c.Groups {
		byKey[g.Key] = g.Locals()
	}
	return byKey
}

type collections struct {
	defs  map[string]config.Collection
	files *files.Resolver

	mu       sync.Mutex
	resolved map[string]Collection
}

func newCollections(defs map[string]config.Collection, r *files.Resolver) *collections {
	return &collections{defs: defs, files: r, resolved: make(map[string]Collection)}
}

func (cs *collections) get(ctx context.Context, name string) (Collection, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if c, ok := cs.resolved[name]; ok {
		return c, nil
	}
	def, ok := cs.defs[name]
	if !ok {
		return Collection{}, errors.ConfigError("unknown collection").
			WithContext("collection", name).
			Build()
	}

	c, err := ResolveCollection(ctx, cs.files, def)
	if err != nil {
		return Collection{}, err
	}
	cs.resolved[name] = c
	return c, nil
}

// ResolveCollection globs, filters, sorts and optionally groups pages.
func ResolveCollection(ctx context.Context, r *files.Resolver, def config.Collection) (Collection, error) {
	all, err := r.All(ctx, def.Source)
	if err != nil {
		return Collection{}, err
	}

	pages := make([]page.Page, 0, len(all))
	for _, p := range all {
		if matchesAll(p, def.Where) && !matchesAny(p, def.Exclude) {
			pages = append(pages, p)
		}
	}

	if def.SortBy != "" {
		sortPages(pages, def.SortBy)
	}

	c := Collection{Pages: pages}
	if def.Grouped() {
		c.Groups = groupPages(pages, def.GroupBy)
	}
	return c, nil
}

func matchesAll(p page.Page, want map[string]any) bool {
	for field, value := range want {
		if !fieldMatches(p[field], value) {
			return false
		}
	}
	return true
}

func matchesAny(p page.Page, want map[string]any) bool {
	for field, value := range want {
		if fieldMatches(p[field], value) {
			return true
		}
	}
	return false
}

func fieldMatches(have, want any) bool {
	if list, ok := have.([]any); ok {
		return slices.ContainsFunc(list, func(el any) bool { return equal(el, want) })
	}
	return equal(have, want)
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b) || fmt.Sprint(a) == fmt.Sprint(b)
}

func sortPages(pages []page.Page, sortBy string) {
	field, desc := strings.CutPrefix(sortBy, "-")
	slices.SortStableFunc(pages, func(a, b page.Page) int {
		va, vb := a[field], b[field]
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			return 1
		case vb == nil:
			return -1
		}
		c := compare(va, vb)
		if desc {
			return -c
		}
		return c
	})
}

func compare(a, b any) int {
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func groupPages(pages []page.Page, field string) []Group {
	var groups []Group
	index := map[string]int{}
	for _, p := range pages {
		for _, key := range groupKeys(p[field]) {
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, Group{Field: field, Key: key})
			}
			groups[i].Items = append(groups[i].Items, p)
		}
	}
	if groups == nil {
		groups = []Group{}
	}
	return groups
}

func groupKeys(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		keys := make([]string, 0, len(t))
		for _, el := range t {
			if el != nil {
				keys = append(keys, fmt.Sprint(el))
			}
		}
		return keys
	default:
		return []string{fmt.Sprint(t)}
	}
}

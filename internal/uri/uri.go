// Package uri expands `:token` placeholders in destination patterns.
package uri

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// PageToken is the token bound to the one-based page number while paginating.
const PageToken = "page"

// Unresolved is substituted for tokens neither source nor locals define.
const Unresolved = "undefined"

var tokenRe = regexp.MustCompile(`:(\w+)(/?)`)

// Expand replaces every `:key` (with an optional trailing slash) in pattern.
//
// Lookup order is the page number (when pageIndex is given and key is
// "page"), then locals, then source. A page value of 1 expands to the empty
// string and swallows the trailing slash so the first page lands at the
// pagination root. Patterns without a colon are returned unchanged.
func Expand(pattern string, source, locals map[string]any, pageIndex ...int) string {
	if !strings.Contains(pattern, ":") {
		return pattern
	}

	return tokenRe.ReplaceAllStringFunc(pattern, func(match string) string {
		sub := tokenRe.FindStringSubmatch(match)
		key, slash := sub[1], sub[2]

		value, ok := lookup(key, source, locals, pageIndex)
		if key == PageToken && ok && isOne(value) {
			return ""
		}
		if !ok || value == nil {
			return Unresolved + slash
		}
		return fmt.Sprint(value) + slash
	})
}

func lookup(key string, source, locals map[string]any, pageIndex []int) (any, bool) {
	if key == PageToken && len(pageIndex) > 0 {
		return pageIndex[0] + 1, true
	}
	if v, ok := locals[key]; ok {
		return v, true
	}
	v, ok := source[key]
	return v, ok
}

func isOne(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 1
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 1
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 1
	default:
		return false
	}
}

// Package paginate splits an item sequence into fixed-size pages and computes
// the navigation references between them.
package paginate

import (
	"fmt"
	"reflect"
	"regexp"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

// ItemsKey is the locals key holding the sequence to paginate.
const ItemsKey = "items"

var indexSuffixRe = regexp.MustCompile(`(^|/)index\.html$`)

// Chunk is one page worth of items.
type Chunk struct {
	Index int
	Items any
}

// Nav holds the navigation data exposed to templates as `page`.
type Nav struct {
	Idx         int
	TotalPages  int
	PreviousRef *string
	NextRef     *string
	FirstRef    string
	LastRef     string
}

// Locals renders nav as template data. Absent refs are nil.
func (n Nav) Locals() map[string]any {
	return map[string]any{
		"idx":         n.Idx,
		"totalPages":  n.TotalPages,
		"previousRef": deref(n.PreviousRef),
		"nextRef":     deref(n.NextRef),
		"firstRef":    n.FirstRef,
		"lastRef":     n.LastRef,
	}
}

// TotalPages is ceil(count/size), never less than one so an empty sequence
// still produces a page.
func TotalPages(count, size int) int {
	if size <= 0 {
		return 1
	}
	total := (count + size - 1) / size
	return max(total, 1)
}

// Split slices items into chunks of size. items must be a slice or array; the
// chunk slices keep its element type.
func Split(items any, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, errors.ConfigError("page size must be positive").
			WithContext("size", size).
			Build()
	}

	rv := reflect.ValueOf(items)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, errors.ConfigError("pagination requires locals.items to be a sequence").
			WithContext("items_type", fmt.Sprintf("%T", items)).
			Build()
	}

	n := rv.Len()
	total := TotalPages(n, size)
	chunks := make([]Chunk, 0, total)
	for idx := range total {
		lo := min(idx*size, n)
		hi := min(lo+size, n)
		chunks = append(chunks, Chunk{Index: idx, Items: rv.Slice(lo, hi).Interface()})
	}
	return chunks, nil
}

// Navigate builds the nav for page idx of total. ref expands the destination
// for a zero-based page index.
func Navigate(idx, total int, ref func(idx int) string) Nav {
	nav := Nav{
		Idx:        idx,
		TotalPages: total,
		FirstRef:   StripIndex(ref(0)),
		LastRef:    StripIndex(ref(total - 1)),
	}
	if idx > 0 {
		prev := StripIndex(ref(idx - 1))
		nav.PreviousRef = &prev
	}
	if idx < total-1 {
		next := StripIndex(ref(idx + 1))
		nav.NextRef = &next
	}
	return nav
}

// StripIndex removes a trailing `index.html` (and the slash before it) so
// refs point at directories.
func StripIndex(ref string) string {
	return indexSuffixRe.ReplaceAllString(ref, "")
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

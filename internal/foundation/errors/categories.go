package errors

import "maps"

// ErrorCategory routes an error to an exit code and decides how it is reported.
type ErrorCategory string

const (
	// CategoryConfig represents invalid configuration: bad content processor shapes,
	// pagination without items, unreadable site descriptors.
	CategoryConfig ErrorCategory = "config"
	// CategoryNotFound marks a single page id that did not resolve to a page.
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryTemplate covers template parse/execute failures and content marker collisions.
	CategoryTemplate ErrorCategory = "template"
	// CategorySourceType marks an unresolved string passed where a page was required.
	CategorySourceType ErrorCategory = "source_type"

	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ExitCode is the process status the CLI exits with.
func (c ErrorCategory) ExitCode() int {
	switch c {
	case CategorySourceType:
		return 2
	case CategoryNotFound:
		return 3
	case CategoryTemplate:
		return 4
	case CategoryConfig:
		return 7
	case CategoryInternal:
		return 10
	case CategoryFileSystem:
		return 11
	default:
		return 1
	}
}

// ErrorContext carries the page id, pattern, dest, path and similar details
// of a failure.
type ErrorContext map[string]any

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	str, ok := c[key].(string)
	return str, ok
}

// with returns a copy of c holding key.
func (c ErrorContext) with(key string, value any) ErrorContext {
	next := make(ErrorContext, len(c)+1)
	maps.Copy(next, c)
	next[key] = value
	return next
}

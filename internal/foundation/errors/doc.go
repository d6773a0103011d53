// Package errors provides the classified error primitives used by the generation pipeline.
//
// Every failure the pipeline raises on its own account carries a category:
//   - not_found: a single page id did not resolve
//   - config: invalid content processor configuration, pagination without items
//   - template: template failures, including content marker collisions
//   - source_type: an unresolved id was passed where a page was required
//   - filesystem: write sink failures
//
// Example usage:
//
//	err := errors.NotFoundError("file not found").
//		WithContext("id", id).
//		Build()
//
// Errors survive fmt.Errorf("...: %w") wrapping; use HasCategory or AsClassified
// to inspect them.
package errors

package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, message: message}}
}

// WrapError starts an error of the given category around err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

// WithContext records a context value.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

// Build returns the error. The builder may be reused.
func (b *ErrorBuilder) Build() *ClassifiedError {
	built := b.err
	return &built
}

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder { return NewError(CategoryConfig, message) }

// NotFoundError creates an error for a page id that does not resolve.
func NotFoundError(message string) *ErrorBuilder { return NewError(CategoryNotFound, message) }

// TemplateError creates a template error, including content marker collisions.
func TemplateError(message string) *ErrorBuilder { return NewError(CategoryTemplate, message) }

// SourceTypeError creates an error for a source of the wrong shape.
func SourceTypeError(message string) *ErrorBuilder { return NewError(CategorySourceType, message) }

// FileSystemError creates an error for source reads and output writes.
func FileSystemError(message string) *ErrorBuilder { return NewError(CategoryFileSystem, message) }

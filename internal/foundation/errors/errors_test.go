package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithContext("file", "kartoffeldruck.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, "invalid configuration", err.Message())

		file, exists := err.Context().GetString("file")
		require.True(t, exists)
		assert.Equal(t, "kartoffeldruck.yaml", file)
	})

	t.Run("Error string", func(t *testing.T) {
		err := NotFoundError("file not found: posts/x.md").Build()
		assert.Equal(t, "[not_found] file not found: posts/x.md", err.Error())

		wrapped := WrapError(errors.New("disk full"), CategoryFileSystem, "write failed").Build()
		assert.Equal(t, "[filesystem] write failed: disk full", wrapped.Error())
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := TemplateError("marker collision").WithContext("id", "index.html").Build()
		err := fmt.Errorf("generate index.html: %w", base)

		assert.True(t, HasCategory(err, CategoryTemplate))
		assert.False(t, HasCategory(err, CategoryConfig))
		assert.Equal(t, CategoryTemplate, GetCategory(err))

		classified, ok := AsClassified(err)
		require.True(t, ok)
		id, _ := classified.Context().GetString("id")
		assert.Equal(t, "index.html", id)
	})

	t.Run("Unclassified", func(t *testing.T) {
		err := errors.New("plain")
		_, ok := AsClassified(err)
		assert.False(t, ok)
		assert.False(t, HasCategory(err, CategoryInternal))
		assert.Equal(t, CategoryInternal, GetCategory(err))
	})

	t.Run("Is compares category and message", func(t *testing.T) {
		a := ConfigError("pagination requires locals.items").WithContext("id", "a").Build()
		b := ConfigError("pagination requires locals.items").Build()
		assert.True(t, errors.Is(a, b))
		assert.False(t, errors.Is(a, ConfigError("other").Build()))
		assert.False(t, errors.Is(a, TemplateError("pagination requires locals.items").Build()))
	})

	t.Run("Unwrap reaches cause", func(t *testing.T) {
		cause := errors.New("original error")
		err := WrapError(cause, CategoryFileSystem, "write").Build()
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, cause, err.Cause())
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
	}{
		{"ConfigError", ConfigError("test"), CategoryConfig},
		{"NotFoundError", NotFoundError("test"), CategoryNotFound},
		{"TemplateError", TemplateError("test"), CategoryTemplate},
		{"SourceTypeError", SourceTypeError("test"), CategorySourceType},
		{"FileSystemError", FileSystemError("test"), CategoryFileSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.builder.Build().Category())
		})
	}
}

func TestErrorContext(t *testing.T) {
	t.Run("Lookups", func(t *testing.T) {
		ctx := ErrorContext{"key1": "value1", "key2": 42}

		value1, ok := ctx.GetString("key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", value1)

		_, ok = ctx.GetString("key2")
		assert.False(t, ok)

		value2, ok := ctx.Get("key2")
		assert.True(t, ok)
		assert.Equal(t, 42, value2)

		_, ok = ErrorContext(nil).Get("missing")
		assert.False(t, ok)
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := NotFoundError("missing").Build()
		withID := base.WithContext("id", "a.md")

		_, ok := base.Context().Get("id")
		assert.False(t, ok)
		id, _ := withID.Context().GetString("id")
		assert.Equal(t, "a.md", id)
	})

	t.Run("Builds do not share context", func(t *testing.T) {
		b := ConfigError("bad").WithContext("job", "posts")
		first := b.Build()
		second := b.WithContext("path", "site.yaml").Build()

		_, ok := first.Context().Get("path")
		assert.False(t, ok)
		path, _ := second.Context().GetString("path")
		assert.Equal(t, "site.yaml", path)
	})
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 2, CategorySourceType.ExitCode())
	assert.Equal(t, 7, CategoryConfig.ExitCode())
	assert.Equal(t, 1, ErrorCategory("other").ExitCode())
}

func TestChainContext(t *testing.T) {
	inner := TemplateError("collision").WithContext("id", "a.md").WithContext("path", "inner").Build()
	mid := fmt.Errorf("render: %w", inner)
	outer := WrapError(mid, CategoryTemplate, "failed").WithContext("path", "outer").Build()

	ctx := ChainContext(outer)
	id, _ := ctx.GetString("id")
	path, _ := ctx.GetString("path")
	assert.Equal(t, "a.md", id)
	assert.Equal(t, "outer", path)

	assert.Empty(t, ChainContext(errors.New("plain")))
	assert.Empty(t, ChainContext(nil))
}

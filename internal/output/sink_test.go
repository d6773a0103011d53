package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

func TestDir_WriteCreatesParents(t *testing.T) {
	root := t.TempDir()
	sink := NewDir(root)

	full, err := sink.Write("posts/01-first/index.html", []byte("<p>hi</p>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "posts", "01-first", "index.html"), full)

	// #nosec G304 -- test reads its own output.
	got, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(got))

	info, err := os.Stat(full)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestDir_WriteOverwrites(t *testing.T) {
	sink := NewDir(t.TempDir())

	_, err := sink.Write("index.html", []byte("one"))
	require.NoError(t, err)
	full, err := sink.Write("index.html", []byte("two"))
	require.NoError(t, err)

	// #nosec G304 -- test reads its own output.
	got, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestDir_LeadingSlashIsRootRelative(t *testing.T) {
	root := t.TempDir()
	full, err := NewDir(root).Write("/index.html", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "index.html"), full)
}

func TestDir_RejectsEscapes(t *testing.T) {
	sink := NewDir(t.TempDir())

	for _, dest := range []string{"../outside.html", "a/../../outside.html", "", "/"} {
		_, err := sink.Write(dest, []byte("x"))
		require.Error(t, err, dest)
		assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem), dest)
	}
}

func TestDir_RequiresRoot(t *testing.T) {
	_, err := NewDir("").Write("a.html", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	_, err := m.Write("/b.html", []byte("B"))
	require.NoError(t, err)
	_, err = m.Write("a/index.html", []byte("A"))
	require.NoError(t, err)

	got, ok := m.Get("b.html")
	require.True(t, ok)
	assert.Equal(t, "B", string(got))
	assert.Equal(t, []string{"a/index.html", "b.html"}, m.Paths())
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "css"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "css", "site.css"), []byte("body{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "logo.svg"), []byte("<svg/>"), 0o600))

	n, err := CopyTree(src, filepath.Join(dst, "assets"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// #nosec G304 -- test reads its own output.
	got, err := os.ReadFile(filepath.Join(dst, "assets", "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(got))
}

func TestCopyTree_MissingSource(t *testing.T) {
	n, err := CopyTree(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, n)
}

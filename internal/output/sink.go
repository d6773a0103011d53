// Package output persists rendered pages below the destination root.
//
// Writes go through a temporary file and rename so a reader never sees a
// half-written page. Partial output of a failed run is left in place.
package output

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Sink is where rendered pages go.
type Sink interface {
	// Write stores contents at dest, relative to the sink root, creating
	// parent directories as needed.
	Write(dest string, contents []byte) (string, error)
}

// Dir writes below a directory on disk.
type Dir struct {
	root string
}

// NewDir creates a sink rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the destination root.
func (d *Dir) Root() string { return d.root }

// Resolve maps dest to an absolute path below the root.
//
// The function ensures:
//   - A leading slash is ignored (`/index.html` is `index.html`)
//   - The path does not escape the root
func (d *Dir) Resolve(dest string) (string, error) {
	if d.root == "" {
		return "", errors.ConfigError("destination directory is required").Build()
	}

	cleanRel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(dest, "/")))
	if cleanRel == "." || filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "..") {
		return "", errors.FileSystemError("output path must be relative to destination").
			WithContext("dest", dest).
			Build()
	}

	fullPath := filepath.Join(d.root, cleanRel)
	rel, err := filepath.Rel(d.root, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.FileSystemError("output path escapes destination").
			WithContext("dest", dest).
			Build()
	}
	return fullPath, nil
}

// EnsureDir creates the parent directory of path.
func (d *Dir) EnsureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	return nil
}

// Write implements Sink and returns the full path written.
func (d *Dir) Write(dest string, contents []byte) (string, error) {
	fullPath, err := d.Resolve(dest)
	if err != nil {
		return "", err
	}
	if err := d.EnsureDir(fullPath); err != nil {
		return "", err
	}

	if err := atomic.WriteFile(fullPath, bytes.NewReader(contents)); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "write output file").
			WithContext("path", fullPath).
			Build()
	}
	// #nosec G302 -- generated site content is meant to be world readable.
	if err := os.Chmod(fullPath, filePerm); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "set output file mode").
			WithContext("path", fullPath).
			Build()
	}
	return fullPath, nil
}

// Memory keeps written pages in memory. Used for dry runs and tests.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Write implements Sink.
func (m *Memory) Write(dest string, contents []byte) (string, error) {
	key := strings.TrimLeft(dest, "/")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = bytes.Clone(contents)
	return key, nil
}

// Get returns the contents written to dest.
func (m *Memory) Get(dest string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[strings.TrimLeft(dest, "/")]
	return b, ok
}

// Paths lists every written destination, sorted.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

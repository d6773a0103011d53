package output

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

// CopyTree copies every regular file below src to dst, keeping the relative
// layout, and returns the number of files copied. A missing src copies
// nothing.
func CopyTree(src, dst string) (int, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return 0, nil
	}

	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
			return err
		}

		// #nosec G304 -- path comes from walking src.
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()

		if err := atomic.WriteFile(target, in); err != nil {
			return err
		}
		copied++
		return os.Chmod(target, filePerm)
	})
	if err != nil {
		return copied, errors.WrapError(err, errors.CategoryFileSystem, "copy assets").
			WithContext("path", src).
			Build()
	}
	return copied, nil
}

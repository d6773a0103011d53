package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

// envFiles are tried in order; earlier files win since existing variables are
// never overwritten.
var envFiles = []string{".env.local", ".env"}

// LoadEnv loads .env.local and .env from dir into the process environment
// without overriding variables already set. It returns the files it loaded.
func LoadEnv(dir string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, errors.WrapError(err, errors.CategoryConfig, "failed to load env file").
				WithContext("path", path).
				Build()
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

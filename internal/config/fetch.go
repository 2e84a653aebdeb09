package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// isRemote reports whether src names a go-getter source rather than a local
// file: a URL scheme or a forced getter such as "git::" or "s3::".
func isRemote(src string) bool {
	return strings.Contains(src, "://") || strings.Contains(src, "::")
}

// fetchConfig downloads a remote config file into a temporary directory and
// returns the local path. The caller removes the directory.
func fetchConfig(src string) (path string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "fractal-terrain-config-")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { os.RemoveAll(dir) }

	path = filepath.Join(dir, "config.yaml")
	if err := getter.GetFile(path, src); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("fetching %s: %w", src, err)
	}
	return path, cleanup, nil
}

package basedir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FindConfigFile returns the path of the first existing file with the given suffix in
// $XDG_CONFIG_HOME, then $XDG_CONFIG_DIRS.
// If none exists, an empty path and a nil error are returned.
// Example for suffix: deskexec/config.yaml.
func FindConfigFile(suffix string) (string, error) {
	dirs := append([]string{ConfigHome}, ConfigDirs...)

	for _, dir := range dirs {
		path := filepath.Join(dir, suffix)
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return path, nil
		case errors.Is(err, os.ErrNotExist):
		default:
			return "", fmt.Errorf("FindConfigFile: failed to stat %s: %w", path, err)
		}
	}

	return "", nil
}

// Package basedir resolves the directories of the [XDG Base Directory Specification] that are
// needed to find desktop entries and configuration.
//
// [XDG Base Directory Specification]: https://specifications.freedesktop.org/basedir-spec/0.8/
package basedir

import (
	"os"
	"path/filepath"
	"strings"
)

var (
	// Home is the user's home directory, taken from $HOME.
	Home string

	// ConfigHome is where user specific configuration is read from, $XDG_CONFIG_HOME.
	ConfigHome string

	// ConfigDirs are the preference ordered system configuration directories, $XDG_CONFIG_DIRS.
	ConfigDirs []string

	// DataHome is the user specific data directory, $XDG_DATA_HOME.
	// User installed desktop entries live in its applications subdirectory.
	DataHome string

	// DataDirs are the preference ordered system data directories, $XDG_DATA_DIRS.
	DataDirs []string
)

func init() {
	Reinit()
}

// Reinit reads the environment again. Call it after changing HOME or any of the XDG variables.
func Reinit() {
	Home = os.Getenv("HOME")
	if Home == "" {
		// Outside a POSIX login environment, fall back to the passwd entry.
		Home, _ = os.UserHomeDir()
	}

	ConfigHome = singleVar("XDG_CONFIG_HOME", filepath.Join(Home, ".config"))
	ConfigDirs = listVar("XDG_CONFIG_DIRS", []string{"/etc/xdg"})
	DataHome = singleVar("XDG_DATA_HOME", filepath.Join(Home, ".local/share"))
	DataDirs = listVar("XDG_DATA_DIRS", []string{"/usr/local/share/", "/usr/share/"})
}

// singleVar returns the value of envName, or fallback when it is unset or relative.
// Relative paths are invalid according to the specification and must be ignored.
func singleVar(envName string, fallback string) string {
	value := os.Getenv(envName)
	if value == "" || !filepath.IsAbs(value) {
		return fallback
	}

	return value
}

// listVar splits the colon separated envName and drops relative entries.
func listVar(envName string, fallback []string) []string {
	var result []string
	for _, dir := range strings.Split(os.Getenv(envName), ":") {
		if dir != "" && filepath.IsAbs(dir) {
			result = append(result, dir)
		}
	}

	if len(result) == 0 {
		return fallback
	}

	return result
}

package desktop

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleb2000/DesktopFileEditor/basedir"
)

// GetDesktopFileLocations returns the applications directories in which desktop files are
// searched, highest priority first: $XDG_DATA_HOME/applications, then every
// $XDG_DATA_DIRS/applications.
func GetDesktopFileLocations() []string {
	locations := make([]string, 0, 1+len(basedir.DataDirs))
	locations = append(locations, filepath.Join(basedir.DataHome, "applications"))

	for _, dir := range basedir.DataDirs {
		locations = append(locations, filepath.Join(dir, "applications"))
	}

	return locations
}

// IdPathMap maps a [Desktop ID], such as libreoffice-writer.desktop, to the paths of the files
// with that ID, highest precedence first.
//
// [Desktop ID]: https://specifications.freedesktop.org/desktop-entry-spec/1.5/file-naming.html#desktop-file-id
type IdPathMap map[string][]string

// GetDesktopFiles walks the given locations and returns every desktop file found, by desktop ID.
// Files without the .desktop extension are included when their content looks like a desktop
// file. Locations that do not exist are skipped.
func GetDesktopFiles(locations []string) (IdPathMap, error) {
	result := make(IdPathMap)

	for _, dir := range locations {
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if entry.IsDir() || !isDesktopFilePath(path) {
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}

			id := strings.ReplaceAll(rel, string(filepath.Separator), "-")
			result[id] = append(result[id], path)

			return nil
		})

		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return result, fmt.Errorf("GetDesktopFiles: failed to walk dir %s: %w", dir, err)
		}
	}

	return result, nil
}

func isDesktopFilePath(path string) bool {
	switch filepath.Ext(path) {
	case ".desktop":
		return true
	case ".directory":
		return false
	}

	isDesktopFile, err := MagicIsDesktopFilePath(path)
	return isDesktopFile && err == nil
}

// LoadById returns the first of the paths registered for desktopId that parses, and its path.
// Files that fail to parse are logged and skipped. If none parses, the path is empty.
func (m IdPathMap) LoadById(desktopId string) (*Entry, string) {
	for _, path := range m[desktopId] {
		entry, err := LoadFile(path)
		if err != nil {
			log.Printf("Failed to load desktop ID %s: %v. Skipping\n", desktopId, err)
			continue
		}

		return entry, path
	}

	return nil, ""
}

// LoadFile opens and parses the desktop file at path.
func LoadFile(path string) (*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: failed to open desktop file '%s': %w", path, err)
	}
	defer file.Close()

	entry, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: failed to parse desktop file '%s': %w", path, err)
	}

	return entry, nil
}

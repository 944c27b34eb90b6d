// Package steam finds out whether a Steam game is installed, so that desktop entries created by
// Steam (Exec=steam steam://rungameid/<id>) can be validated.
package steam

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aleb2000/DesktopFileEditor/basedir"
)

const libraryFoldersFile = "libraryfolders.vdf"

var ErrLibraryUnreadable = errors.New("steam library folders could not be read")

// Folder is a Steam library folder, a directory containing a steamapps directory.
type Folder struct {
	Path  string
	Label string

	// Apps maps the IDs of the apps in this folder to their size on disk.
	Apps map[uint64]uint64
}

// Library caches the library folders listed in libraryfolders.vdf.
// The cache is filled on first use and only read again by Refresh.
// A Library is safe for concurrent use.
type Library struct {
	root string

	mu      sync.RWMutex
	loaded  bool
	folders []Folder
}

// DefaultRoot returns the steamapps directory of a standard Steam installation.
func DefaultRoot() string {
	return filepath.Join(basedir.Home, ".steam", "steam", "steamapps")
}

// NewLibrary returns a Library reading root/libraryfolders.vdf.
// If root is empty, DefaultRoot is used.
func NewLibrary(root string) *Library {
	if root == "" {
		root = DefaultRoot()
	}

	return &Library{root: root}
}

// Refresh reads libraryfolders.vdf again.
// On failure the cache is emptied and an error wrapping ErrLibraryUnreadable is returned.
func (l *Library) Refresh() error {
	folders, err := readLibraryFolders(filepath.Join(l.root, libraryFoldersFile))

	l.mu.Lock()
	defer l.mu.Unlock()

	l.loaded = true
	l.folders = folders

	return err
}

// Folders returns the cached library folders.
func (l *Library) Folders() []Folder {
	l.ensureLoaded()

	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.folders
}

// AppsPath returns the steamapps directory of the library folder containing appID.
func (l *Library) AppsPath(appID uint64) (string, bool) {
	for _, folder := range l.Folders() {
		if _, ok := folder.Apps[appID]; ok {
			return filepath.Join(folder.Path, "steamapps"), true
		}
	}

	return "", false
}

// IsAppInstalled returns true if appID is listed in a library folder and its app manifest
// exists.
func (l *Library) IsAppInstalled(appID uint64) bool {
	appsPath, ok := l.AppsPath(appID)
	if !ok {
		return false
	}

	manifest := filepath.Join(appsPath, fmt.Sprintf("appmanifest_%d.acf", appID))
	_, err := os.Stat(manifest)

	return err == nil
}

func (l *Library) ensureLoaded() {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()

	if loaded {
		return
	}

	if err := l.Refresh(); err != nil {
		log.Printf("Failed to load steam library: %v\n", err)
	}
}

func readLibraryFolders(path string) ([]Folder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLibraryUnreadable, err)
	}
	defer file.Close()

	root, err := ParseVDF(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLibraryUnreadable, path, err)
	}

	return libraryFolders(root), nil
}

// libraryFolders converts the libraryfolders block. Entries that are not blocks, such as the
// contentstatsid of newer files, are skipped.
func libraryFolders(root *KeyValues) []Folder {
	var result []Folder

	block := root.Child("libraryfolders")
	if block == nil {
		return nil
	}

	for _, node := range block.Children {
		path := node.Child("path")
		if path == nil {
			continue
		}

		folder := Folder{
			Path: path.Value,
			Apps: make(map[uint64]uint64),
		}

		if label := node.Child("label"); label != nil {
			folder.Label = label.Value
		}

		if apps := node.Child("apps"); apps != nil {
			for _, app := range apps.Children {
				id, err := strconv.ParseUint(app.Key, 10, 64)
				if err != nil {
					log.Printf("Ignoring steam app with invalid ID %q in %s\n", app.Key, folder.Path)
					continue
				}

				size, _ := strconv.ParseUint(app.Value, 10, 64)
				folder.Apps[id] = size
			}
		}

		result = append(result, folder)
	}

	return result
}

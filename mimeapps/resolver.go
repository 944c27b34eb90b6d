package mimeapps

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/aleb2000/DesktopFileEditor/desktop"
)

// Resolver answers which applications open a MIME type.
// The mimeapps.list files are read once by NewResolver, desktop files are read when first needed.
// A Resolver is not safe for concurrent use.
type Resolver struct {
	lists        []List
	files        []*File
	desktopFiles desktop.IdPathMap

	// lowest maps a desktop ID to the index of the lowest precedence list whose directory holds
	// a copy of it. An addition or removal in a list below that index is ignored.
	lowest map[string]int

	// byDir maps an applications directory to the sorted desktop IDs found in it.
	byDir map[string][]string

	mimeTypes map[string][]string
}

// NewResolver reads lists, which must be ordered highest precedence first as returned by
// Lists. desktopFiles is the result of [desktop.GetDesktopFiles].
// Lists that do not exist are treated as empty, unreadable lists are logged and skipped.
func NewResolver(lists []List, desktopFiles desktop.IdPathMap) *Resolver {
	r := &Resolver{
		lists:        lists,
		files:        make([]*File, len(lists)),
		desktopFiles: desktopFiles,
		lowest:       make(map[string]int),
		byDir:        make(map[string][]string),
		mimeTypes:    make(map[string][]string),
	}

	for i, list := range lists {
		parsed, err := ParseFile(list.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			log.Printf("Failed to parse mimeapps file %s: %v. Skipping\n", list.Path, err)
		default:
			r.files[i] = parsed
		}
	}

	for id, paths := range desktopFiles {
		r.lowest[id] = -1

		for i, list := range lists {
			dir := filepath.Dir(list.Path)
			for _, path := range paths {
				if isSubPathAbs(path, dir) {
					r.lowest[id] = i
				}
			}
		}

		for _, list := range lists {
			if !list.NextToApplications || list.IsDesktopSpecific() {
				continue
			}

			dir := filepath.Dir(list.Path)
			for _, path := range paths {
				if isSubPathAbs(path, dir) {
					r.byDir[dir] = append(r.byDir[dir], id)
					break
				}
			}
		}
	}

	for _, ids := range r.byDir {
		sort.Strings(ids)
	}

	return r
}

// Associations returns the desktop IDs associated with mime, highest precedence first.
//
// The lists are walked in order. Added and Removed Associations of a list apply to the lists
// below it. For lists in an applications directory, the desktop files of that directory that
// list mime in their MimeType key are added, unless a higher precedence copy of the same desktop
// ID was already considered.
func (r *Resolver) Associations(mime string) []string {
	var result []string
	added := make(map[string]bool)
	removed := make(map[string]bool)
	considered := make(map[string]bool)

	for i, list := range r.lists {
		if list.IsDesktopSpecific() {
			continue
		}

		if file := r.files[i]; file != nil {
			for _, id := range file.Added[mime] {
				if !removed[id] && r.reachable(id, i) {
					result = appendUnique(result, added, id)
				}
			}

			for _, id := range file.Removed[mime] {
				if !added[id] && r.reachable(id, i) {
					removed[id] = true
				}
			}
		}

		if !list.NextToApplications {
			continue
		}

		dir := filepath.Dir(list.Path)
		for _, id := range r.byDir[dir] {
			if considered[id] {
				continue
			}
			considered[id] = true

			if !removed[id] && slices.Contains(r.mimeTypesOf(id, dir), mime) {
				result = appendUnique(result, added, id)
			}
		}
	}

	return result
}

// Defaults returns the desktop IDs set as default application for mime, highest precedence
// first. Defaults that are not associated with mime are logged and skipped.
func (r *Resolver) Defaults(mime string) []string {
	return r.defaults(mime, r.Associations(mime))
}

func (r *Resolver) defaults(mime string, associations []string) []string {
	var result []string
	seen := make(map[string]bool)

	for i, file := range r.files {
		if file == nil {
			continue
		}

		for _, id := range file.Defaults[mime] {
			if seen[id] {
				continue
			}

			if !slices.Contains(associations, id) {
				if _, installed := r.desktopFiles[id]; installed {
					log.Printf(
						"Mimeapps file %s sets %s as default application for %s but it is not associated with it. Skipping\n",
						r.lists[i].Path,
						id,
						mime,
					)
				}
				continue
			}

			result = appendUnique(result, seen, id)
		}
	}

	return result
}

// Preferred returns the defaults of mime followed by its other associations.
func (r *Resolver) Preferred(mime string) []string {
	associations := r.Associations(mime)
	defaults := r.defaults(mime, associations)

	seen := make(map[string]bool, len(associations))
	result := appendUnique(nil, seen, defaults...)

	return appendUnique(result, seen, associations...)
}

// reachable reports whether a copy of id exists next to the list at index i or a lower one.
func (r *Resolver) reachable(id string, i int) bool {
	lowest, ok := r.lowest[id]
	return ok && lowest >= i
}

// mimeTypesOf returns the MimeType key of the copy of id in dir.
func (r *Resolver) mimeTypesOf(id string, dir string) []string {
	for _, path := range r.desktopFiles[id] {
		if !isSubPathAbs(path, dir) {
			continue
		}

		if mimeTypes, ok := r.mimeTypes[path]; ok {
			return mimeTypes
		}

		entry, err := desktop.LoadFile(path)
		if err != nil {
			log.Printf("Failed to load desktop file %s: %v. Skipping\n", path, err)
			r.mimeTypes[path] = nil
			return nil
		}

		r.mimeTypes[path] = entry.MimeType
		return entry.MimeType
	}

	return nil
}

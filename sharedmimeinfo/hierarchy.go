package sharedmimeinfo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aleb2000/DesktopFileEditor/basedir"
)

const (
	mimeTextPlain = "text/plain"
	mimeOctet     = "application/octet-stream"
)

// SyntaxError is returned for a line that does not have the `type other-type` form.
type SyntaxError struct {
	Name string
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: expected two MIME types separated by a space", e.Name, e.Line)
}

// Hierarchy holds the subclasses and aliases of the MIME database.
// A nil Hierarchy only knows the implicit rules: every text/* type is a text/plain and every type
// outside inode/* is an application/octet-stream.
type Hierarchy struct {
	parents map[string][]string
	aliases map[string]string
}

// Load reads the mime/subclasses and mime/aliases files of $XDG_DATA_HOME and $XDG_DATA_DIRS.
// Files that do not exist are skipped.
func Load() (*Hierarchy, error) {
	h := newHierarchy()

	dirs := append([]string{basedir.DataHome}, basedir.DataDirs...)
	for _, dir := range dirs {
		if err := h.readFile(filepath.Join(dir, "mime", "subclasses"), h.addParent); err != nil {
			return nil, err
		}
		if err := h.readFile(filepath.Join(dir, "mime", "aliases"), h.addAlias); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// Parse reads a subclasses file followed by an aliases file. Either may be nil.
func Parse(subclasses io.Reader, aliases io.Reader) (*Hierarchy, error) {
	h := newHierarchy()

	if subclasses != nil {
		if err := h.read("subclasses", subclasses, h.addParent); err != nil {
			return nil, err
		}
	}

	if aliases != nil {
		if err := h.read("aliases", aliases, h.addAlias); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func newHierarchy() *Hierarchy {
	return &Hierarchy{
		parents: make(map[string][]string),
		aliases: make(map[string]string),
	}
}

func (h *Hierarchy) readFile(path string, add func(string, string)) error {
	file, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("sharedmimeinfo: failed to open %s: %w", path, err)
	}
	defer file.Close()

	return h.read(path, file, add)
}

func (h *Hierarchy) read(name string, reader io.Reader, add func(string, string)) error {
	scanner := bufio.NewScanner(reader)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		first, second, found := strings.Cut(line, " ")
		if !found || first == "" || second == "" {
			return &SyntaxError{Name: name, Line: lineNumber}
		}

		add(first, second)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("sharedmimeinfo: failed to read %s: %w", name, err)
	}

	return nil
}

func (h *Hierarchy) addParent(mime string, parent string) {
	if !slices.Contains(h.parents[mime], parent) {
		h.parents[mime] = append(h.parents[mime], parent)
	}
}

// addAlias keeps the first definition, the directories are read highest precedence first.
func (h *Hierarchy) addAlias(alias string, canonical string) {
	if _, ok := h.aliases[alias]; !ok {
		h.aliases[alias] = canonical
	}
}

// Canonical returns the type that alias stands for, e.g. text/xml for application/xml in some
// databases. Types that are not aliases are returned unchanged.
func (h *Hierarchy) Canonical(alias string) string {
	if h == nil {
		return alias
	}

	if canonical, ok := h.aliases[alias]; ok {
		return canonical
	}

	return alias
}

// Parents returns the types mime directly inherits from, including the implicit ones.
func (h *Hierarchy) Parents(mime string) []string {
	if h != nil {
		if parents := h.parents[h.Canonical(mime)]; len(parents) > 0 {
			return parents
		}
	}

	switch {
	case mime == mimeOctet:
		return nil
	case mime == mimeTextPlain:
		return []string{mimeOctet}
	case strings.HasPrefix(mime, "text/"):
		return []string{mimeTextPlain}
	case strings.HasPrefix(mime, "inode/"):
		return nil
	default:
		return []string{mimeOctet}
	}
}

// Ancestors returns every type mime inherits from, nearest first.
// text/plain and application/octet-stream are always last, because any handler for them is a
// poor match.
func (h *Hierarchy) Ancestors(mime string) []string {
	seen := map[string]bool{h.Canonical(mime): true}
	queue := []string{h.Canonical(mime)}
	var result []string
	var generic []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, parent := range h.Parents(current) {
			if seen[parent] {
				continue
			}
			seen[parent] = true
			queue = append(queue, parent)

			if parent == mimeTextPlain || parent == mimeOctet {
				generic = append(generic, parent)
				continue
			}
			result = append(result, parent)
		}
	}

	slices.SortStableFunc(generic, func(a string, b string) int {
		// text/plain before application/octet-stream.
		if a == b {
			return 0
		}
		if a == mimeTextPlain {
			return -1
		}
		return 1
	})

	return append(result, generic...)
}

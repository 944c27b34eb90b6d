package mimeapps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// File is a parsed mimeapps.list. Each map goes from a MIME type to desktop IDs in file order.
type File struct {
	Defaults map[string][]string
	Added    map[string][]string
	Removed  map[string][]string
}

// Parse reads a mimeapps.list.
// Unknown groups, comments and lines without '=' are ignored, the same as xdg-open does.
// A key repeated within a group extends the list.
func Parse(reader io.Reader) (*File, error) {
	result := &File{
		Defaults: make(map[string][]string),
		Added:    make(map[string][]string),
		Removed:  make(map[string][]string),
	}

	var target map[string][]string
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			switch line {
			case "[Default Applications]":
				target = result.Defaults
			case "[Added Associations]":
				target = result.Added
			case "[Removed Associations]":
				target = result.Removed
			default:
				target = nil
			}
			continue
		}

		if target == nil {
			continue
		}

		mime, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		mime = strings.TrimSpace(mime)

		for _, id := range strings.Split(value, ";") {
			if id = strings.TrimSpace(id); id != "" {
				target[mime] = append(target[mime], id)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mimeapps: failed to read: %w", err)
	}

	return result, nil
}

// ParseFile opens and parses the mimeapps.list at path.
func ParseFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	parsed, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return parsed, nil
}

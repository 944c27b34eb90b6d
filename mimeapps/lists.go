// Package mimeapps finds the applications that open a MIME type, following the
// [Association between MIME types and applications] specification.
//
// [Association between MIME types and applications]: https://specifications.freedesktop.org/mime-apps-spec/1.0.1/
package mimeapps

import (
	"path/filepath"
	"strings"

	"github.com/aleb2000/DesktopFileEditor/basedir"
)

const listName = "mimeapps.list"

// List is the location of a mimeapps.list file. Existence is not checked.
type List struct {
	Path string

	// NextToApplications is true for lists in an applications directory. The MimeType keys of
	// the desktop files in that directory count as associations at the precedence of the list.
	NextToApplications bool
}

// IsDesktopSpecific is true for $desktop-mimeapps.list files. These can only set defaults.
func (l List) IsDesktopSpecific() bool {
	return filepath.Base(l.Path) != listName
}

// Lists returns the mimeapps.list files, highest precedence first.
// currentDesktop is the value of $XDG_CURRENT_DESKTOP, a colon separated list of desktop names
// such as ubuntu:GNOME. For each name, a $name-mimeapps.list file is added before the generic
// mimeapps.list of a directory.
func Lists(currentDesktop string) []List {
	var desktops []string
	for _, name := range strings.Split(currentDesktop, ":") {
		if name != "" {
			desktops = append(desktops, strings.ToLower(name))
		}
	}

	var result []List
	add := func(dir string, nextToApplications bool) {
		for _, name := range desktops {
			result = append(result, List{
				Path:               filepath.Join(dir, name+"-"+listName),
				NextToApplications: nextToApplications,
			})
		}
		result = append(result, List{
			Path:               filepath.Join(dir, listName),
			NextToApplications: nextToApplications,
		})
	}

	add(basedir.ConfigHome, false)
	for _, dir := range basedir.ConfigDirs {
		add(dir, false)
	}

	add(filepath.Join(basedir.DataHome, "applications"), true)
	for _, dir := range basedir.DataDirs {
		add(filepath.Join(dir, "applications"), true)
	}

	return result
}

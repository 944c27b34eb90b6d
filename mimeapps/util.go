package mimeapps

import (
	"os"
	"strings"
)

// appendUnique appends the items of add that are not in seen yet and marks them seen.
func appendUnique(list []string, seen map[string]bool, add ...string) []string {
	for _, item := range add {
		if !seen[item] {
			seen[item] = true
			list = append(list, item)
		}
	}

	return list
}

// isSubPathAbs returns true if sub is a sub path of parent.
// Both parent and sub must be absolute paths.
func isSubPathAbs(sub string, parent string) bool {
	return strings.HasPrefix(sub, parent+string(os.PathSeparator))
}

package desktop

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode"
)

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

// MagicIsDesktopFile returns true if the content is likely a desktop file, meaning that the
// first line that is neither blank nor a comment is the [Desktop Entry] header.
// Read errors and invalid UTF-8 outside comments are reported as "not a desktop file".
func MagicIsDesktopFile(reader io.Reader) (bool, error) {
	r := bufio.NewReader(reader)

	if maybeBom, err := r.Peek(len(utf8Bom)); err == nil && bytes.Equal(maybeBom, utf8Bom) {
		if _, err := r.Discard(len(utf8Bom)); err != nil {
			return false, nil
		}
	}

	inComment := false

	for {
		readRune, _, err := r.ReadRune()
		if err != nil {
			return false, nil
		}

		if inComment {
			// Invalid UTF-8 does not matter inside comments.
			inComment = readRune != '\n'
			continue
		}

		switch readRune {
		case unicode.ReplacementChar:
			return false, nil
		case '#':
			inComment = true
		case '\n':
		case '[':
			header := make([]byte, len(requiredGroupHeader)-1)
			if _, err := io.ReadFull(r, header); err != nil {
				return false, nil
			}

			return string(header) == requiredGroupHeader[1:], nil
		default:
			return false, nil
		}
	}
}

// MagicIsDesktopFilePath is MagicIsDesktopFile for the file at path.
func MagicIsDesktopFilePath(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("MagicIsDesktopFilePath: failed to open '%s': %w", path, err)
	}
	defer file.Close()

	return MagicIsDesktopFile(file)
}

package steam

import (
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
)

// KeyValues is a node of a Valve KeyValues (VDF) text document.
// A node either holds a Value or a list of Children.
type KeyValues struct {
	Key      string
	Value    string
	Children []*KeyValues
}

// Child returns the first child with the given key. Keys are compared case-insensitively, as
// Steam does.
func (kv *KeyValues) Child(key string) *KeyValues {
	if kv == nil {
		return nil
	}

	for _, child := range kv.Children {
		if strings.EqualFold(child.Key, key) {
			return child
		}
	}

	return nil
}

// ParseVDF parses a KeyValues text document and returns a root node whose children are the
// top-level keys.
// Document order is not kept: children are sorted by key, numerically when both keys are
// numbers. For duplicate keys the last one wins.
func ParseVDF(reader io.Reader) (*KeyValues, error) {
	parsed, err := vdf.NewParser(reader).Parse()
	if err != nil {
		return nil, err
	}

	return &KeyValues{Children: children(parsed)}, nil
}

func children(m map[string]interface{}) []*KeyValues {
	var result []*KeyValues

	for key, value := range m {
		node := &KeyValues{Key: key}

		switch value := value.(type) {
		case string:
			node.Value = value
		case map[string]interface{}:
			node.Children = children(value)
		default:
			continue
		}

		result = append(result, node)
	}

	slices.SortFunc(result, func(a, b *KeyValues) int {
		return compareKeys(a.Key, b.Key)
	})

	return result
}

func compareKeys(a, b string) int {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}

	return 0
}

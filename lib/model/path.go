package model

import (
	"strconv"
	"strings"
)

// FromPath returns the value at a dot separated path such as root.a.0. Map
// segments are keys, list segments indices. It returns nil for any path that
// does not lead to a value.
func (m *Model) FromPath(path string) Type {
	segments := strings.Split(path, ".")
	if segments[0] != RootPath {
		return nil
	}
	root, err := m.Root()
	if err != nil {
		return nil
	}

	var current Type = root
	for _, segment := range segments[1:] {
		var next Type
		switch t := current.(type) {
		case *MapType:
			next, err = t.Get(segment)
		case *ListType:
			index, perr := strconv.Atoi(segment)
			if perr != nil || index < 0 || index >= t.Size() {
				return nil
			}
			next, err = t.Get(index)
		default:
			// leaves have no children
			return nil
		}
		if err != nil || next == nil {
			return nil
		}
		current = next
	}
	return current
}

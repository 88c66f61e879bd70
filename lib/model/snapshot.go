package model

import "strconv"

// Snapshot exports the tree below the root to plain values: maps become
// map[string]any, lists []any, strings string, numbers float64 (or their string
// form if they do not parse), texts their XML and files their serialized value.
// Values that have not arrived yet are nil.
func (m *Model) Snapshot() (map[string]any, error) {
	root, err := m.Root()
	if err != nil {
		return nil, err
	}
	return exportMap(root), nil
}

// Export converts a single value like Snapshot does.
func Export(t Type) any {
	if t == nil || !t.IsAttached() {
		return nil
	}
	switch v := t.(type) {
	case *MapType:
		return exportMap(v)
	case *ListType:
		values := make([]any, 0, v.Size())
		for _, item := range v.Values() {
			values = append(values, Export(item))
		}
		return values
	case *StringType:
		return v.Value()
	case *NumberType:
		if f, err := strconv.ParseFloat(v.Value(), 64); err == nil {
			return f
		}
		return v.Value()
	case *TextType:
		return v.XML()
	case *FileType:
		if fv := v.Value(); fv != nil {
			return fv.String()
		}
		return nil
	}
	return nil
}

func exportMap(m *MapType) map[string]any {
	out := make(map[string]any, m.Size())
	for _, key := range m.Keys() {
		value, err := m.Get(key)
		if err != nil {
			continue
		}
		out[key] = Export(value)
	}
	return out
}

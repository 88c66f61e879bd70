package substrate

import (
	"fmt"
	"github.com/ValentinKolb/dObj/lib/offsetlist"
	"slices"
)

// annotationValue is the value of one annotation run; unset runs carry no value.
type annotationValue struct {
	set   bool
	value string
}

// AnnotationRange is a maximal range [Start, End) where Key has Value.
type AnnotationRange struct {
	Key   string
	Start int
	End   int
	Value string
}

// SetAnnotation sets key to value on [start, end).
func (t *TextDocument) SetAnnotation(start, end int, key, value string) error {
	return t.annotate(start, end, key, annotationValue{set: true, value: value})
}

// ClearAnnotation removes key from [start, end).
func (t *TextDocument) ClearAnnotation(start, end int, key string) error {
	if _, ok := t.annotations[key]; !ok {
		return nil
	}
	return t.annotate(start, end, key, annotationValue{})
}

// Annotation returns the value of key at loc.
func (t *TextDocument) Annotation(loc int, key string) (string, bool) {
	list, ok := t.annotations[key]
	if !ok || loc < 0 || loc >= t.Size() {
		return "", false
	}
	c, _, err := list.Locate(loc)
	if err != nil || c.IsSentinel() {
		return "", false
	}
	return c.Value().value, c.Value().set
}

// Annotations returns all set annotation ranges intersecting [start, end), clipped
// to it and ordered by key and start.
func (t *TextDocument) Annotations(start, end int) []AnnotationRange {
	keys := make([]string, 0, len(t.annotations))
	for key := range t.annotations {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var ranges []AnnotationRange
	for _, key := range keys {
		offset := 0
		for c := range t.annotations[key].Containers() {
			from, to := max(offset, start), min(offset+c.Size(), end)
			if v := c.Value(); v.set && from < to {
				ranges = append(ranges, AnnotationRange{Key: key, Start: from, End: to, Value: v.value})
			}
			offset += c.Size()
		}
	}
	return ranges
}

func (t *TextDocument) annotate(start, end int, key string, value annotationValue) error {
	if start < 0 || end > t.Size() || start > end {
		return fmt.Errorf("%w: range [%d,%d) in document of size %d", ErrInvalidLocation, start, end, t.Size())
	}
	if start == end {
		return nil
	}
	list, ok := t.annotations[key]
	if !ok {
		list = offsetlist.New[annotationValue]()
		if _, err := list.Sentinel().InsertBefore(annotationValue{}, t.Size()); err != nil {
			return err
		}
		t.annotations[key] = list
	}

	c, inner, err := list.Locate(start)
	if err != nil {
		return err
	}
	if inner > 0 {
		if c, err = c.Split(inner, c.Value()); err != nil {
			return err
		}
	}
	for remaining := end - start; remaining > 0; c = c.Next() {
		if c.Size() > remaining {
			if _, err := c.Split(remaining, c.Value()); err != nil {
				return err
			}
		}
		c.SetValue(value)
		remaining -= c.Size()
	}
	if err := normalizeAnnotations(list); err != nil {
		return err
	}
	t.changed()
	return nil
}

// shiftAnnotations grows every annotation list by n at loc. Inserted content takes
// the annotations of the location in front of it.
func (t *TextDocument) shiftAnnotations(loc, n int) error {
	for key, list := range t.annotations {
		if list.IsEmpty() {
			if _, err := list.Sentinel().InsertBefore(annotationValue{}, n); err != nil {
				return fmt.Errorf("shifting annotation %s: %w", key, err)
			}
			continue
		}
		target := list.FirstContainer()
		if loc > 0 {
			if c, _, err := list.Locate(loc - 1); err == nil {
				target = c
			}
		}
		if err := target.IncreaseSize(n); err != nil {
			return fmt.Errorf("shifting annotation %s: %w", key, err)
		}
	}
	return nil
}

func deleteAnnotationRange(list *offsetlist.OffsetList[annotationValue], start, end int) error {
	c, inner, err := list.Locate(start)
	if err != nil {
		// nothing annotated at start
		return nil
	}
	for remaining := end - start; remaining > 0 && !c.IsSentinel(); {
		next := c.Next()
		take := min(c.Size()-inner, remaining)
		if err := c.IncreaseSize(-take); err != nil {
			return err
		}
		if c.Size() == 0 {
			if err := c.Remove(); err != nil {
				return err
			}
		}
		remaining -= take
		c, inner = next, 0
	}
	return normalizeAnnotations(list)
}

// normalizeAnnotations joins neighboring runs with equal values.
func normalizeAnnotations(list *offsetlist.OffsetList[annotationValue]) error {
	c := list.FirstContainer()
	for !c.IsSentinel() {
		next := c.Next()
		if !next.IsSentinel() && next.Value() == c.Value() {
			if err := c.IncreaseSize(next.Size()); err != nil {
				return err
			}
			if err := next.Remove(); err != nil {
				return err
			}
			continue
		}
		c = next
	}
	return nil
}

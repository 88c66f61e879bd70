package model

import (
	"errors"
	"slices"
	"testing"
)

func values(l *ListType) []string {
	var out []string
	for _, v := range l.Values() {
		out = append(out, describe(v))
	}
	return out
}

func TestListAddRemove(t *testing.T) {
	m, root := newTestModel(t)
	list := mustPut(t, root, "l", m.CreateList()).(*ListType)
	rec := &listRecorder{}
	list.AddListener(rec)

	a := mustAdd(t, list, NewString("a"))
	b := mustAdd(t, list, NewString("b"))
	five, err := list.AddAt(1, NewNumber("5"))
	if err != nil {
		t.Fatalf("AddAt failed: %v", err)
	}

	if got := values(list); !slices.Equal(got, []string{"str:a", "n:5", "str:b"}) {
		t.Errorf("values = %v", got)
	}
	if got, _ := list.Get(1); !got.Equal(five) {
		t.Errorf("Get(1) = %s", describe(got))
	}
	if got, _ := list.Get(2); !got.Equal(b) {
		t.Errorf("b did not shift: Get(2) = %s", describe(got))
	}
	if list.IndexOf(b) != 2 || list.IndexOf(a) != 0 || list.IndexOf(root) != -1 {
		t.Errorf("IndexOf = %d %d %d", list.IndexOf(b), list.IndexOf(a), list.IndexOf(root))
	}
	if five.Path() != "root.l.1" {
		t.Errorf("Path() = %q", five.Path())
	}
	// paths are not renumbered, FromPath resolves the current index
	if b.Path() != "root.l.1" {
		t.Errorf("shifted Path() = %q", b.Path())
	}
	if got := m.FromPath(b.Path()); got == nil || !got.Equal(five) {
		t.Errorf("FromPath(%q) = %s", b.Path(), describe(got))
	}

	removed, err := list.Remove(0)
	if err != nil || removed != a {
		t.Fatalf("Remove(0) = %v, %v", removed, err)
	}
	if a.IsAttached() {
		t.Errorf("removed value is still attached")
	}
	if describe(a) != "str:a" {
		t.Errorf("removed value = %s", describe(a))
	}
	if list.Size() != 2 {
		t.Errorf("Size() = %d, want 2", list.Size())
	}
	if got, err := list.Remove(9); got != nil || err != nil {
		t.Errorf("Remove(9) = %v, %v", got, err)
	}

	want := []string{"added str:a", "added str:b", "added n:5", "removed str:a"}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %v\nwant %v", rec.events, want)
	}

	list.RemoveListener(rec)
	mustAdd(t, list, NewString("c"))
	if len(rec.events) != len(want) {
		t.Errorf("removed listener received %v", rec.events[len(want):])
	}
}

func TestListPreconditions(t *testing.T) {
	m, root := newTestModel(t)
	list := mustPut(t, root, "l", m.CreateList()).(*ListType)
	mustAdd(t, list, NewString("a"))

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"get negative", second(list.Get(-1)), ErrOutOfRange},
		{"get past end", second(list.Get(1)), ErrOutOfRange},
		{"add past end", second(list.AddAt(2, NewString("x"))), ErrOutOfRange},
		{"add negative", second(list.AddAt(-1, NewString("x"))), ErrOutOfRange},
		{"add nil", second(list.Add(nil)), ErrInvalidState},
		{"get detached", second(m.CreateList().Get(0)), ErrNotAttached},
		{"add detached", second(m.CreateList().Add(NewString("x"))), ErrNotAttached},
		{"remove detached", second(m.CreateList().Remove(0)), ErrNotAttached},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, tt.err, tt.want)
		}
	}
	if list.Size() != 1 {
		t.Errorf("failed adds changed the list: Size() = %d", list.Size())
	}
}

func second(_ Type, err error) error {
	return err
}

func TestListContainers(t *testing.T) {
	m, root := newTestModel(t)
	list := mustPut(t, root, "l", m.CreateList()).(*ListType)

	inner := mustAdd(t, list, m.CreateMap()).(*MapType)
	mustPut(t, inner, "k", NewNumber("1"))
	text := mustAdd(t, list, m.CreateTextWith("x")).(*TextType)

	if inner.Path() != "root.l.0" || text.Path() != "root.l.1" {
		t.Errorf("paths = %q %q", inner.Path(), text.Path())
	}
	item := list.elem.Child(0)
	if item.AttributeOr(itemTypeAttr, "") != PrefixMap || item.AttributeOr(itemRefAttr, "") != inner.DocumentID() {
		t.Errorf("item attributes = %v", item.Attributes())
	}
	if n, ok := m.FromPath("root.l.0.k").(*NumberType); !ok || n.Value() != "1" {
		t.Errorf("FromPath(root.l.0.k) = %v", m.FromPath("root.l.0.k"))
	}
}

func TestListElementInitializer(t *testing.T) {
	m, root := newTestModel(t)
	if _, err := NewListElementInitializer(NewString("x")); !errors.Is(err, ErrNotAttached) {
		t.Errorf("initializer of detached value = %v", err)
	}
	stored := mustPut(t, root, "s", NewString("x"))
	li, err := NewListElementInitializer(stored)
	if err != nil {
		t.Fatalf("NewListElementInitializer failed: %v", err)
	}
	if li.Type != PrefixString || li.Ref != "str+0" {
		t.Errorf("initializer = %+v", li)
	}
	if v, _ := li.Attributes().Get(itemRefAttr); v != "str+0" {
		t.Errorf("Attributes() = %v", li.Attributes())
	}

	list := mustPut(t, root, "l", m.CreateList()).(*ListType)
	if _, err := list.doc.CreateChildElement(list.elem, itemTag, nil); err != nil {
		t.Fatalf("CreateChildElement failed: %v", err)
	}
	if _, err := list.Get(0); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("Get(item without reference) = %v", err)
	}
	if got := list.Values(); len(got) != 0 {
		t.Errorf("Values() = %v", got)
	}
}

package model

import (
	"errors"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"slices"
	"testing"
)

func TestMapPutGet(t *testing.T) {
	m, root := newTestModel(t)

	tests := []struct {
		key   string
		value Type
		want  string
	}{
		{"string", NewString("hello"), "str:hello"},
		{"number", NewNumber("3.5"), "n:3.5"},
		{"file", NewFile(AttachmentID{Domain: "local.net", ID: "f1"}, ""), "f:local.net/f1"},
		{"map", m.CreateMap(), PrefixMap},
		{"list", m.CreateList(), PrefixList},
		{"text", m.CreateText(), PrefixText},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			rec := &mapRecorder{}
			root.AddListener(rec)
			defer root.RemoveListener(rec)

			stored := mustPut(t, root, tt.key, tt.value)
			if !stored.Equal(tt.value) || !stored.IsAttached() || !tt.value.IsAttached() {
				t.Errorf("stored value %s is not equal to the put value", describe(stored))
			}
			if describe(stored) != tt.want {
				t.Errorf("stored = %s, want %s", describe(stored), tt.want)
			}
			if stored.Path() != "root."+tt.key {
				t.Errorf("Path() = %q", stored.Path())
			}

			got, err := root.Get(tt.key)
			if err != nil || !got.Equal(stored) {
				t.Errorf("Get(%q) = %v, %v", tt.key, got, err)
			}
			if want := []string{"changed " + tt.key + " nil->" + tt.want}; !slices.Equal(rec.events, want) {
				t.Errorf("events = %v, want %v", rec.events, want)
			}

			// the reference resolves to an equal value
			ref, err := stored.Ref()
			if err != nil {
				t.Fatalf("Ref failed: %v", err)
			}
			again, err := resolve(root, ref, nil, "")
			if err != nil || !again.Equal(stored) {
				t.Errorf("resolve(%q) = %v, %v", ref, again, err)
			}
		})
	}

	if got := root.Keys(); !slices.Equal(got, []string{"file", "list", "map", "number", "string", "text"}) {
		t.Errorf("Keys() = %v", got)
	}
	if !root.KeySet().Contains("map") || root.Size() != 6 {
		t.Errorf("KeySet() = %v", root.KeySet())
	}
}

func TestMapNestedPaths(t *testing.T) {
	m, root := newTestModel(t)
	nested := mustPut(t, root, "a", m.CreateMap()).(*MapType)
	list := mustPut(t, nested, "b", m.CreateList()).(*ListType)
	leaf := mustAdd(t, list, NewString("c"))

	if nested.Path() != "root.a" || list.Path() != "root.a.b" || leaf.Path() != "root.a.b.0" {
		t.Errorf("paths = %q %q %q", nested.Path(), list.Path(), leaf.Path())
	}
	doc, err := m.Document(list.DocumentID())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	meta := doc.DocumentElement().Child(0)
	if meta.Tag() != metadataTag || meta.AttributeOr(metaPath, "") != "root.a.b" || meta.AttributeOr(metaCreator, "") != "a@local.net" {
		t.Errorf("metadata = %s", substrate.ElementXML(meta))
	}
}

func TestMapReplaceAndRemove(t *testing.T) {
	m, root := newTestModel(t)
	rec := &mapRecorder{}
	root.AddListener(rec)

	first := mustPut(t, root, "a", NewString("x"))
	second := mustPut(t, root, "a", NewNumber("1"))
	if first.IsAttached() {
		t.Errorf("replaced value is still attached")
	}
	child := mustPut(t, root, "c", m.CreateMap())

	if err := root.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if second.IsAttached() {
		t.Errorf("removed value is still attached")
	}
	if got, err := root.Get("a"); got != nil || err != nil {
		t.Errorf("Get(removed) = %v, %v", got, err)
	}
	if err := root.Remove("a"); err != nil {
		t.Errorf("second Remove = %v", err)
	}
	if err := root.Remove("c"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if child.Path() != "" {
		t.Errorf("removed container keeps path %q", child.Path())
	}

	want := []string{
		"changed a nil->str:x",
		"changed a str:x->n:1",
		"changed c nil->map",
		"removed a n:1",
		"removed c map",
	}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %v\nwant %v", rec.events, want)
	}
}

func TestMapPreconditions(t *testing.T) {
	m, root := newTestModel(t)
	stored := mustPut(t, root, "a", NewString("x"))

	if _, err := root.Put("b", stored); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Put(attached) = %v", err)
	}
	if _, err := root.Put("b", nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Put(nil) = %v", err)
	}

	detached := m.CreateMap()
	if _, err := detached.Get("a"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Get on detached map = %v", err)
	}
	if _, err := detached.Put("a", NewString("x")); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Put on detached map = %v", err)
	}
	if err := detached.Remove("a"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Remove on detached map = %v", err)
	}
	if _, err := detached.Ref(); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Ref on detached map = %v", err)
	}
	if err := detached.deattach(); !errors.Is(err, ErrNotAttached) {
		t.Errorf("deattach of detached map = %v", err)
	}

	// deattached values stay removed
	if err := root.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := root.Put("c", stored); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Put(removed) = %v", err)
	}
}

func TestMapPutString(t *testing.T) {
	_, root := newTestModel(t)
	rec := &mapRecorder{}
	root.AddListener(rec)

	first, err := root.PutString("s", "a")
	if err != nil {
		t.Fatalf("PutString failed: %v", err)
	}
	second, err := root.PutString("s", "b")
	if err != nil {
		t.Fatalf("PutString failed: %v", err)
	}
	if second != first || second.(*StringType).Value() != "b" {
		t.Errorf("PutString replaced the string instead of updating it")
	}
	want := []string{"changed s nil->str:a", "changed s str:b->str:b"}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}

	// unchanged values are not written again
	if _, err := root.PutString("s", "b"); err != nil || len(rec.events) != 2 {
		t.Errorf("unchanged PutString fired %v, %v", rec.events[2:], err)
	}
}

func TestMapRemoveListener(t *testing.T) {
	_, root := newTestModel(t)
	removed := &mapRecorder{}
	kept := &mapRecorder{}
	root.AddListener(removed)
	root.AddListener(kept)
	root.RemoveListener(removed)

	mustPut(t, root, "a", NewString("x"))
	if len(removed.events) != 0 {
		t.Errorf("removed listener received %v", removed.events)
	}
	if len(kept.events) != 1 {
		t.Errorf("kept listener received %v", kept.events)
	}
}

// selfRemover unregisters itself on the first event.
type selfRemover struct {
	m     *MapType
	calls int
}

func (s *selfRemover) OnValueChanged(string, Type, Type) {
	s.calls++
	s.m.RemoveListener(s)
}

func (s *selfRemover) OnValueRemoved(string, Type) {}

func TestMapListenerRemovesItself(t *testing.T) {
	_, root := newTestModel(t)
	self := &selfRemover{m: root}
	after := &mapRecorder{}
	root.AddListener(self)
	root.AddListener(after)

	mustPut(t, root, "a", NewString("x"))
	mustPut(t, root, "b", NewString("y"))

	if self.calls != 1 {
		t.Errorf("self removing listener called %d times", self.calls)
	}
	if len(after.events) != 2 {
		t.Errorf("following listener received %v", after.events)
	}
}

func TestMapCorruptReference(t *testing.T) {
	_, root := newTestModel(t)
	if _, err := root.doc.CreateChildElement(root.elem, entryTag, substrate.Attrs(entryKeyAttr, "bad", entryValAttr, "zzz+1")); err != nil {
		t.Fatalf("CreateChildElement failed: %v", err)
	}
	got, err := root.Get("bad")
	if got != nil || !errors.Is(err, ErrInvalidReference) {
		t.Errorf("Get(corrupt) = %v, %v", got, err)
	}
	if _, err := resolve(root, "n+x", nil, ""); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("resolve(n+x) = %v", err)
	}
}

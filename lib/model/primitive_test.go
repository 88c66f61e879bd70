package model

import (
	"errors"
	"github.com/ValentinKolb/dObj/lib/migrate"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"slices"
	"strconv"
	"testing"
)

// valueRecorder records primitive value changes.
type valueRecorder struct {
	changes [][2]string
}

func (r *valueRecorder) OnValueChanged(oldValue, newValue string) {
	r.changes = append(r.changes, [2]string{oldValue, newValue})
}

func TestStringType(t *testing.T) {
	_, root := newTestModel(t)

	detached := NewString("init")
	if err := detached.SetValue("ignored"); err != nil {
		t.Errorf("SetValue on detached string = %v", err)
	}
	if detached.Value() != "init" || detached.IsAttached() {
		t.Errorf("detached Value() = %q", detached.Value())
	}
	if err := detached.attach(nil); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("attach(nil) = %v", err)
	}

	s := mustPut(t, root, "s", detached).(*StringType)
	rec := &valueRecorder{}
	s.AddListener(rec)
	if err := s.SetValue("next"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := s.SetValue("next"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if len(rec.changes) != 1 || rec.changes[0] != [2]string{"init", "next"} {
		t.Errorf("changes = %v", rec.changes)
	}
	// the caller's instance shares the slot
	if detached.Value() != "next" {
		t.Errorf("put instance reads %q", detached.Value())
	}

	s.RemoveListener(rec)
	if err := s.SetValue("last"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if len(rec.changes) != 1 {
		t.Errorf("removed listener received %v", rec.changes[1:])
	}
}

func TestNumberType(t *testing.T) {
	_, root := newTestModel(t)
	n := mustPut(t, root, "n", NewFloat(2.5)).(*NumberType)

	if f, err := n.Float(); err != nil || f != 2.5 {
		t.Errorf("Float() = %v, %v", f, err)
	}
	if _, err := n.Int(); err == nil {
		t.Errorf("Int() of 2.5 succeeded")
	}
	if err := n.SetValue("7"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if i, err := n.Int(); err != nil || i != 7 {
		t.Errorf("Int() = %v, %v", i, err)
	}

	bad := mustPut(t, root, "bad", NewNumber("seven")).(*NumberType)
	_, err := bad.Float()
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Errorf("Float() of malformed number = %v", err)
	}

	// numbers live in the values container of their parent
	ref, _ := n.Ref()
	if ref != "n+0" || root.values.Get(0).Value != "7" {
		t.Errorf("Ref() = %q, slot = %+v", ref, root.values.Get(0))
	}
	if err := NewNumber("1").attach(&MapType{}); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("attach to parent without values = %v", err)
	}
}

func TestFileType(t *testing.T) {
	_, root := newTestModel(t)
	id := AttachmentID{Domain: "local.net", ID: "f1"}
	f := mustPut(t, root, "f", NewFile(id, "text/plain")).(*FileType)

	if v := f.Value(); v == nil || v.Attachment != id || v.ContentType != "text/plain" {
		t.Errorf("Value() = %v", v)
	}
	if err := f.SetValue(AttachmentID{Domain: "local.net", ID: "f2"}, ""); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if v := f.Value(); v == nil || v.String() != "local.net/f2" {
		t.Errorf("Value() = %v", v)
	}
	if err := f.ClearValue(); err != nil {
		t.Fatalf("ClearValue failed: %v", err)
	}
	if v := f.Value(); v != nil {
		t.Errorf("cleared Value() = %v", v)
	}

	// malformed content reads back as nil
	index := f.slot.index
	if err := root.values.Set(index, "no-slash"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v := f.Value(); v != nil {
		t.Errorf("malformed Value() = %v", v)
	}
}

func TestParseAttachmentID(t *testing.T) {
	tests := []struct {
		in   string
		want AttachmentID
		ok   bool
	}{
		{"local.net/abc", AttachmentID{"local.net", "abc"}, true},
		{"/abc", AttachmentID{"", "abc"}, true},
		{"local.net/", AttachmentID{}, false},
		{"abc", AttachmentID{}, false},
		{"a/b,c", AttachmentID{}, false},
	}
	for _, tt := range tests {
		got, err := ParseAttachmentID(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseAttachmentID(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestMigratedModel(t *testing.T) {
	wave := newTestWave()
	wavelet, err := wave.CreateWavelet(substrate.WaveletID{Domain: testDomain, ID: RootWaveletID}, "a@local.net")
	if err != nil {
		t.Fatalf("CreateWavelet failed: %v", err)
	}
	docs := map[string]string{
		ModelRootDocID: `<model v="0.2"><strings><s v="hello"/><s v="world"/></strings>` +
			`<map><entry k="greeting" v="str+0"/><entry k="todo" v="list+1"/>` +
			`<entry k="motto" v="str+0"/></map></model>`,
		"list+1": `<list><item t="str" r="str+1"/></list>`,
	}
	for id, xml := range docs {
		doc, err := wavelet.CreateDocument(id, "a@local.net")
		if err != nil {
			t.Fatalf("CreateDocument failed: %v", err)
		}
		if err := doc.AppendXML(doc.DocumentElement(), xml); err != nil {
			t.Fatalf("AppendXML failed: %v", err)
		}
	}

	m := openModel(t, wave, "b@local.net", "s1")
	if m.Version() != migrate.LastVersion.String() {
		t.Errorf("Version() = %q", m.Version())
	}
	greeting, ok := m.FromPath("root.greeting").(*StringType)
	if !ok || greeting.Value() != "hello" || !greeting.IsInline() {
		t.Fatalf("root.greeting = %v", m.FromPath("root.greeting"))
	}
	if err := greeting.SetValue("hey"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if ref, _ := greeting.Ref(); ref != "s:hey" {
		t.Errorf("Ref() = %q", ref)
	}
	if item, ok := m.FromPath("root.todo.0").(*StringType); !ok || item.Value() != "world" {
		t.Errorf("root.todo.0 = %v", m.FromPath("root.todo.0"))
	}

	// new strings go to the global index
	root, _ := m.Root()
	added := mustPut(t, root, "new", NewString("x"))
	if ref, _ := added.Ref(); ref != "str+0" {
		t.Errorf("new string ref = %q", ref)
	}

	// replacing an inline string reports its literal, not the new reference
	rec := &mapRecorder{}
	root.AddListener(rec)
	values := &valueRecorder{}
	greeting.AddListener(values)
	replaced := mustPut(t, root, "greeting", NewString("new"))
	if got := rec.take(); !slices.Equal(got, []string{"changed greeting str:hey->str:new"}) {
		t.Errorf("events = %v", got)
	}
	if len(values.changes) != 0 {
		t.Errorf("replaced string received %v", values.changes)
	}
	if greeting.IsAttached() || greeting.Value() != "hey" {
		t.Errorf("replaced string: attached %t, value %q", greeting.IsAttached(), greeting.Value())
	}
	if ref, _ := replaced.Ref(); ref != "str+1" || replaced.(*StringType).IsInline() {
		t.Errorf("replacement ref = %q", ref)
	}

	// an inline entry that was never read is reported the same way
	other := openModel(t, wave, "c@local.net", "s2")
	otherRoot, _ := other.Root()
	otherRec := &mapRecorder{}
	otherRoot.AddListener(otherRec)
	mustPut(t, otherRoot, "motto", NewString("done"))
	if got := otherRec.take(); !slices.Equal(got, []string{"changed motto str:hello->str:done"}) {
		t.Errorf("events of the unread entry = %v", got)
	}
}

func TestRemovedValueKeepsLastValue(t *testing.T) {
	m, root := newTestModel(t)
	list := mustPut(t, root, "l", m.CreateList()).(*ListType)
	mustAdd(t, list, NewString("x"))
	mustAdd(t, list, NewNumber("7"))
	mustPut(t, root, "file", NewFile(AttachmentID{Domain: testDomain, ID: "a1"}, "image/png"))

	// a second model resolves fresh instances from the documents
	other := openModel(t, m.wave, "c@local.net", "s2")
	otherList, ok := other.FromPath("root.l").(*ListType)
	if !ok {
		t.Fatalf("root.l = %v", other.FromPath("root.l"))
	}
	removed, err := otherList.Remove(0)
	if err != nil || removed == nil {
		t.Fatalf("Remove(0) = %v, %v", removed, err)
	}
	if s := removed.(*StringType); s.IsAttached() || s.Value() != "x" {
		t.Errorf("removed string: attached %t, value %q", s.IsAttached(), s.Value())
	}
	removed, _ = otherList.Remove(0)
	if n := removed.(*NumberType); n.Value() != "7" {
		t.Errorf("removed number = %q", n.Value())
	}

	otherRoot, _ := other.Root()
	file, _ := otherRoot.Get("file")
	if err := otherRoot.Remove("file"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if v := file.(*FileType).Value(); v == nil || v.Attachment.ID != "a1" {
		t.Errorf("removed file = %v", v)
	}
}

package substrate

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"
)

// recorder collects document events as strings.
type recorder struct {
	events []string
}

func (r *recorder) OnElementAdded(e *Element) {
	r.events = append(r.events, "add "+e.Tag())
}

func (r *recorder) OnElementRemoved(parent, e *Element) {
	r.events = append(r.events, fmt.Sprintf("remove %s from %q", e.Tag(), parent.Tag()))
}

func (r *recorder) OnAttributeChanged(e *Element, name, oldValue, newValue string) {
	r.events = append(r.events, fmt.Sprintf("attr %s.%s %q->%q", e.Tag(), name, oldValue, newValue))
}

func (r *recorder) OnChildAdded(parent, child *Element) {
	r.events = append(r.events, "child+ "+child.Tag())
}

func (r *recorder) OnChildRemoved(parent, child *Element) {
	r.events = append(r.events, "child- "+child.Tag())
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestWavelet(t *testing.T) *Wavelet {
	t.Helper()
	wave := NewWave("w+test", WithClock(fixedClock()))
	wavelet, err := wave.CreateWavelet(WaveletID{Domain: "local.net", ID: "swl+root"}, "a@local.net")
	if err != nil {
		t.Fatalf("CreateWavelet failed: %v", err)
	}
	return wavelet
}

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := newTestWavelet(t).CreateDocument("map+1", "a@local.net")
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	return doc
}

func TestDocumentMutations(t *testing.T) {
	doc := newTestDocument(t)
	rec := &recorder{}
	doc.AddListener(rec)

	root := doc.DocumentElement()
	meta, _ := doc.CreateChildElement(root, "metadata", Attrs("pc", "1", "tc", "1"))
	entry, _ := doc.CreateChildElement(root, "entry", Attrs("k", "b", "v", "str+0"))
	first, _ := doc.CreateElementBefore(entry, "entry", Attrs("k", "a", "v", "n+0"))
	if _, err := doc.InsertChildAt(root, 3, "entry", Attrs("k", "c")); err != nil {
		t.Fatalf("InsertChildAt failed: %v", err)
	}

	want := `<metadata pc="1" tc="1"/><entry k="a" v="n+0"/><entry k="b" v="str+0"/><entry k="c"/>`
	if got := doc.XML(); got != want {
		t.Errorf("XML() = %s, want %s", got, want)
	}
	if first.IndexInParent() != 1 || meta.NextSibling() != first {
		t.Errorf("unexpected sibling order")
	}

	_ = doc.SetElementAttribute(entry, "v", "str+1")
	_ = doc.SetElementAttribute(entry, "v", "str+1")
	_ = doc.RemoveElementAttribute(meta, "tc")
	_ = doc.RemoveElementAttribute(meta, "tc")

	wantEvents := []string{
		"add metadata",
		"add entry",
		"add entry",
		"add entry",
		`attr entry.v "str+0"->"str+1"`,
		`attr metadata.tc "1"->""`,
	}
	if !slices.Equal(rec.events, wantEvents) {
		t.Errorf("events = %q, want %q", rec.events, wantEvents)
	}
	if got := doc.ElementWithTag("entry"); got != first {
		t.Errorf("ElementWithTag returned %v, want the first entry", got)
	}
	if n := len(doc.ElementsWithTag("entry")); n != 3 {
		t.Errorf("ElementsWithTag found %d entries, want 3", n)
	}
}

func TestDeleteNodeFiresChildrenFirst(t *testing.T) {
	doc := newTestDocument(t)
	if err := doc.AppendXML(doc.DocumentElement(), `<list><item v="1"/><item v="2"/></list>`); err != nil {
		t.Fatalf("AppendXML failed: %v", err)
	}
	list := doc.ElementWithTag("list")
	rec := &recorder{}
	doc.AddListener(rec)

	if err := doc.DeleteNode(list); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}
	want := []string{`remove item from "list"`, `remove item from "list"`, `remove list from ""`}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %q, want %q", rec.events, want)
	}
	if !list.IsRemoved() || !doc.IsEmpty() {
		t.Errorf("list should be removed and the document empty")
	}
	if err := doc.SetElementAttribute(list, "x", "y"); !errors.Is(err, ErrElementRemoved) {
		t.Errorf("mutating a removed element: got %v, want ErrElementRemoved", err)
	}
	if err := doc.DeleteNode(doc.DocumentElement()); err == nil {
		t.Errorf("deleting the document element should fail")
	}
}

func TestForeignElement(t *testing.T) {
	wavelet := newTestWavelet(t)
	a, _ := wavelet.CreateDocument("a", "x")
	b, _ := wavelet.CreateDocument("b", "x")
	e, _ := a.CreateChildElement(a.DocumentElement(), "e", nil)

	if _, err := b.CreateChildElement(e, "f", nil); !errors.Is(err, ErrForeignElement) {
		t.Errorf("got %v, want ErrForeignElement", err)
	}
	if _, err := b.InsertChildAt(b.DocumentElement(), 1, "f", nil); !errors.Is(err, ErrInvalidLocation) {
		t.Errorf("got %v, want ErrInvalidLocation", err)
	}
}

func TestXMLRoundTrip(t *testing.T) {
	doc := newTestDocument(t)
	fragment := `<metadata p="/a" ap="x&amp;y"/><entry k="a&lt;b" v="str+0"/><list><item/></list>`
	if err := doc.AppendXML(doc.DocumentElement(), fragment); err != nil {
		t.Fatalf("AppendXML failed: %v", err)
	}
	if got := doc.XML(); got != fragment {
		t.Errorf("XML() = %s, want %s", got, fragment)
	}
	if v, _ := doc.ElementWithTag("entry").Attribute("k"); v != "a<b" {
		t.Errorf("attribute was not unescaped: %q", v)
	}
	if got := ChildrenXML(doc.ElementWithTag("list")); got != "<item/>" {
		t.Errorf("ChildrenXML = %s", got)
	}

	if err := doc.InsertXML(doc.DocumentElement(), 0, `<first/>`); err != nil {
		t.Fatalf("InsertXML failed: %v", err)
	}
	if doc.DocumentElement().FirstChild().Tag() != "first" {
		t.Errorf("InsertXML did not insert at index 0")
	}

	for _, invalid := range []string{`<a>`, `<a>text</a>`, `<a></b>`} {
		if err := doc.AppendXML(doc.DocumentElement(), invalid); !errors.Is(err, ErrInvalidXML) {
			t.Errorf("AppendXML(%q) = %v, want ErrInvalidXML", invalid, err)
		}
	}
}

func TestRouter(t *testing.T) {
	doc := newTestDocument(t)
	root := doc.DocumentElement()
	list, _ := doc.CreateChildElement(root, "list", nil)
	other, _ := doc.CreateChildElement(root, "other", nil)

	rec := &recorder{}
	router := doc.Router()
	router.AddChildListener(list, rec)
	router.AddAttributeListener(other, rec)

	item, _ := doc.CreateChildElement(list, "item", nil)
	_, _ = doc.CreateChildElement(other, "ignored", nil)
	_ = doc.SetElementAttribute(other, "a", "1")
	_ = doc.SetElementAttribute(list, "ignored", "1")
	_ = doc.DeleteNode(item)

	want := []string{"child+ item", `attr other.a ""->"1"`, "child- item"}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %q, want %q", rec.events, want)
	}

	router.RemoveChildListener(list, rec)
	_, _ = doc.CreateChildElement(list, "item", nil)
	if len(rec.events) != len(want) {
		t.Errorf("removed child listener was notified")
	}

	// listeners of a removed element are dropped
	_ = doc.DeleteNode(other)
	if _, ok := router.attributes[other]; ok {
		t.Errorf("attribute listeners of a removed element were kept")
	}
}

func TestWaveletParticipantsAndInfo(t *testing.T) {
	wavelet := newTestWavelet(t)

	type event struct {
		added bool
		who   string
	}
	var events []event
	l := &participantRecorder{fn: func(added bool, who string) { events = append(events, event{added, who}) }}
	wavelet.AddListener(l)

	wavelet.AddParticipant("b@local.net")
	wavelet.AddParticipant("b@local.net")
	wavelet.RemoveParticipant("c@local.net")
	wavelet.RemoveParticipant("b@local.net")
	wavelet.RemoveListener(l)
	wavelet.AddParticipant("d@local.net")

	want := []event{{true, "b@local.net"}, {false, "b@local.net"}}
	if !slices.Equal(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if !wavelet.Participants().Contains("a@local.net", "d@local.net") {
		t.Errorf("participants = %v", wavelet.Participants())
	}

	doc, _ := wavelet.CreateDocument("map+root", "a@local.net")
	if _, err := wavelet.CreateDocument("map+root", "a@local.net"); !errors.Is(err, ErrDocumentExists) {
		t.Errorf("got %v, want ErrDocumentExists", err)
	}
	if _, err := wavelet.CreateBlip("map+root", "a@local.net"); !errors.Is(err, ErrDocumentExists) {
		t.Errorf("got %v, want ErrDocumentExists", err)
	}
	if _, err := wavelet.Document("missing"); !errors.Is(err, ErrDocumentMissing) {
		t.Errorf("got %v, want ErrDocumentMissing", err)
	}

	created, _ := wavelet.Info("map+root")
	_, _ = doc.CreateChildElement(doc.DocumentElement(), "entry", nil)
	modified, _ := wavelet.Info("map+root")
	if !modified.LastModified.After(created.LastModified) || modified.Created != created.Created {
		t.Errorf("mutation did not bump LastModified: %+v -> %+v", created, modified)
	}
	if modified.Author != "a@local.net" {
		t.Errorf("Author = %q", modified.Author)
	}
}

type participantRecorder struct {
	fn func(added bool, who string)
}

func (p *participantRecorder) OnParticipantAdded(_ *Wavelet, who string) {
	p.fn(true, who)
}

func (p *participantRecorder) OnParticipantRemoved(_ *Wavelet, who string) {
	p.fn(false, who)
}

func TestWave(t *testing.T) {
	wave := NewWave("w+1")
	id := WaveletID{Domain: "local.net", ID: "swl+root"}
	if wave.Wavelet(id) != nil {
		t.Errorf("unknown wavelet should be nil")
	}
	if _, err := wave.CreateWavelet(id, "a@local.net"); err != nil {
		t.Fatalf("CreateWavelet failed: %v", err)
	}
	if _, err := wave.CreateWavelet(id, "b@local.net"); !errors.Is(err, ErrWaveletExists) {
		t.Errorf("got %v, want ErrWaveletExists", err)
	}
	_, _ = wave.CreateWavelet(WaveletID{Domain: "a.net", ID: "x"}, "")
	ids := wave.WaveletIDs()
	if len(ids) != 2 || ids[0].String() != "a.net/x" {
		t.Errorf("WaveletIDs = %v", ids)
	}
}

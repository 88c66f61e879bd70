package model

import (
	"github.com/ValentinKolb/dObj/lib/substrate"
	"strings"
)

const (
	bodyTag = "body"
	// bodyStart is the location of the first character in a new text.
	bodyStart = 3
)

// TextType is rich text backed by its own blip. A new text is seeded with
// <body><line/>...</body>.
type TextType struct {
	model       *Model
	docID       string
	blip        *substrate.Blip
	initContent string
	state       attachState
	path        string
}

func (t *TextType) Prefix() string     { return PrefixText }
func (t *TextType) TypeName() string   { return "TextType" }
func (t *TextType) IsAttached() bool   { return t.state == stateAttached }
func (t *TextType) DocumentID() string { return t.docID }
func (t *TextType) Path() string       { return t.path }

func (t *TextType) Ref() (string, error) {
	if t.docID == "" {
		return "", errNotAttached(t.TypeName(), "serialize")
	}
	return t.docID, nil
}

func (t *TextType) Equal(other Type) bool {
	o, ok := other.(*TextType)
	return ok && t.docID != "" && t.docID == o.docID && t.model.sameWavelet(o.model)
}

// --------------------------------------------------------------------------
// Editing
// --------------------------------------------------------------------------

func (t *TextType) content(op string) (*substrate.TextDocument, error) {
	if !t.IsAttached() {
		return nil, errNotAttached(t.TypeName(), op)
	}
	return t.blip.Content(), nil
}

// InsertText inserts plain text at location. text must not contain markup.
func (t *TextType) InsertText(location int, text string) error {
	c, err := t.content("edit")
	if err != nil {
		return err
	}
	return c.InsertText(location, text)
}

// InsertNewLine inserts a line element at location.
func (t *TextType) InsertNewLine(location int) error {
	c, err := t.content("edit")
	if err != nil {
		return err
	}
	return c.InsertNewLine(location)
}

// DeleteText removes [start, end).
func (t *TextType) DeleteText(start, end int) error {
	c, err := t.content("edit")
	if err != nil {
		return err
	}
	return c.DeleteRange(start, end)
}

// Size returns the number of locations, zero if the text is not attached.
func (t *TextType) Size() int {
	if !t.IsAttached() {
		return 0
	}
	return t.blip.Content().Size()
}

// XML serializes the whole text. This walks the full document.
func (t *TextType) XML() string {
	if !t.IsAttached() {
		return ""
	}
	return t.blip.Content().XML()
}

// Text returns the characters of the text with one newline per line element.
func (t *TextType) Text() string {
	if !t.IsAttached() {
		return ""
	}
	return t.blip.Content().Text()
}

// SetAnnotation sets key to value on [start, end).
func (t *TextType) SetAnnotation(start, end int, key, value string) error {
	c, err := t.content("annotate")
	if err != nil {
		return err
	}
	return c.SetAnnotation(start, end, key, value)
}

// ClearAnnotation removes key from [start, end).
func (t *TextType) ClearAnnotation(start, end int, key string) error {
	c, err := t.content("annotate")
	if err != nil {
		return err
	}
	return c.ClearAnnotation(start, end, key)
}

// Annotation returns the value of key at location.
func (t *TextType) Annotation(location int, key string) (string, bool) {
	if !t.IsAttached() {
		return "", false
	}
	return t.blip.Content().Annotation(location, key)
}

// Annotations returns all annotation ranges intersecting [start, end).
func (t *TextType) Annotations(start, end int) []substrate.AnnotationRange {
	if !t.IsAttached() {
		return nil
	}
	return t.blip.Content().Annotations(start, end)
}

// --------------------------------------------------------------------------
// Attachment
// --------------------------------------------------------------------------

func (t *TextType) attach(parent container) error {
	if t.model == nil {
		if parent == nil {
			return newError(CodeInvalidParent, "text needs a model")
		}
		t.model = parent.Model()
	}
	if t.state != stateDetached {
		return newError(CodeInvalidState, "text %s is already attached", t.docID)
	}
	id := t.model.GenerateDocID(PrefixText)
	blip, err := t.model.CreateBlip(id)
	if err != nil {
		return err
	}
	if err := seedText(blip.Content(), t.initContent); err != nil {
		return err
	}
	t.blip, t.docID, t.state = blip, id, stateAttached
	return nil
}

// seedText writes the body wrapper with init. Content that does not parse as
// markup is inserted as plain text.
func seedText(c *substrate.TextDocument, init string) error {
	wrapped := "<" + bodyTag + "><" + substrate.LineTag + "/>" + init + "</" + bodyTag + ">"
	if err := c.SetXML(wrapped); err == nil {
		return nil
	}
	if err := c.SetXML("<" + bodyTag + "><" + substrate.LineTag + "/></" + bodyTag + ">"); err != nil {
		return err
	}
	return c.InsertText(bodyStart, init)
}

func (t *TextType) attachRef(parent container, ref string) error {
	if t.state != stateDetached {
		return newError(CodeInvalidState, "text %s is already attached", t.docID)
	}
	if !strings.HasPrefix(ref, PrefixText+"+") {
		return newError(CodeInvalidReference, "%q is not a text reference", ref)
	}
	if t.model == nil && parent != nil {
		t.model = parent.Model()
	}
	blip, err := t.model.Blip(ref)
	if err != nil {
		// declared by a reference before the blip itself arrived
		if blip, err = t.model.CreateBlip(ref); err != nil {
			return err
		}
	}
	t.blip, t.docID, t.state = blip, ref, stateAttached
	return nil
}

func (t *TextType) deattach() error {
	if t.state != stateAttached {
		return errNotAttached(t.TypeName(), "deattach")
	}
	t.state = stateRemoved
	return nil
}

func (t *TextType) setPath(path string) {
	t.path = path
}

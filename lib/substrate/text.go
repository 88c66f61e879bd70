package substrate

import (
	"encoding/xml"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dObj/lib/offsetlist"
	"io"
	"slices"
	"strings"
)

// LineTag is the tag of the element starting a new line in a rich text document.
const LineTag = "line"

// --------------------------------------------------------------------------
// Items
// --------------------------------------------------------------------------

type itemKind uint8

const (
	itemText itemKind = iota
	itemStart
	itemEnd
)

// item is one run of the rich text content. Every character and every element
// start or end token occupies one location.
type item struct {
	kind  itemKind
	text  []rune
	tag   string
	attrs Attributes
}

func (it item) size() int {
	if it.kind == itemText {
		return len(it.text)
	}
	return 1
}

// lineCounter counts line elements over the content.
type lineCounter struct{}

func (lineCounter) Extract(it item) int {
	if it.kind == itemStart && it.tag == LineTag {
		return 1
	}
	return 0
}

func (lineCounter) Operate(left, right int) int {
	return left + right
}

// --------------------------------------------------------------------------
// Blip
// --------------------------------------------------------------------------

// Blip is a rich text document of a wavelet.
type Blip struct {
	id      string
	wavelet *Wavelet
	content *TextDocument
}

func newBlip(id string, w *Wavelet) *Blip {
	b := &Blip{id: id, wavelet: w}
	b.content = NewTextDocument()
	b.content.onChange = func() {
		w.touch(id)
		textMutations.Inc()
	}
	return b
}

// ID returns the blip id.
func (b *Blip) ID() string {
	return b.id
}

// Content returns the rich text content of the blip.
func (b *Blip) Content() *TextDocument {
	return b.content
}

// --------------------------------------------------------------------------
// TextDocument
// --------------------------------------------------------------------------

// TextDocument is a sequence of characters and element tokens addressed by
// location, with key/value annotations over location ranges.
type TextDocument struct {
	items       *offsetlist.EvaluableOffsetList[item, int]
	annotations map[string]*offsetlist.OffsetList[annotationValue]
	onChange    func()
}

// NewTextDocument creates an empty text document that is not part of a wavelet.
func NewTextDocument() *TextDocument {
	return &TextDocument{
		items:       offsetlist.NewEvaluable[item, int](lineCounter{}),
		annotations: make(map[string]*offsetlist.OffsetList[annotationValue]),
	}
}

// Size returns the number of locations in the document.
func (t *TextDocument) Size() int {
	return t.items.Size()
}

// LineCount returns the number of line elements.
func (t *TextDocument) LineCount() int {
	n, _ := t.items.Evaluate()
	return n
}

// InsertText inserts plain text at loc. Markup in text is not interpreted.
func (t *TextDocument) InsertText(loc int, text string) error {
	if err := t.checkLocation(loc); err != nil {
		return err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	c, inner, err := t.items.Locate(loc)
	if err != nil {
		return err
	}
	switch {
	case inner > 0:
		// inside a text run
		v := c.Value()
		v.text = slices.Concat(v.text[:inner], runes, v.text[inner:])
		c.SetValue(v)
		err = c.IncreaseSize(len(runes))
	case !c.Previous().IsSentinel() && c.Previous().Value().kind == itemText:
		prev := c.Previous()
		v := prev.Value()
		v.text = slices.Concat(v.text, runes)
		prev.SetValue(v)
		err = prev.IncreaseSize(len(runes))
	default:
		_, err = c.InsertBefore(item{kind: itemText, text: runes}, len(runes))
	}
	if err != nil {
		return err
	}
	if err := t.shiftAnnotations(loc, len(runes)); err != nil {
		return err
	}
	t.changed()
	return nil
}

// InsertElement inserts an empty element at loc. It occupies two locations.
func (t *TextDocument) InsertElement(loc int, tag string, attrs Attributes) error {
	if err := t.checkLocation(loc); err != nil {
		return err
	}
	if tag == "" {
		return fmt.Errorf("%w: empty tag", ErrInvalidXML)
	}
	c, err := t.splitAt(loc)
	if err != nil {
		return err
	}
	if _, err := c.InsertBefore(item{kind: itemStart, tag: tag, attrs: slices.Clone(attrs)}, 1); err != nil {
		return err
	}
	if _, err := c.InsertBefore(item{kind: itemEnd, tag: tag}, 1); err != nil {
		return err
	}
	if err := t.shiftAnnotations(loc, 2); err != nil {
		return err
	}
	t.changed()
	return nil
}

// InsertNewLine inserts a line element at loc.
func (t *TextDocument) InsertNewLine(loc int) error {
	return t.InsertElement(loc, LineTag, nil)
}

// DeleteRange removes the locations [start, end). The range must contain whole
// elements only.
func (t *TextDocument) DeleteRange(start, end int) error {
	if start < 0 || end > t.Size() || start > end {
		return fmt.Errorf("%w: range [%d,%d) in document of size %d", ErrInvalidLocation, start, end, t.Size())
	}
	if start == end {
		return nil
	}
	if err := t.checkBalanced(start, end); err != nil {
		return err
	}

	c, inner, err := t.items.Locate(start)
	if err != nil {
		return err
	}
	for remaining := end - start; remaining > 0; {
		next := c.Next()
		v := c.Value()
		take := min(c.Size()-inner, remaining)
		if v.kind == itemText && take < c.Size() {
			v.text = slices.Concat(v.text[:inner], v.text[inner+take:])
			c.SetValue(v)
			if err := c.IncreaseSize(-take); err != nil {
				return err
			}
		} else if err := c.Remove(); err != nil {
			return err
		}
		remaining -= take
		c, inner = next, 0
	}
	if err := t.mergeTextAt(start); err != nil {
		return err
	}

	for key, list := range t.annotations {
		if err := deleteAnnotationRange(list, start, end); err != nil {
			return fmt.Errorf("deleting annotation %s: %w", key, err)
		}
	}
	t.changed()
	return nil
}

// SetXML replaces the whole content with the parsed fragment. Annotations are cleared.
func (t *TextDocument) SetXML(fragment string) error {
	items, err := parseTextFragment(fragment)
	if err != nil {
		return err
	}
	t.items = offsetlist.NewEvaluable[item, int](lineCounter{})
	t.annotations = make(map[string]*offsetlist.OffsetList[annotationValue])
	sentinel := t.items.Sentinel()
	for _, it := range items {
		if _, err := sentinel.InsertBefore(it, it.size()); err != nil {
			return err
		}
	}
	t.changed()
	return nil
}

// XML serializes the content. Elements without content are written self-closing.
//
// Complexity: O(n), use Size or LineCount where possible.
func (t *TextDocument) XML() string {
	var sb strings.Builder
	sentinel := t.items.Sentinel()
	for c := t.items.FirstContainer(); c != sentinel; c = c.Next() {
		v := c.Value()
		switch v.kind {
		case itemText:
			sb.WriteString(escape(string(v.text)))
		case itemStart:
			sb.WriteString("<" + v.tag + formatAttributes(v.attrs))
			if next := c.Next(); next != sentinel && next.Value().kind == itemEnd {
				sb.WriteString("/>")
				c = next
				continue
			}
			sb.WriteString(">")
		case itemEnd:
			sb.WriteString("</" + v.tag + ">")
		}
	}
	return sb.String()
}

// Text returns the characters of the document. Every line element but the first
// starts a new line.
func (t *TextDocument) Text() string {
	var sb strings.Builder
	lines := 0
	for v := range t.items.All() {
		switch {
		case v.kind == itemText:
			sb.WriteString(string(v.text))
		case v.kind == itemStart && v.tag == LineTag:
			if lines > 0 {
				sb.WriteString("\n")
			}
			lines++
		}
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (t *TextDocument) checkLocation(loc int) error {
	if loc < 0 || loc > t.Size() {
		return fmt.Errorf("%w: location %d in document of size %d", ErrInvalidLocation, loc, t.Size())
	}
	return nil
}

// splitAt makes loc the start of a container and returns that container.
func (t *TextDocument) splitAt(loc int) (*offsetlist.Container[item, int], error) {
	c, inner, err := t.items.Locate(loc)
	if err != nil || inner == 0 {
		return c, err
	}
	v := c.Value()
	rest := item{kind: itemText, text: slices.Clone(v.text[inner:])}
	v.text = slices.Clone(v.text[:inner])
	c.SetValue(v)
	return c.Split(inner, rest)
}

// mergeTextAt joins the text runs meeting at loc.
func (t *TextDocument) mergeTextAt(loc int) error {
	if loc == 0 {
		return nil
	}
	c, _, err := t.items.Locate(loc - 1)
	if err != nil {
		return nil
	}
	next := c.Next()
	if next.IsSentinel() || c.Value().kind != itemText || next.Value().kind != itemText {
		return nil
	}
	v := c.Value()
	v.text = slices.Concat(v.text, next.Value().text)
	c.SetValue(v)
	if err := c.IncreaseSize(next.Size()); err != nil {
		return err
	}
	return next.Remove()
}

func (t *TextDocument) checkBalanced(start, end int) error {
	c, inner, err := t.items.Locate(start)
	if err != nil {
		return err
	}
	depth := 0
	for remaining := end - start; remaining > 0; c, inner = c.Next(), 0 {
		switch c.Value().kind {
		case itemStart:
			depth++
		case itemEnd:
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: range [%d,%d) closes an element it does not open", ErrUnbalanced, start, end)
			}
		}
		remaining -= min(c.Size()-inner, remaining)
	}
	if depth != 0 {
		return fmt.Errorf("%w: range [%d,%d) leaves an element open", ErrUnbalanced, start, end)
	}
	return nil
}

func (t *TextDocument) changed() {
	if t.onChange != nil {
		t.onChange()
	}
}

func parseTextFragment(fragment string) ([]item, error) {
	decoder := xml.NewDecoder(strings.NewReader(fragment))
	var items []item
	depth := 0
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			it := item{kind: itemStart, tag: tok.Name.Local}
			for _, a := range tok.Attr {
				it.attrs = append(it.attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			items = append(items, it)
			depth++
		case xml.EndElement:
			items = append(items, item{kind: itemEnd, tag: tok.Name.Local})
			depth--
		case xml.CharData:
			runes := []rune(string(tok))
			if len(runes) == 0 {
				continue
			}
			if n := len(items); n > 0 && items[n-1].kind == itemText {
				items[n-1].text = append(items[n-1].text, runes...)
				continue
			}
			items = append(items, item{kind: itemText, text: runes})
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unclosed element", ErrInvalidXML)
	}
	return items, nil
}

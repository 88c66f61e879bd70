package substrate

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// --------------------------------------------------------------------------
// Serialization
// --------------------------------------------------------------------------

// XML serializes all top level elements of the document.
func (d *Document) XML() string {
	var sb strings.Builder
	for _, child := range d.root.children {
		writeElement(&sb, child)
	}
	return sb.String()
}

// ElementXML serializes e with its subtree.
func ElementXML(e *Element) string {
	var sb strings.Builder
	writeElement(&sb, e)
	return sb.String()
}

// ChildrenXML serializes the children of e without e itself.
func ChildrenXML(e *Element) string {
	var sb strings.Builder
	for _, child := range e.children {
		writeElement(&sb, child)
	}
	return sb.String()
}

func writeElement(sb *strings.Builder, e *Element) {
	sb.WriteString("<")
	sb.WriteString(e.tag)
	sb.WriteString(formatAttributes(e.attrs))
	if len(e.children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteString(">")
	for _, child := range e.children {
		writeElement(sb, child)
	}
	sb.WriteString("</")
	sb.WriteString(e.tag)
	sb.WriteString(">")
}

func formatAttributes(attrs Attributes) string {
	var sb strings.Builder
	for _, attr := range attrs {
		sb.WriteString(" ")
		sb.WriteString(attr.Name)
		sb.WriteString(`="`)
		sb.WriteString(escape(attr.Value))
		sb.WriteString(`"`)
	}
	return sb.String()
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// --------------------------------------------------------------------------
// Parsing
// --------------------------------------------------------------------------

// AppendXML parses an element fragment and appends it to parent.
func (d *Document) AppendXML(parent *Element, fragment string) error {
	if err := d.check(parent); err != nil {
		return err
	}
	return d.InsertXML(parent, len(parent.children), fragment)
}

// InsertXML parses an element fragment and inserts its top level elements into
// parent starting at index. Character data other than whitespace is rejected
// since element documents carry no text.
func (d *Document) InsertXML(parent *Element, index int, fragment string) error {
	if err := d.check(parent); err != nil {
		return err
	}
	if index < 0 || index > len(parent.children) {
		return fmt.Errorf("%w: child index %d of %d", ErrInvalidLocation, index, len(parent.children))
	}
	elements, err := parseFragment(fragment)
	if err != nil {
		return err
	}
	for i, e := range elements {
		e.walk(func(n *Element) bool {
			n.doc = d
			return true
		})
		d.attach(parent, index+i, e)
	}
	return nil
}

func parseFragment(fragment string) ([]*Element, error) {
	decoder := xml.NewDecoder(strings.NewReader(fragment))
	var (
		top   []*Element
		stack []*Element
	)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			e := &Element{tag: t.Name.Local}
			for _, a := range t.Attr {
				e.attrs = append(e.attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				top = append(top, e)
			} else {
				parent := stack[len(stack)-1]
				e.parent = parent
				parent.children = append(parent.children, e)
			}
			stack = append(stack, e)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, fmt.Errorf("%w: unexpected text %q", ErrInvalidXML, string(t))
			}
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrInvalidXML, stack[len(stack)-1].tag)
	}
	return top, nil
}

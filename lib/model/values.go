package model

import (
	"github.com/ValentinKolb/dObj/lib/substrate"
	"strconv"
	"strings"
)

const (
	valuesTag = "values"
	valueTag  = "i"
	valueAttr = "v"
)

// LookupState is the outcome of a values container lookup.
type LookupState uint8

const (
	// Missing means the slot can never resolve (negative index or a slot without value).
	Missing LookupState = iota
	// Pending means the slot is referenced but has not arrived locally yet.
	Pending
	// Present means the slot holds a value.
	Present
)

func (s LookupState) String() string {
	switch s {
	case Missing:
		return "Missing"
	case Pending:
		return "Pending"
	case Present:
		return "Present"
	default:
		return "Unknown"
	}
}

// Lookup is the result of ValuesContainer.Get. Value is only set if State is Present.
type Lookup struct {
	State LookupState
	Value string
}

// --------------------------------------------------------------------------
// ValuesContainer
// --------------------------------------------------------------------------

// ValuesContainer is an append only list of raw string values inside one
// document, stored as <values><i v="..."/></values>. Slots are addressed by
// index and never move.
type ValuesContainer struct {
	model    *Model
	doc      *substrate.Document
	elem     *substrate.Element
	arrivals map[int][]func()
	observer *arrivalObserver
}

// newValuesContainer binds the values section of doc, creating it if absent.
func newValuesContainer(m *Model, doc *substrate.Document) (*ValuesContainer, error) {
	elem := childWithTag(doc.DocumentElement(), valuesTag)
	if elem == nil {
		var err error
		if elem, err = doc.CreateChildElement(doc.DocumentElement(), valuesTag, nil); err != nil {
			return nil, err
		}
	}
	c := &ValuesContainer{
		model:    m,
		doc:      doc,
		elem:     elem,
		arrivals: make(map[int][]func()),
	}
	c.observer = &arrivalObserver{c: c}
	return c, nil
}

// DocumentID returns the id of the document holding the values.
func (c *ValuesContainer) DocumentID() string {
	return c.doc.ID()
}

// Size returns the number of slots.
func (c *ValuesContainer) Size() int {
	return c.elem.ChildCount()
}

// Add appends value and returns its slot index.
func (c *ValuesContainer) Add(value string) (int, error) {
	if _, err := c.doc.CreateChildElement(c.elem, valueTag, substrate.Attrs(valueAttr, value)); err != nil {
		return -1, err
	}
	return c.elem.ChildCount() - 1, nil
}

// Get looks up the slot index. An index past the end is Pending: a reference to
// it was received before the value itself.
func (c *ValuesContainer) Get(index int) Lookup {
	if index < 0 {
		return Lookup{State: Missing}
	}
	if index >= c.elem.ChildCount() {
		return Lookup{State: Pending}
	}
	v, ok := c.elem.Child(index).Attribute(valueAttr)
	if !ok {
		return Lookup{State: Missing}
	}
	return Lookup{State: Present, Value: v}
}

// Set overwrites the value of an existing slot. Writing the current value is a no-op.
func (c *ValuesContainer) Set(index int, value string) error {
	if index < 0 || index >= c.elem.ChildCount() {
		return newError(CodeOutOfRange, "slot %d of %d in %s", index, c.elem.ChildCount(), c.doc.ID())
	}
	return c.doc.SetElementAttribute(c.elem.Child(index), valueAttr, value)
}

// Deserialize resolves a str+<n> reference into a string of the model-global
// string index. Other references are rejected.
func (c *ValuesContainer) Deserialize(ref string) (*StringType, error) {
	if !strings.HasPrefix(ref, PrefixString+"+") {
		return nil, newError(CodeInvalidReference, "%q is not a string reference", ref)
	}
	s := &StringType{}
	if err := s.bindRef(nil, c.model, ref); err != nil {
		return nil, err
	}
	return s, nil
}

// slot returns the element of a present slot.
func (c *ValuesContainer) slot(index int) *substrate.Element {
	if index < 0 || index >= c.elem.ChildCount() {
		return nil
	}
	return c.elem.Child(index)
}

// onArrival calls fn once the slot index is present.
func (c *ValuesContainer) onArrival(index int, fn func()) {
	if len(c.arrivals) == 0 {
		c.doc.Router().AddChildListener(c.elem, c.observer)
	}
	c.arrivals[index] = append(c.arrivals[index], fn)
}

// arrivalObserver watches the values section for slots that were waited on.
type arrivalObserver struct {
	c *ValuesContainer
}

func (o *arrivalObserver) OnChildAdded(_, _ *substrate.Element) {
	c := o.c
	for index, fns := range c.arrivals {
		if c.Get(index).State != Present {
			continue
		}
		delete(c.arrivals, index)
		for _, fn := range fns {
			fn()
		}
	}
	if len(c.arrivals) == 0 {
		c.doc.Router().RemoveChildListener(c.elem, o)
	}
}

func (o *arrivalObserver) OnChildRemoved(_, _ *substrate.Element) {}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// parseIndexRef parses <prefix>+<index>.
func parseIndexRef(ref, prefix string) (int, error) {
	raw, ok := strings.CutPrefix(ref, prefix+"+")
	if !ok {
		return 0, newError(CodeInvalidReference, "%q is not a %s reference", ref, prefix)
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, newError(CodeInvalidReference, "%q has no valid slot index", ref)
	}
	return index, nil
}

// childWithTag returns the first direct child of e with tag or nil.
func childWithTag(e *substrate.Element, tag string) *substrate.Element {
	for _, child := range e.Children() {
		if child.Tag() == tag {
			return child
		}
	}
	return nil
}

package substrate

import (
	"fmt"
	"github.com/ValentinKolb/dObj/lib/common"
	"slices"
)

// --------------------------------------------------------------------------
// Attributes
// --------------------------------------------------------------------------

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Attributes is an ordered attribute list. Serialization keeps the order.
type Attributes []Attr

// Attrs builds Attributes from alternating names and values. A trailing name
// without value is ignored.
func Attrs(nameValues ...string) Attributes {
	attrs := make(Attributes, 0, len(nameValues)/2)
	for i := 0; i+1 < len(nameValues); i += 2 {
		attrs = attrs.With(nameValues[i], nameValues[i+1])
	}
	return attrs
}

// Get returns the value of the attribute name.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// With returns a copy of a where name is set to value. A new attribute is appended.
func (a Attributes) With(name, value string) Attributes {
	next := slices.Clone(a)
	for i := range next {
		if next[i].Name == name {
			next[i].Value = value
			return next
		}
	}
	return append(next, Attr{Name: name, Value: value})
}

// Without returns a copy of a without the attribute name.
func (a Attributes) Without(name string) Attributes {
	return slices.DeleteFunc(slices.Clone(a), func(attr Attr) bool { return attr.Name == name })
}

// --------------------------------------------------------------------------
// Element
// --------------------------------------------------------------------------

// Element is a node of a document tree. Elements are created and changed only
// through their Document so that listeners see every mutation.
type Element struct {
	doc      *Document
	tag      string
	attrs    Attributes
	parent   *Element
	children []*Element
	removed  bool
}

// Tag returns the element tag. The document element has an empty tag.
func (e *Element) Tag() string {
	return e.tag
}

// Attribute returns the value of the attribute name.
func (e *Element) Attribute(name string) (string, bool) {
	return e.attrs.Get(name)
}

// AttributeOr returns the value of the attribute name or fallback if it is unset.
func (e *Element) AttributeOr(name, fallback string) string {
	if v, ok := e.attrs.Get(name); ok {
		return v
	}
	return fallback
}

// Attributes returns a copy of the attributes.
func (e *Element) Attributes() Attributes {
	return slices.Clone(e.attrs)
}

// Parent returns the parent element or nil for the document element.
func (e *Element) Parent() *Element {
	return e.parent
}

// Children returns a snapshot of the child elements.
func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

// ChildCount returns the number of child elements.
func (e *Element) ChildCount() int {
	return len(e.children)
}

// Child returns the child at index or nil if the index is out of range.
func (e *Element) Child(index int) *Element {
	if index < 0 || index >= len(e.children) {
		return nil
	}
	return e.children[index]
}

// FirstChild returns the first child or nil.
func (e *Element) FirstChild() *Element {
	return e.Child(0)
}

// NextSibling returns the following sibling or nil.
func (e *Element) NextSibling() *Element {
	if e.parent == nil {
		return nil
	}
	return e.parent.Child(e.IndexInParent() + 1)
}

// IndexInParent returns the position of e among its siblings or -1.
func (e *Element) IndexInParent() int {
	if e.parent == nil {
		return -1
	}
	return slices.Index(e.parent.children, e)
}

// IsRemoved reports whether e was deleted from its document.
func (e *Element) IsRemoved() bool {
	return e.removed
}

// Document returns the document owning e.
func (e *Element) Document() *Document {
	return e.doc
}

func (e *Element) String() string {
	return fmt.Sprintf("<%s%s>", e.tag, formatAttributes(e.attrs))
}

// walk visits e and its descendants in document order until fn returns false.
func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, child := range e.children {
		if !child.walk(fn) {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Document
// --------------------------------------------------------------------------

// DocumentListener receives document mutations synchronously after they happen.
type DocumentListener interface {
	// OnElementAdded is called for every inserted element in document order.
	OnElementAdded(e *Element)
	// OnElementRemoved is called for every removed element, children first.
	OnElementRemoved(parent, e *Element)
	// OnAttributeChanged is called when an attribute is set or removed. A removed
	// attribute has an empty newValue, a new one an empty oldValue.
	OnAttributeChanged(e *Element, name, oldValue, newValue string)
}

// Document is an XML-like element tree owned by a Wavelet.
type Document struct {
	id        string
	wavelet   *Wavelet
	root      *Element
	listeners common.ListenerSet[DocumentListener]
	router    *Router
}

func newDocument(id string, w *Wavelet) *Document {
	d := &Document{id: id, wavelet: w}
	d.root = &Element{doc: d}
	return d
}

// ID returns the document id.
func (d *Document) ID() string {
	return d.id
}

// DocumentElement returns the anonymous root element holding the top level elements.
func (d *Document) DocumentElement() *Element {
	return d.root
}

// AddListener registers l for all mutations of d.
func (d *Document) AddListener(l DocumentListener) {
	d.listeners.Add(l)
}

// RemoveListener unregisters l.
func (d *Document) RemoveListener(l DocumentListener) {
	d.listeners.Remove(l)
}

// Router returns the event router of d. It is created on first use.
func (d *Document) Router() *Router {
	if d.router == nil {
		d.router = newRouter()
		d.AddListener(d.router)
	}
	return d.router
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// CreateChildElement appends a new element to parent.
func (d *Document) CreateChildElement(parent *Element, tag string, attrs Attributes) (*Element, error) {
	if err := d.check(parent); err != nil {
		return nil, err
	}
	return d.insert(parent, len(parent.children), tag, attrs), nil
}

// CreateElementBefore inserts a new element in front of sibling.
func (d *Document) CreateElementBefore(sibling *Element, tag string, attrs Attributes) (*Element, error) {
	if err := d.check(sibling); err != nil {
		return nil, err
	}
	if sibling.parent == nil {
		return nil, fmt.Errorf("%w: cannot insert a sibling of the document element", ErrForeignElement)
	}
	return d.insert(sibling.parent, sibling.IndexInParent(), tag, attrs), nil
}

// InsertChildAt inserts a new element into parent at index (0 <= index <= child count).
func (d *Document) InsertChildAt(parent *Element, index int, tag string, attrs Attributes) (*Element, error) {
	if err := d.check(parent); err != nil {
		return nil, err
	}
	if index < 0 || index > len(parent.children) {
		return nil, fmt.Errorf("%w: child index %d of %d", ErrInvalidLocation, index, len(parent.children))
	}
	return d.insert(parent, index, tag, attrs), nil
}

// DeleteNode removes e with its subtree. The document element cannot be removed.
func (d *Document) DeleteNode(e *Element) error {
	if err := d.check(e); err != nil {
		return err
	}
	if e.parent == nil {
		return fmt.Errorf("%w: cannot delete the document element", ErrForeignElement)
	}
	parent := e.parent
	parent.children = slices.DeleteFunc(slices.Clone(parent.children), func(c *Element) bool { return c == e })
	d.touch()
	d.fireRemoved(parent, e)
	return nil
}

// SetElementAttribute sets name on e. Setting the current value is a no-op.
func (d *Document) SetElementAttribute(e *Element, name, value string) error {
	if err := d.check(e); err != nil {
		return err
	}
	old, had := e.attrs.Get(name)
	if had && old == value {
		return nil
	}
	e.attrs = e.attrs.With(name, value)
	d.touch()
	d.listeners.Fire(func(l DocumentListener) { l.OnAttributeChanged(e, name, old, value) })
	return nil
}

// RemoveElementAttribute removes name from e. Removing an unset attribute is a no-op.
func (d *Document) RemoveElementAttribute(e *Element, name string) error {
	if err := d.check(e); err != nil {
		return err
	}
	old, ok := e.attrs.Get(name)
	if !ok {
		return nil
	}
	e.attrs = e.attrs.Without(name)
	d.touch()
	d.listeners.Fire(func(l DocumentListener) { l.OnAttributeChanged(e, name, old, "") })
	return nil
}

func (d *Document) insert(parent *Element, index int, tag string, attrs Attributes) *Element {
	e := &Element{doc: d, tag: tag, attrs: slices.Clone(attrs), parent: parent}
	d.attach(parent, index, e)
	return e
}

// attach links a prepared subtree into parent and fires the added events.
func (d *Document) attach(parent *Element, index int, e *Element) {
	e.parent = parent
	parent.children = slices.Insert(slices.Clone(parent.children), index, e)
	d.touch()
	e.walk(func(added *Element) bool {
		d.listeners.Fire(func(l DocumentListener) { l.OnElementAdded(added) })
		return true
	})
}

func (d *Document) fireRemoved(parent, e *Element) {
	for _, child := range e.Children() {
		d.fireRemoved(e, child)
	}
	e.removed = true
	d.listeners.Fire(func(l DocumentListener) { l.OnElementRemoved(parent, e) })
}

func (d *Document) check(e *Element) error {
	if e == nil || e.doc != d {
		return ErrForeignElement
	}
	if e.removed {
		return ErrElementRemoved
	}
	return nil
}

func (d *Document) touch() {
	if d.wavelet != nil {
		d.wavelet.touch(d.id)
	}
	documentMutations.Inc()
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// ElementWithTag returns the first element with tag in document order or nil.
func (d *Document) ElementWithTag(tag string) *Element {
	var found *Element
	d.root.walk(func(e *Element) bool {
		if e != d.root && e.tag == tag {
			found = e
			return false
		}
		return true
	})
	return found
}

// ElementsWithTag returns all elements with tag in document order.
func (d *Document) ElementsWithTag(tag string) []*Element {
	var found []*Element
	d.root.walk(func(e *Element) bool {
		if e != d.root && e.tag == tag {
			found = append(found, e)
		}
		return true
	})
	return found
}

// IsEmpty reports whether the document has no elements.
func (d *Document) IsEmpty() bool {
	return len(d.root.children) == 0
}

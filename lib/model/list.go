package model

import (
	"github.com/ValentinKolb/dObj/lib/common"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"strconv"
	"strings"
)

const listTag = "list"

// ListListener is notified about values added to or removed from a list.
type ListListener interface {
	OnValueAdded(value Type)
	OnValueRemoved(value Type)
}

// ListType is an ordered sequence of values backed by its own document:
//
//	<metadata .../>
//	<list><item t="prefix" r="ref"/>...</list>
//	<values><i v="..."/>...</values>
type ListType struct {
	model  *Model
	docID  string
	doc    *substrate.Document
	elem   *substrate.Element
	meta   *metadata
	values *ValuesContainer
	state  attachState

	factory   listElementFactory
	cache     map[*substrate.Element]Type
	awaiting  map[*substrate.Element]bool
	listeners common.ListenerSet[ListListener]
	observer  *listObserver
}

func (l *ListType) Prefix() string     { return PrefixList }
func (l *ListType) TypeName() string   { return "ListType" }
func (l *ListType) IsAttached() bool   { return l.state == stateAttached }
func (l *ListType) DocumentID() string { return l.docID }
func (l *ListType) Model() *Model      { return l.model }

func (l *ListType) Path() string {
	if l.meta == nil {
		return ""
	}
	return l.meta.path()
}

func (l *ListType) Ref() (string, error) {
	if l.docID == "" {
		return "", errNotAttached(l.TypeName(), "serialize")
	}
	return l.docID, nil
}

func (l *ListType) Equal(other Type) bool {
	o, ok := other.(*ListType)
	return ok && l.docID != "" && l.docID == o.docID && l.model.sameWavelet(o.model)
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// Size returns the number of items.
func (l *ListType) Size() int {
	if l.elem == nil {
		return 0
	}
	return l.elem.ChildCount()
}

// Get returns the value at index. index must be in [0, Size()).
func (l *ListType) Get(index int) (Type, error) {
	if !l.IsAttached() {
		return nil, errNotAttached(l.TypeName(), "read")
	}
	if index < 0 || index >= l.Size() {
		return nil, newError(CodeOutOfRange, "index %d of list with %d items", index, l.Size())
	}
	return l.resolve(l.elem.Child(index))
}

// IndexOf returns the index of the first value equal to value or -1.
func (l *ListType) IndexOf(value Type) int {
	if !l.IsAttached() || value == nil {
		return -1
	}
	for i, e := range l.elem.Children() {
		if v, err := l.resolve(e); err == nil && v.Equal(value) {
			return i
		}
	}
	return -1
}

// Values returns a snapshot of all values. Corrupt items are skipped.
func (l *ListType) Values() []Type {
	if !l.IsAttached() {
		return nil
	}
	values := make([]Type, 0, l.Size())
	for _, e := range l.elem.Children() {
		if v, err := l.resolve(e); err == nil {
			values = append(values, v)
		}
	}
	return values
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Add appends value. See AddAt.
func (l *ListType) Add(value Type) (Type, error) {
	return l.AddAt(l.Size(), value)
}

// AddAt attaches value and inserts it at index (0 <= index <= Size()). It
// returns the list's own instance of the value, which is equal to value.
func (l *ListType) AddAt(index int, value Type) (Type, error) {
	if !l.IsAttached() {
		return nil, errNotAttached(l.TypeName(), "add to")
	}
	if index < 0 || index > l.Size() {
		return nil, newError(CodeOutOfRange, "index %d of list with %d items", index, l.Size())
	}
	if value == nil || value.IsAttached() {
		return nil, newError(CodeInvalidState, "value for index %d must be detached", index)
	}

	if err := value.attach(l); err != nil {
		return nil, err
	}
	item, err := NewListElementInitializer(value)
	if err == nil {
		_, err = l.doc.InsertChildAt(l.elem, index, itemTag, item.Attributes())
	}
	if err != nil {
		if derr := value.deattach(); derr != nil {
			log.Debugf("rollback of index %d in %s: %v", index, l.docID, derr)
		}
		return nil, err
	}

	path := l.Path() + "." + strconv.Itoa(index)
	value.setPath(path)
	stored, err := l.Get(index)
	if err != nil {
		return nil, err
	}
	stored.setPath(path)
	return stored, nil
}

// Remove deletes the item at index and deattaches its value. It returns nil if
// the index is not populated locally or the removal fails.
func (l *ListType) Remove(index int) (Type, error) {
	if !l.IsAttached() {
		return nil, errNotAttached(l.TypeName(), "remove from")
	}
	if index < 0 || index >= l.Size() {
		return nil, nil
	}
	e := l.elem.Child(index)
	value, err := l.resolve(e)
	if err != nil {
		return nil, nil
	}
	if err := l.doc.DeleteNode(e); err != nil {
		log.Warningf("unable to remove index %d of %s: %v", index, l.docID, err)
		return nil, nil
	}
	if value.IsAttached() {
		if err := value.deattach(); err != nil {
			return nil, err
		}
	}
	return value, nil
}

// AddListener registers ll.
func (l *ListType) AddListener(ll ListListener) {
	l.listeners.Add(ll)
}

// RemoveListener unregisters ll.
func (l *ListType) RemoveListener(ll ListListener) {
	l.listeners.Remove(ll)
}

// --------------------------------------------------------------------------
// Attachment
// --------------------------------------------------------------------------

func (l *ListType) attach(parent container) error {
	if l.model == nil {
		if parent == nil {
			return newError(CodeInvalidParent, "list needs a model")
		}
		l.model = parent.Model()
	}
	if l.state != stateDetached {
		return newError(CodeInvalidState, "list %s is already attached", l.docID)
	}
	return l.attachRef(parent, l.model.GenerateDocID(PrefixList))
}

func (l *ListType) attachRef(parent container, ref string) error {
	if l.state != stateDetached {
		return newError(CodeInvalidState, "list %s is already attached", l.docID)
	}
	if !strings.HasPrefix(ref, PrefixList+"+") {
		return newError(CodeInvalidReference, "%q is not a list reference", ref)
	}
	if l.model == nil && parent != nil {
		l.model = parent.Model()
	}
	doc, err := l.model.openDocument(ref)
	if err != nil {
		return err
	}
	if l.meta, err = loadMetadata(l.model, doc); err != nil {
		return err
	}
	if l.elem = childWithTag(doc.DocumentElement(), listTag); l.elem == nil {
		if l.elem, err = doc.CreateChildElement(doc.DocumentElement(), listTag, nil); err != nil {
			return err
		}
	}
	if l.values, err = newValuesContainer(l.model, doc); err != nil {
		return err
	}
	l.doc, l.docID = doc, ref

	l.factory = listElementFactory{list: l}
	l.cache = make(map[*substrate.Element]Type)
	l.awaiting = make(map[*substrate.Element]bool)
	l.observer = &listObserver{l: l}
	doc.Router().AddChildListener(l.elem, l.observer)
	l.state = stateAttached
	return nil
}

func (l *ListType) deattach() error {
	if l.state != stateAttached {
		return errNotAttached(l.TypeName(), "deattach")
	}
	l.meta.clearPath()
	l.doc.Router().RemoveChildListener(l.elem, l.observer)
	l.state = stateRemoved
	return nil
}

func (l *ListType) setPath(path string) {
	if l.state == stateAttached {
		l.meta.setPath(path)
	}
}

func (l *ListType) valuesContainer() *ValuesContainer {
	return l.values
}

// markValueUpdate only logs; list listeners see additions and removals.
func (l *ListType) markValueUpdate(v Type) {
	log.Debugf("value %s of %s updated", v.Path(), l.docID)
}

func (l *ListType) resolve(e *substrate.Element) (Type, error) {
	if v, ok := l.cache[e]; ok {
		return v, nil
	}
	v, err := l.factory.create(e)
	if err != nil {
		log.Warningf("corrupt item %d in %s: %v", e.IndexInParent(), l.docID, err)
		return nil, err
	}
	v.setPath(l.Path() + "." + strconv.Itoa(e.IndexInParent()))
	l.cache[e] = v
	return v, nil
}

// --------------------------------------------------------------------------
// Document events
// --------------------------------------------------------------------------

type listObserver struct {
	l *ListType
}

func (o *listObserver) OnChildAdded(_, child *substrate.Element) {
	l := o.l
	if child.Tag() != itemTag {
		return
	}
	value, err := l.resolve(child)
	if err != nil {
		return
	}
	p, values, index, pending := isPending(value)
	if !pending {
		l.listeners.Fire(func(ll ListListener) { ll.OnValueAdded(value) })
		return
	}
	l.awaiting[child] = true
	values.onArrival(index, func() {
		delete(l.awaiting, child)
		if child.IsRemoved() || !p.reattach() {
			return
		}
		l.listeners.Fire(func(ll ListListener) { ll.OnValueAdded(p) })
	})
}

func (o *listObserver) OnChildRemoved(_, child *substrate.Element) {
	l := o.l
	value, err := l.resolve(child)
	delete(l.cache, child)
	if err != nil || l.awaiting[child] {
		delete(l.awaiting, child)
		return
	}
	l.listeners.Fire(func(ll ListListener) { ll.OnValueRemoved(value) })
}

package model

import (
	"github.com/ValentinKolb/dObj/lib/common"
	"github.com/ValentinKolb/dObj/lib/substrate"
	mapset "github.com/deckarep/golang-set/v2"
	"slices"
	"strings"
)

const (
	mapTag       = "map"
	entryTag     = "entry"
	entryKeyAttr = "k"
	entryValAttr = "v"
)

// MapListener is notified about changes of a map. oldValue is nil if the key was absent.
type MapListener interface {
	OnValueChanged(key string, oldValue, newValue Type)
	OnValueRemoved(key string, oldValue Type)
}

type mapEntry struct {
	elem     *substrate.Element
	value    Type
	awaiting bool
}

// MapType maps string keys to values. It is backed by its own document:
//
//	<metadata .../>
//	<map><entry k="key" v="ref"/>...</map>
//	<values><i v="..."/>...</values>
//
// Numbers and files of the map live in its values section, strings in the
// model-global string index and containers in their own documents.
type MapType struct {
	model  *Model
	docID  string
	doc    *substrate.Document
	elem   *substrate.Element
	meta   *metadata
	values *ValuesContainer
	state  attachState

	entries   map[string]*mapEntry
	listeners common.ListenerSet[MapListener]
	observer  *mapObserver
}

func (m *MapType) Prefix() string     { return PrefixMap }
func (m *MapType) TypeName() string   { return "MapType" }
func (m *MapType) IsAttached() bool   { return m.state == stateAttached }
func (m *MapType) DocumentID() string { return m.docID }
func (m *MapType) Model() *Model      { return m.model }

func (m *MapType) Path() string {
	if m.meta == nil {
		return ""
	}
	return m.meta.path()
}

func (m *MapType) Ref() (string, error) {
	if m.docID == "" {
		return "", errNotAttached(m.TypeName(), "serialize")
	}
	return m.docID, nil
}

func (m *MapType) Equal(other Type) bool {
	o, ok := other.(*MapType)
	return ok && m.docID != "" && m.docID == o.docID && m.model.sameWavelet(o.model)
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// Get returns the value of key or nil if the key is absent. A value whose slot
// has not arrived yet is returned unattached.
func (m *MapType) Get(key string) (Type, error) {
	if !m.IsAttached() {
		return nil, errNotAttached(m.TypeName(), "read")
	}
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return m.resolve(key, entry)
}

// Has reports whether key is set.
func (m *MapType) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Size returns the number of keys.
func (m *MapType) Size() int {
	return len(m.entries)
}

// KeySet returns the keys. The set is a snapshot.
func (m *MapType) KeySet() mapset.Set[string] {
	keys := mapset.NewThreadUnsafeSetWithSize[string](len(m.entries))
	for key := range m.entries {
		keys.Add(key)
	}
	return keys
}

// Keys returns the keys in lexical order.
func (m *MapType) Keys() []string {
	keys := m.KeySet().ToSlice()
	slices.Sort(keys)
	return keys
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Put attaches value and stores it under key, replacing and deattaching the
// previous value. It returns the map's own instance of the stored value, which
// is equal to value. value must be detached; if the write fails it is
// deattached again and must not be used.
func (m *MapType) Put(key string, value Type) (Type, error) {
	if !m.IsAttached() {
		return nil, errNotAttached(m.TypeName(), "put into")
	}
	if value == nil || value.IsAttached() {
		return nil, newError(CodeInvalidState, "value for %q must be detached", key)
	}

	var old Type
	if entry, ok := m.entries[key]; ok {
		old, _ = m.resolve(key, entry)
	}

	if err := value.attach(m); err != nil {
		return nil, err
	}
	ref, err := value.Ref()
	if err == nil {
		if entry, ok := m.entries[key]; ok {
			err = m.doc.SetElementAttribute(entry.elem, entryValAttr, ref)
		} else {
			_, err = m.doc.CreateChildElement(m.elem, entryTag, substrate.Attrs(entryKeyAttr, key, entryValAttr, ref))
		}
	}
	if err != nil {
		if derr := value.deattach(); derr != nil {
			log.Debugf("rollback of %q in %s: %v", key, m.docID, derr)
		}
		return nil, err
	}

	path := m.Path() + "." + key
	value.setPath(path)
	stored, err := m.Get(key)
	if err != nil || stored == nil {
		return nil, err
	}
	stored.setPath(path)

	if old != nil && old.IsAttached() && !old.Equal(stored) {
		if err := old.deattach(); err != nil {
			log.Debugf("deattach of replaced %q in %s: %v", key, m.docID, err)
		}
	}
	return stored, nil
}

// PutString stores value under key. An attached string already stored under key
// is updated in place.
func (m *MapType) PutString(key, value string) (Type, error) {
	if current, err := m.Get(key); err == nil {
		if s, ok := current.(*StringType); ok && s.IsAttached() {
			return s, s.SetValue(value)
		}
	}
	return m.Put(key, NewString(value))
}

// Remove deletes key and deattaches its value. Removing an absent key is a no-op.
func (m *MapType) Remove(key string) error {
	if !m.IsAttached() {
		return errNotAttached(m.TypeName(), "remove from")
	}
	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	value, _ := m.resolve(key, entry)
	if err := m.doc.DeleteNode(entry.elem); err != nil {
		return err
	}
	if value != nil && value.IsAttached() {
		return value.deattach()
	}
	return nil
}

// AddListener registers l.
func (m *MapType) AddListener(l MapListener) {
	m.listeners.Add(l)
}

// RemoveListener unregisters l.
func (m *MapType) RemoveListener(l MapListener) {
	m.listeners.Remove(l)
}

// --------------------------------------------------------------------------
// Attachment
// --------------------------------------------------------------------------

func (m *MapType) attach(parent container) error {
	if m.model == nil {
		if parent == nil {
			return newError(CodeInvalidParent, "map needs a model")
		}
		m.model = parent.Model()
	}
	if m.state != stateDetached {
		return newError(CodeInvalidState, "map %s is already attached", m.docID)
	}
	return m.attachRef(parent, m.model.GenerateDocID(PrefixMap))
}

func (m *MapType) attachRef(parent container, ref string) error {
	if m.state != stateDetached {
		return newError(CodeInvalidState, "map %s is already attached", m.docID)
	}
	if !strings.HasPrefix(ref, PrefixMap+"+") {
		return newError(CodeInvalidReference, "%q is not a map reference", ref)
	}
	if m.model == nil && parent != nil {
		m.model = parent.Model()
	}
	doc, err := m.model.openDocument(ref)
	if err != nil {
		return err
	}
	if m.meta, err = loadMetadata(m.model, doc); err != nil {
		return err
	}
	if m.elem = childWithTag(doc.DocumentElement(), mapTag); m.elem == nil {
		if m.elem, err = doc.CreateChildElement(doc.DocumentElement(), mapTag, nil); err != nil {
			return err
		}
	}
	if m.values, err = newValuesContainer(m.model, doc); err != nil {
		return err
	}
	m.doc, m.docID = doc, ref

	m.observer = &mapObserver{m: m}
	m.entries = make(map[string]*mapEntry)
	router := doc.Router()
	router.AddChildListener(m.elem, m.observer)
	for _, e := range m.elem.Children() {
		if key, ok := e.Attribute(entryKeyAttr); ok && e.Tag() == entryTag {
			m.entries[key] = &mapEntry{elem: e}
			router.AddAttributeListener(e, m.observer)
		}
	}
	m.state = stateAttached
	return nil
}

func (m *MapType) deattach() error {
	if m.state != stateAttached {
		return errNotAttached(m.TypeName(), "deattach")
	}
	m.meta.clearPath()
	router := m.doc.Router()
	router.RemoveChildListener(m.elem, m.observer)
	for _, entry := range m.entries {
		router.RemoveAttributeListener(entry.elem, m.observer)
	}
	m.state = stateRemoved
	return nil
}

func (m *MapType) setPath(path string) {
	if m.state == stateAttached {
		m.meta.setPath(path)
	}
}

func (m *MapType) valuesContainer() *ValuesContainer {
	return m.values
}

// markValueUpdate fires OnValueChanged(key, v, v) for the key holding v.
func (m *MapType) markValueUpdate(v Type) {
	for key, entry := range m.entries {
		if entry.value != nil && entry.value.Equal(v) {
			m.listeners.Fire(func(l MapListener) { l.OnValueChanged(key, v, v) })
			return
		}
	}
}

// resolve returns the cached value of entry, deserializing it on first use.
func (m *MapType) resolve(key string, entry *mapEntry) (Type, error) {
	if entry.value != nil {
		return entry.value, nil
	}
	ref, _ := entry.elem.Attribute(entryValAttr)
	value, err := resolve(m, ref, entry.elem, entryValAttr)
	if err != nil {
		log.Warningf("corrupt entry %q in %s: %v", key, m.docID, err)
		return nil, err
	}
	value.setPath(m.Path() + "." + key)
	entry.value = value
	return value, nil
}

// notifyChanged fires OnValueChanged once the new value is attached. Values
// whose slot is pending are announced when the slot arrives.
func (m *MapType) notifyChanged(key string, entry *mapEntry, oldValue Type) {
	value, err := m.resolve(key, entry)
	if err != nil {
		return
	}
	p, values, index, pending := isPending(value)
	if !pending {
		m.listeners.Fire(func(l MapListener) { l.OnValueChanged(key, oldValue, value) })
		return
	}
	if entry.awaiting {
		return
	}
	entry.awaiting = true
	values.onArrival(index, func() {
		entry.awaiting = false
		if m.entries[key] != entry || entry.value != p || !p.reattach() {
			return
		}
		m.listeners.Fire(func(l MapListener) { l.OnValueChanged(key, oldValue, p) })
	})
}

// --------------------------------------------------------------------------
// Document events
// --------------------------------------------------------------------------

// mapObserver applies entry changes of the map document, local and remote.
type mapObserver struct {
	m *MapType
}

func (o *mapObserver) OnChildAdded(_, child *substrate.Element) {
	m := o.m
	key, ok := child.Attribute(entryKeyAttr)
	if !ok || child.Tag() != entryTag {
		return
	}
	var oldValue Type
	if previous, ok := m.entries[key]; ok {
		oldValue, _ = m.resolve(key, previous)
	}
	entry := &mapEntry{elem: child}
	m.entries[key] = entry
	m.doc.Router().AddAttributeListener(child, o)
	m.notifyChanged(key, entry, oldValue)
}

func (o *mapObserver) OnChildRemoved(_, child *substrate.Element) {
	m := o.m
	key, _ := child.Attribute(entryKeyAttr)
	entry, ok := m.entries[key]
	if !ok || entry.elem != child {
		return
	}
	oldValue, _ := m.resolve(key, entry)
	delete(m.entries, key)

	// a concurrent writer may have left a second entry for the key
	for _, e := range m.elem.Children() {
		if k, _ := e.Attribute(entryKeyAttr); k == key && e.Tag() == entryTag {
			m.entries[key] = &mapEntry{elem: e}
			m.notifyChanged(key, m.entries[key], oldValue)
			return
		}
	}
	m.listeners.Fire(func(l MapListener) { l.OnValueRemoved(key, oldValue) })
}

func (o *mapObserver) OnAttributeChanged(e *substrate.Element, name, oldRef, newRef string) {
	m := o.m
	if name != entryValAttr {
		return
	}
	key, _ := e.Attribute(entryKeyAttr)
	entry, ok := m.entries[key]
	if !ok || entry.elem != e {
		return
	}
	oldValue := entry.value
	if oldValue != nil && strings.HasPrefix(oldRef, inlinePrefix) && strings.HasPrefix(newRef, inlinePrefix) {
		// an inline string written in place
		m.listeners.Fire(func(l MapListener) { l.OnValueChanged(key, oldValue, oldValue) })
		return
	}
	if literal, ok := strings.CutPrefix(oldRef, inlinePrefix); ok {
		// the attribute no longer holds the literal, keep it in a detached copy
		if s, ok := oldValue.(*StringType); ok && s.IsAttached() {
			s.slot.releaseWith(literal)
		} else {
			oldValue = &StringType{initValue: literal}
		}
	} else if oldValue == nil {
		oldValue, _ = resolve(m, oldRef, e, entryValAttr)
	}
	entry.value, entry.awaiting = nil, false
	m.notifyChanged(key, entry, oldValue)
}

package substrate

import "github.com/ValentinKolb/dObj/lib/common"

// ChildListener observes the direct children of one element.
type ChildListener interface {
	OnChildAdded(parent, child *Element)
	OnChildRemoved(parent, child *Element)
}

// AttributeListener observes the attributes of one element.
type AttributeListener interface {
	OnAttributeChanged(e *Element, name, oldValue, newValue string)
}

// Router fans document events out to listeners registered for a specific
// element. Listeners of a removed element are dropped once its removal was
// delivered.
type Router struct {
	children   map[*Element]*common.ListenerSet[ChildListener]
	attributes map[*Element]*common.ListenerSet[AttributeListener]
}

func newRouter() *Router {
	return &Router{
		children:   make(map[*Element]*common.ListenerSet[ChildListener]),
		attributes: make(map[*Element]*common.ListenerSet[AttributeListener]),
	}
}

// AddChildListener registers l for children added to or removed from parent.
func (r *Router) AddChildListener(parent *Element, l ChildListener) {
	set, ok := r.children[parent]
	if !ok {
		set = &common.ListenerSet[ChildListener]{}
		r.children[parent] = set
	}
	set.Add(l)
}

// RemoveChildListener unregisters l from parent.
func (r *Router) RemoveChildListener(parent *Element, l ChildListener) {
	if set, ok := r.children[parent]; ok {
		set.Remove(l)
		if set.Len() == 0 {
			delete(r.children, parent)
		}
	}
}

// AddAttributeListener registers l for attribute changes of e.
func (r *Router) AddAttributeListener(e *Element, l AttributeListener) {
	set, ok := r.attributes[e]
	if !ok {
		set = &common.ListenerSet[AttributeListener]{}
		r.attributes[e] = set
	}
	set.Add(l)
}

// RemoveAttributeListener unregisters l from e.
func (r *Router) RemoveAttributeListener(e *Element, l AttributeListener) {
	if set, ok := r.attributes[e]; ok {
		set.Remove(l)
		if set.Len() == 0 {
			delete(r.attributes, e)
		}
	}
}

// --------------------------------------------------------------------------
// DocumentListener implementation
// --------------------------------------------------------------------------

func (r *Router) OnElementAdded(e *Element) {
	if set, ok := r.children[e.parent]; ok {
		set.Fire(func(l ChildListener) { l.OnChildAdded(e.parent, e) })
	}
}

func (r *Router) OnElementRemoved(parent, e *Element) {
	if set, ok := r.children[parent]; ok {
		set.Fire(func(l ChildListener) { l.OnChildRemoved(parent, e) })
	}
	delete(r.children, e)
	delete(r.attributes, e)
}

func (r *Router) OnAttributeChanged(e *Element, name, oldValue, newValue string) {
	if set, ok := r.attributes[e]; ok {
		set.Fire(func(l AttributeListener) { l.OnAttributeChanged(e, name, oldValue, newValue) })
	}
}

package model

import (
	"fmt"
	"github.com/ValentinKolb/dObj/lib/common"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"strings"
)

// inlinePrefix marks a string literal stored directly in a map entry or list item.
const inlinePrefix = "s:"

type attachState uint8

const (
	stateDetached attachState = iota
	stateAttached
	stateRemoved
)

// ValueListener is notified when a primitive value changes, locally or remotely.
type ValueListener interface {
	OnValueChanged(oldValue, newValue string)
}

// slot is the storage binding shared by the primitive types. A slot is either
// an index into a values container or an inline s:<literal> attribute.
type slot struct {
	parent container
	values *ValuesContainer
	index  int
	elem   *substrate.Element

	// inline binding
	inline     bool
	inlineAttr string

	state     attachState
	path      string
	listeners common.ListenerSet[ValueListener]

	// last is the value held when the slot was released.
	last string
}

// claim appends value to values and binds the new slot.
func (s *slot) claim(parent container, values *ValuesContainer, value string) error {
	if s.state != stateDetached || s.values != nil {
		return newError(CodeInvalidState, "value is already attached")
	}
	if values == nil {
		return newError(CodeInvalidParent, "parent has no values container")
	}
	index, err := values.Add(value)
	if err != nil {
		return err
	}
	s.bind(parent, values, index)
	return nil
}

// bind points the slot at index. It reports false if the slot has not arrived;
// the binding is kept so that reattach can retry.
func (s *slot) bind(parent container, values *ValuesContainer, index int) bool {
	s.parent, s.values, s.index = parent, values, index
	if values.Get(index).State != Present {
		return false
	}
	s.elem = values.slot(index)
	s.state = stateAttached
	values.doc.Router().AddAttributeListener(s.elem, s)
	return true
}

// bindInline binds the slot to an s:<literal> attribute of e.
func (s *slot) bindInline(parent container, e *substrate.Element, attr string) error {
	if s.state != stateDetached {
		return newError(CodeInvalidState, "value is already attached")
	}
	s.parent, s.elem, s.inline, s.inlineAttr = parent, e, true, attr
	s.state = stateAttached
	e.Document().Router().AddAttributeListener(e, s)
	return nil
}

// reattach retries a pending binding.
func (s *slot) reattach() bool {
	if s.state != stateDetached || s.values == nil {
		return s.state == stateAttached
	}
	return s.bind(s.parent, s.values, s.index)
}

// pending returns the values container and index the slot waits for.
func (s *slot) pending() (*ValuesContainer, int, bool) {
	if s.state != stateDetached || s.values == nil {
		return nil, 0, false
	}
	return s.values, s.index, s.values.Get(s.index).State == Pending
}

func (s *slot) attached() bool {
	return s.state == stateAttached
}

// raw returns the stored value of an attached slot.
func (s *slot) raw() (string, bool) {
	if s.state != stateAttached {
		return "", false
	}
	if s.inline {
		v, _ := s.elem.Attribute(s.inlineAttr)
		return strings.TrimPrefix(v, inlinePrefix), true
	}
	l := s.values.Get(s.index)
	return l.Value, l.State == Present
}

// current returns the stored value, retrying a pending binding. A released slot
// returns the value it held when it was released, an unbound one fallback.
func (s *slot) current(fallback string) string {
	if s.state == stateRemoved {
		return s.last
	}
	if v, ok := s.raw(); ok {
		return v
	}
	if s.reattach() {
		v, _ := s.raw()
		return v
	}
	return fallback
}

// write stores value. It reports whether anything was written; unattached slots
// and unchanged values are skipped.
func (s *slot) write(value string) (bool, error) {
	current, ok := s.raw()
	if !ok || current == value {
		return false, nil
	}
	if s.inline {
		return true, s.elem.Document().SetElementAttribute(s.elem, s.inlineAttr, inlinePrefix+value)
	}
	return true, s.values.Set(s.index, value)
}

// release detaches the slot for good.
func (s *slot) release(name string) error {
	if s.state != stateAttached {
		return errNotAttached(name, "deattach")
	}
	last, _ := s.raw()
	s.releaseWith(last)
	return nil
}

// releaseWith detaches the slot for good, recording last as its final value.
// It is used when the bound attribute was already overwritten.
func (s *slot) releaseWith(last string) {
	s.elem.Document().Router().RemoveAttributeListener(s.elem, s)
	s.last = last
	s.state = stateRemoved
}

// ref serializes the binding.
func (s *slot) ref(prefix string) (string, error) {
	if s.inline {
		v, _ := s.raw()
		return inlinePrefix + v, nil
	}
	if s.values == nil {
		return "", errNotAttached(prefix, "serialize")
	}
	return fmt.Sprintf("%s+%d", prefix, s.index), nil
}

// sameSlot reports whether both slots reference the same storage.
func (s *slot) sameSlot(other *slot) bool {
	if s.inline || other.inline {
		return s.inline && other.inline && s.elem == other.elem && s.inlineAttr == other.inlineAttr
	}
	return s.values != nil && other.values != nil &&
		s.values.doc == other.values.doc && s.index == other.index
}

func (s *slot) markUpdate(v Type) {
	if s.parent != nil {
		s.parent.markValueUpdate(v)
	}
}

// OnAttributeChanged relays changes of the bound attribute to the value listeners.
func (s *slot) OnAttributeChanged(_ *substrate.Element, name, oldValue, newValue string) {
	if s.state != stateAttached {
		return
	}
	if s.inline {
		// a non-inline value replaces the string, the entry owner releases it
		if name != s.inlineAttr || !strings.HasPrefix(newValue, inlinePrefix) {
			return
		}
		oldValue, newValue = strings.TrimPrefix(oldValue, inlinePrefix), strings.TrimPrefix(newValue, inlinePrefix)
	} else if name != valueAttr {
		return
	}
	s.listeners.Fire(func(l ValueListener) { l.OnValueChanged(oldValue, newValue) })
}

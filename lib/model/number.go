package model

import "strconv"

// NumberType is a numeric value stored as its string form in the values
// container of its parent. It is referenced as n+<index>.
type NumberType struct {
	initValue string
	slot      slot
}

// NewNumber creates a detached number from its string form.
func NewNumber(value string) *NumberType {
	return &NumberType{initValue: value}
}

// NewFloat creates a detached number from a float.
func NewFloat(value float64) *NumberType {
	return NewNumber(strconv.FormatFloat(value, 'f', -1, 64))
}

func (n *NumberType) Prefix() string     { return PrefixNumber }
func (n *NumberType) TypeName() string   { return "NumberType" }
func (n *NumberType) IsAttached() bool   { return n.slot.attached() }
func (n *NumberType) Path() string       { return n.slot.path }
func (n *NumberType) DocumentID() string { return "" }

// Value returns the stored string form.
func (n *NumberType) Value() string {
	return n.slot.current(n.initValue)
}

// Float parses the value. Malformed content returns the strconv error.
func (n *NumberType) Float() (float64, error) {
	return strconv.ParseFloat(n.Value(), 64)
}

// Int parses the value as an integer. Malformed content returns the strconv error.
func (n *NumberType) Int() (int, error) {
	return strconv.Atoi(n.Value())
}

// SetValue writes value. It is dropped silently if the number is not attached.
func (n *NumberType) SetValue(value string) error {
	written, err := n.slot.write(value)
	if err != nil || !written {
		return err
	}
	n.slot.markUpdate(n)
	return nil
}

// AddListener registers l for value changes.
func (n *NumberType) AddListener(l ValueListener) {
	n.slot.listeners.Add(l)
}

// RemoveListener unregisters l.
func (n *NumberType) RemoveListener(l ValueListener) {
	n.slot.listeners.Remove(l)
}

func (n *NumberType) Ref() (string, error) {
	return n.slot.ref(PrefixNumber)
}

func (n *NumberType) Equal(other Type) bool {
	o, ok := other.(*NumberType)
	return ok && n.slot.sameSlot(&o.slot)
}

func (n *NumberType) attach(parent container) error {
	if parent == nil {
		return newError(CodeInvalidParent, "number needs a parent with a values container")
	}
	return n.slot.claim(parent, parent.valuesContainer(), n.initValue)
}

func (n *NumberType) attachRef(parent container, ref string) error {
	if parent == nil || parent.valuesContainer() == nil {
		return newError(CodeInvalidParent, "number needs a parent with a values container")
	}
	if n.slot.state != stateDetached || n.slot.values != nil {
		return newError(CodeInvalidState, "number is already attached")
	}
	index, err := parseIndexRef(ref, PrefixNumber)
	if err != nil {
		return err
	}
	n.slot.bind(parent, parent.valuesContainer(), index)
	return nil
}

func (n *NumberType) deattach() error {
	return n.slot.release(n.TypeName())
}

func (n *NumberType) setPath(path string) {
	n.slot.path = path
}

func (n *NumberType) pending() (*ValuesContainer, int, bool) {
	return n.slot.pending()
}

func (n *NumberType) reattach() bool {
	return n.slot.reattach()
}

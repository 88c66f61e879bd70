package model

// StringType is a string value. It is stored in the model-global string index
// and referenced as str+<index>. Strings written by the 0.2 migration are stored
// inline as s:<value> and stay writable in place.
type StringType struct {
	initValue string
	slot      slot
}

// NewString creates a detached string.
func NewString(value string) *StringType {
	return &StringType{initValue: value}
}

func (s *StringType) Prefix() string   { return PrefixString }
func (s *StringType) TypeName() string { return "StringType" }
func (s *StringType) IsAttached() bool { return s.slot.attached() }
func (s *StringType) Path() string     { return s.slot.path }
func (s *StringType) DocumentID() string {
	return ""
}

// Value returns the current value. A detached string returns its initial value.
// A removed string returns the value it held when it was removed.
func (s *StringType) Value() string {
	return s.slot.current(s.initValue)
}

// SetValue writes value. It is dropped silently if the string is not attached.
func (s *StringType) SetValue(value string) error {
	written, err := s.slot.write(value)
	if err != nil || !written {
		return err
	}
	// inline strings are announced by the entry attribute change
	if !s.slot.inline {
		s.slot.markUpdate(s)
	}
	return nil
}

// IsInline reports whether the value is stored as an s:<value> literal.
func (s *StringType) IsInline() bool {
	return s.slot.inline
}

// AddListener registers l for value changes.
func (s *StringType) AddListener(l ValueListener) {
	s.slot.listeners.Add(l)
}

// RemoveListener unregisters l.
func (s *StringType) RemoveListener(l ValueListener) {
	s.slot.listeners.Remove(l)
}

func (s *StringType) Ref() (string, error) {
	return s.slot.ref(PrefixString)
}

func (s *StringType) Equal(other Type) bool {
	o, ok := other.(*StringType)
	return ok && s.slot.sameSlot(&o.slot)
}

func (s *StringType) attach(parent container) error {
	if parent == nil {
		return newError(CodeInvalidParent, "string needs a parent")
	}
	index, err := parent.Model().stringIndex()
	if err != nil {
		return err
	}
	return s.slot.claim(parent, index, s.initValue)
}

func (s *StringType) attachRef(parent container, ref string) error {
	if parent == nil {
		return newError(CodeInvalidParent, "string needs a parent")
	}
	return s.bindRef(parent, parent.Model(), ref)
}

// bindRef binds s to the slot of a str+<index> reference of m.
func (s *StringType) bindRef(parent container, m *Model, ref string) error {
	if s.slot.state != stateDetached || s.slot.values != nil {
		return newError(CodeInvalidState, "string is already attached")
	}
	index, err := parseIndexRef(ref, PrefixString)
	if err != nil {
		return err
	}
	values, err := m.stringIndex()
	if err != nil {
		return err
	}
	s.slot.bind(parent, values, index)
	return nil
}

func (s *StringType) deattach() error {
	return s.slot.release(s.TypeName())
}

func (s *StringType) setPath(path string) {
	s.slot.path = path
}

func (s *StringType) pending() (*ValuesContainer, int, bool) {
	return s.slot.pending()
}

func (s *StringType) reattach() bool {
	return s.slot.reattach()
}

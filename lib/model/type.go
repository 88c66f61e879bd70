package model

import (
	"github.com/ValentinKolb/dObj/lib/substrate"
	"strings"
)

// Type prefixes. Container prefixes double as document id prefixes.
const (
	PrefixMap    = "map"
	PrefixList   = "list"
	PrefixString = "str"
	PrefixNumber = "n"
	PrefixText   = "b"
	PrefixFile   = "f"
)

// Type is a value of the model tree: *MapType, *ListType, *StringType,
// *NumberType, *TextType or *FileType. The set is closed.
//
// A Type starts detached, becomes attached when it is put into a container and
// is removed for good when it is deattached.
type Type interface {
	// Prefix returns the type prefix.
	Prefix() string
	// TypeName returns a readable name of the variant.
	TypeName() string
	// IsAttached reports whether the value is part of the tree. A value whose
	// storage has not arrived yet is not attached.
	IsAttached() bool
	// Ref serializes the reference the parent stores for this value.
	Ref() (string, error)
	// Path returns the dot separated address of the value, e.g. root.a.0.
	// The path is recorded when the value is attached or resolved. List
	// indices in it are not renumbered when items are inserted or removed
	// before the value; FromPath always resolves the current index.
	Path() string
	// DocumentID returns the backing document id of container types and "" otherwise.
	DocumentID() string
	// Equal reports whether both values reference the same document or slot.
	Equal(other Type) bool

	attach(parent container) error
	attachRef(parent container, ref string) error
	deattach() error
	setPath(path string)
}

// container is a Type that holds other values.
type container interface {
	Type
	Model() *Model
	valuesContainer() *ValuesContainer
	markValueUpdate(v Type)
}

// pendingValue is implemented by the primitive types whose slot may arrive later.
type pendingValue interface {
	Type
	pending() (*ValuesContainer, int, bool)
	reattach() bool
}

// resolve maps a reference stored in holder's attr to a value of parent.
// Unknown prefixes are reported as ErrInvalidReference.
func resolve(parent container, ref string, holder *substrate.Element, attr string) (Type, error) {
	if strings.HasPrefix(ref, inlinePrefix) {
		s := &StringType{}
		if err := s.slot.bindInline(parent, holder, attr); err != nil {
			return nil, err
		}
		return s, nil
	}

	prefix, _, _ := strings.Cut(ref, "+")
	var t Type
	switch prefix {
	case PrefixString:
		t = &StringType{}
	case PrefixMap:
		t = &MapType{model: parent.Model()}
	case PrefixList:
		t = &ListType{model: parent.Model()}
	case PrefixText:
		t = &TextType{model: parent.Model()}
	case PrefixNumber:
		t = &NumberType{}
	case PrefixFile:
		t = &FileType{}
	default:
		return nil, newError(CodeInvalidReference, "unknown reference %q", ref)
	}
	if err := t.attachRef(parent, ref); err != nil {
		return nil, err
	}
	return t, nil
}

// isPending reports whether t waits for its slot to arrive.
func isPending(t Type) (pendingValue, *ValuesContainer, int, bool) {
	p, ok := t.(pendingValue)
	if !ok {
		return nil, nil, 0, false
	}
	values, index, pending := p.pending()
	return p, values, index, pending
}

func childPath(parent container, segment string) string {
	if parent == nil || parent.Path() == "" {
		return ""
	}
	return parent.Path() + "." + segment
}

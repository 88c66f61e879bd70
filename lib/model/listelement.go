package model

import "github.com/ValentinKolb/dObj/lib/substrate"

const (
	itemTag      = "item"
	itemTypeAttr = "t"
	itemRefAttr  = "r"
)

// ListElementInitializer holds the attributes a list item is created with: the
// type prefix and the reference of the value.
type ListElementInitializer struct {
	Type string
	Ref  string
}

// NewListElementInitializer builds the initializer of an attached value.
func NewListElementInitializer(value Type) (ListElementInitializer, error) {
	ref, err := value.Ref()
	if err != nil {
		return ListElementInitializer{}, err
	}
	return ListElementInitializer{Type: value.Prefix(), Ref: ref}, nil
}

// Attributes returns the item attributes t and r.
func (i ListElementInitializer) Attributes() substrate.Attributes {
	return substrate.Attrs(itemTypeAttr, i.Type, itemRefAttr, i.Ref)
}

// listElementFactory turns list items back into values of its list.
type listElementFactory struct {
	list *ListType
}

func (f listElementFactory) create(e *substrate.Element) (Type, error) {
	ref, ok := e.Attribute(itemRefAttr)
	if !ok {
		return nil, newError(CodeInvalidReference, "list item of %s has no reference", f.list.docID)
	}
	value, err := resolve(f.list, ref, e, itemRefAttr)
	if err != nil {
		return nil, err
	}
	if t, ok := e.Attribute(itemTypeAttr); ok && t != value.Prefix() {
		log.Warningf("list item of %s declares type %q but references %q", f.list.docID, t, ref)
	}
	return value, nil
}

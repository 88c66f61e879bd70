/*
Package model implements a typed object tree on top of the documents of a
substrate wavelet.

A Model owns the root map, the global string index and the id generator of one
root wavelet. Values are one of six types: containers (MapType, ListType) and
rich text (TextType) get a document of their own, primitives (StringType,
NumberType, FileType) occupy a slot of a ValuesContainer.

Layout of the root wavelet (swl+root):

	model+root    <model v="1.0" t="default" a="default"/>
	model+values  <values><i v="..."/>...</values>       global string index
	map+root      the root map
	map+..., list+..., b+...   nested containers and texts

References stored by containers:

	str+<n>            slot n of the global string index
	s:<literal>        inline string written by the 0.2 migration
	n+<n>, f+<n>       slot n of the parent's values container
	map+..., list+..., b+...   document ids

Every value starts detached. Put and Add attach it, Remove deattaches it for
good. A reference to a slot that has not arrived yet yields an unattached value;
containers announce it to their listeners once the slot arrives.

Usage:

	m, err := model.Create(wave, model.Options{Domain: "local.net", Participant: "a@local.net"})
	root, _ := m.Root()
	list, _ := root.Put("todo", m.CreateList())
	list.(*model.ListType).Add(m.CreateString("buy milk"))
	m.FromPath("root.todo.0") // the string

A Model and its values are not safe for concurrent use.
*/
package model

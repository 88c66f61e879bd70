package model

import (
	"github.com/ValentinKolb/dObj/lib/substrate"
	"strconv"
	"time"
)

// Attributes of the <metadata/> element heading every map and list document.
const (
	metadataTag      = "metadata"
	metaPath         = "p"
	metaCreator      = "pc"
	metaCreated      = "tc"
	metaPathModifier = "pm"
	metaPathModified = "tm"
	metaACL          = "acl"
	metaAccessPolicy = "ap"

	defaultAccessPolicy = "default"
)

type metadata struct {
	doc  *substrate.Document
	elem *substrate.Element
	m    *Model
}

// loadMetadata returns the metadata element of doc, inserting it at the start of
// the document if it is missing.
func loadMetadata(m *Model, doc *substrate.Document) (*metadata, error) {
	if elem := childWithTag(doc.DocumentElement(), metadataTag); elem != nil {
		return &metadata{doc: doc, elem: elem, m: m}, nil
	}
	now := millis(m.now())
	elem, err := doc.InsertChildAt(doc.DocumentElement(), 0, metadataTag, substrate.Attrs(
		metaPath, "",
		metaCreator, m.participant,
		metaCreated, now,
		metaPathModifier, m.participant,
		metaPathModified, now,
		metaACL, "",
		metaAccessPolicy, defaultAccessPolicy,
	))
	if err != nil {
		return nil, err
	}
	return &metadata{doc: doc, elem: elem, m: m}, nil
}

func (md *metadata) path() string {
	return md.elem.AttributeOr(metaPath, "")
}

// creator returns the participant that created the document.
func (md *metadata) creator() string {
	return md.elem.AttributeOr(metaCreator, "")
}

func (md *metadata) setPath(path string) {
	if md.path() == path {
		return
	}
	for _, attr := range []substrate.Attr{
		{Name: metaPath, Value: path},
		{Name: metaPathModifier, Value: md.m.participant},
		{Name: metaPathModified, Value: millis(md.m.now())},
	} {
		if err := md.doc.SetElementAttribute(md.elem, attr.Name, attr.Value); err != nil {
			log.Warningf("unable to update metadata of %s: %v", md.doc.ID(), err)
			return
		}
	}
}

// clearPath marks the document as no longer reachable from the root.
func (md *metadata) clearPath() {
	if err := md.doc.RemoveElementAttribute(md.elem, metaPath); err != nil {
		log.Warningf("unable to clear path of %s: %v", md.doc.ID(), err)
	}
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

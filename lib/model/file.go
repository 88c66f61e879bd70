package model

import (
	"fmt"
	"strings"
)

// AttachmentID identifies an uploaded file, written as domain/id.
type AttachmentID struct {
	Domain string
	ID     string
}

func (a AttachmentID) String() string {
	return a.Domain + "/" + a.ID
}

// ParseAttachmentID parses domain/id. The id must not be empty.
func ParseAttachmentID(s string) (AttachmentID, error) {
	domain, id, ok := strings.Cut(s, "/")
	if !ok || id == "" || strings.ContainsAny(s, ", ") {
		return AttachmentID{}, fmt.Errorf("malformed attachment id %q", s)
	}
	return AttachmentID{Domain: domain, ID: id}, nil
}

// FileValue is the content of a FileType.
type FileValue struct {
	Attachment  AttachmentID
	ContentType string
}

// String serializes the value as <attachmentId>[,<contentType>].
func (f FileValue) String() string {
	if f.ContentType == "" {
		return f.Attachment.String()
	}
	return f.Attachment.String() + "," + f.ContentType
}

func parseFileValue(s string) (*FileValue, error) {
	raw, contentType, _ := strings.Cut(s, ",")
	id, err := ParseAttachmentID(raw)
	if err != nil {
		return nil, err
	}
	return &FileValue{Attachment: id, ContentType: contentType}, nil
}

// --------------------------------------------------------------------------
// FileType
// --------------------------------------------------------------------------

// FileType references an attachment. It is stored in the values container of
// its parent and referenced as f+<index>.
type FileType struct {
	initValue string
	slot      slot
}

// NewFile creates a detached file value.
func NewFile(id AttachmentID, contentType string) *FileType {
	return &FileType{initValue: FileValue{Attachment: id, ContentType: contentType}.String()}
}

func (f *FileType) Prefix() string     { return PrefixFile }
func (f *FileType) TypeName() string   { return "FileType" }
func (f *FileType) IsAttached() bool   { return f.slot.attached() }
func (f *FileType) Path() string       { return f.slot.path }
func (f *FileType) DocumentID() string { return "" }

// Value returns the stored file or nil if it is cleared or malformed.
func (f *FileType) Value() *FileValue {
	raw := f.slot.current(f.initValue)
	if raw == "" {
		return nil
	}
	v, err := parseFileValue(raw)
	if err != nil {
		log.Debugf("ignoring file value of %s: %v", f.Path(), err)
		return nil
	}
	return v
}

// SetValue writes the attachment. It is dropped silently if the file is not attached.
func (f *FileType) SetValue(id AttachmentID, contentType string) error {
	return f.write(FileValue{Attachment: id, ContentType: contentType}.String())
}

// ClearValue removes the attachment.
func (f *FileType) ClearValue() error {
	return f.write("")
}

func (f *FileType) write(raw string) error {
	written, err := f.slot.write(raw)
	if err != nil || !written {
		return err
	}
	f.slot.markUpdate(f)
	return nil
}

// AddListener registers l for value changes. The listener receives the raw
// serialized values.
func (f *FileType) AddListener(l ValueListener) {
	f.slot.listeners.Add(l)
}

// RemoveListener unregisters l.
func (f *FileType) RemoveListener(l ValueListener) {
	f.slot.listeners.Remove(l)
}

func (f *FileType) Ref() (string, error) {
	return f.slot.ref(PrefixFile)
}

func (f *FileType) Equal(other Type) bool {
	o, ok := other.(*FileType)
	return ok && f.slot.sameSlot(&o.slot)
}

func (f *FileType) attach(parent container) error {
	if parent == nil {
		return newError(CodeInvalidParent, "file needs a parent with a values container")
	}
	return f.slot.claim(parent, parent.valuesContainer(), f.initValue)
}

func (f *FileType) attachRef(parent container, ref string) error {
	if parent == nil || parent.valuesContainer() == nil {
		return newError(CodeInvalidParent, "file needs a parent with a values container")
	}
	if f.slot.state != stateDetached || f.slot.values != nil {
		return newError(CodeInvalidState, "file is already attached")
	}
	index, err := parseIndexRef(ref, PrefixFile)
	if err != nil {
		return err
	}
	f.slot.bind(parent, parent.valuesContainer(), index)
	return nil
}

func (f *FileType) deattach() error {
	return f.slot.release(f.TypeName())
}

func (f *FileType) setPath(path string) {
	f.slot.path = path
}

func (f *FileType) pending() (*ValuesContainer, int, bool) {
	return f.slot.pending()
}

func (f *FileType) reattach() bool {
	return f.slot.reattach()
}

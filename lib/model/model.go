package model

import (
	"errors"
	"github.com/ValentinKolb/dObj/lib/common"
	"github.com/ValentinKolb/dObj/lib/migrate"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"github.com/lni/dragonboat/v4/logger"
	"slices"
	"time"
)

var log = logger.GetLogger("model")

// Well known ids of the model layout.
const (
	RootWaveletID  = "swl+root"
	ModelRootDocID = "model+root"
	RootMapDocID   = "map+root"
	StringsDocID   = "model+values"
	RootPath       = "root"

	modelTag       = "model"
	modelVersion   = "v"
	modelType      = "t"
	modelAccess    = "a"
	Version        = "1.0"
	defaultSetting = "default"
)

// Options configures Create.
type Options struct {
	// Domain of the root wavelet.
	Domain string
	// Participant is the address of the local user.
	Participant string
	// Session is the id generator session. Empty means random.
	Session string
}

// Listener is notified about participant changes of the model wavelet.
type Listener interface {
	OnParticipantAdded(address string)
	OnParticipantRemoved(address string)
}

// Model is the root of a typed object tree stored in the root wavelet of a
// wave. A Model is not safe for concurrent use; several models may observe the
// same wavelet.
type Model struct {
	wave        *substrate.Wave
	wavelet     *substrate.Wavelet
	participant string

	ids       *idGenerator
	root      *MapType
	strings   *ValuesContainer
	listeners common.ListenerSet[Listener]
	observer  *participantObserver
}

// Create opens the model stored in wave, migrating an older layout first, or
// initializes a new one. The participant is added to the wavelet.
func Create(wave *substrate.Wave, opts Options) (*Model, error) {
	id := substrate.WaveletID{Domain: opts.Domain, ID: RootWaveletID}
	wavelet := wave.Wavelet(id)
	if wavelet == nil {
		var err error
		if wavelet, err = wave.CreateWavelet(id, opts.Participant); err != nil {
			return nil, err
		}
		log.Infof("initialized model in wave %s", wave.ID())
	} else {
		if !migrate.MigrateIfNecessary(wave, opts.Domain) {
			return nil, newError(CodeNotModel, "wave %s has no model in %s", wave.ID(), id)
		}
		wavelet.AddParticipant(opts.Participant)
	}

	m := &Model{
		wave:        wave,
		wavelet:     wavelet,
		participant: opts.Participant,
	}
	m.ids = newIDGenerator(opts.Session, wavelet.HasDocument)
	m.observer = &participantObserver{m: m}

	doc, err := m.openDocument(ModelRootDocID)
	if err != nil {
		return nil, err
	}
	if childWithTag(doc.DocumentElement(), modelTag) == nil {
		attrs := substrate.Attrs(modelVersion, Version, modelType, defaultSetting, modelAccess, defaultSetting)
		if _, err := doc.CreateChildElement(doc.DocumentElement(), modelTag, attrs); err != nil {
			return nil, err
		}
	}
	wavelet.AddListener(m.observer)
	return m, nil
}

// Close stops relaying participant events.
func (m *Model) Close() {
	m.wavelet.RemoveListener(m.observer)
}

// Wavelet returns the root wavelet.
func (m *Model) Wavelet() *substrate.Wavelet {
	return m.wavelet
}

// Participant returns the address of the local user.
func (m *Model) Participant() string {
	return m.participant
}

// Version returns the layout version of the stored model.
func (m *Model) Version() string {
	doc, err := m.Document(ModelRootDocID)
	if err != nil {
		return ""
	}
	if e := childWithTag(doc.DocumentElement(), modelTag); e != nil {
		return e.AttributeOr(modelVersion, "")
	}
	return ""
}

// Root returns the root map, creating it on first use.
func (m *Model) Root() (*MapType, error) {
	if m.root != nil {
		return m.root, nil
	}
	root := &MapType{model: m}
	if err := root.attachRef(nil, RootMapDocID); err != nil {
		return nil, err
	}
	if root.Path() == "" {
		root.setPath(RootPath)
	}
	m.root = root
	return root, nil
}

// --------------------------------------------------------------------------
// Factories
// --------------------------------------------------------------------------

// CreateMap returns a detached map.
func (m *Model) CreateMap() *MapType {
	return &MapType{model: m}
}

// CreateList returns a detached list.
func (m *Model) CreateList() *ListType {
	return &ListType{model: m}
}

// CreateString returns a detached string.
func (m *Model) CreateString(value string) *StringType {
	return NewString(value)
}

// CreateNumber returns a detached number.
func (m *Model) CreateNumber(value string) *NumberType {
	return NewNumber(value)
}

// CreateFile returns a detached file.
func (m *Model) CreateFile(id AttachmentID, contentType string) *FileType {
	return NewFile(id, contentType)
}

// CreateText returns a detached empty text.
func (m *Model) CreateText() *TextType {
	return &TextType{model: m}
}

// CreateTextWith returns a detached text seeded with content, which is markup
// or plain text.
func (m *Model) CreateTextWith(content string) *TextType {
	return &TextType{model: m, initContent: content}
}

// --------------------------------------------------------------------------
// Documents
// --------------------------------------------------------------------------

// GenerateDocID returns an unused document id with prefix.
func (m *Model) GenerateDocID(prefix string) string {
	return m.ids.next(prefix)
}

// CreateDocument creates an element document. It fails if id exists.
func (m *Model) CreateDocument(id string) (*substrate.Document, error) {
	doc, err := m.wavelet.CreateDocument(id, m.participant)
	if err != nil {
		return nil, documentError(err, substrate.ErrDocumentExists, CodeDocumentExists)
	}
	return doc, nil
}

// Document returns an element document. It fails if id does not exist.
func (m *Model) Document(id string) (*substrate.Document, error) {
	doc, err := m.wavelet.Document(id)
	if err != nil {
		return nil, documentError(err, substrate.ErrDocumentMissing, CodeDocumentMissing)
	}
	return doc, nil
}

// CreateBlip creates a rich text document. It fails if id exists.
func (m *Model) CreateBlip(id string) (*substrate.Blip, error) {
	blip, err := m.wavelet.CreateBlip(id, m.participant)
	if err != nil {
		return nil, documentError(err, substrate.ErrDocumentExists, CodeDocumentExists)
	}
	return blip, nil
}

// Blip returns a rich text document. It fails if id does not exist.
func (m *Model) Blip(id string) (*substrate.Blip, error) {
	blip, err := m.wavelet.Blip(id)
	if err != nil {
		return nil, documentError(err, substrate.ErrDocumentMissing, CodeDocumentMissing)
	}
	return blip, nil
}

// documentError maps the substrate sentinel to code. Other errors are returned unchanged.
func documentError(err, sentinel error, code ErrorCode) error {
	if errors.Is(err, sentinel) {
		return newError(code, "%v", err)
	}
	return err
}

// HasDocument reports whether a document or blip id exists.
func (m *Model) HasDocument(id string) bool {
	return m.wavelet.HasDocument(id)
}

// DocumentIDs returns the ids of all documents and blips of the model.
func (m *Model) DocumentIDs() []string {
	return m.wavelet.DocumentIDs()
}

// openDocument returns document id, creating it if it was referenced before it
// exists.
func (m *Model) openDocument(id string) (*substrate.Document, error) {
	if m.wavelet.HasDocument(id) {
		return m.Document(id)
	}
	return m.CreateDocument(id)
}

// stringIndex returns the model-global string index.
func (m *Model) stringIndex() (*ValuesContainer, error) {
	if m.strings != nil {
		return m.strings, nil
	}
	doc, err := m.openDocument(StringsDocID)
	if err != nil {
		return nil, err
	}
	if m.strings, err = newValuesContainer(m, doc); err != nil {
		return nil, err
	}
	return m.strings, nil
}

func (m *Model) sameWavelet(other *Model) bool {
	return m != nil && other != nil && m.wavelet == other.wavelet
}

func (m *Model) now() time.Time {
	return m.wave.Now()
}

// --------------------------------------------------------------------------
// Participants
// --------------------------------------------------------------------------

// Participants returns the sorted participant addresses.
func (m *Model) Participants() []string {
	participants := m.wavelet.Participants().ToSlice()
	slices.Sort(participants)
	return participants
}

// AddParticipant adds address to the model.
func (m *Model) AddParticipant(address string) {
	m.wavelet.AddParticipant(address)
}

// RemoveParticipant removes address from the model.
func (m *Model) RemoveParticipant(address string) {
	m.wavelet.RemoveParticipant(address)
}

// AddListener registers l for participant changes.
func (m *Model) AddListener(l Listener) {
	m.listeners.Add(l)
}

// RemoveListener unregisters l.
func (m *Model) RemoveListener(l Listener) {
	m.listeners.Remove(l)
}

// participantObserver relays wavelet participant events to the model listeners.
type participantObserver struct {
	m *Model
}

func (o *participantObserver) OnParticipantAdded(_ *substrate.Wavelet, participant string) {
	o.m.listeners.Fire(func(l Listener) { l.OnParticipantAdded(participant) })
}

func (o *participantObserver) OnParticipantRemoved(_ *substrate.Wavelet, participant string) {
	o.m.listeners.Fire(func(l Listener) { l.OnParticipantRemoved(participant) })
}

package substrate

import (
	"fmt"
	"github.com/ValentinKolb/dObj/lib/common"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"slices"
	"time"
)

var log = logger.GetLogger("substrate")

// --------------------------------------------------------------------------
// Identifiers
// --------------------------------------------------------------------------

// WaveletID identifies a wavelet inside a wave.
type WaveletID struct {
	Domain string
	ID     string
}

func (id WaveletID) String() string {
	return id.Domain + "/" + id.ID
}

// DocInfo holds the bookkeeping the wavelet keeps for every document and blip.
type DocInfo struct {
	Author       string
	Created      time.Time
	LastModified time.Time
}

// WaveletListener is notified about participant changes.
type WaveletListener interface {
	OnParticipantAdded(w *Wavelet, participant string)
	OnParticipantRemoved(w *Wavelet, participant string)
}

// --------------------------------------------------------------------------
// Wavelet
// --------------------------------------------------------------------------

// Wavelet is a container of documents, blips and participants. Mutations are
// expected from a single goroutine; the registries are concurrent maps so that a
// persister can take snapshots while the owner is idle.
type Wavelet struct {
	id      WaveletID
	creator string
	clock   func() time.Time

	documents *xsync.MapOf[string, *Document]
	blips     *xsync.MapOf[string, *Blip]
	infos     *xsync.MapOf[string, DocInfo]

	participants mapset.Set[string]
	listeners    common.ListenerSet[WaveletListener]
}

func newWavelet(id WaveletID, creator string, clock func() time.Time) *Wavelet {
	return &Wavelet{
		id:           id,
		creator:      creator,
		clock:        clock,
		documents:    xsync.NewMapOf[string, *Document](),
		blips:        xsync.NewMapOf[string, *Blip](),
		infos:        xsync.NewMapOf[string, DocInfo](),
		participants: mapset.NewSet[string](),
	}
}

// ID returns the wavelet id.
func (w *Wavelet) ID() WaveletID {
	return w.id
}

// Creator returns the address of the participant that created the wavelet.
func (w *Wavelet) Creator() string {
	return w.creator
}

// --------------------------------------------------------------------------
// Documents
// --------------------------------------------------------------------------

// CreateDocument creates an empty element document. It fails if a document or
// blip with the id exists.
func (w *Wavelet) CreateDocument(id, author string) (*Document, error) {
	if w.HasDocument(id) {
		return nil, fmt.Errorf("%w: %s in %s", ErrDocumentExists, id, w.id)
	}
	doc := newDocument(id, w)
	w.documents.Store(id, doc)
	w.register(id, author)
	documentsCreated.Inc()
	log.Debugf("created document %s in %s", id, w.id)
	return doc, nil
}

// Document returns the element document id. It fails if it does not exist.
func (w *Wavelet) Document(id string) (*Document, error) {
	doc, ok := w.documents.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrDocumentMissing, id, w.id)
	}
	return doc, nil
}

// CreateBlip creates an empty rich text document. It fails if a document or
// blip with the id exists.
func (w *Wavelet) CreateBlip(id, author string) (*Blip, error) {
	if w.HasDocument(id) {
		return nil, fmt.Errorf("%w: %s in %s", ErrDocumentExists, id, w.id)
	}
	blip := newBlip(id, w)
	w.blips.Store(id, blip)
	w.register(id, author)
	blipsCreated.Inc()
	log.Debugf("created blip %s in %s", id, w.id)
	return blip, nil
}

// Blip returns the blip id. It fails if it does not exist.
func (w *Wavelet) Blip(id string) (*Blip, error) {
	blip, ok := w.blips.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: blip %s in %s", ErrDocumentMissing, id, w.id)
	}
	return blip, nil
}

// HasDocument reports whether a document or a blip with the id exists.
func (w *Wavelet) HasDocument(id string) bool {
	if _, ok := w.documents.Load(id); ok {
		return true
	}
	_, ok := w.blips.Load(id)
	return ok
}

// HasBlip reports whether a blip with the id exists.
func (w *Wavelet) HasBlip(id string) bool {
	_, ok := w.blips.Load(id)
	return ok
}

// DocumentIDs returns the ids of all documents and blips, sorted.
func (w *Wavelet) DocumentIDs() []string {
	var ids []string
	w.infos.Range(func(id string, _ DocInfo) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

// Info returns the bookkeeping data of a document or blip.
func (w *Wavelet) Info(id string) (DocInfo, bool) {
	return w.infos.Load(id)
}

func (w *Wavelet) register(id, author string) {
	now := w.clock()
	w.infos.Store(id, DocInfo{Author: author, Created: now, LastModified: now})
}

// touch bumps the modification time of a document.
func (w *Wavelet) touch(id string) {
	w.infos.Compute(id, func(info DocInfo, loaded bool) (DocInfo, bool) {
		if !loaded {
			return info, true
		}
		info.LastModified = w.clock()
		return info, false
	})
}

// --------------------------------------------------------------------------
// Participants
// --------------------------------------------------------------------------

// AddParticipant adds address to the wavelet. Adding a present participant does
// not notify listeners.
func (w *Wavelet) AddParticipant(address string) {
	if !w.participants.Add(address) {
		return
	}
	log.Debugf("participant %s added to %s", address, w.id)
	w.listeners.Fire(func(l WaveletListener) { l.OnParticipantAdded(w, address) })
}

// RemoveParticipant removes address from the wavelet. Removing an absent
// participant does not notify listeners.
func (w *Wavelet) RemoveParticipant(address string) {
	if !w.participants.Contains(address) {
		return
	}
	w.participants.Remove(address)
	log.Debugf("participant %s removed from %s", address, w.id)
	w.listeners.Fire(func(l WaveletListener) { l.OnParticipantRemoved(w, address) })
}

// Participants returns a snapshot of the participant set.
func (w *Wavelet) Participants() mapset.Set[string] {
	return w.participants.Clone()
}

// AddListener registers l for participant changes.
func (w *Wavelet) AddListener(l WaveletListener) {
	w.listeners.Add(l)
}

// RemoveListener unregisters l.
func (w *Wavelet) RemoveListener(l WaveletListener) {
	w.listeners.Remove(l)
}

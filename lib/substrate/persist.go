package substrate

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dObj/lib/lockmgr"
	"github.com/ValentinKolb/dObj/lib/serializer"
	"github.com/ValentinKolb/dObj/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"slices"
	"time"
)

var persistLog = logger.GetLogger("persist")

// --------------------------------------------------------------------------
// Snapshots
// --------------------------------------------------------------------------

// WaveletSnapshot is the persisted form of a wavelet.
type WaveletSnapshot struct {
	Domain       string             `json:"domain" yaml:"domain"`
	ID           string             `json:"id" yaml:"id"`
	Creator      string             `json:"creator" yaml:"creator"`
	Participants []string           `json:"participants" yaml:"participants"`
	Documents    []DocumentSnapshot `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// DocumentSnapshot is the persisted form of a document or blip.
type DocumentSnapshot struct {
	ID           string            `json:"id" yaml:"id"`
	Blip         bool              `json:"blip,omitempty" yaml:"blip,omitempty"`
	Author       string            `json:"author" yaml:"author"`
	Created      time.Time         `json:"created" yaml:"created"`
	LastModified time.Time         `json:"last_modified" yaml:"last_modified"`
	XML          string            `json:"xml" yaml:"xml"`
	Annotations  []AnnotationRange `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// Snapshot captures the documents, blips and participants of the wavelet.
func (w *Wavelet) Snapshot() WaveletSnapshot {
	participants := w.participants.ToSlice()
	slices.Sort(participants)

	snapshot := WaveletSnapshot{
		Domain:       w.id.Domain,
		ID:           w.id.ID,
		Creator:      w.creator,
		Participants: participants,
	}
	for _, id := range w.DocumentIDs() {
		info, _ := w.Info(id)
		doc := DocumentSnapshot{
			ID:           id,
			Author:       info.Author,
			Created:      info.Created,
			LastModified: info.LastModified,
		}
		if blip, ok := w.blips.Load(id); ok {
			content := blip.Content()
			doc.Blip = true
			doc.XML = content.XML()
			doc.Annotations = content.Annotations(0, content.Size())
		} else if d, ok := w.documents.Load(id); ok {
			doc.XML = d.XML()
		}
		snapshot.Documents = append(snapshot.Documents, doc)
	}
	return snapshot
}

// Restore adds the wavelet captured by snapshot to the wave. It fails if the wave
// already contains a wavelet with the same id.
func (w *Wave) Restore(snapshot WaveletSnapshot) (*Wavelet, error) {
	id := WaveletID{Domain: snapshot.Domain, ID: snapshot.ID}
	wavelet, err := w.CreateWavelet(id, snapshot.Creator)
	if err != nil {
		return nil, err
	}
	for _, p := range snapshot.Participants {
		wavelet.participants.Add(p)
	}

	for _, doc := range snapshot.Documents {
		if doc.Blip {
			blip, err := wavelet.CreateBlip(doc.ID, doc.Author)
			if err != nil {
				return nil, err
			}
			if err := blip.Content().SetXML(doc.XML); err != nil {
				return nil, fmt.Errorf("restoring blip %s: %w", doc.ID, err)
			}
			for _, a := range doc.Annotations {
				if err := blip.Content().SetAnnotation(a.Start, a.End, a.Key, a.Value); err != nil {
					return nil, fmt.Errorf("restoring annotation %s of blip %s: %w", a.Key, doc.ID, err)
				}
			}
		} else {
			d, err := wavelet.CreateDocument(doc.ID, doc.Author)
			if err != nil {
				return nil, err
			}
			if err := d.AppendXML(d.DocumentElement(), doc.XML); err != nil {
				return nil, fmt.Errorf("restoring document %s: %w", doc.ID, err)
			}
		}
		// restoring is not a modification
		wavelet.infos.Store(doc.ID, DocInfo{Author: doc.Author, Created: doc.Created, LastModified: doc.LastModified})
	}
	return wavelet, nil
}

// --------------------------------------------------------------------------
// Persister
// --------------------------------------------------------------------------

// Persister writes wavelet snapshots to a store. Every write holds the lock of the
// wavelet so concurrent writers sharing a store fail instead of interleaving.
type Persister struct {
	store      store.IStore
	locks      lockmgr.ILockManager
	serializer serializer.ISerializer
}

// NewPersister creates a persister writing to s with the given codec.
func NewPersister(s store.IStore, codec serializer.ISerializer) *Persister {
	return &Persister{
		store:      s,
		locks:      lockmgr.NewLockManager(s),
		serializer: codec,
	}
}

func waveletKey(id WaveletID) string {
	return "wavelet/" + id.String()
}

func lockKey(id WaveletID) string {
	return "lock/" + waveletKey(id)
}

func waveKey(waveID string) string {
	return "wave/" + waveID
}

// Save writes a snapshot of w.
func (p *Persister) Save(w *Wavelet) error {
	data, err := p.serializer.Serialize(w.Snapshot())
	if err != nil {
		return fmt.Errorf("serializing wavelet %s: %w", w.ID(), err)
	}

	ok, owner, err := p.locks.AcquireLock(lockKey(w.ID()))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrWaveletLocked, w.ID())
	}
	defer func() {
		if _, err := p.locks.ReleaseLock(lockKey(w.ID()), owner); err != nil {
			persistLog.Errorf("releasing lock of %s failed: %v", w.ID(), err)
		}
	}()

	if err := p.store.Set(waveletKey(w.ID()), data); err != nil {
		return err
	}
	persistLog.Debugf("saved wavelet %s (%d bytes)", w.ID(), len(data))
	return nil
}

// Load restores the wavelet id into wave.
func (p *Persister) Load(wave *Wave, id WaveletID) (*Wavelet, error) {
	data, ok, err := p.store.Get(waveletKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is not persisted", ErrWaveletMissing, id)
	}
	var snapshot WaveletSnapshot
	if err := p.serializer.Deserialize(data, &snapshot); err != nil {
		return nil, fmt.Errorf("deserializing wavelet %s: %w", id, err)
	}
	wavelet, err := wave.Restore(snapshot)
	if err != nil {
		return nil, err
	}
	persistLog.Debugf("loaded wavelet %s", id)
	return wavelet, nil
}

// SaveWave saves all wavelets of wave and records their ids under the wave key.
func (p *Persister) SaveWave(wave *Wave) error {
	ids := wave.WaveletIDs()
	var errs []error
	for _, id := range ids {
		errs = append(errs, p.Save(wave.Wavelet(id)))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	data, err := p.serializer.Serialize(ids)
	if err != nil {
		return err
	}
	return p.store.Set(waveKey(wave.ID()), data)
}

// LoadWave creates the wave id with all wavelets recorded by SaveWave. The
// boolean reports whether the wave was persisted at all.
func (p *Persister) LoadWave(id string, opts ...WaveOption) (*Wave, bool, error) {
	wave := NewWave(id, opts...)
	data, ok, err := p.store.Get(waveKey(id))
	if err != nil || !ok {
		return wave, false, err
	}
	var ids []WaveletID
	if err := p.serializer.Deserialize(data, &ids); err != nil {
		return nil, false, fmt.Errorf("deserializing wave %s: %w", id, err)
	}
	for _, waveletID := range ids {
		if _, err := p.Load(wave, waveletID); err != nil {
			return nil, false, err
		}
	}
	return wave, true, nil
}

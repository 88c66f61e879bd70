package substrate

import (
	"fmt"
	"github.com/puzpuzpuz/xsync/v3"
	"slices"
	"time"
)

// Wave is a set of wavelets sharing one wave id.
type Wave struct {
	id       string
	clock    func() time.Time
	wavelets *xsync.MapOf[WaveletID, *Wavelet]
}

// WaveOption configures a Wave.
type WaveOption func(*Wave)

// WithClock replaces the clock used for document timestamps.
func WithClock(clock func() time.Time) WaveOption {
	return func(w *Wave) {
		w.clock = clock
	}
}

// NewWave creates an empty wave.
func NewWave(id string, opts ...WaveOption) *Wave {
	w := &Wave{
		id:       id,
		clock:    time.Now,
		wavelets: xsync.NewMapOf[WaveletID, *Wavelet](),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the wave id.
func (w *Wave) ID() string {
	return w.id
}

// Now returns the current time of the wave clock.
func (w *Wave) Now() time.Time {
	return w.clock()
}

// CreateWavelet adds a new wavelet. The creator becomes its first participant.
func (w *Wave) CreateWavelet(id WaveletID, creator string) (*Wavelet, error) {
	wavelet, loaded := w.wavelets.LoadOrCompute(id, func() *Wavelet {
		return newWavelet(id, creator, w.clock)
	})
	if loaded {
		return nil, fmt.Errorf("%w: %s", ErrWaveletExists, id)
	}
	if creator != "" {
		wavelet.participants.Add(creator)
	}
	return wavelet, nil
}

// Wavelet returns the wavelet id or nil.
func (w *Wave) Wavelet(id WaveletID) *Wavelet {
	wavelet, _ := w.wavelets.Load(id)
	return wavelet
}

// WaveletIDs returns the ids of all wavelets sorted by their string form.
func (w *Wave) WaveletIDs() []WaveletID {
	var ids []WaveletID
	w.wavelets.Range(func(id WaveletID, _ *Wavelet) bool {
		ids = append(ids, id)
		return true
	})
	slices.SortFunc(ids, func(a, b WaveletID) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		}
		return 0
	})
	return ids
}

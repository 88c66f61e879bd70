package substrate

import "errors"

var (
	// ErrDocumentExists indicates that a document or blip with the id already exists.
	ErrDocumentExists = errors.New("document already exists")

	// ErrDocumentMissing indicates that no document or blip with the id exists.
	ErrDocumentMissing = errors.New("document does not exist")

	// ErrWaveletExists indicates that the wave already contains the wavelet.
	ErrWaveletExists = errors.New("wavelet already exists")

	// ErrWaveletMissing indicates that the wave does not contain the wavelet.
	ErrWaveletMissing = errors.New("wavelet does not exist")

	// ErrForeignElement indicates that an element belongs to a different document.
	ErrForeignElement = errors.New("element does not belong to this document")

	// ErrElementRemoved indicates that an element was already deleted.
	ErrElementRemoved = errors.New("element was removed")

	// ErrInvalidLocation indicates that a text location is out of bounds.
	ErrInvalidLocation = errors.New("location out of bounds")

	// ErrUnbalanced indicates a text range that would split an element.
	ErrUnbalanced = errors.New("range is not balanced")

	// ErrInvalidXML indicates content that cannot be parsed.
	ErrInvalidXML = errors.New("invalid xml")

	// ErrWaveletLocked indicates that another writer holds the persistence lock.
	ErrWaveletLocked = errors.New("wavelet is locked")
)

// Package substrate is the in-process document store the object model is built on.
//
// A Wave holds Wavelets. A Wavelet holds element Documents, rich text Blips and a
// set of participants. Documents are XML-like element trees with ordered
// attributes; every mutation is delivered synchronously to the document
// listeners, and a Router narrows these events down to the children of one
// element or the attributes of one element.
//
// Blips store their content as a sequence of characters and element tokens in an
// offsetlist.EvaluableOffsetList, so locating a position and counting lines stay
// logarithmic. Annotations are key/value ranges over the same locations and move
// with the text.
//
// Persistence:
//
//	A Persister serializes wavelet snapshots into a store.IStore:
//
//	  wavelet/<domain>/<id>       serialized WaveletSnapshot
//	  lock/wavelet/<domain>/<id>  lock held while a snapshot is written
//	  wave/<wave id>              ids of the wavelets saved with SaveWave
//
// Thread Safety:
//
//	Documents and blips must be mutated from a single goroutine. The wavelet
//	registries are concurrent maps so snapshots can be taken from another
//	goroutine while the owner is idle.
package substrate

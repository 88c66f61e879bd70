// Package store provides the key-value interface the wavelet persister writes
// through. It sits on top of the lower-level db.KVDB engines and adds write index
// management and typed error reporting.
//
// Key Components:
//
//   - IStore Interface: The operations the persister and the lock manager need:
//     plain and conditional writes, deletes, point reads and prefix listings.
//
//   - Error System: Errors carry a RetCode so callers can tell an unsupported
//     operation of the engine from an internal failure.
//
//   - DBFactory: A function type that abstracts the creation of the underlying
//     db.KVDB instance.
//
// Implementations:
//
//	- Local Store (lstore): A single-process store that directly utilizes a
//	  db.KVDB instance and numbers its writes with an atomic counter.
//	  Available in the "github.com/ValentinKolb/dObj/lib/store/lstore" package.
package store

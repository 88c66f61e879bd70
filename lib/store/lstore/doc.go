// Package lstore implements a local, single-process key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation
// with automatic write index management.
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that increments
//     with each write operation. When the store is created on top of a database that
//     was loaded from disk, numbering continues after the loaded write index.
//
//   - Feature Detection: Before executing operations, the store checks if the
//     underlying db.KVDB supports the requested feature. Unsupported operations
//     return a store.Error with code RetCUnsupportedOperation.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s := lstore.NewLocalStore(factory)
//
//	_ = s.Set("wavelet/local.net/swl+root", snapshot)
//	value, exists, err := s.Get("wavelet/local.net/swl+root")
package lstore

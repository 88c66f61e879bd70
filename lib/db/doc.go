// Package db provides a standardized interface for the key-value databases that
// back wavelet persistence. The model itself lives in memory; a KVDB holds the
// serialized wavelet snapshots and lock entries and can be saved to and loaded
// from a single data file.
//
// Key Components:
//
//   - KVDB Interface: Set, SetIfUnset, Delete, Get, Has and prefix listing of keys,
//     plus Save/Load for whole-database persistence.
//
//   - Feature Flags: implementations advertise their capabilities through
//     SupportsFeature so callers can fail with a clear error instead of silently
//     doing nothing.
//
//   - Write Index: every write carries a logical timestamp chosen by the caller.
//     Implementations remember the highest one (WriteIdx) and restore it on Load.
//
// Related Packages:
//
// The engines/maple package provides a sharded in-memory implementation, the
// testing package a conformance suite (RunKVDBTests) every implementation is
// expected to pass.
package db

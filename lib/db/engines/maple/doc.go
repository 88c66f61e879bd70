// Package maple implements an in-memory key-value database (KVDB) split into
// shards of concurrent maps.
//
// Key Components:
//
//   - mapleImpl: implements db.KVDB. Keys are distributed over shards by a seeded
//     FNV-1a hash; every shard is an xsync.MapOf so reads never block and writes
//     to different keys do not contend.
//
//   - Entry: the stored value together with the write index of its last update.
//     Set ignores writes that carry an older index than the stored entry.
//
//   - Persistence: Save writes a sorted binary snapshot (magic number, version,
//     write index, then length-prefixed key/value records); Load replaces the
//     whole content with such a snapshot.
//
// The engine is used by the local store that persists wavelet snapshots and by
// the command line, which saves the database to its data file after every
// mutating command.
package maple

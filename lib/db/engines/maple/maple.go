package maple

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dObj/lib/db"
	"github.com/ValentinKolb/dObj/lib/db/engines/maple/internal"
	"io"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum     = "MAPLEDB\x00" // File format identifier
	mapleVersion = 4             // Database version (4: string keys, no ttl)
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements an in-memory database with sharded data
type mapleImpl struct {
	seed      uint64
	shards    []*internal.Shard
	currIndex atomic.Uint64
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (0 = number of CPUs)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(),
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	return &mapleImpl{
		seed:   internal.GenerateSeed(),
		shards: newShards(opts.NumShards),
	}
}

func newShards(n int) []*internal.Shard {
	shards := make([]*internal.Shard, n)
	for i := range shards {
		shards[i] = internal.NewShard()
	}
	return shards
}

func (maple *mapleImpl) shard(key string) *internal.Shard {
	return internal.GetShard(key, maple.seed, maple.shards)
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry. Writes with an index older than the stored
// entry are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte, writeIndex uint64) {
	maple.compute(key, value, writeIndex, func(new, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded && old.Index > new.Index {
			return old, false
		}
		return new, false
	})
}

// SetIfUnset inserts an entry only if the key does not exist.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetIfUnset(key string, value []byte, writeIndex uint64) bool {
	stored := false
	maple.compute(key, value, writeIndex, func(new, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded {
			return old, false
		}
		stored = true
		return new, false
	})
	return stored
}

// Delete removes an entry.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string, writeIndex uint64) {
	maple.SetWriteIdx(writeIndex)
	maple.shard(key).Data.Delete(key)
}

// compute is the shared implementation of all write operations. fn receives the
// new and the old entry and returns the entry to keep and whether to delete it.
func (maple *mapleImpl) compute(key string, value []byte, writeIndex uint64, fn func(new, old internal.Entry, loaded bool) (internal.Entry, bool)) {
	maple.SetWriteIdx(writeIndex)

	// copy value to prevent memory corruption by the caller
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	newEntry := internal.Entry{Value: valueCopy, Index: writeIndex}

	maple.shard(key).Data.Compute(key, func(old internal.Entry, loaded bool) (internal.Entry, bool) {
		return fn(newEntry, old, loaded)
	})
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns a copy of the stored value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool) {
	entry, ok := maple.shard(key).Data.Load(key)
	if !ok {
		return nil, false
	}
	valueCopy := make([]byte, len(entry.Value))
	copy(valueCopy, entry.Value)
	return valueCopy, true
}

// Has reports whether key exists.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Has(key string) bool {
	_, ok := maple.shard(key).Data.Load(key)
	return ok
}

// Keys returns all keys with the given prefix in lexical order.
//
// Thread-safety: This method is thread-safe, the result is a fuzzy snapshot.
func (maple *mapleImpl) Keys(prefix string) []string {
	var keys []string
	for _, shard := range maple.shards {
		shard.Data.Range(func(key string, _ internal.Entry) bool {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
			return true
		})
	}
	slices.Sort(keys)
	return keys
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// Save writes all entries in a binary format:
//
//	magic | version u8 | write index u64 | count u64 | (keyLen u32 | key | index u64 | valueLen u32 | value)*
func (maple *mapleImpl) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024)

	type entryToSave struct {
		key   string
		entry internal.Entry
	}
	var entries []entryToSave
	for _, shard := range maple.shards {
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			entries = append(entries, entryToSave{key, entry})
			return true
		})
	}
	// deterministic output for equal content
	slices.SortFunc(entries, func(a, b entryToSave) int { return strings.Compare(a.key, b.key) })

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(mapleVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, maple.currIndex.Load()); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	for _, item := range entries {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(item.key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, item.entry.Index); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(item.entry.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(item.entry.Value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load replaces the database content with the data written by Save.
//
// Thread-safety: Load must not run concurrently with other operations.
func (maple *mapleImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024)

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != mapleVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, mapleVersion)
	}

	var writeIdx, count uint64
	if err := binary.Read(br, binary.LittleEndian, &writeIdx); err != nil {
		return err
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	shards := newShards(len(maple.shards))
	for i := uint64(0); i < count; i++ {
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return err
		}

		var index uint64
		if err := binary.Read(br, binary.LittleEndian, &index); err != nil {
			return err
		}

		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		internal.GetShard(string(key), maple.seed, shards).Data.Store(string(key), internal.Entry{Value: value, Index: index})
	}

	maple.shards = shards
	maple.currIndex.Store(writeIdx)
	return nil
}

// --------------------------------------------------------------------------
// Info and Feature Support
// --------------------------------------------------------------------------

func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	entries, sizeBytes := 0, 0
	shardSizes := make([]int, len(maple.shards))
	for i, shard := range maple.shards {
		shard.Data.Range(func(key string, entry internal.Entry) bool {
			entries++
			sizeBytes += len(key) + len(entry.Value) + 8
			return true
		})
		shardSizes[i] = shard.Data.Size()
	}

	meta := &struct {
		CurrentWriteIndex uint64 `json:"current_write_index"`
		ShardCount        int    `json:"shard_count"`
		ShardSizes        []int  `json:"shard_sizes"`
	}{
		CurrentWriteIndex: maple.currIndex.Load(),
		ShardCount:        len(maple.shards),
		ShardSizes:        shardSizes,
	}

	return db.DatabaseInfo{
		Entries:   entries,
		SizeBytes: sizeBytes,
		DbType:    db.ImplMaple,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureSetIfUnset, db.FeatureDelete,
			db.FeatureGet, db.FeatureHas, db.FeatureKeys,
			db.FeatureSave, db.FeatureLoad,
		},
		Metadata: meta,
	}
}

func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureSet |
		db.FeatureSetIfUnset |
		db.FeatureGet |
		db.FeatureDelete |
		db.FeatureHas |
		db.FeatureKeys |
		db.FeatureSave |
		db.FeatureLoad
	return supportedFeatures&feature == feature
}

func (maple *mapleImpl) Close() error {
	maple.shards = newShards(len(maple.shards))
	return nil
}

// SetWriteIdx raises the current write index to newIdx if it is larger.
func (maple *mapleImpl) SetWriteIdx(newIdx uint64) {
	for {
		current := maple.currIndex.Load()
		if newIdx <= current || maple.currIndex.CompareAndSwap(current, newIdx) {
			return
		}
	}
}

func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}

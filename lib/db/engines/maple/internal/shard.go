package internal

import (
	"crypto/rand"
	"encoding/binary"
	"github.com/puzpuzpuz/xsync/v3"
	"time"
)

// --------------------------------------------------------------------------
// Entry Type (key-value pair with metadata)
// --------------------------------------------------------------------------

// Entry stores a value with the write index of its last update
type Entry struct {
	Value []byte
	Index uint64
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database
type Shard struct {
	Data *xsync.MapOf[string, Entry]
}

// NewShard creates a new empty shard
func NewShard() *Shard {
	return &Shard{Data: xsync.NewMapOf[string, Entry]()}
}

// GetShard returns the shard responsible for key
func GetShard(key string, seed uint64, shards []*Shard) *Shard {
	// the low bits of FNV-1a are weak for short keys
	return shards[(HashString(key, seed)>>7)%uint64(len(shards))]
}

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed for the shard distribution
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// HashString hashes s with the FNV-1a algorithm mixed with seed
func HashString(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}
	return hash
}

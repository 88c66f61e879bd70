package lstore

import (
	"github.com/ValentinKolb/dObj/lib/db"
	"github.com/ValentinKolb/dObj/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"sync/atomic"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	db    db.KVDB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works in a single process.
func NewLocalStore(factory store.DBFactory) store.IStore {
	s := &storeImpl{
		db: factory(),
	}
	// continue numbering after a loaded database
	s.index.Store(s.db.WriteIdx())
	return s
}

// DB returns the database underlying a local store, or nil for other stores.
func DB(s store.IStore) db.KVDB {
	if impl, ok := s.(*storeImpl); ok {
		return impl.db
	}
	return nil
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

func (s *storeImpl) unsupported(op string) error {
	log.Warningf("%s is not supported by %s", op, s.db.GetInfo().DbType)
	return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return s.unsupported("Set")
	}
	s.db.Set(key, value, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) SetIfUnset(key string, value []byte) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureSetIfUnset) {
		return false, s.unsupported("SetIfUnset")
	}
	return s.db.SetIfUnset(key, value, s.incAndGetIndex()), nil
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return s.unsupported("Delete")
	}
	s.db.Delete(key, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, s.unsupported("Get")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, s.unsupported("Has")
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) Keys(prefix string) ([]string, error) {
	if !s.db.SupportsFeature(db.FeatureKeys) {
		return nil, s.unsupported("Keys")
	}
	return s.db.Keys(prefix), nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

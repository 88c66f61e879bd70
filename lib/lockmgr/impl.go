package lockmgr

import (
	"bytes"
	"github.com/ValentinKolb/dObj/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

type lockMgrImpl struct {
	store store.IStore
}

func NewLockManager(store store.IStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string) (bool, []byte, error) {
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lock (by setting the value only if it doesn't exist - atomic CAS operation)
	stored, err := lm.store.SetIfUnset(key, ownerID)
	if err != nil {
		log.Errorf("setting lock %s failed: %v", key, err)
		return false, nil, err
	}
	if !stored {
		return false, nil, nil
	}

	// Check that the lock was not released and taken by someone else in the meantime
	value, found, err := lm.store.Get(key)
	if err != nil {
		return false, nil, err
	}
	if found && bytes.Equal(value, ownerID) {
		log.Debugf("acquired lock %s", key)
		return true, ownerID, nil
	}
	return false, nil, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	value, ok, err := lm.store.Get(key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	err = lm.store.Delete(key)
	if err == nil {
		log.Debugf("released lock %s", key)
	}
	return err == nil, err
}

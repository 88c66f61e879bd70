// Package lockmgr implements advisory locks on top of a store.IStore. The wavelet
// persister uses them so that two processes sharing one data file do not write the
// same wavelet concurrently.
//
// The lock manager keeps no state of its own. Every lock is a single key in the
// store, so any number of managers created on the same store see the same locks.
//
// Implementation Approach:
//
//	- Lock Acquisition: The key is created with SetIfUnset and holds a random owner
//	  ID. Only one requester can create the key. A following Get confirms that the
//	  stored owner ID is ours.
//
//	- Safe Release: ReleaseLock compares the stored owner ID with the one returned by
//	  AcquireLock before it deletes the key.
//
// Locks have no timeout. A lock left behind by a crashed process has to be removed
// by deleting its key.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager(s)
//
//	acquired, ownerID, err := locks.AcquireLock("lock/wavelet/local.net/swl+root")
//	if err != nil {
//	    return err
//	}
//	if acquired {
//	    defer locks.ReleaseLock("lock/wavelet/local.net/swl+root", ownerID)
//	    // write the wavelet
//	}
package lockmgr

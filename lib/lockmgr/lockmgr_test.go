package lockmgr

import (
	"github.com/ValentinKolb/dObj/lib/db"
	"github.com/ValentinKolb/dObj/lib/db/engines/maple"
	"github.com/ValentinKolb/dObj/lib/store/lstore"
	"sync"
	"sync/atomic"
	"testing"
)

func newManager() ILockManager {
	return NewLockManager(lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) }))
}

func TestAcquireRelease(t *testing.T) {
	locks := newManager()
	key := "lock/wavelet/local.net/swl+root"

	ok, owner, err := locks.AcquireLock(key)
	if err != nil || !ok || len(owner) != 16 {
		t.Fatalf("AcquireLock = %v, %x, %v", ok, owner, err)
	}

	if ok, _, _ := locks.AcquireLock(key); ok {
		t.Errorf("second AcquireLock succeeded while the lock is held")
	}

	if ok, _ := locks.ReleaseLock(key, []byte("someone else")); ok {
		t.Errorf("ReleaseLock with a foreign owner succeeded")
	}
	if ok, err := locks.ReleaseLock(key, owner); !ok || err != nil {
		t.Errorf("ReleaseLock = %v, %v", ok, err)
	}
	if ok, err := locks.ReleaseLock(key, owner); !ok || err != nil {
		t.Errorf("ReleaseLock of a missing lock = %v, %v", ok, err)
	}

	if ok, _, _ := locks.AcquireLock(key); !ok {
		t.Errorf("AcquireLock after release failed")
	}
}

func TestConcurrentAcquire(t *testing.T) {
	locks := newManager()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, err := locks.AcquireLock("contended"); ok && err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Errorf("%d goroutines acquired the lock, want 1", winners.Load())
	}
}

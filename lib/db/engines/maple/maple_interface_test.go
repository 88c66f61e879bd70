package maple

import (
	"github.com/ValentinKolb/dObj/lib/db"
	dbtesting "github.com/ValentinKolb/dObj/lib/db/testing"
	"testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

func TestSingleShard(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB(1 shard)", func() db.KVDB {
		return NewMapleDB(&DBOptions{NumShards: 1})
	})
}

func TestStaleWriteIgnored(t *testing.T) {
	database := NewMapleDB(nil)
	database.Set("k", []byte("new"), 5)
	database.Set("k", []byte("old"), 3)

	value, _ := database.Get("k")
	if string(value) != "new" {
		t.Errorf("stale write overwrote value: got %s", value)
	}
	if database.WriteIdx() != 5 {
		t.Errorf("WriteIdx() = %d, want 5", database.WriteIdx())
	}
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

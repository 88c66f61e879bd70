package testing

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/dObj/lib/db"
	"slices"
	"sync"
	"testing"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs the conformance test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("SetIfUnset", func(t *testing.T) {
			testSetIfUnset(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "wavelet/local.net/swl+root"
	testValue1 := []byte("snapshot-1")
	testValue2 := []byte("snapshot-2")

	database.Set(testKey, testValue1, 1)

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2, 2)

	result, _ = database.Get(testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists = database.Get("nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	input := []byte("caller-owned")
	database.Set("copy-key", input, 3)
	input[0] = 'X'
	stored, _ := database.Get("copy-key")
	if string(stored) != "caller-owned" {
		t.Errorf("Set should copy the value, got %s", stored)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	testKey := "delete-test-key"
	database.Set(testKey, []byte("delete-test-value"), 1)

	if _, exists := database.Get(testKey); !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	database.Delete(testKey, 2)

	if _, exists := database.Get(testKey); exists {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}
	if database.Has(testKey) {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}

	// deleting a missing key is a no-op
	database.Delete("nonexistent-key", 3)
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureHas)

	testKey := "has-test-key"
	if database.Has(testKey) {
		t.Errorf("Expected Has to return false for nonexistent key")
	}

	database.Set(testKey, []byte("has-test-value"), 1)
	if !database.Has(testKey) {
		t.Errorf("Expected Has to return true after Set")
	}

	database.Set("empty-value", nil, 2)
	if !database.Has("empty-value") {
		t.Errorf("Expected Has to return true for an empty value")
	}
}

func testSetIfUnset(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetIfUnset|db.FeatureGet)

	testKey := "lock/wavelet/local.net/swl+root"
	testValue1 := []byte("owner-1")
	testValue2 := []byte("owner-2")

	if !database.SetIfUnset(testKey, testValue1, 1) {
		t.Errorf("Expected first SetIfUnset to store the value")
	}
	if database.SetIfUnset(testKey, testValue2, 2) {
		t.Errorf("Expected second SetIfUnset to keep the old value")
	}

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after SetIfUnset", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureKeys)

	for _, key := range []string{"wave/b", "wave/a", "wavelet/x", "other"} {
		database.Set(key, []byte(key), 1)
	}

	got := database.Keys("wave/")
	want := []string{"wave/a", "wave/b"}
	if !slices.Equal(got, want) {
		t.Errorf("Keys(wave/) = %v, want %v", got, want)
	}
	if all := database.Keys(""); len(all) != 4 {
		t.Errorf("Keys(\"\") returned %d keys, want 4", len(all))
	}
	if none := database.Keys("missing/"); len(none) != 0 {
		t.Errorf("Keys(missing/) = %v, want none", none)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()

	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureSave|db.FeatureLoad)

	numEntries := 1000
	for i := 0; i < numEntries; i++ {
		database.Set(fmt.Sprintf("save-load-test-key-%d", i), []byte(fmt.Sprintf("save-load-test-value-%d", i)), uint64(i+1))
	}
	database2.Set("overwritten", []byte("x"), 1)

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if err := database2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-test-key-%d", i)
		expectedValue := []byte(fmt.Sprintf("save-load-test-value-%d", i))

		actualValue, exists := database2.Get(key)
		if !exists {
			t.Errorf("Key %s not found after Load", key)
			continue
		}
		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", key, expectedValue, actualValue)
		}
	}

	if database2.Has("overwritten") {
		t.Errorf("Load must replace the previous content")
	}
	if database2.WriteIdx() != database.WriteIdx() {
		t.Errorf("WriteIdx after Load = %d, want %d", database2.WriteIdx(), database.WriteIdx())
	}

	if err := database2.Load(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Errorf("Expected an error when loading invalid data")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	database.Set("", []byte("empty-key-value"), 1)
	if value, exists := database.Get(""); !exists || string(value) != "empty-key-value" {
		t.Errorf("Expected empty key to be stored, got %s (exists=%v)", value, exists)
	}

	largeValue := bytes.Repeat([]byte("x"), 1<<20)
	database.Set("large", largeValue, 2)
	if value, _ := database.Get("large"); !bytes.Equal(value, largeValue) {
		t.Errorf("Large value was not stored correctly")
	}

	unicodeKey := "wavelet/例え/ключ"
	database.Set(unicodeKey, []byte("unicode"), 3)
	if value, exists := database.Get(unicodeKey); !exists || string(value) != "unicode" {
		t.Errorf("Expected unicode key to be stored")
	}
}

func testConcurrent(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d-k%d", w, i)
				database.Set(key, []byte(key), uint64(w*perWorker+i+1))
				if _, ok := database.Get(key); !ok {
					t.Errorf("key %s missing right after Set", key)
				}
			}
		}(w)
	}
	wg.Wait()

	if info := database.GetInfo(); info.Entries != workers*perWorker {
		t.Errorf("GetInfo().Entries = %d, want %d", info.Entries, workers*perWorker)
	}
}

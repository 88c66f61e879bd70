package perf

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dObj/cmd/util"
	"github.com/ValentinKolb/dObj/lib/db"
	"github.com/ValentinKolb/dObj/lib/db/engines/maple"
	"github.com/ValentinKolb/dObj/lib/model"
	"github.com/ValentinKolb/dObj/lib/offsetlist"
	"github.com/ValentinKolb/dObj/lib/serializer"
	"github.com/ValentinKolb/dObj/lib/store/lstore"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"
)

var log = logger.GetLogger("cli")

var (
	// PerfCmd benchmarks the in-process model operations
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the object model",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeySpread = 100
	perfTextSize  = 10000
	perfSkip      = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. map-put,text-insert)"))
	key = "keys"
	PerfCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the map and list tests"))
	key = "text-size"
	PerfCmd.Flags().Int(key, 10000, util.WrapString("How many characters the text of the text tests holds before measuring"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfTextSize = max(viper.GetInt("text-size"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// benchmark is one named measurement.
type benchmark struct {
	name string
	fn   func(b *testing.B)
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for the object model")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Keys: %d\n", perfKeySpread)
	fmt.Printf("Text size: %d\n", perfTextSize)
	fmt.Println()

	fmt.Println("starting tests...")

	benchmarks := []benchmark{
		{"offsetlist-insert", benchmarkOffsetListInsert},
		{"offsetlist-locate", benchmarkOffsetListLocate},
		{"map-put", benchmarkMapPut},
		{"map-get", benchmarkMapGet},
		{"string-set", benchmarkStringSet},
		{"list-add", benchmarkListAdd},
		{"text-insert", benchmarkTextInsert},
		{"persist-save", benchmarkPersistSave},
	}

	results := make(map[string]testing.BenchmarkResult)
	for _, bm := range benchmarks {
		if shouldSkip(bm.name) {
			results[bm.name] = testing.BenchmarkResult{}
			printResult(bm.name, results[bm.name])
			continue
		}
		result := testing.Benchmark(bm.fn)
		results[bm.name] = result
		printResult(bm.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func benchmarkOffsetListInsert(b *testing.B) {
	list := offsetlist.New[int]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		at, _, err := list.Locate(i % (list.Size() + 1))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := at.InsertBefore(i, 1+i%5); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkOffsetListLocate(b *testing.B) {
	list := offsetlist.New[int]()
	for i := 0; i < perfKeySpread*100; i++ {
		if _, err := list.Sentinel().InsertBefore(i, 1+i%5); err != nil {
			b.Fatal(err)
		}
	}
	size := list.Size()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := list.Locate((i * 7919) % size); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkMapPut(b *testing.B) {
	m, root := newModel(b)
	keys := getKeys("put")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := root.Put(keys[i%len(keys)], m.CreateString("value")); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkMapGet(b *testing.B) {
	m, root := newModel(b)
	keys := getKeys("get")
	for _, key := range keys {
		if _, err := root.Put(key, m.CreateNumber(strconv.Itoa(len(key)))); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := root.Get(keys[i%len(keys)]); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkStringSet(b *testing.B) {
	m, root := newModel(b)
	value, err := root.Put("s", m.CreateString(""))
	if err != nil {
		b.Fatal(err)
	}
	s := value.(*model.StringType)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.SetValue(strconv.Itoa(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkListAdd(b *testing.B) {
	m, root := newModel(b)
	value, err := root.Put("list", m.CreateList())
	if err != nil {
		b.Fatal(err)
	}
	list := value.(*model.ListType)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if list.Size() >= perfKeySpread {
			if _, err := list.Remove(0); err != nil {
				b.Fatal(err)
			}
		}
		if _, err := list.Add(m.CreateString("item")); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkTextInsert(b *testing.B) {
	m, root := newModel(b)
	value, err := root.Put("text", m.CreateText())
	if err != nil {
		b.Fatal(err)
	}
	text := value.(*model.TextType)
	if err := text.InsertText(3, strings.Repeat("x", perfTextSize)); err != nil {
		b.Fatal(err)
	}
	if err := text.SetAnnotation(3, 3+perfTextSize/2, "style/fontWeight", "bold"); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		location := 3 + (i*7919)%(text.Size()-3)
		if err := text.InsertText(location, "y"); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkPersistSave(b *testing.B) {
	m, root := newModel(b)
	for _, key := range getKeys("persist") {
		if _, err := root.Put(key, m.CreateString(key)); err != nil {
			b.Fatal(err)
		}
	}
	s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	persister := substrate.NewPersister(s, serializer.NewJSONSerializer())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := persister.Save(m.Wavelet()); err != nil {
			b.Fatal(err)
		}
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func newModel(b *testing.B) (*model.Model, *model.MapType) {
	m, err := model.Create(substrate.NewWave("w+perf"), model.Options{
		Domain:      "perf.local",
		Participant: "perf@perf.local",
	})
	if err != nil {
		b.Fatal(err)
	}
	root, err := m.Root()
	if err != nil {
		b.Fatal(err)
	}
	return m, root
}

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// getKeys creates perfKeySpread distinct keys
func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return keys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "AllocsPerOp", "Skipped", "Keys Count", "Text Size"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	tests := make([]string, 0, len(results))
	for test := range results {
		tests = append(tests, test)
	}
	slices.Sort(tests)

	for _, test := range tests {
		result := results[test]
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatInt(result.AllocsPerOp(), 10),
			skipped,
			strconv.Itoa(perfKeySpread),
			strconv.Itoa(perfTextSize),
		}
		if err := writer.Write(row); err != nil {
			log.Errorf("writing row for test %s failed: %v", test, err)
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}

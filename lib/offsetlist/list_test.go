package offsetlist

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

// concatOperator joins values in order and counts Extract calls.
type concatOperator struct {
	extracts int
}

func (o *concatOperator) Extract(value string) string {
	o.extracts++
	return value
}

func (o *concatOperator) Operate(left, right string) string {
	return left + right
}

type modelEntry struct {
	value string
	size  int
}

// checkList compares the list against the expected sequence.
func checkList(t *testing.T, l *EvaluableOffsetList[string, string], expected []modelEntry) {
	t.Helper()

	total := 0
	var fold strings.Builder
	i := 0
	for c := range l.Containers() {
		if i >= len(expected) {
			t.Fatalf("list has more containers than expected (%d)", len(expected))
		}
		if c.Value() != expected[i].value || c.Size() != expected[i].size {
			t.Fatalf("container %d = (%s,%d), want (%s,%d)", i, c.Value(), c.Size(), expected[i].value, expected[i].size)
		}
		if c.Offset() != total {
			t.Fatalf("container %d offset = %d, want %d", i, c.Offset(), total)
		}
		total += c.Size()
		fold.WriteString(c.Value())
		i++
	}
	if i != len(expected) {
		t.Fatalf("list has %d containers, want %d", i, len(expected))
	}
	if l.Size() != total {
		t.Fatalf("Size() = %d, want %d", l.Size(), total)
	}

	// every offset must locate the unique covering container
	start := 0
	for _, e := range expected {
		for k := start; k < start+e.size; k++ {
			c, inner, err := l.Locate(k)
			if err != nil {
				t.Fatalf("Locate(%d) failed: %v", k, err)
			}
			if c.Value() != e.value || inner != k-start {
				t.Fatalf("Locate(%d) = (%s,%d), want (%s,%d)", k, c.Value(), inner, e.value, k-start)
			}
		}
		start += e.size
	}

	got, err := l.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != fold.String() {
		t.Fatalf("Evaluate() = %q, want %q", got, fold.String())
	}
}

func containerAt(l *EvaluableOffsetList[string, string], index int) *Container[string, string] {
	c := l.FirstContainer()
	for i := 0; i < index; i++ {
		c = c.Next()
	}
	return c
}

func TestEmptyList(t *testing.T) {
	l := NewEvaluable[string, string](&concatOperator{})
	if l.Size() != 0 {
		t.Errorf("Size() = %d, want 0", l.Size())
	}
	if !l.IsEmpty() || !l.FirstContainer().IsSentinel() {
		t.Errorf("empty list must start with the sentinel")
	}
	c, inner, err := l.Locate(0)
	if err != nil || !c.IsSentinel() || inner != 0 {
		t.Errorf("Locate(0) on empty list = (%v,%d,%v), want sentinel", c, inner, err)
	}
	if _, _, err := l.Locate(1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Locate(1) error = %v, want ErrOutOfRange", err)
	}
	if v, err := l.Evaluate(); err != nil || v != "" {
		t.Errorf("Evaluate() = (%q,%v), want empty", v, err)
	}
}

func TestBasicOperations(t *testing.T) {
	l := NewEvaluable[string, string](&concatOperator{})

	a, _ := l.Sentinel().InsertBefore("a", 3)
	c, _ := l.Sentinel().InsertBefore("c", 2)
	b, err := c.InsertBefore("b", 4)
	if err != nil {
		t.Fatalf("InsertBefore failed: %v", err)
	}
	checkList(t, l, []modelEntry{{"a", 3}, {"b", 4}, {"c", 2}})

	if _, err := b.Split(1, "b2"); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	checkList(t, l, []modelEntry{{"a", 3}, {"b", 1}, {"b2", 3}, {"c", 2}})

	if err := a.IncreaseSize(-3); err != nil {
		t.Fatalf("IncreaseSize failed: %v", err)
	}
	checkList(t, l, []modelEntry{{"a", 0}, {"b", 1}, {"b2", 3}, {"c", 2}})

	if err := b.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	checkList(t, l, []modelEntry{{"a", 0}, {"b2", 3}, {"c", 2}})

	if got := l.Values(); fmt.Sprint(got) != "[a b2 c]" {
		t.Errorf("Values() = %v", got)
	}
	if a.Previous() != l.Sentinel() || c.Next() != l.Sentinel() {
		t.Errorf("boundaries must wrap through the sentinel")
	}
}

func TestPreconditions(t *testing.T) {
	l := NewEvaluable[string, string](&concatOperator{})
	a, _ := l.Sentinel().InsertBefore("a", 2)

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"negative insert size", func() error { _, err := a.InsertBefore("x", -1); return err }, ErrNegativeSize},
		{"split beyond size", func() error { _, err := a.Split(3, "x"); return err }, ErrOutOfRange},
		{"negative split", func() error { _, err := a.Split(-1, "x"); return err }, ErrOutOfRange},
		{"shrink below zero", func() error { return a.IncreaseSize(-3) }, ErrNegativeSize},
		{"remove sentinel", func() error { return l.Sentinel().Remove() }, ErrSentinel},
		{"split sentinel", func() error { _, err := l.Sentinel().Split(0, "x"); return err }, ErrSentinel},
		{"locate beyond end", func() error { _, _, err := l.Locate(3); return err }, ErrOutOfRange},
		{"locate negative", func() error { _, _, err := l.Locate(-1); return err }, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if err := a.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := a.Remove(); !errors.Is(err, ErrRemoved) {
		t.Errorf("second Remove error = %v, want ErrRemoved", err)
	}
}

func TestEvaluateIsCached(t *testing.T) {
	op := &concatOperator{}
	l := NewEvaluable[string, string](op)
	for i := 0; i < 50; i++ {
		_, _ = l.Sentinel().InsertBefore(fmt.Sprintf("%d,", i), 1)
	}

	if _, err := l.Evaluate(); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	first := op.extracts
	if first != 50 {
		t.Errorf("first evaluation extracted %d values, want 50", first)
	}
	if _, err := l.Evaluate(); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if op.extracts != first {
		t.Errorf("second evaluation extracted %d more values, want 0", op.extracts-first)
	}

	// a single value change recomputes one root path only
	containerAt(l, 25).SetValue("x,")
	got, _ := l.Evaluate()
	if op.extracts-first > 10 {
		t.Errorf("re-evaluation after one change extracted %d values", op.extracts-first)
	}
	if !strings.Contains(got, "24,x,26,") {
		t.Errorf("Evaluate() = %q does not contain the changed value", got)
	}
}

func TestWithoutOperator(t *testing.T) {
	l := New[int]()
	_, _ = l.Sentinel().InsertBefore(1, 5)
	if _, err := l.Evaluate(); !errors.Is(err, ErrNoOperator) {
		t.Errorf("Evaluate error = %v, want ErrNoOperator", err)
	}

	got, err := PerformActionAt(l.EvaluableOffsetList, 3, func(c *Container[int, struct{}], inner int) int {
		return c.Value()*10 + inner
	})
	if err != nil || got != 13 {
		t.Errorf("PerformActionAt = (%d,%v), want 13", got, err)
	}
	if _, err := PerformActionAt(l.EvaluableOffsetList, 6, func(*Container[int, struct{}], int) int { return 0 }); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("PerformActionAt beyond end error = %v, want ErrOutOfRange", err)
	}
}

// TestRandomOperations checks size, locate and evaluation against a plain slice
// after every random mutation.
func TestRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		l := NewEvaluable[string, string](&concatOperator{})
		var expected []modelEntry
		next := 0
		newValue := func() string {
			next++
			return fmt.Sprintf("<%d>", next)
		}

		for step := 0; step < 200; step++ {
			switch op := rng.Intn(10); {
			case op < 4 || len(expected) == 0:
				index := 0
				if len(expected) > 0 {
					index = rng.Intn(len(expected) + 1)
				}
				target := l.Sentinel()
				if index < len(expected) {
					target = containerAt(l, index)
				}
				v, size := newValue(), rng.Intn(5)
				if _, err := target.InsertBefore(v, size); err != nil {
					t.Fatalf("InsertBefore failed: %v", err)
				}
				expected = append(expected[:index], append([]modelEntry{{v, size}}, expected[index:]...)...)
			case op < 6:
				index := rng.Intn(len(expected))
				at := rng.Intn(expected[index].size + 1)
				v := newValue()
				if _, err := containerAt(l, index).Split(at, v); err != nil {
					t.Fatalf("Split failed: %v", err)
				}
				second := modelEntry{v, expected[index].size - at}
				expected[index].size = at
				expected = append(expected[:index+1], append([]modelEntry{second}, expected[index+1:]...)...)
			case op < 8:
				index := rng.Intn(len(expected))
				if err := containerAt(l, index).Remove(); err != nil {
					t.Fatalf("Remove failed: %v", err)
				}
				expected = append(expected[:index], expected[index+1:]...)
			case op < 9:
				index := rng.Intn(len(expected))
				delta := rng.Intn(6) - expected[index].size
				if err := containerAt(l, index).IncreaseSize(delta); err != nil {
					t.Fatalf("IncreaseSize failed: %v", err)
				}
				expected[index].size += delta
			default:
				index := rng.Intn(len(expected))
				v := newValue()
				containerAt(l, index).SetValue(v)
				expected[index].value = v
			}

			// evaluate only every few steps so that stale caches would survive
			// several mutations if invalidation were wrong
			if step%3 == 0 {
				checkList(t, l, expected)
			}
		}
		checkList(t, l, expected)
	}
}

func BenchmarkAppendAndLocate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		l := New[int]()
		for j := 0; j < 1000; j++ {
			_, _ = l.Sentinel().InsertBefore(j, 3)
		}
		for j := 0; j < 3000; j += 7 {
			_, _, _ = l.Locate(j)
		}
	}
}

package common

import (
	"bytes"
	"github.com/lni/dragonboat/v4/logger"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logger.LogLevel
		wantErr bool
	}{
		{"debug", logger.DEBUG, false},
		{"INFO", logger.INFO, false},
		{"warn", logger.WARNING, false},
		{"warning", logger.WARNING, false},
		{"error", logger.ERROR, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	old := logOutput
	logOutput = &buf
	defer func() { logOutput = old }()

	l := CreateLogger("model")
	l.SetLevel(logger.WARNING)
	l.Infof("hidden %d", 1)
	l.Warningf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warning level: %q", out)
	}
	if !strings.Contains(out, "WARN  | model           | shown 2") {
		t.Errorf("unexpected log line: %q", out)
	}
}

func TestModelConfig(t *testing.T) {
	c := DefaultModelConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !strings.Contains(c.String(), "w+default") {
		t.Errorf("String() misses the wave id:\n%s", c.String())
	}

	c.Participant = "nobody"
	if err := c.Validate(); err == nil {
		t.Errorf("participant without domain must be rejected")
	}
	c = DefaultModelConfig()
	c.LogLevel = "loud"
	if err := c.Validate(); err == nil {
		t.Errorf("invalid log level must be rejected")
	}
}

type countingListener struct {
	calls int
}

func TestListenerSetRemoveDuringFire(t *testing.T) {
	var set ListenerSet[*countingListener]
	a, b, c := &countingListener{}, &countingListener{}, &countingListener{}
	set.Add(a)
	set.Add(b)
	set.Add(c)
	if set.Add(a) {
		t.Errorf("adding a registered listener twice must return false")
	}

	// a removes itself and b during dispatch; all three still get this event
	set.Fire(func(l *countingListener) {
		l.calls++
		if l == a {
			set.Remove(a)
			set.Remove(b)
		}
	})
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Errorf("calls = %d,%d,%d, want 1,1,1", a.calls, b.calls, c.calls)
	}

	set.Fire(func(l *countingListener) { l.calls++ })
	if a.calls != 1 || b.calls != 1 || c.calls != 2 {
		t.Errorf("calls after removal = %d,%d,%d, want 1,1,2", a.calls, b.calls, c.calls)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
	if set.Remove(a) {
		t.Errorf("removing an unknown listener must return false")
	}
}

func TestInitLoggersRepeated(t *testing.T) {
	c := DefaultModelConfig()
	for _, level := range []string{"error", "debug", "warn"} {
		c.LogLevel = level
		if err := InitLoggers(c); err != nil {
			t.Fatalf("InitLoggers(%s) failed: %v", level, err)
		}
	}
	c.LogLevel = "loud"
	if err := InitLoggers(c); err == nil {
		t.Errorf("invalid log level accepted")
	}
}

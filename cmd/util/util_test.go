package util

import (
	"github.com/ValentinKolb/dObj/lib/common"
	"github.com/ValentinKolb/dObj/lib/model"
	"path/filepath"
	"strings"
	"testing"
)

func testConfig(t *testing.T, codec string) common.ModelConfig {
	config := common.DefaultModelConfig()
	config.DataFile = filepath.Join(t.TempDir(), "model.db")
	config.Serializer = codec
	config.LogLevel = "error"
	return config
}

func TestWorkspaceRoundTrip(t *testing.T) {
	for _, codec := range []string{"json", "gob", "yaml"} {
		t.Run(codec, func(t *testing.T) {
			config := testConfig(t, codec)

			ws, err := OpenWorkspace(config)
			if err != nil {
				t.Fatalf("OpenWorkspace failed: %v", err)
			}
			if ws.Persisted {
				t.Fatalf("new data file reported as persisted")
			}
			m, err := ws.Model()
			if err != nil {
				t.Fatalf("Model failed: %v", err)
			}
			root, err := m.Root()
			if err != nil {
				t.Fatalf("Root failed: %v", err)
			}
			if _, err := root.Put("greeting", m.CreateString("hello")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if _, err := root.Put("text", m.CreateTextWith("<line/>rich")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if err := ws.Save(); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			_ = ws.Close()

			reopened, err := OpenWorkspace(config)
			if err != nil {
				t.Fatalf("reopening failed: %v", err)
			}
			defer reopened.Close()
			if !reopened.Persisted {
				t.Fatalf("saved wave not found")
			}
			m, err = reopened.Model()
			if err != nil {
				t.Fatalf("Model after reopen failed: %v", err)
			}
			greeting, ok := m.FromPath("root.greeting").(*model.StringType)
			if !ok || greeting.Value() != "hello" {
				t.Errorf("root.greeting = %v", m.FromPath("root.greeting"))
			}
			text, ok := m.FromPath("root.text").(*model.TextType)
			if !ok || text.Text() != "rich" {
				t.Errorf("root.text = %v", m.FromPath("root.text"))
			}
		})
	}
}

func TestOpenWorkspaceInvalidConfig(t *testing.T) {
	config := testConfig(t, "json")
	config.Participant = "nobody"
	if _, err := OpenWorkspace(config); err == nil {
		t.Errorf("participant without domain accepted")
	}

	config = testConfig(t, "xml")
	if _, err := OpenWorkspace(config); err == nil {
		t.Errorf("unknown serializer accepted")
	}
}

func TestWrapString(t *testing.T) {
	wrapped := WrapString(strings.Repeat("word ", 30))
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > Wrap {
			t.Errorf("line %q longer than %d", line, Wrap)
		}
	}
	if WrapString("short text") != "short text" {
		t.Errorf("short text was wrapped: %q", WrapString("short text"))
	}
}

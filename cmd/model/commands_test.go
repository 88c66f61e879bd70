package model

import (
	"bytes"
	"github.com/ValentinKolb/dObj/lib/model"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"strings"
	"testing"
)

func newTestModel(t *testing.T) *model.Model {
	m, err := model.Create(substrate.NewWave("w+cli"), model.Options{
		Domain:      "cli.local",
		Participant: "tester@cli.local",
		Session:     "cli",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return m
}

func TestNewValue(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		typ, raw string
		want     string
		wantErr  bool
	}{
		{"string", "hello", "StringType", false},
		{"number", "4.5", "NumberType", false},
		{"number", "four", "", true},
		{"map", "", "MapType", false},
		{"list", "", "ListType", false},
		{"text", "<line/>hi", "TextType", false},
		{"file", "cli.local/a1,image/png", "FileType", false},
		{"file", "missing-domain", "", true},
		{"bool", "true", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.raw, func(t *testing.T) {
			value, err := newValue(m, tt.typ, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("newValue(%s, %q) accepted invalid input", tt.typ, tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("newValue(%s, %q) failed: %v", tt.typ, tt.raw, err)
			}
			if value.TypeName() != tt.want {
				t.Errorf("newValue(%s) = %s, want %s", tt.typ, value.TypeName(), tt.want)
			}
			if value.IsAttached() {
				t.Errorf("new value is already attached")
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	m := newTestModel(t)
	root, err := m.Root()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := root.Put("name", m.CreateString("dobj")); err != nil {
		t.Fatal(err)
	}
	if _, err := root.Put("count", m.CreateNumber("3")); err != nil {
		t.Fatal(err)
	}
	snapshot, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := writeExport(&out, "json", snapshot); err != nil {
		t.Fatalf("json export failed: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "dobj"`) || !strings.Contains(out.String(), `"count": 3`) {
		t.Errorf("json export = %s", out.String())
	}

	out.Reset()
	if err := writeExport(&out, "yaml", snapshot); err != nil {
		t.Fatalf("yaml export failed: %v", err)
	}
	if !strings.Contains(out.String(), "name: dobj") || !strings.Contains(out.String(), "count: 3") {
		t.Errorf("yaml export = %s", out.String())
	}

	if err := writeExport(&out, "xml", snapshot); err == nil {
		t.Errorf("unknown format accepted")
	}
}

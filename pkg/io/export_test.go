package io

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type doc struct {
	Name     string   `json:"name" yaml:"name"`
	Versions []string `json:"versions" yaml:"versions"`
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"catalog.json": FormatJSON,
		"catalog.yaml": FormatYAML,
		"catalog.YML":  FormatYAML,
		"catalog":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestExportImport(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			in := doc{Name: "acme/weather", Versions: []string{"1.0.0", "1.1.0"}}
			if err := Export(path, in); err != nil {
				t.Fatalf("Export: %v", err)
			}

			var out doc
			if err := Import(path, &out); err != nil {
				t.Fatalf("Import: %v", err)
			}
			if out.Name != in.Name || strings.Join(out.Versions, ",") != "1.0.0,1.1.0" {
				t.Errorf("round trip = %+v", out)
			}

			entries, _ := os.ReadDir(filepath.Dir(path))
			if len(entries) != 1 {
				t.Errorf("temporary files left behind: %d entries", len(entries))
			}
		})
	}
}

func TestExportJSONIsIndented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Export(path, map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{\n  \"a\": 1\n}\n" {
		t.Errorf("output = %q", data)
	}
}

func TestImportMissing(t *testing.T) {
	var out doc
	err := Import(filepath.Join(t.TempDir(), "absent.json"), &out)
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

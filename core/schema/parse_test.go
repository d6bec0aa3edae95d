package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	yaml := `
module: motion
description: Movement tuning

fields:
  - name: maxSpeed
    type: int32
    default: 50
    range: { min: 0, max: 100 }
    comment: Upper bound for walking speed
  - name: gravity
    type: double
    default: 9.81
  - name: debugOverlay
    type: bool
    default: false
    no_sync: true
  - name: legacyMode
    type: bool
    default: false
    no_load: true
`

	mod, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if mod.Name != "motion" {
		t.Errorf("Name = %q, want %q", mod.Name, "motion")
	}
	if len(mod.Fields) != 4 {
		t.Fatalf("Fields has %d entries, want 4", len(mod.Fields))
	}

	speed := mod.Fields[0]
	if speed.Range == nil || speed.Range.Min != "0" || speed.Range.Max != "100" {
		t.Errorf("maxSpeed range = %+v, want {0 100}", speed.Range)
	}
	if speed.Default != 50 {
		t.Errorf("maxSpeed default = %#v, want 50", speed.Default)
	}
	if speed.Comment == "" {
		t.Error("maxSpeed comment missing")
	}
	if !mod.Fields[2].NoSync {
		t.Error("debugOverlay should be no_sync")
	}
	if !mod.Fields[3].NoLoad {
		t.Error("legacyMode should be no_load")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing module", "fields:\n  - {name: a, type: bool}\n", "module name is required"},
		{"bad module name", "module: 9lives\n", "not a valid identifier"},
		{"missing field name", "module: m\nfields:\n  - {type: bool}\n", "name is required"},
		{"missing type", "module: m\nfields:\n  - {name: a}\n", "type is required"},
		{"bad yaml", "module: [", "parse yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "audio")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		filepath.Join(dir, "motion.yaml"):  "module: motion\nfields:\n  - {name: maxSpeed, type: int32, default: 50}\n",
		filepath.Join(sub, "volume.yml"):   "module: audio\nfields:\n  - {name: volume, type: float32, default: 0.8}\n",
		filepath.Join(dir, "README.md"):    "not a module",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mods, err := ParseDir(dir)
	if err != nil {
		t.Fatalf("ParseDir failed: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("ParseDir returned %d modules, want 2", len(mods))
	}

	names := map[string]bool{}
	for _, m := range mods {
		names[m.Name] = true
	}
	if !names["motion"] || !names["audio"] {
		t.Errorf("modules = %v, want motion and audio", names)
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("ParseFile should fail for missing file")
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := map[string]bool{
		"maxSpeed":  true,
		"max_speed": true,
		"audio.vol": true,
		"a1":        true,
		"1a":        false,
		".a":        false,
		"a-b":       false,
		"":          false,
	}
	for in, want := range tests {
		if got := isValidIdentifier(in); got != want {
			t.Errorf("isValidIdentifier(%q) = %v, want %v", in, got, want)
		}
	}
}

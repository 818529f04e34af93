package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/config.toml", `
enabled = true
excluded_folders = ["Templates/", "*.excalidraw"]

[highlight]
interval_value = 7
style = "color"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/config.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config["enabled"] != true {
		t.Errorf("enabled = %v", config["enabled"])
	}
	hl, ok := config["highlight"].(map[string]any)
	if !ok {
		t.Fatal("expected highlight to be a map")
	}
	if hl["interval_value"] != int64(7) {
		t.Errorf("interval_value = %v (%T), want 7", hl["interval_value"], hl["interval_value"])
	}
	if hl["style"] != "color" {
		t.Errorf("style = %v", hl["style"])
	}
	if list, ok := config["excluded_folders"].([]any); !ok || len(list) != 2 {
		t.Errorf("excluded_folders = %#v", config["excluded_folders"])
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/nonexistent.toml").Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}

	config, err = NewTOMLLoaderWithFS(NewMemFS(), "").Load()
	if err != nil || config != nil {
		t.Errorf("empty path: %v, %v", config, err)
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/invalid.toml", `
[highlight
interval_value = 4
`)

	_, err := NewTOMLLoaderWithFS(memfs, "/invalid.toml").Load()
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Path != "/invalid.toml" {
		t.Errorf("Path = %q", pe.Path)
	}
	if !strings.Contains(pe.Error(), "/invalid.toml") {
		t.Errorf("Error() = %q", pe.Error())
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader(`log_level = "debug"`))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if config["log_level"] != "debug" {
		t.Errorf("log_level = %v", config["log_level"])
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"enabled":   true,
		"highlight": map[string]any{"style": "bold", "interval_value": int64(5)},
	}
	src := map[string]any{
		"highlight": map[string]any{"style": "color"},
		"log_level": "info",
	}

	got := DeepMerge(dst, src)
	hl := got["highlight"].(map[string]any)
	if hl["style"] != "color" {
		t.Errorf("style = %v, want color", hl["style"])
	}
	if hl["interval_value"] != int64(5) {
		t.Errorf("interval_value lost: %v", hl["interval_value"])
	}
	if got["enabled"] != true || got["log_level"] != "info" {
		t.Errorf("merged = %v", got)
	}
	if DeepMerge(nil, nil) == nil {
		t.Error("DeepMerge(nil, nil) returned nil")
	}
}

type sample struct {
	Enabled bool     `toml:"enabled"`
	Names   []string `toml:"names"`
	Inner   struct {
		Value int    `toml:"value"`
		Label string `toml:"label"`
	} `toml:"inner"`
}

func TestDecode_KeepsAbsentFields(t *testing.T) {
	var s sample
	s.Enabled = true
	s.Inner.Label = "keep"

	err := Decode(map[string]any{
		"names": []any{"a", "b"},
		"inner": map[string]any{"value": int64(3)},
	}, &s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !s.Enabled || s.Inner.Label != "keep" {
		t.Errorf("absent fields overwritten: %+v", s)
	}
	if s.Inner.Value != 3 || len(s.Names) != 2 {
		t.Errorf("decoded = %+v", s)
	}
}

func TestDecode_TypeMismatch(t *testing.T) {
	var s sample
	if err := Decode(map[string]any{"enabled": "sometimes"}, &s); err == nil {
		t.Error("expected an error for a string in a bool field")
	}
}

func TestMerge(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/c.toml", `log_level = "warn"
enabled = false`)

	got, err := Merge(
		MapLoader{"log_level": "error", "enabled": true},
		NewTOMLLoaderWithFS(memfs, "/c.toml"),
		MapLoader{"enabled": true},
	)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got["log_level"] != "warn" || got["enabled"] != true {
		t.Errorf("merged = %v", got)
	}
}

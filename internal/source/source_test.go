package source

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zip"
)

var testFiles = map[string]string{
	"minecraft/textures/item/apple.png": "apple",
	"minecraft/textures/block/dirt.png": "dirt",
	"pack.mcmeta":                       "{}",
}

var testNames = []string{
	"minecraft/textures/block/dirt.png",
	"minecraft/textures/item/apple.png",
	"pack.mcmeta",
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range testFiles {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

func writeZip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pack.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	if _, err := w.Create("minecraft/textures/"); err != nil {
		t.Fatalf("failed to add dir entry: %v", err)
	}
	for name, content := range testFiles {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return path
}

func TestSources(t *testing.T) {
	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{"directory", writeTree},
		{"zip", writeZip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Open(tt.root(t))
			if err != nil {
				t.Fatalf("failed to open source: %v", err)
			}
			defer src.Close()

			files, err := src.List()
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if !reflect.DeepEqual(files, testNames) {
				t.Errorf("expected %v, got %v", testNames, files)
			}

			data, err := src.Read("minecraft/textures/item/apple.png")
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(data) != "apple" {
				t.Errorf("expected 'apple', got %q", data)
			}

			// Backslashes are accepted in lookups.
			if _, err := src.Read(`minecraft\textures\block\dirt.png`); err != nil {
				t.Errorf("Read with backslashes failed: %v", err)
			}

			if _, err := src.Read("missing.png"); err == nil {
				t.Error("expected error reading missing file")
			}
		})
	}
}

func TestOpenRejectsPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error opening a non-zip file")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error opening a missing path")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		`a\b\c.png`:  "a/b/c.png",
		"./a/b.png":  "a/b.png",
		"/a/../b":    "b",
		"a//b/c.png": "a/b/c.png",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestZipLegacyNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create zip: %v", err)
	}
	w := zip.NewWriter(f)
	// 0x82 is "é" in code page 437 and invalid on its own in UTF-8.
	fw, err := w.CreateHeader(&zip.FileHeader{Name: "textures/caf\x82.png", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to add entry: %v", err)
	}
	if _, err := fw.Write([]byte("cafe")); err != nil {
		t.Fatalf("failed to write entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	f.Close()

	src, err := OpenZip(path)
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}
	defer src.Close()

	files, _ := src.List()
	if !reflect.DeepEqual(files, []string{"textures/caf\u00e9.png"}) {
		t.Fatalf("expected decoded name, got %q", files)
	}
	if data, err := src.Read("textures/caf\u00e9.png"); err != nil || string(data) != "cafe" {
		t.Errorf("Read = %q, %v", data, err)
	}
}

func TestDecodeCP437(t *testing.T) {
	if got := decodeCP437("caf\x82"); got != "caf\u00e9" {
		t.Errorf("decodeCP437 = %q", got)
	}
	if got := decodeCP437("plain.png"); got != "plain.png" {
		t.Errorf("ASCII should pass through, got %q", got)
	}
}

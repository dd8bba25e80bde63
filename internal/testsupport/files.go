// Package testsupport builds texture fixtures for tests.
package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// EncodePNG returns a w×h PNG filled with c.
func EncodePNG(t testing.TB, w, h int, c color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to root/name, creating parent directories.
// name is slash-separated.
func WriteFile(t testing.TB, root, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WritePNG writes a solid w×h PNG to root/name and returns its bytes.
func WritePNG(t testing.TB, root, name string, w, h int, c color.NRGBA) []byte {
	t.Helper()

	data := EncodePNG(t, w, h, c)
	WriteFile(t, root, name, data)
	return data
}

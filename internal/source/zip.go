package source

import (
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zip"
)

// Zip is a Source backed by a zipped pack.
type Zip struct {
	root   string
	reader *zip.ReadCloser
	files  map[string]*zip.File
}

// OpenZip opens a zip archive as a Source.
func OpenZip(path string) (*Zip, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	z := &Zip{
		root:   path,
		reader: reader,
		files:  make(map[string]*zip.File, len(reader.File)),
	}
	for _, f := range reader.File {
		if !f.Mode().IsRegular() {
			continue
		}
		z.files[entryName(f)] = f
	}
	return z, nil
}

// Root returns the archive path.
func (z *Zip) Root() string {
	return z.root
}

// List returns all regular file entries in lexical order.
func (z *Zip) List() ([]string, error) {
	result := make([]string, 0, len(z.files))
	for name := range z.files {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// Read decompresses a single entry.
func (z *Zip) Read(name string) ([]byte, error) {
	f, ok := z.files[normalizePath(name)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Close closes the archive.
func (z *Zip) Close() error {
	if z.reader != nil {
		return z.reader.Close()
	}
	return nil
}

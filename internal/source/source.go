// Package source provides read access to the files of an asset pack, either
// an unpacked directory tree or a zipped pack.
package source

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Source is a read-only view of pack files addressed by slash-separated,
// root-relative names.
type Source interface {
	// Root returns the location the source was opened from.
	Root() string
	// List returns every regular file name in lexical order.
	List() ([]string, error)
	// Read returns the contents of the named file.
	Read(name string) ([]byte, error)
	// Close releases the source.
	Close() error
}

// Open opens root as a directory source, or as a zip source when root is a
// regular file with a .zip extension.
func Open(root string) (Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	if info.IsDir() {
		return OpenDir(root)
	}
	if strings.EqualFold(filepath.Ext(root), ".zip") {
		return OpenZip(root)
	}
	return nil, fmt.Errorf("opening source: %s is neither a directory nor a .zip pack", root)
}

// normalizePath converts a name to the canonical slash form used as a key.
func normalizePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

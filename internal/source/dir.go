package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir is a Source backed by a directory tree.
type Dir struct {
	root string
	fsys fs.FS
}

// OpenDir opens a directory tree as a Source.
func OpenDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening directory: %s is not a directory", root)
	}
	return &Dir{root: root, fsys: os.DirFS(root)}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string {
	return d.root
}

// List walks the tree and returns all regular files.
func (d *Dir) List() ([]string, error) {
	var files []string
	err := fs.WalkDir(d.fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", d.root, err)
	}
	return files, nil
}

// Read reads a file relative to the root.
func (d *Dir) Read(name string) ([]byte, error) {
	return fs.ReadFile(d.fsys, normalizePath(name))
}

// Path returns the OS path of a root-relative name.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(normalizePath(name)))
}

// Close is a no-op for directory sources.
func (d *Dir) Close() error {
	return nil
}

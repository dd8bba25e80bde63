package mapping

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Faultbox/texpack/internal/fileutil"
)

// File name conventions for one page's delivery unit.
const (
	pagePrefix   = "atlas_"
	ImageExt     = ".png"
	TableExt     = ".json"
	tableFileMod = 0o644
)

// PageName returns the base name shared by a page's image and table.
func PageName(page int) string {
	return pagePrefix + strconv.Itoa(page)
}

// ImageFile returns the image file name of a page.
func ImageFile(page int) string {
	return PageName(page) + ImageExt
}

// TableFile returns the mapping file name of a page.
func TableFile(page int) string {
	return PageName(page) + TableExt
}

// ImageRef returns the reference written into entries for a page's image,
// e.g. "atlases/atlas_1.png" for reference dir "atlases".
func ImageRef(referenceDir string, page int) string {
	if referenceDir == "" {
		return ImageFile(page)
	}
	return path.Join(referenceDir, ImageFile(page))
}

// ParsePage extracts the page number from a table or image file name.
func ParsePage(name string) (int, bool) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if !strings.HasPrefix(base, pagePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(base, pagePrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// WriteFile atomically writes a page table into dir.
func WriteFile(dir string, t *Table) (string, error) {
	p := filepath.Join(dir, TableFile(t.Page))
	err := fileutil.WriteAtomic(p, tableFileMod, func(w io.Writer) error {
		return Encode(w, t)
	})
	if err != nil {
		return "", err
	}
	return p, nil
}

// ReadFile loads one table file. The page number comes from the file name.
func ReadFile(name string) (*Table, error) {
	page, ok := ParsePage(name)
	if !ok {
		return nil, fmt.Errorf("%s: not a page table file name", name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, page)
}

// PageFile is a page-numbered file found in an output directory.
type PageFile struct {
	Page int
	Path string
}

// PageFiles lists the files in dir named atlas_<N><ext>, ordered by N.
func PageFiles(dir, ext string) ([]PageFile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pagePrefix+"*"+ext))
	if err != nil {
		return nil, err
	}

	var files []PageFile
	for _, m := range matches {
		if page, ok := ParsePage(m); ok {
			files = append(files, PageFile{Page: page, Path: m})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Page < files[j].Page })
	return files, nil
}

// LoadDir loads every page table in dir, ordered by page number.
func LoadDir(dir string) ([]*Table, error) {
	files, err := PageFiles(dir, TableExt)
	if err != nil {
		return nil, err
	}

	tables := make([]*Table, 0, len(files))
	for _, f := range files {
		t, err := ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f.Path, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

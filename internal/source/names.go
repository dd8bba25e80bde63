package source

import (
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// entryName returns the key of a zip entry. Archives written by older tools
// store names in the legacy IBM code page 437 without the UTF-8 flag; those
// names are converted so aliases are always valid UTF-8.
func entryName(f *zip.File) string {
	name := f.Name
	if f.NonUTF8 && !utf8.ValidString(name) {
		name = decodeCP437(name)
	}
	return normalizePath(name)
}

// decodeCP437 converts a code page 437 string to UTF-8.
// Returns the original string if conversion fails.
func decodeCP437(s string) string {
	result, _, err := transform.String(charmap.CodePage437.NewDecoder(), s)
	if err != nil {
		return s
	}
	return result
}

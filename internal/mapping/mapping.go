// Package mapping holds the per-page alias → placement tables and their
// JSON encoding.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDuplicateAlias is returned when an alias is added to a table twice.
var ErrDuplicateAlias = errors.New("duplicate alias")

// Entry is one alias's placement on an atlas page.
type Entry struct {
	Alias           string `json:"-"`
	Texture         string `json:"texture"` // page image reference
	X               int    `json:"x"`
	Y               int    `json:"y"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	CustomModelData int    `json:"custom_model_data"` // stable id on the page
}

// SamePlacement reports whether two entries share page, rect and stable id.
func (e Entry) SamePlacement(o Entry) bool {
	return e.Texture == o.Texture && e.X == o.X && e.Y == o.Y &&
		e.Width == o.Width && e.Height == o.Height &&
		e.CustomModelData == o.CustomModelData
}

// Table maps alias names to entries for one page, keeping insertion order.
type Table struct {
	Page    int
	entries []Entry
	byAlias map[string]int
}

// NewTable creates an empty table for a page.
func NewTable(page int) *Table {
	return &Table{Page: page, byAlias: make(map[string]int)}
}

// Add appends an entry. Each alias may appear only once.
func (t *Table) Add(e Entry) error {
	if _, ok := t.byAlias[e.Alias]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAlias, e.Alias)
	}
	t.byAlias[e.Alias] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// Lookup returns the entry for an alias.
func (t *Table) Lookup(alias string) (Entry, bool) {
	i, ok := t.byAlias[alias]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns all entries in table order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len returns the number of aliases in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// MarshalJSON encodes the table as an object keyed by alias, in table order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Alias)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an alias-keyed object, keeping the file's key order.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("mapping table must be a JSON object")
	}

	if t.byAlias == nil {
		t.byAlias = make(map[string]int)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		alias, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("decoding entry %s: %w", alias, err)
		}
		e.Alias = alias
		if err := t.Add(e); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}

// Encode writes the table as indented JSON.
func Encode(w io.Writer, t *Table) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding page %d table: %w", t.Page, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Decode reads a table for the given page.
func Decode(r io.Reader, page int) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	t := NewTable(page)
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decoding page %d table: %w", page, err)
	}
	return t, nil
}

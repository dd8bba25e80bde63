package rewrite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
)

var errNotObject = errors.New("not a JSON object")

// object is a JSON object that keeps its key order, so rewritten model
// files differ from the original only in the fields that changed.
type object struct {
	keys   []string
	values map[string]json.RawMessage
}

func (o *object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}

	o.keys = nil
	o.values = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
		if _, dup := o.values[key]; !dup {
			o.keys = append(o.keys, key)
		}
		o.values[key] = raw
	}

	_, err = dec.Token()
	return err
}

func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(o.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// set replaces a value in place, or appends a new key.
func (o *object) set(key string, raw json.RawMessage) {
	if o.values == nil {
		o.values = make(map[string]json.RawMessage)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
}

// marshal encodes v without HTML escaping; texture paths are written as-is.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Model is an item model description. Only the texture reference and the
// custom_model_data field are interpreted; everything else passes through.
type Model struct {
	root object
}

// ParseModel parses a model file. Comments and trailing commas are accepted.
func ParseModel(data []byte) (*Model, error) {
	m := &Model{}
	if err := m.root.UnmarshalJSON(jsonc.ToJSON(data)); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	return m, nil
}

func (m *Model) textures() (*object, bool) {
	raw, ok := m.root.values["textures"]
	if !ok {
		return nil, false
	}
	var tex object
	if err := tex.UnmarshalJSON(raw); err != nil {
		return nil, false
	}
	return &tex, true
}

// TextureRef returns textures.<key> when it is a non-empty string.
func (m *Model) TextureRef(key string) (string, bool) {
	tex, ok := m.textures()
	if !ok {
		return "", false
	}
	raw, ok := tex.values[key]
	if !ok {
		return "", false
	}
	var ref string
	if err := json.Unmarshal(raw, &ref); err != nil || ref == "" {
		return "", false
	}
	return ref, true
}

// SetTextureRef replaces textures.<key>, creating the textures object if needed.
func (m *Model) SetTextureRef(key, ref string) error {
	tex, ok := m.textures()
	if !ok {
		tex = &object{}
	}
	value, err := marshal(ref)
	if err != nil {
		return err
	}
	tex.set(key, value)

	raw, err := tex.MarshalJSON()
	if err != nil {
		return err
	}
	m.root.set("textures", raw)
	return nil
}

// SetCustomModelData sets the top-level custom_model_data field.
func (m *Model) SetCustomModelData(id int) error {
	value, err := marshal(id)
	if err != nil {
		return err
	}
	m.root.set("custom_model_data", value)
	return nil
}

// Encode returns the model as 2-space indented JSON with a trailing newline.
func (m *Model) Encode() ([]byte, error) {
	raw, err := m.root.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("encoding model: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

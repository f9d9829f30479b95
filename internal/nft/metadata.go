package nft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Attribute is one resolved metadata entry
type Attribute struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type kvEntry struct {
	Key   any `json:"key"`
	Value any `json:"value"`
}

// decodeMetadata turns a parsed metadata value into attributes. A key/value
// sequence (CEP-47 Map<String,String>) maps entry by entry; anything else is
// JSON text whose object keys are resolved in document order. Undecodable
// metadata yields an empty list.
func (s *Service) decodeMetadata(raw json.RawMessage) []Attribute {
	attrs, err := s.decodeMetadataErr(raw)
	if err != nil {
		slog.Warn("Failed to decode token metadata",
			"contract_hash", s.collection.ContractHash,
			"error", err)
		return []Attribute{}
	}
	return attrs
}

func (s *Service) decodeMetadataErr(raw json.RawMessage) ([]Attribute, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty metadata")
	}

	switch raw[0] {
	case '[':
		var entries []kvEntry
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&entries); err != nil {
			return nil, err
		}
		out := make([]Attribute, 0, len(entries))
		for _, e := range entries {
			out = append(out, s.resolveAttribute(fmt.Sprint(e.Key), e.Value))
		}
		return out, nil
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		return s.decodeObject([]byte(text))
	default:
		return s.decodeObject(raw)
	}
}

func (s *Service) decodeObject(data []byte) ([]Attribute, error) {
	keys, values, err := orderedObject(data)
	if err != nil {
		return nil, err
	}
	out := make([]Attribute, len(keys))
	for i := range keys {
		out[i] = s.resolveAttribute(keys[i], values[i])
	}
	return out, nil
}

// resolveAttribute applies the attribute config for key. Keys without
// config resolve to themselves.
func (s *Service) resolveAttribute(key string, value any) Attribute {
	var conf *AttributeConfig
	if m := s.collection.NamedKeys.Metadata; m != nil {
		for i := range m.Attributes {
			if m.Attributes[i].Key == key {
				conf = &m.Attributes[i]
				break
			}
		}
	}
	if conf == nil {
		return Attribute{Key: key, Name: key, Value: value}
	}

	attr := Attribute{Key: key, Name: conf.Name, Value: value}
	if conf.StrictKey != "" {
		attr.Key = conf.StrictKey
	}
	if attr.Name == "" {
		attr.Name = key
	}
	if conf.Transform != "" {
		v, err := s.transforms.Apply(conf.Transform, value)
		if err != nil {
			slog.Warn("Attribute transform failed", "key", key, "transform", conf.Transform, "error", err)
		} else {
			attr.Value = v
		}
	}
	return attr
}

// orderedObject decodes a JSON object keeping its key order
func orderedObject(data []byte) ([]string, []any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("metadata is not a JSON object")
	}

	var keys []string
	var values []any
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("value of %q: %w", key, err)
		}
		keys = append(keys, key)
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

// decodeValue decodes a parsed CL value keeping numbers exact
func decodeValue(raw json.RawMessage) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// scalarString renders a parsed numeric or string CL value as text
func scalarString(raw json.RawMessage) (string, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case nil:
		return "", fmt.Errorf("empty value")
	default:
		return "", fmt.Errorf("unexpected value %v", t)
	}
}

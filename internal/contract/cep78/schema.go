package cep78

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var ErrInvalidMetadata = errors.New("token metadata does not match the collection schema")

// MetadataProperty is one field of a custom validated metadata schema
type MetadataProperty struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// MetadataSchema is the json_schema install argument for custom validated metadata
type MetadataSchema struct {
	Properties map[string]MetadataProperty `json:"properties"`
}

// Compile turns the schema into a JSON Schema that token metadata is checked
// against before a deploy is built. Every property is a string; required
// properties must be present.
func (s MetadataSchema) Compile() (*jsonschema.Schema, error) {
	if len(s.Properties) == 0 {
		return nil, fmt.Errorf("metadata schema has no properties")
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	props := make(map[string]any, len(names))
	required := []string{}
	for _, name := range names {
		p := s.Properties[name]
		props[name] = map[string]any{"type": "string", "description": p.Description}
		if p.Required {
			required = append(required, name)
		}
	}
	doc, err := json.Marshal(map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString("cep78-metadata.json", string(doc))
}

// validateMetadata checks the JSON rendering of meta against schema
func validateMetadata(schema *jsonschema.Schema, meta []byte) error {
	if schema == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(meta, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return nil
}

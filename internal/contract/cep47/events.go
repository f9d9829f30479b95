package cep47

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"casperdash/internal/casper/types"
)

// Event is a CEP-47 event map written by the contract during execution
type Event struct {
	Name   string
	Fields map[string]string
}

type effect struct {
	Transforms []struct {
		Key       string          `json:"key"`
		Transform json.RawMessage `json:"transform"`
	} `json:"transforms"`
}

// ParseEvents returns the events named in events that the contract package
// wrote in res, in transform order. Transforms that are not String maps, or
// that belong to another package, are skipped.
func ParseEvents(res *types.ExecutionSuccess, packageHash string, events ...string) ([]Event, error) {
	if res == nil || len(res.Effect) == 0 {
		return nil, nil
	}
	pkg, err := types.ParseHash(packageHash)
	if err != nil {
		return nil, fmt.Errorf("contract package hash: %w", err)
	}

	var eff effect
	if err := json.Unmarshal(res.Effect, &eff); err != nil {
		return nil, fmt.Errorf("failed to decode execution effect: %w", err)
	}

	var out []Event
	for _, t := range eff.Transforms {
		fields, ok := stringMap(t.Transform)
		if !ok {
			continue
		}
		if strings.ToLower(fields["contract_package_hash"]) != pkg.Hex() {
			continue
		}
		name := fields["event_type"]
		if !slices.Contains(events, name) {
			continue
		}
		out = append(out, Event{Name: name, Fields: fields})
	}
	return out, nil
}

// stringMap extracts a WriteCLValue of type Map(String, String)
func stringMap(transform json.RawMessage) (map[string]string, bool) {
	var w struct {
		WriteCLValue *types.StoredCLValue `json:"WriteCLValue"`
	}
	if err := json.Unmarshal(transform, &w); err != nil || w.WriteCLValue == nil {
		return nil, false
	}

	var clType struct {
		Map *struct {
			Key   json.RawMessage `json:"key"`
			Value json.RawMessage `json:"value"`
		} `json:"Map"`
	}
	if err := json.Unmarshal(w.WriteCLValue.CLType, &clType); err != nil || clType.Map == nil {
		return nil, false
	}

	var entries []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(w.WriteCLValue.Parsed, &entries); err != nil {
		return nil, false
	}
	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		fields[e.Key] = e.Value
	}
	return fields, true
}

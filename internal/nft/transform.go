package nft

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownTransform = errors.New("unknown transform")

// Transform post-processes a value read from chain or from metadata
type Transform func(value any) (any, error)

// Transforms is a registry of named transforms referenced from collection config
type Transforms map[string]Transform

// IPFSGateway is used by the "ipfs" transform
const IPFSGateway = "https://ipfs.io/ipfs/"

// DefaultTransforms returns a fresh registry with the built-in transforms
func DefaultTransforms() Transforms {
	return Transforms{
		accountHashTransformName: AccountHash,
		"lowercase":              Lowercase,
		"ipfs":                   IPFS,
		"string":                 Stringify,
		"json":                   ParseJSON,
	}
}

// Apply runs the named transform; an empty name is the identity
func (t Transforms) Apply(name string, value any) (any, error) {
	if name == "" {
		return value, nil
	}
	fn, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, name)
	}
	return fn(value)
}

// AccountHash normalizes a parsed Key or account hash to "account-hash-<hex>"
func AccountHash(value any) (any, error) {
	switch v := value.(type) {
	case string:
		if strings.HasPrefix(v, "account-hash-") {
			return v, nil
		}
		if _, err := hex.DecodeString(v); err != nil || len(v) != 64 {
			return nil, fmt.Errorf("not an account hash: %q", v)
		}
		return "account-hash-" + v, nil
	case map[string]any:
		if acc, ok := v["Account"]; ok {
			return AccountHash(acc)
		}
	}
	return nil, fmt.Errorf("not an account hash: %v", value)
}

func Lowercase(value any) (any, error) {
	return strings.ToLower(fmt.Sprint(value)), nil
}

// IPFS rewrites ipfs:// URIs to the public gateway
func IPFS(value any) (any, error) {
	s := fmt.Sprint(value)
	if rest, ok := strings.CutPrefix(s, "ipfs://"); ok {
		return IPFSGateway + strings.TrimPrefix(rest, "ipfs/"), nil
	}
	return s, nil
}

func Stringify(value any) (any, error) {
	if value == nil {
		return "", nil
	}
	return fmt.Sprint(value), nil
}

// ParseJSON decodes a string holding JSON text; other values pass through
func ParseJSON(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("not JSON: %w", err)
	}
	return out, nil
}

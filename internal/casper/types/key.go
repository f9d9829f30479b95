package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidHash = errors.New("invalid hash")

// Hash is a 32 byte blake2b digest (deploy hash, contract hash, account hash)
type Hash [32]byte

var hashPrefixes = []string{"contract-package-wasm", "contract-package-", "contract-", "account-hash-", "hash-"}

// ParseHash accepts a hex digest with or without one of the usual prefixes
// ("hash-", "contract-", "account-hash-", ...)
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw := strings.TrimSpace(s)
	for _, p := range hashPrefixes {
		if strings.HasPrefix(raw, p) {
			raw = strings.TrimPrefix(raw, p)
			break
		}
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return h, fmt.Errorf("%w %q: %v", ErrInvalidHash, s, err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("%w %q: expected %d bytes, got %d", ErrInvalidHash, s, len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// KeyKind is the variant tag of a global state key
type KeyKind byte

const (
	KeyAccount KeyKind = 0
	KeyHash    KeyKind = 1
)

// Key is a global state key. Only the account and hash variants are needed
// to address accounts and contracts.
type Key struct {
	Kind KeyKind
	Hash Hash
}

// AccountKey builds an account key from an account hash
func AccountKey(accountHash Hash) Key {
	return Key{Kind: KeyAccount, Hash: accountHash}
}

// HashKey builds a hash key addressing a contract or contract package
func HashKey(hash Hash) Key {
	return Key{Kind: KeyHash, Hash: hash}
}

// ParseKey accepts "account-hash-<hex>", "hash-<hex>" or a bare hex digest
// (treated as a hash key)
func ParseKey(s string) (Key, error) {
	if strings.HasPrefix(s, "account-hash-") {
		h, err := ParseHash(s)
		if err != nil {
			return Key{}, err
		}
		return AccountKey(h), nil
	}
	h, err := ParseHash(s)
	if err != nil {
		return Key{}, err
	}
	return HashKey(h), nil
}

func (k Key) Bytes() []byte {
	return append([]byte{byte(k.Kind)}, k.Hash[:]...)
}

func (k Key) String() string {
	if k.Kind == KeyAccount {
		return "account-hash-" + k.Hash.Hex()
	}
	return "hash-" + k.Hash.Hex()
}

func (k Key) parsed() any {
	if k.Kind == KeyAccount {
		return map[string]string{"Account": k.String()}
	}
	return map[string]string{"Hash": k.String()}
}

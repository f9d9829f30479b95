package types

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// KeyAlgorithm is the leading tag byte of a serialized public key
type KeyAlgorithm byte

const (
	ED25519   KeyAlgorithm = 1
	SECP256K1 KeyAlgorithm = 2
)

func (a KeyAlgorithm) String() string {
	switch a {
	case ED25519:
		return "ed25519"
	case SECP256K1:
		return "secp256k1"
	}
	return "unknown"
}

var (
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidKeyFile   = errors.New("invalid key file")
)

// PublicKey is an account public key tagged with its algorithm
type PublicKey struct {
	Algorithm KeyAlgorithm
	Raw       []byte
}

// ParsePublicKey decodes the hex form used by the node ("01..." for ed25519,
// "02..." for secp256k1)
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) < 2 {
		return PublicKey{}, fmt.Errorf("%w %q", ErrInvalidPublicKey, s)
	}
	pk := PublicKey{Algorithm: KeyAlgorithm(b[0]), Raw: b[1:]}
	switch {
	case pk.Algorithm == ED25519 && len(pk.Raw) == ed25519.PublicKeySize:
	case pk.Algorithm == SECP256K1 && len(pk.Raw) == 33:
	default:
		return PublicKey{}, fmt.Errorf("%w %q: bad length for %s", ErrInvalidPublicKey, s, pk.Algorithm)
	}
	return pk, nil
}

func (p PublicKey) Bytes() []byte {
	return append([]byte{byte(p.Algorithm)}, p.Raw...)
}

func (p PublicKey) Hex() string {
	return hex.EncodeToString(p.Bytes())
}

func (p PublicKey) String() string {
	return p.Hex()
}

func (p PublicKey) IsZero() bool {
	return len(p.Raw) == 0
}

// AccountHash is blake2b256(lowercase algorithm name || 0x00 || raw key)
func (p PublicKey) AccountHash() Hash {
	data := append([]byte(p.Algorithm.String()), 0)
	data = append(data, p.Raw...)
	return Blake2b256(data)
}

// AccountHashHex returns the account hash without the "account-hash-" prefix,
// which is how CEP contracts key their per-account dictionaries
func (p PublicKey) AccountHashHex() string {
	return p.AccountHash().Hex()
}

// AccountKey returns the account key for this public key
func (p PublicKey) AccountKey() Key {
	return AccountKey(p.AccountHash())
}

func (p PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Hex())
}

// Signer signs deploy hashes on behalf of an account
type Signer interface {
	PublicKey() PublicKey
	Sign(message []byte) ([]byte, error)
}

// Ed25519KeyPair is an in-memory ed25519 signer
type Ed25519KeyPair struct {
	private ed25519.PrivateKey
}

// NewEd25519KeyPair wraps an existing private key
func NewEd25519KeyPair(private ed25519.PrivateKey) *Ed25519KeyPair {
	return &Ed25519KeyPair{private: private}
}

// LoadEd25519KeyFile reads a PKCS#8 PEM secret key as produced by casper-client keygen
func LoadEd25519KeyFile(path string) (*Ed25519KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: %s has no PEM block", ErrInvalidKeyFile, path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyFile, err)
	}
	private, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an ed25519 key", ErrInvalidKeyFile, path)
	}
	return NewEd25519KeyPair(private), nil
}

func (k *Ed25519KeyPair) PublicKey() PublicKey {
	return PublicKey{Algorithm: ED25519, Raw: []byte(k.private.Public().(ed25519.PublicKey))}
}

func (k *Ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.private, message), nil
}

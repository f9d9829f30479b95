// Package contracttest holds fixtures shared by the contract wrapper tests.
package contracttest

import (
	"crypto/ed25519"
	"math/big"
	"testing"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
)

const (
	ContractHash = "hash-0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a"
	PackageHash  = "hash-0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b"
)

// Wasm is a minimal payload starting with the wasm magic
var Wasm = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Signer returns a deterministic ed25519 key derived from seed
func Signer(t testing.TB, seed byte) *types.Ed25519KeyPair {
	t.Helper()
	raw := make([]byte, ed25519.SeedSize)
	for i := range raw {
		raw[i] = seed
	}
	return types.NewEd25519KeyPair(ed25519.NewKeyFromSeed(raw))
}

// Options returns signed call options paying 5 CSPR
func Options(t testing.TB) contract.CallOptions {
	t.Helper()
	s := Signer(t, 1)
	return contract.CallOptions{
		Payment: big.NewInt(5_000_000_000),
		Sender:  s.PublicKey(),
		Signers: []types.Signer{s},
	}
}

// AccountKey returns the account key of the deterministic signer for seed
func AccountKey(t testing.TB, seed byte) types.Key {
	t.Helper()
	return Signer(t, seed).PublicKey().AccountKey()
}

// ArgNames lists the session argument names of d in order
func ArgNames(d *types.Deploy) []string {
	return d.Session.Args().Names()
}

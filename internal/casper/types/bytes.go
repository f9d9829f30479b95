package types

import (
	"encoding/binary"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

func appendU32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendU64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}

// appendBytes writes a length-prefixed byte slice
func appendBytes(buf []byte, b []byte) []byte {
	buf = appendU32(buf, uint32(len(b)))
	return append(buf, b...)
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

// bigIntBytes encodes an unsigned big integer as a length byte followed by
// its minimal little-endian representation. Zero encodes as a single 0x00.
func bigIntBytes(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return []byte{0}
	}
	be := v.Bytes()
	out := make([]byte, 0, len(be)+1)
	out = append(out, byte(len(be)))
	for i := len(be) - 1; i >= 0; i-- {
		out = append(out, be[i])
	}
	return out
}

// Blake2b256 hashes data with a 32 byte blake2b digest
func Blake2b256(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var ErrInvalidNumber = errors.New("invalid number")

// CLValue is a typed value ready to be placed in runtime arguments
type CLValue struct {
	Type   CLType
	data   []byte
	parsed any
	err    error
}

// Err reports a value that cannot be encoded, such as a negative U512
func (v CLValue) Err() error {
	return v.err
}

// Bytes returns the serialized value without length prefix or type
func (v CLValue) Bytes() []byte {
	return v.data
}

// Parsed returns the human readable form sent in the "parsed" JSON field
func (v CLValue) Parsed() any {
	return v.parsed
}

// serialize produces the in-args form: u32 length, value bytes, type bytes
func (v CLValue) serialize() []byte {
	buf := appendBytes(nil, v.data)
	return append(buf, v.Type.Bytes()...)
}

type clValueJSON struct {
	CLType CLType `json:"cl_type"`
	Bytes  string `json:"bytes"`
	Parsed any    `json:"parsed"`
}

func (v CLValue) MarshalJSON() ([]byte, error) {
	if v.err != nil {
		return nil, v.err
	}
	return json.Marshal(clValueJSON{
		CLType: v.Type,
		Bytes:  hex.EncodeToString(v.data),
		Parsed: v.parsed,
	})
}

func Bool(b bool) CLValue {
	var d byte
	if b {
		d = 1
	}
	return CLValue{Type: CLTypeBool, data: []byte{d}, parsed: b}
}

func U8(v uint8) CLValue {
	return CLValue{Type: CLTypeU8, data: []byte{v}, parsed: v}
}

func U32(v uint32) CLValue {
	return CLValue{Type: CLTypeU32, data: appendU32(nil, v), parsed: v}
}

func U64(v uint64) CLValue {
	return CLValue{Type: CLTypeU64, data: appendU64(nil, v), parsed: v}
}

func U256(v *big.Int) CLValue {
	return bigValue(CLTypeU256, v)
}

func U512(v *big.Int) CLValue {
	return bigValue(CLTypeU512, v)
}

func bigValue(t CLType, v *big.Int) CLValue {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 {
		return CLValue{Type: t, parsed: v.String(), err: fmt.Errorf("%w: negative value %s", ErrInvalidNumber, v)}
	}
	return CLValue{Type: t, data: bigIntBytes(v), parsed: v.String()}
}

// ParseBigInt parses a non-negative base-10 integer, as used for U256/U512 arguments
func ParseBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w %q", ErrInvalidNumber, s)
	}
	return v, nil
}

// U256FromString parses s as a base-10 unsigned integer
func U256FromString(s string) (CLValue, error) {
	v, err := ParseBigInt(s)
	if err != nil {
		return CLValue{}, err
	}
	return U256(v), nil
}

func String(s string) CLValue {
	return CLValue{Type: CLTypeString, data: appendString(nil, s), parsed: s}
}

func ByteArray(b []byte) CLValue {
	data := append([]byte(nil), b...)
	return CLValue{Type: ByteArrayType(uint32(len(b))), data: data, parsed: hex.EncodeToString(b)}
}

func KeyValue(k Key) CLValue {
	return CLValue{Type: CLTypeKey, data: k.Bytes(), parsed: k.parsed()}
}

func PublicKeyValue(p PublicKey) CLValue {
	return CLValue{Type: CLTypePublicKey, data: p.Bytes(), parsed: p.Hex()}
}

// List builds a homogeneous list. The element type is passed explicitly so that
// empty lists still carry a type.
func List(elem CLType, items ...CLValue) CLValue {
	data := appendU32(nil, uint32(len(items)))
	parsed := make([]any, 0, len(items))
	var err error
	for _, it := range items {
		data = append(data, it.data...)
		parsed = append(parsed, it.parsed)
		if err == nil {
			err = it.err
		}
	}
	return CLValue{Type: ListType(elem), data: data, parsed: parsed, err: err}
}

// KeyList is a shorthand for List(CLTypeKey, ...)
func KeyList(keys []Key) CLValue {
	items := make([]CLValue, 0, len(keys))
	for _, k := range keys {
		items = append(items, KeyValue(k))
	}
	return List(CLTypeKey, items...)
}

// MapEntry is a single key/value pair of a CL map
type MapEntry struct {
	Key   CLValue
	Value CLValue
}

func Map(keyType, valueType CLType, entries ...MapEntry) CLValue {
	data := appendU32(nil, uint32(len(entries)))
	parsed := make([]map[string]any, 0, len(entries))
	var err error
	for _, e := range entries {
		data = append(data, e.Key.data...)
		data = append(data, e.Value.data...)
		parsed = append(parsed, map[string]any{"key": e.Key.parsed, "value": e.Value.parsed})
		if err == nil {
			err = errors.Join(e.Key.err, e.Value.err)
		}
	}
	return CLValue{Type: MapType(keyType, valueType), data: data, parsed: parsed, err: err}
}

// StringMap builds a Map(String, String) with keys in sorted order
func StringMap(m map[string]string) CLValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]MapEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, MapEntry{Key: String(k), Value: String(m[k])})
	}
	return Map(CLTypeString, CLTypeString, entries...)
}

// Option wraps v, or encodes None when v is nil
func Option(inner CLType, v *CLValue) CLValue {
	if v == nil {
		return CLValue{Type: OptionType(inner), data: []byte{0}, parsed: nil}
	}
	data := append([]byte{1}, v.data...)
	return CLValue{Type: OptionType(inner), data: data, parsed: v.parsed, err: v.err}
}

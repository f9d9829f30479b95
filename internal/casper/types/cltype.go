package types

import (
	"encoding/json"
	"fmt"
)

// CLTypeTag identifies a CL type in its byte representation
type CLTypeTag byte

const (
	TagBool      CLTypeTag = 0
	TagI32       CLTypeTag = 1
	TagI64       CLTypeTag = 2
	TagU8        CLTypeTag = 3
	TagU32       CLTypeTag = 4
	TagU64       CLTypeTag = 5
	TagU128      CLTypeTag = 6
	TagU256      CLTypeTag = 7
	TagU512      CLTypeTag = 8
	TagUnit      CLTypeTag = 9
	TagString    CLTypeTag = 10
	TagKey       CLTypeTag = 11
	TagURef      CLTypeTag = 12
	TagOption    CLTypeTag = 13
	TagList      CLTypeTag = 14
	TagByteArray CLTypeTag = 15
	TagResult    CLTypeTag = 16
	TagMap       CLTypeTag = 17
	TagTuple1    CLTypeTag = 18
	TagTuple2    CLTypeTag = 19
	TagTuple3    CLTypeTag = 20
	TagAny       CLTypeTag = 21
	TagPublicKey CLTypeTag = 22
)

var simpleTypeNames = map[CLTypeTag]string{
	TagBool:      "Bool",
	TagI32:       "I32",
	TagI64:       "I64",
	TagU8:        "U8",
	TagU32:       "U32",
	TagU64:       "U64",
	TagU128:      "U128",
	TagU256:      "U256",
	TagU512:      "U512",
	TagUnit:      "Unit",
	TagString:    "String",
	TagKey:       "Key",
	TagURef:      "URef",
	TagAny:       "Any",
	TagPublicKey: "PublicKey",
}

// CLType describes the type of a CL value. Inner is set for Option and List,
// Key/Value for Map and Size for ByteArray.
type CLType struct {
	Tag   CLTypeTag
	Inner *CLType
	Key   *CLType
	Value *CLType
	Size  uint32
}

var (
	CLTypeBool      = CLType{Tag: TagBool}
	CLTypeU8        = CLType{Tag: TagU8}
	CLTypeU32       = CLType{Tag: TagU32}
	CLTypeU64       = CLType{Tag: TagU64}
	CLTypeU256      = CLType{Tag: TagU256}
	CLTypeU512      = CLType{Tag: TagU512}
	CLTypeString    = CLType{Tag: TagString}
	CLTypeKey       = CLType{Tag: TagKey}
	CLTypePublicKey = CLType{Tag: TagPublicKey}
)

func OptionType(inner CLType) CLType {
	return CLType{Tag: TagOption, Inner: &inner}
}

func ListType(inner CLType) CLType {
	return CLType{Tag: TagList, Inner: &inner}
}

func MapType(key, value CLType) CLType {
	return CLType{Tag: TagMap, Key: &key, Value: &value}
}

func ByteArrayType(size uint32) CLType {
	return CLType{Tag: TagByteArray, Size: size}
}

// Bytes returns the serialized type descriptor
func (t CLType) Bytes() []byte {
	buf := []byte{byte(t.Tag)}
	switch t.Tag {
	case TagOption, TagList:
		buf = append(buf, t.Inner.Bytes()...)
	case TagMap:
		buf = append(buf, t.Key.Bytes()...)
		buf = append(buf, t.Value.Bytes()...)
	case TagByteArray:
		buf = appendU32(buf, t.Size)
	}
	return buf
}

// MarshalJSON renders the type the way the node expects in cl_type fields
func (t CLType) MarshalJSON() ([]byte, error) {
	if name, ok := simpleTypeNames[t.Tag]; ok {
		return json.Marshal(name)
	}
	switch t.Tag {
	case TagOption:
		return json.Marshal(map[string]CLType{"Option": *t.Inner})
	case TagList:
		return json.Marshal(map[string]CLType{"List": *t.Inner})
	case TagByteArray:
		return json.Marshal(map[string]uint32{"ByteArray": t.Size})
	case TagMap:
		return json.Marshal(map[string]map[string]CLType{
			"Map": {"key": *t.Key, "value": *t.Value},
		})
	}
	return nil, fmt.Errorf("unsupported cl type tag %d", t.Tag)
}

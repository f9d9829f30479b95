package nft

import (
	"fmt"

	"casperdash/internal/casper/types"
)

// Standard is the NFT contract standard of a collection
type Standard string

const (
	CEP47 Standard = "cep-47"
	CEP78 Standard = "cep-78"
)

// MetadataKind selects the CEP-78 metadata dictionary. Empty means the
// generic "metadata" dictionary, which is also what CEP-47 uses.
type MetadataKind string

const (
	MetadataCEP78           MetadataKind = "cep78"
	MetadataNFT721          MetadataKind = "nft721"
	MetadataRaw             MetadataKind = "raw"
	MetadataCustomValidated MetadataKind = "custom_validated"
)

const (
	metadataDictionary       = "metadata"
	balancesDictionary       = "balances"
	ownedByIndexDictionary   = "owned_tokens_by_index"
	ownedTokensDictionary    = "owned_tokens"
	ownerAttribute           = "ownerAccountHash"
	accountHashTransformName = "account_hash"
)

var metadataDictionaries = map[MetadataKind]string{
	MetadataCEP78:           "metadata_cep78",
	MetadataNFT721:          "metadata_nft721",
	MetadataRaw:             "metadata_raw",
	MetadataCustomValidated: "metadata_custom_validated",
}

// AttributeConfig renames a metadata key and optionally transforms its value
type AttributeConfig struct {
	Key       string `yaml:"key" json:"key"`
	Name      string `yaml:"name" json:"name"`
	Transform string `yaml:"transform,omitempty" json:"transform,omitempty"`
	StrictKey string `yaml:"strict_key,omitempty" json:"strict_key,omitempty"`
}

// URIConfig points at the metadata attribute holding an off-chain URI
type URIConfig struct {
	Key       string `yaml:"key" json:"key"`
	Transform string `yaml:"transform,omitempty" json:"transform,omitempty"`
}

type MetadataConfig struct {
	Attributes []AttributeConfig `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	FromURI    bool              `yaml:"from_uri,omitempty" json:"from_uri,omitempty"`
	URI        *URIConfig        `yaml:"uri,omitempty" json:"uri,omitempty"`
}

// NamedKeyConfig is an additional per-token dictionary read into the record
type NamedKeyConfig struct {
	Dictionary string `yaml:"dictionary" json:"dictionary"`
	Attribute  string `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Transform  string `yaml:"transform,omitempty" json:"transform,omitempty"`
}

type NamedKeys struct {
	Metadata *MetadataConfig  `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Extra    []NamedKeyConfig `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Collection describes how to read one NFT contract. It is not modified
// after the service is constructed.
type Collection struct {
	ContractHash string       `yaml:"contract_hash" json:"contract_hash"`
	Name         string       `yaml:"name" json:"name"`
	Symbol       string       `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Creator      string       `yaml:"creator,omitempty" json:"creator,omitempty"`
	Action       string       `yaml:"action,omitempty" json:"action,omitempty"`
	Standard     Standard     `yaml:"standard" json:"standard"`
	MetadataKind MetadataKind `yaml:"metadata_kind,omitempty" json:"metadata_kind,omitempty"`
	NamedKeys    NamedKeys    `yaml:"named_keys,omitempty" json:"named_keys,omitempty"`
}

// Validate checks the collection against the transform registry
func (c Collection) Validate(transforms Transforms) error {
	if _, err := types.ParseHash(c.ContractHash); err != nil {
		return fmt.Errorf("collection %q: %w", c.Name, err)
	}
	switch c.Standard {
	case CEP47, CEP78:
	default:
		return fmt.Errorf("collection %q: unknown standard %q", c.Name, c.Standard)
	}
	if c.MetadataKind != "" {
		if _, ok := metadataDictionaries[c.MetadataKind]; !ok {
			return fmt.Errorf("collection %q: unknown metadata kind %q", c.Name, c.MetadataKind)
		}
	}

	names := []string{}
	if m := c.NamedKeys.Metadata; m != nil {
		for _, a := range m.Attributes {
			names = append(names, a.Transform)
		}
		if m.FromURI {
			if m.URI == nil || m.URI.Key == "" {
				return fmt.Errorf("collection %q: from_uri requires uri.key", c.Name)
			}
			names = append(names, m.URI.Transform)
		}
	}
	for _, e := range c.NamedKeys.Extra {
		if e.Dictionary == "" {
			return fmt.Errorf("collection %q: extra named key without dictionary", c.Name)
		}
		names = append(names, e.Transform)
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := transforms[name]; !ok {
			return fmt.Errorf("collection %q: %w: %s", c.Name, ErrUnknownTransform, name)
		}
	}
	return nil
}

func (c Collection) metadataDictionary() string {
	if c.Standard == CEP47 || c.MetadataKind == "" {
		return metadataDictionary
	}
	return metadataDictionaries[c.MetadataKind]
}

func (c Collection) ownerDictionary() string {
	if c.Standard == CEP47 {
		return "owners"
	}
	return "token_owners"
}

// infoNamedKeys maps contract named keys to ContractInfo fields
func (c Collection) infoNamedKeys() (name, symbol, supply string) {
	if c.Standard == CEP47 {
		return "name", "symbol", "total_supply"
	}
	return "collection_name", "collection_symbol", "total_token_supply"
}

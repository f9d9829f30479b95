package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	ErrEmptyDeployItem = errors.New("deploy item has no variant set")
	ErrHashMismatch    = errors.New("deploy hash mismatch")
)

const (
	DefaultTTL      = 30 * time.Minute
	DefaultGasPrice = 1
)

// ModuleBytes runs the given wasm in the sender's account context.
// Empty module bytes with an "amount" argument is the standard payment.
type ModuleBytes struct {
	ModuleBytes []byte
	Args        *Args
}

// StoredContractByHash calls an entry point of an installed contract
type StoredContractByHash struct {
	Hash       Hash
	EntryPoint string
	Args       *Args
}

// ExecutableDeployItem is the payment or session part of a deploy.
// Exactly one variant is set.
type ExecutableDeployItem struct {
	ModuleBytes          *ModuleBytes
	StoredContractByHash *StoredContractByHash
}

// StandardPayment pays amount motes from the sender's main purse
func StandardPayment(amount *big.Int) ExecutableDeployItem {
	return ExecutableDeployItem{ModuleBytes: &ModuleBytes{
		Args: NewArgs().Insert("amount", U512(amount)),
	}}
}

// Args returns the runtime arguments of whichever variant is set
func (e ExecutableDeployItem) Args() *Args {
	switch {
	case e.ModuleBytes != nil:
		return e.ModuleBytes.Args
	case e.StoredContractByHash != nil:
		return e.StoredContractByHash.Args
	}
	return nil
}

func (e ExecutableDeployItem) Bytes() ([]byte, error) {
	switch {
	case e.ModuleBytes != nil:
		buf := []byte{0}
		buf = appendBytes(buf, e.ModuleBytes.ModuleBytes)
		return append(buf, e.ModuleBytes.Args.Bytes()...), nil
	case e.StoredContractByHash != nil:
		buf := []byte{1}
		buf = append(buf, e.StoredContractByHash.Hash[:]...)
		buf = appendString(buf, e.StoredContractByHash.EntryPoint)
		return append(buf, e.StoredContractByHash.Args.Bytes()...), nil
	}
	return nil, ErrEmptyDeployItem
}

func (e ExecutableDeployItem) MarshalJSON() ([]byte, error) {
	switch {
	case e.ModuleBytes != nil:
		return json.Marshal(map[string]any{
			"ModuleBytes": map[string]any{
				"module_bytes": hex.EncodeToString(e.ModuleBytes.ModuleBytes),
				"args":         e.ModuleBytes.Args,
			},
		})
	case e.StoredContractByHash != nil:
		return json.Marshal(map[string]any{
			"StoredContractByHash": map[string]any{
				"hash":        e.StoredContractByHash.Hash,
				"entry_point": e.StoredContractByHash.EntryPoint,
				"args":        e.StoredContractByHash.Args,
			},
		})
	}
	return nil, ErrEmptyDeployItem
}

// DeployHeader carries the metadata covered by the deploy hash
type DeployHeader struct {
	Account      PublicKey
	Timestamp    time.Time
	TTL          time.Duration
	GasPrice     uint64
	BodyHash     Hash
	Dependencies []Hash
	ChainName    string
}

func (h DeployHeader) Bytes() []byte {
	buf := append([]byte(nil), h.Account.Bytes()...)
	buf = appendU64(buf, uint64(h.Timestamp.UnixMilli()))
	buf = appendU64(buf, uint64(h.TTL.Milliseconds()))
	buf = appendU64(buf, h.GasPrice)
	buf = append(buf, h.BodyHash[:]...)
	buf = appendU32(buf, uint32(len(h.Dependencies)))
	for _, d := range h.Dependencies {
		buf = append(buf, d[:]...)
	}
	return appendString(buf, h.ChainName)
}

func (h DeployHeader) MarshalJSON() ([]byte, error) {
	deps := h.Dependencies
	if deps == nil {
		deps = []Hash{}
	}
	return json.Marshal(map[string]any{
		"account":      h.Account,
		"timestamp":    h.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		"ttl":          formatTTL(h.TTL),
		"gas_price":    h.GasPrice,
		"body_hash":    h.BodyHash,
		"dependencies": deps,
		"chain_name":   h.ChainName,
	})
}

func formatTTL(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// Approval is a signature over the deploy hash
type Approval struct {
	Signer    PublicKey `json:"signer"`
	Signature Signature `json:"signature"`
}

// Signature is an algorithm-tagged signature
type Signature []byte

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s))
}

// Deploy is a transaction ready to be sent to a node
type Deploy struct {
	Hash      Hash                 `json:"hash"`
	Header    DeployHeader         `json:"header"`
	Payment   ExecutableDeployItem `json:"payment"`
	Session   ExecutableDeployItem `json:"session"`
	Approvals []Approval           `json:"approvals"`
}

// DeployParams holds the header fields chosen by the caller
type DeployParams struct {
	Account      PublicKey
	ChainName    string
	GasPrice     uint64
	TTL          time.Duration
	Timestamp    time.Time
	Dependencies []Hash
}

// NewDeployParams fills defaults: gas price 1, ttl 30m, timestamp now
func NewDeployParams(account PublicKey, chainName string) DeployParams {
	return DeployParams{
		Account:   account,
		ChainName: chainName,
		GasPrice:  DefaultGasPrice,
		TTL:       DefaultTTL,
		Timestamp: time.Now(),
	}
}

// MakeDeploy computes body and deploy hashes for an unsigned deploy
func MakeDeploy(params DeployParams, payment, session ExecutableDeployItem) (*Deploy, error) {
	if params.GasPrice == 0 {
		params.GasPrice = DefaultGasPrice
	}
	if params.TTL == 0 {
		params.TTL = DefaultTTL
	}
	if params.Timestamp.IsZero() {
		params.Timestamp = time.Now()
	}
	bodyHash, err := bodyHash(payment, session)
	if err != nil {
		return nil, err
	}
	header := DeployHeader{
		Account:      params.Account,
		Timestamp:    params.Timestamp.Truncate(time.Millisecond),
		TTL:          params.TTL,
		GasPrice:     params.GasPrice,
		BodyHash:     bodyHash,
		Dependencies: params.Dependencies,
		ChainName:    params.ChainName,
	}
	return &Deploy{
		Hash:      Blake2b256(header.Bytes()),
		Header:    header,
		Payment:   payment,
		Session:   session,
		Approvals: []Approval{},
	}, nil
}

func bodyHash(payment, session ExecutableDeployItem) (Hash, error) {
	p, err := payment.Bytes()
	if err != nil {
		return Hash{}, fmt.Errorf("payment: %w", err)
	}
	s, err := session.Bytes()
	if err != nil {
		return Hash{}, fmt.Errorf("session: %w", err)
	}
	return Blake2b256(append(p, s...)), nil
}

// Sign appends one approval per signer
func (d *Deploy) Sign(signers ...Signer) error {
	for _, s := range signers {
		sig, err := s.Sign(d.Hash[:])
		if err != nil {
			return fmt.Errorf("failed to sign deploy %s: %w", d.Hash, err)
		}
		pk := s.PublicKey()
		d.Approvals = append(d.Approvals, Approval{
			Signer:    pk,
			Signature: append([]byte{byte(pk.Algorithm)}, sig...),
		})
	}
	return nil
}

// Validate recomputes body and deploy hashes
func (d *Deploy) Validate() error {
	body, err := bodyHash(d.Payment, d.Session)
	if err != nil {
		return err
	}
	if body != d.Header.BodyHash {
		return fmt.Errorf("%w: body hash", ErrHashMismatch)
	}
	if Blake2b256(d.Header.Bytes()) != d.Hash {
		return fmt.Errorf("%w: header hash", ErrHashMismatch)
	}
	return nil
}

// PaymentAmount returns the standard payment amount, or nil for custom payment code
func (d *Deploy) PaymentAmount() *big.Int {
	v, ok := d.Payment.Args().Get("amount")
	if !ok {
		return nil
	}
	amount, ok := new(big.Int).SetString(fmt.Sprint(v.Parsed()), 10)
	if !ok {
		return nil
	}
	return amount
}

// EntryPoint returns the called entry point name, or "" for session code
func (d *Deploy) EntryPoint() string {
	if d.Session.StoredContractByHash != nil {
		return d.Session.StoredContractByHash.EntryPoint
	}
	return ""
}

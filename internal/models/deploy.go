package models

import "time"

// DeployStatus is the lifecycle state of a deploy sent by this service
type DeployStatus string

const (
	DeployRejected  DeployStatus = "rejected" // failed speculative execution, never broadcast
	DeployPending   DeployStatus = "pending"
	DeploySucceeded DeployStatus = "success"
	DeployFailed    DeployStatus = "failure"
	DeployTimedOut  DeployStatus = "timeout"
)

// Terminal reports whether no further status change is expected
func (s DeployStatus) Terminal() bool {
	switch s {
	case DeployRejected, DeploySucceeded, DeployFailed:
		return true
	}
	return false
}

// DeployRecord tracks a deploy from simulation to finality
type DeployRecord struct {
	// Identification
	DeployHash   string `json:"deploy_hash"`
	ChainName    string `json:"chain_name"`
	ContractHash string `json:"contract_hash,omitempty"` // Empty for session code
	EntryPoint   string `json:"entry_point"`             // "session" for session code

	// Sender and cost
	Sender       string `json:"sender"` // Public key hex
	PaymentMotes string `json:"payment_motes"`
	Cost         string `json:"cost,omitempty"` // Gas cost reported by the node

	// Outcome
	Status       DeployStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	BlockHash    string       `json:"block_hash,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeployOutcome is a status change observed after broadcast
type DeployOutcome struct {
	DeployHash   string
	Status       DeployStatus
	ErrorMessage string
	BlockHash    string
	Cost         string
}

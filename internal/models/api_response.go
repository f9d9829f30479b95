package models

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ChainStateResponse is the latest block summary
type ChainStateResponse struct {
	StateRootHash string    `json:"state_root_hash"`
	BlockHash     string    `json:"block_hash"`
	EraID         uint64    `json:"era_id"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// DeployListResponse is a page of deploy records
type DeployListResponse struct {
	Deploys []*DeployRecord `json:"deploys"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// PutDeployResponse is returned after a deploy was accepted by the node
type PutDeployResponse struct {
	DeployHash string `json:"deploy_hash"`
}

// DeployView is a deploy record with the payment also in CSPR
type DeployView struct {
	*DeployRecord
	PaymentCSPR string `json:"payment_cspr,omitempty"`
	CostCSPR    string `json:"cost_cspr,omitempty"`
}

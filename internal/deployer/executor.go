package deployer

import (
	"context"
	"math/big"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
	"casperdash/internal/metrics"
)

// BuildFunc builds a deploy for the given caller options, usually a method
// value of a contract wrapper bound to its arguments.
type BuildFunc func(opts contract.CallOptions) (*types.Deploy, error)

// Executor builds deploys for one caller and sends them through SafeSend.
// It is immutable; WithCaller and WithPayment return modified copies.
type Executor struct {
	deployer *Deployer
	caller   types.Signer
	payment  *big.Int
	chain    string
}

// NewExecutor creates an executor that signs with caller and pays payment motes
func NewExecutor(d *Deployer, caller types.Signer, payment *big.Int, chainName string) *Executor {
	return &Executor{deployer: d, caller: caller, payment: payment, chain: chainName}
}

// WithCaller returns a copy that signs and pays with another key
func (e *Executor) WithCaller(caller types.Signer) *Executor {
	c := *e
	c.caller = caller
	return &c
}

// WithPayment returns a copy with another default payment
func (e *Executor) WithPayment(payment *big.Int) *Executor {
	c := *e
	c.payment = payment
	return &c
}

func (e *Executor) Caller() types.Signer {
	return e.caller
}

// Options returns the call options for the current caller
func (e *Executor) Options() contract.CallOptions {
	return contract.CallOptions{
		Payment:   e.payment,
		Sender:    e.caller.PublicKey(),
		ChainName: e.chain,
		Signers:   []types.Signer{e.caller},
	}
}

// Run builds the deploy and sends it with SafeSend. Build errors are returned
// before any network call.
func (e *Executor) Run(ctx context.Context, build BuildFunc) (*Receipt, error) {
	deploy, err := build(e.Options())
	if err != nil {
		return nil, err
	}
	metrics.DeploysBuilt.WithLabelValues(callName(deploy)).Inc()
	return e.deployer.SafeSend(ctx, deploy)
}

package deployer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
	"casperdash/internal/contract/contracttest"

	"github.com/stretchr/testify/require"
)

func TestExecutor_BuildErrorStopsBeforeNetwork(t *testing.T) {
	h := newHarness(t)
	exec := NewExecutor(h.deployer(t), contracttest.Signer(t, 1), big.NewInt(15_000_000_000), "casper-test")

	buildErr := errors.New("Conflicting arguments provided")
	_, err := exec.Run(context.Background(), func(contract.CallOptions) (*types.Deploy, error) {
		return nil, buildErr
	})
	require.ErrorIs(t, err, buildErr)
	require.Equal(t, 0, h.spec.Calls("speculative_exec"))
	require.Equal(t, 0, h.node.Calls("account_put_deploy"))
}

func TestExecutor_WithCallerIsACopy(t *testing.T) {
	h := newHarness(t)
	owner := contracttest.Signer(t, 1)
	buyer := contracttest.Signer(t, 2)
	exec := NewExecutor(h.deployer(t), owner, big.NewInt(15_000_000_000), "casper-test")

	asBuyer := exec.WithCaller(buyer)
	require.Equal(t, owner.PublicKey(), exec.Options().Sender)
	require.Equal(t, buyer.PublicKey(), asBuyer.Options().Sender)

	cheaper := exec.WithPayment(big.NewInt(1))
	require.Equal(t, big.NewInt(15_000_000_000), exec.Options().Payment)
	require.Equal(t, big.NewInt(1), cheaper.Options().Payment)
}

func TestExecutor_RunSendsSignedDeploy(t *testing.T) {
	h := newHarness(t)
	handler, _ := sequence(successResult)
	h.node.Handle("info_get_deploy", handler)

	signer := contracttest.Signer(t, 3)
	exec := NewExecutor(h.deployer(t), signer, big.NewInt(15_000_000_000), "casper-test")
	c, err := contract.New("casper-net", contracttest.ContractHash, "")
	require.NoError(t, err)

	var built *types.Deploy
	receipt, err := exec.Run(context.Background(), func(opts contract.CallOptions) (*types.Deploy, error) {
		d, err := c.EntryPoint("revoke", nil, opts)
		built = d
		return d, err
	})
	require.NoError(t, err)
	require.Equal(t, built.Hash.Hex(), receipt.DeployHash)
	require.Equal(t, "casper-test", built.Header.ChainName)
	require.Len(t, built.Approvals, 1)
	require.Equal(t, signer.PublicKey(), built.Approvals[0].Signer)
}

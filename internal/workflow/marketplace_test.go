package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"casperdash/internal/casper/rpc"
	"casperdash/internal/casper/rpc/rpctest"
	"casperdash/internal/contract/cep78"
	"casperdash/internal/contract/contracttest"
	"casperdash/internal/contract/marketplace"
	"casperdash/internal/deployer"

	"github.com/stretchr/testify/require"
)

const marketHash = "hash-0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c"

type sentDeploy struct {
	Account    string
	EntryPoint string
	Session    bool
}

type chainStub struct {
	mu   sync.Mutex
	sent []sentDeploy
}

func (c *chainStub) deploys() []sentDeploy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentDeploy(nil), c.sent...)
}

func newChain(t *testing.T, failSimulationOn string) (*deployer.Deployer, *chainStub) {
	t.Helper()
	stub := &chainStub{}
	node := rpctest.NewServer(t)
	spec := rpctest.NewServer(t)

	node.Handle("account_put_deploy", func(params json.RawMessage) (any, error) {
		var p struct {
			Deploy struct {
				Hash   string `json:"hash"`
				Header struct {
					Account string `json:"account"`
				} `json:"header"`
				Session struct {
					Stored *struct {
						EntryPoint string `json:"entry_point"`
					} `json:"StoredContractByHash"`
				} `json:"session"`
			} `json:"deploy"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		sent := sentDeploy{Account: p.Deploy.Header.Account, Session: p.Deploy.Session.Stored == nil}
		if p.Deploy.Session.Stored != nil {
			sent.EntryPoint = p.Deploy.Session.Stored.EntryPoint
		}
		stub.mu.Lock()
		stub.sent = append(stub.sent, sent)
		stub.mu.Unlock()
		return map[string]any{"deploy_hash": p.Deploy.Hash}, nil
	})
	node.Handle("info_get_deploy", func(json.RawMessage) (any, error) {
		return map[string]any{"execution_results": []any{
			map[string]any{"block_hash": "bb", "result": map[string]any{"Success": map[string]any{"cost": "1"}}},
		}}, nil
	})
	spec.Handle("speculative_exec", func(params json.RawMessage) (any, error) {
		var p struct {
			Deploy struct {
				Session struct {
					Stored *struct {
						EntryPoint string `json:"entry_point"`
					} `json:"StoredContractByHash"`
				} `json:"session"`
			} `json:"deploy"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if p.Deploy.Session.Stored != nil && p.Deploy.Session.Stored.EntryPoint == failSimulationOn {
			return map[string]any{"execution_result": map[string]any{
				"Failure": map[string]any{"cost": "1", "error_message": "User error: 3"},
			}}, nil
		}
		return map[string]any{"execution_result": map[string]any{"Success": map[string]any{"cost": "1"}}}, nil
	})

	nodeClient := rpc.NewClient(node.URL, nil)
	specClient := rpc.NewClient(spec.URL, nil)
	t.Cleanup(func() {
		nodeClient.Close()
		specClient.Close()
	})
	return deployer.New(nodeClient, specClient, deployer.WithPollInterval(time.Millisecond)), stub
}

func newListing(t *testing.T) Listing {
	t.Helper()
	market, err := marketplace.New("casper-test", marketHash, contracttest.PackageHash)
	require.NoError(t, err)
	collection, err := cep78.New("casper-test", contracttest.ContractHash, "")
	require.NoError(t, err)
	return Listing{
		Marketplace: market,
		Collection:  collection,
		TokenID:     56,
		Price:       big.NewInt(12_000_000_000),
		BuyWasm:     contracttest.Wasm,
	}
}

func TestMarketplaceWithCEP78(t *testing.T) {
	d, stub := newChain(t, "")
	seller := contracttest.Signer(t, 1)
	buyer := contracttest.Signer(t, 2)
	exec := deployer.NewExecutor(d, seller, big.NewInt(5_000_000_000), "casper-test")

	steps, err := MarketplaceWithCEP78(context.Background(), exec, buyer, newListing(t))
	require.NoError(t, err)
	require.Len(t, steps, 4)
	require.Equal(t, "buy_item", steps[3].Name)
	require.NotNil(t, steps[3].Receipt.Result)

	require.Equal(t, []sentDeploy{
		{Account: seller.PublicKey().Hex(), EntryPoint: "approve"},
		{Account: seller.PublicKey().Hex(), EntryPoint: "list_item"},
		{Account: seller.PublicKey().Hex(), EntryPoint: "approve"},
		{Account: buyer.PublicKey().Hex(), Session: true},
	}, stub.deploys())
	require.Equal(t, seller, exec.Caller())
}

func TestMarketplaceWithCEP78_StopsAtFailedStep(t *testing.T) {
	d, stub := newChain(t, "list_item")
	exec := deployer.NewExecutor(d, contracttest.Signer(t, 1), big.NewInt(5_000_000_000), "casper-test")

	steps, err := MarketplaceWithCEP78(context.Background(), exec, contracttest.Signer(t, 2), newListing(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "step list_item")

	var simErr *deployer.SimulationError
	require.True(t, errors.As(err, &simErr))
	require.Len(t, steps, 1)
	require.Len(t, stub.deploys(), 1)
}

func TestMarketplaceWithCEP78_RequiresBuyer(t *testing.T) {
	d, _ := newChain(t, "")
	exec := deployer.NewExecutor(d, contracttest.Signer(t, 1), big.NewInt(1), "casper-test")

	_, err := MarketplaceWithCEP78(context.Background(), exec, nil, newListing(t))
	require.ErrorIs(t, err, ErrNoBuyer)
}

func TestMarketplaceWithCEP78_InvalidListingSendsNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, l *Listing)
	}{
		{"no marketplace package", func(t *testing.T, l *Listing) {
			market, err := marketplace.New("casper-test", marketHash, "")
			require.NoError(t, err)
			l.Marketplace = market
		}},
		{"no marketplace contract", func(t *testing.T, l *Listing) {
			market, err := marketplace.New("casper-test", "", contracttest.PackageHash)
			require.NoError(t, err)
			l.Marketplace = market
		}},
		{"no collection", func(t *testing.T, l *Listing) { l.Collection = nil }},
		{"zero price", func(t *testing.T, l *Listing) { l.Price = big.NewInt(0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, stub := newChain(t, "")
			exec := deployer.NewExecutor(d, contracttest.Signer(t, 1), big.NewInt(5_000_000_000), "casper-test")
			l := newListing(t)
			tt.mutate(t, &l)

			steps, err := MarketplaceWithCEP78(context.Background(), exec, contracttest.Signer(t, 2), l)
			require.ErrorIs(t, err, ErrInvalidListing)
			require.Empty(t, steps)
			require.Empty(t, stub.deploys())
		})
	}
}

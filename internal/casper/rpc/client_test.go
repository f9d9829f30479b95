package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"casperdash/internal/casper/rpc"
	"casperdash/internal/casper/rpc/rpctest"

	"github.com/stretchr/testify/require"
)

func TestClient_GetLatestBlock(t *testing.T) {
	srv := rpctest.NewServer(t)
	srv.Handle("chain_get_block", func(json.RawMessage) (any, error) {
		return map[string]any{
			"api_version": "1.5.6",
			"block": map[string]any{
				"hash": "b1",
				"header": map[string]any{
					"state_root_hash": "srh",
					"era_id":          12,
					"height":          100,
				},
			},
		}, nil
	})

	c := rpc.NewClient(srv.URL, nil)
	defer c.Close()

	res, err := c.GetLatestBlock(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b1", res.Block.Hash)
	require.Equal(t, "srh", res.Block.Header.StateRootHash)
	require.Equal(t, uint64(12), res.Block.Header.EraID)
}

func TestClient_GetDictionaryItemSendsIdentifier(t *testing.T) {
	srv := rpctest.NewServer(t)
	srv.Handle("state_get_dictionary_item", func(params json.RawMessage) (any, error) {
		var p struct {
			StateRootHash string                   `json:"state_root_hash"`
			Identifier    rpc.DictionaryIdentifier `json:"dictionary_identifier"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if p.StateRootHash != "srh" || p.Identifier.ContractNamedKey == nil {
			return nil, errors.New("bad params")
		}
		return map[string]any{
			"stored_value": map[string]any{
				"CLValue": map[string]any{
					"cl_type": "String",
					"bytes":   "",
					"parsed":  p.Identifier.ContractNamedKey.DictionaryName + "/" + p.Identifier.ContractNamedKey.DictionaryItemKey,
				},
			},
		}, nil
	})

	c := rpc.NewClient(srv.URL, nil)
	defer c.Close()

	res, err := c.GetDictionaryItem(context.Background(), "srh", rpc.DictionaryIdentifier{
		ContractNamedKey: &rpc.ContractNamedKey{Key: "hash-abc", DictionaryName: "metadata", DictionaryItemKey: "7"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.StoredValue.CLValue)
	require.JSONEq(t, `"metadata/7"`, string(res.StoredValue.CLValue.Parsed))
}

func TestClient_ErrorIsWrapped(t *testing.T) {
	srv := rpctest.NewServer(t)
	srv.Handle("info_get_deploy", func(json.RawMessage) (any, error) {
		return nil, errors.New("No such deploy")
	})

	c := rpc.NewClient(srv.URL, nil)
	defer c.Close()

	_, err := c.GetDeploy(context.Background(), "deadbeef")
	require.Error(t, err)
	require.Contains(t, err.Error(), "info_get_deploy")
	require.Contains(t, err.Error(), "No such deploy")
}

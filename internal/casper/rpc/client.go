package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"casperdash/internal/metrics"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
)

// Client is a JSON-RPC client for a Casper node. The same type talks to the
// primary node and to the speculative-execution node; only the URL differs.
type Client struct {
	url string
	rpc *jrpc2.Client
}

// NewClient creates a client for the node RPC endpoint (usually ".../rpc")
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ch := jhttp.NewChannel(url, &jhttp.ChannelOptions{Client: httpClient})
	return &Client{
		url: url,
		rpc: jrpc2.NewClient(ch, nil),
	}
}

// URL returns the endpoint this client talks to
func (c *Client) URL() string {
	return c.url
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	slog.Debug("RPC call", "url", c.url, "method", method)
	start := time.Now()
	defer func() {
		metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()
	if err := c.rpc.CallResult(ctx, method, params, result); err != nil {
		return fmt.Errorf("rpc %s failed: %w", method, err)
	}
	return nil
}

// GetLatestBlock returns the latest block known to the node
func (c *Client) GetLatestBlock(ctx context.Context) (*BlockResult, error) {
	var res BlockResult
	if err := c.call(ctx, "chain_get_block", nil, &res); err != nil {
		return nil, err
	}
	if res.Block == nil {
		return nil, fmt.Errorf("rpc chain_get_block: node returned no block")
	}
	return &res, nil
}

// PutDeploy sends a deploy (a *types.Deploy or its raw JSON) and returns its hash
func (c *Client) PutDeploy(ctx context.Context, deploy any) (string, error) {
	var res PutDeployResult
	if err := c.call(ctx, "account_put_deploy", map[string]any{"deploy": deploy}, &res); err != nil {
		return "", err
	}
	return res.DeployHash, nil
}

// GetDeploy returns the deploy and its execution results
func (c *Client) GetDeploy(ctx context.Context, deployHash string) (*DeployResult, error) {
	var res DeployResult
	if err := c.call(ctx, "info_get_deploy", map[string]any{"deploy_hash": deployHash}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SpeculativeExec dry-runs a deploy against the current state without committing it
func (c *Client) SpeculativeExec(ctx context.Context, deploy any) (*SpeculativeExecResult, error) {
	var res SpeculativeExecResult
	if err := c.call(ctx, "speculative_exec", map[string]any{"deploy": deploy}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetDictionaryItem looks up a single dictionary entry
func (c *Client) GetDictionaryItem(ctx context.Context, stateRootHash string, id DictionaryIdentifier) (*StoredValueResult, error) {
	params := map[string]any{
		"state_root_hash":       stateRootHash,
		"dictionary_identifier": id,
	}
	var res StoredValueResult
	if err := c.call(ctx, "state_get_dictionary_item", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetStateItem reads a global state key, optionally following a named-key path
func (c *Client) GetStateItem(ctx context.Context, stateRootHash, key string, path []string) (*StoredValueResult, error) {
	if path == nil {
		path = []string{}
	}
	params := map[string]any{
		"state_root_hash": stateRootHash,
		"key":             key,
		"path":            path,
	}
	var res StoredValueResult
	if err := c.call(ctx, "state_get_item", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close releases the underlying channel
func (c *Client) Close() error {
	return c.rpc.Close()
}

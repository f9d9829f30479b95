package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"casperdash/internal/casper/rpc"
	"casperdash/internal/config"
	"casperdash/internal/deployer"
	"casperdash/internal/retry"
	"casperdash/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "casperdash",
		Short:        "Casper contract clients and NFT query service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 1. Load configuration
			_ = godotenv.Load()
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			cfg = loaded

			// 2. Configure logger
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			slog.SetDefault(logger)

			slog.Debug("Configuration loaded",
				"node", cfg.NodeURL,
				"speculative_node", cfg.SpeculativeNodeURL,
				"network", cfg.NetworkName,
				"log_level", cfg.LogLevel,
			)
			return nil
		},
	}

	root.AddCommand(newServeCmd(), newDeployCmd(), newWorkflowCmd(), newWasmCmd())
	return root
}

// nodeClients opens the primary and speculative-execution RPC clients
func nodeClients() (node, spec *rpc.Client, closeFn func()) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	node = rpc.NewClient(cfg.NodeURL, httpClient)
	spec = rpc.NewClient(cfg.SpeculativeNodeURL, httpClient)
	return node, spec, func() {
		_ = node.Close()
		_ = spec.Close()
	}
}

// newDeployer wires the poll strategy and, when DATABASE_URL is set, the
// deploy recorder. The returned close function releases the database.
func newDeployer(cmd *cobra.Command, node, spec *rpc.Client) (*deployer.Deployer, func(), error) {
	opts := []deployer.Option{deployer.WithStrategy(retry.NewStrategy(cfg.Poll))}
	closeFn := func() {}

	if cfg.DatabaseURL != "" {
		repo, err := storage.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		opts = append(opts, deployer.WithRecorder(repo))
		closeFn = func() { _ = repo.Close() }
	}
	return deployer.New(node, spec, opts...), closeFn, nil
}

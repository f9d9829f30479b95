package main

import (
	"errors"
	"fmt"
	"log/slog"

	"casperdash/internal/casper/types"
	"casperdash/internal/config"
	"casperdash/internal/contract/cep78"
	"casperdash/internal/contract/marketplace"
	"casperdash/internal/deployer"
	"casperdash/internal/wasm"
	"casperdash/internal/workflow"

	"github.com/spf13/cobra"
)

func newWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run multi-step contract scenarios",
	}
	cmd.AddCommand(newMarketplaceCmd())
	return cmd
}

func newMarketplaceCmd() *cobra.Command {
	var (
		marketHash, marketPackage string
		nftHash, nftPackage       string
		tokenID                   uint64
		price                     string
		buyWasm                   string
	)

	cmd := &cobra.Command{
		Use:   "marketplace",
		Short: "List a CEP-78 token on the marketplace and buy it with the buyer key",
		Long: `Runs approve, list_item, approve and buy_item in order, stopping at the
first step whose speculative execution or execution fails.

Example:
	$ casperdash workflow marketplace --marketplace hash-... --marketplace-package hash-... \
		--collection hash-... --collection-package hash-... --token-id 3 --price 10 --buy-wasm buy_item.wasm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.CallerKeyFile == "" {
				return errors.New("CALLER_KEY_FILE is required")
			}
			seller, err := types.LoadEd25519KeyFile(cfg.CallerKeyFile)
			if err != nil {
				return err
			}
			var buyer types.Signer
			if cfg.BuyerKeyFile != "" {
				kp, err := types.LoadEd25519KeyFile(cfg.BuyerKeyFile)
				if err != nil {
					return err
				}
				buyer = kp
			}

			amount, err := config.CSPRToMotes(price)
			if err != nil {
				return fmt.Errorf("--price: %w", err)
			}
			module, err := wasm.Load(buyWasm)
			if err != nil {
				return err
			}
			market, err := marketplace.New(cfg.NetworkName, marketHash, marketPackage)
			if err != nil {
				return fmt.Errorf("marketplace: %w", err)
			}
			collection, err := cep78.New(cfg.NetworkName, nftHash, nftPackage)
			if err != nil {
				return fmt.Errorf("collection: %w", err)
			}

			node, spec, closeClients := nodeClients()
			defer closeClients()
			d, closeDB, err := newDeployer(cmd, node, spec)
			if err != nil {
				return err
			}
			defer closeDB()

			exec := deployer.NewExecutor(d, seller, cfg.Payments.EntryPoint, cfg.NetworkName)
			steps, err := workflow.MarketplaceWithCEP78(cmd.Context(), exec, buyer, workflow.Listing{
				Marketplace: market,
				Collection:  collection,
				TokenID:     tokenID,
				Price:       amount,
				BuyWasm:     module,
			})
			for _, s := range steps {
				fmt.Fprintf(cmd.OutOrStdout(), "%-17s %s\n", s.Name, s.Receipt.DeployHash)
			}
			if err != nil {
				slog.Error("Workflow stopped", "completed_steps", len(steps), "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&marketHash, "marketplace", "", "Marketplace contract hash")
	cmd.Flags().StringVar(&marketPackage, "marketplace-package", "", "Marketplace contract package hash")
	cmd.Flags().StringVar(&nftHash, "collection", "", "CEP-78 contract hash")
	cmd.Flags().StringVar(&nftPackage, "collection-package", "", "CEP-78 contract package hash")
	cmd.Flags().Uint64Var(&tokenID, "token-id", 0, "Token to list and buy")
	cmd.Flags().StringVar(&price, "price", "", "Listing price in CSPR")
	cmd.Flags().StringVar(&buyWasm, "buy-wasm", "", "buy_item session wasm (.wasm or .wasm.zst)")
	for _, name := range []string{"marketplace", "marketplace-package", "collection", "price", "buy-wasm"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

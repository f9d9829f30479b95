package main

import (
	"encoding/json"
	"fmt"
	"os"

	"casperdash/internal/casper/chain"

	"github.com/spf13/cobra"
)

func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Submit deploys and follow their execution",
	}
	cmd.AddCommand(newDeployStatusCmd(), newDeployWaitCmd(), newDeployPutCmd())
	return cmd
}

func newDeployStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <deploy-hash>...",
		Short: "Print the coarse status of one or more deploys",
		Args:  cobra.RangeArgs(1, 100),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, closeClients := nodeClients()
			defer closeClients()

			statuses := chain.NewService(node).DeploysStatus(cmd.Context(), args)
			return printJSON(cmd, statuses)
		},
	}
}

func newDeployWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait <deploy-hash>",
		Short: "Poll a deploy until it has an execution result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, spec, closeClients := nodeClients()
			defer closeClients()
			d, closeDB, err := newDeployer(cmd, node, spec)
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := d.Wait(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newDeployPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <deploy.json>",
		Short: "Send a deploy signed elsewhere, in node JSON form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read deploy: %w", err)
			}
			if !json.Valid(body) {
				return fmt.Errorf("%s is not valid JSON", args[0])
			}

			node, _, closeClients := nodeClients()
			defer closeClients()

			hash, err := chain.NewService(node).PutDeploy(cmd.Context(), body)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"deploy_hash": hash})
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

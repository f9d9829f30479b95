package main

import (
	"fmt"
	"log/slog"

	"casperdash/internal/wasm"

	"github.com/spf13/cobra"
)

func newWasmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wasm",
		Short: "Prepare session code files",
	}
	cmd.AddCommand(newWasmPackCmd())
	return cmd
}

func newWasmPackCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pack <module.wasm>",
		Short: "Check a wasm module and write it as .wasm.zst",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst, err := wasm.Pack(args[0], out)
			if err != nil {
				return err
			}
			slog.Info("Session code packed", "src", args[0], "dst", dst)
			fmt.Fprintln(cmd.OutOrStdout(), dst)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default <module.wasm>.zst)")
	return cmd
}

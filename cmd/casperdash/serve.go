package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"casperdash/internal/api"
	"casperdash/internal/casper/chain"
	"casperdash/internal/nft"
	"casperdash/internal/storage"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	slog.Info("Starting casperdash API",
		"node", cfg.NodeURL,
		"network", cfg.NetworkName,
		"port", cfg.APIPort,
	)

	node, _, closeClients := nodeClients()
	defer closeClients()
	chainService := chain.NewService(node)

	deps := api.Deps{Chain: chainService}

	// 1. Database is optional; without it the deploy history endpoints answer 503
	if cfg.DatabaseURL != "" {
		repository, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer repository.Close()
		deps.Repository = repository
		slog.Info("Database connected successfully")
	}

	// 2. NFT collections
	if cfg.CollectionsFile != "" {
		collections, err := nft.LoadCollections(cfg.CollectionsFile)
		if err != nil {
			return err
		}
		fetcher, err := nft.NewHTTPFetcher(&http.Client{Timeout: 15 * time.Second}, cfg.MetadataFetchRPS, cfg.MetadataCacheSize)
		if err != nil {
			return err
		}
		registry, err := nft.NewRegistry(chainService, collections, nft.WithFetcher(fetcher))
		if err != nil {
			return err
		}
		deps.Collections = registry
	}

	// 3. HTTP server
	port, _ := strconv.Atoi(cfg.APIPort)
	server := api.NewServer(port, deps)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// 4. Wait for interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		slog.Warn("Interrupt received, shutting down...")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping API server", "error", err)
	}

	slog.Info("casperdash stopped")
	return nil
}

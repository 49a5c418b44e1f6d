// vaultledgerd serves the vault ledger over HTTP, restoring state from a
// local snapshot on boot and persisting it again on graceful shutdown.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lucrumlabs/vault-ledger/ledger"
	"github.com/lucrumlabs/vault-ledger/log"
	vaulthttp "github.com/lucrumlabs/vault-ledger/net/http"
	"github.com/lucrumlabs/vault-ledger/server"
	"github.com/lucrumlabs/vault-ledger/store"
	zaplog "github.com/lucrumlabs/vault-ledger/zap"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vaultledgerd",
	Short: "vaultledgerd - multi-tenant vault ledger service",
	Long: `vaultledgerd exposes a multi-tenant balance ledger over HTTP.

Callers identified by the X-Caller-Id header open vaults, deposit into and
withdraw from vaults they own, and query vault state. Ledger state is
snapshotted to a local database on graceful shutdown and restored on boot.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, _, err := zaplog.New(zaplog.Config{
		Environment:     zaplog.Environment(cfg.Environment),
		Level:           cfg.LogLevel,
		OTelLibraryName: "vault-ledger",
	})
	if err != nil {
		return err
	}

	snapshots, err := store.Open(cfg.SnapshotPath)
	if err != nil {
		return err
	}

	vaults, err := snapshots.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	l, err := ledger.Restore(buildTransferer(cfg, logger), vaults,
		ledger.WithNotificationSink(auditSink(logger)),
	)
	if err != nil {
		return err
	}

	logger.Log(ctx, log.LevelInfo, "ledger restored",
		log.Uint64("vault_count", l.VaultCount()),
		log.String("snapshot_path", cfg.SnapshotPath),
	)

	handler := vaulthttp.NewVaultHandler(l, logger)
	app := vaulthttp.NewApp(handler, logger)

	// The snapshot hook runs after the HTTP server has stopped accepting
	// requests, so the ledger is quiescent when captured.
	return server.NewServerManager(logger).
		WithHTTPServer(app, cfg.Address).
		WithShutdownHook(func(context.Context) error {
			return snapshots.Save(l.Snapshot())
		}).
		WithShutdownHook(func(context.Context) error {
			return snapshots.Close()
		}).
		StartWithGracefulShutdown()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

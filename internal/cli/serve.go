package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgertrace/custodia/internal/api"
	"github.com/ledgertrace/custodia/internal/config"
	"github.com/ledgertrace/custodia/internal/custody"
	"github.com/ledgertrace/custodia/internal/identity"
	"github.com/ledgertrace/custodia/internal/ledger"
	"github.com/ledgertrace/custodia/internal/mirror"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the custody tracking HTTP server",
		Long: "Loads the configuration, opens the mirror database, connects the\n" +
			"ledger clients and serves the HTTP API until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	store, err := mirror.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open mirror database", err)
	}
	defer store.Close()

	timeout := time.Duration(cfg.Ledger.Timeout)
	custodyLedger := ledger.NewHTTP(cfg.Ledger.URL, cfg.Ledger.CustodyContract, timeout)
	wasteLedger := ledger.NewHTTP(cfg.Ledger.URL, cfg.Ledger.WasteContract, timeout)

	materials, err := custody.New(custody.Config{
		Ledger:   custodyLedger,
		Store:    store,
		Operator: cfg.Ledger.Operator,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "build custody engine", err)
	}

	waste, err := custody.NewWasteEngine(custody.Config{
		Ledger:   wasteLedger,
		Store:    store,
		Operator: cfg.Ledger.Operator,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "build waste engine", err)
	}

	companies := identity.New(store, nil)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.New(materials, waste, companies),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Listen, "database", cfg.Database, "ledger", cfg.Ledger.URL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitFailure, "shutdown", err)
		}
	}
	return nil
}

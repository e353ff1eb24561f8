package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sureshield/coinledger/internal/api"
	"github.com/sureshield/coinledger/internal/app/economy"
	"github.com/sureshield/coinledger/internal/auth"
	"github.com/sureshield/coinledger/internal/daemon"
	"github.com/sureshield/coinledger/internal/infra/ratelimit"
	"github.com/sureshield/coinledger/internal/infra/sqlite"
	"github.com/sureshield/coinledger/internal/logger"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coin ledger HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or COINLEDGER_JWT_SECRET) must be set")
	}

	log := logger.New(cfg.Log.Level)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	limiter := ratelimit.New(ratelimit.NewMemoryStore())

	wallets := economy.NewWalletService(db, log, cfg.Economy.MaxSpendPerTx)
	earn := economy.NewEarnService(wallets, db, db, limiter, log)
	redemption := economy.NewRedemptionService(db, log, cfg.Economy.MaxRedeemQuantity, cfg.Economy.MaxSpendPerTx)
	admin := economy.NewAdminService(wallets, log)

	econAPI := &api.EconomyAPI{
		Wallet:      wallets,
		Earn:        earn,
		Redemption:  redemption,
		Admin:       admin,
		Log:         log,
		RecentLimit: cfg.Economy.RecentEntries,
	}

	server := api.NewServer(econAPI, auth.NewManager(cfg.Auth.JWTSecret), log)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}
	if cfg.API.ThrottlePerMinute > 0 {
		server.SetThrottle(limiter, cfg.API.ThrottlePerMinute, time.Minute)
	}

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("coin ledger listening")
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

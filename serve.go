package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bonus-distribution/backend/internal/auth"
	"github.com/bonus-distribution/backend/internal/config"
	"github.com/bonus-distribution/backend/internal/controllers/healthz"
	v1 "github.com/bonus-distribution/backend/internal/controllers/v1"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/models"
	"github.com/bonus-distribution/backend/internal/notify"
	"github.com/bonus-distribution/backend/internal/router"
	"github.com/bonus-distribution/backend/internal/templates"
	"github.com/bonus-distribution/backend/internal/verifier"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := notify.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	defer metrics.Unregister(prometheus.DefaultRegisterer)

	db, store, l, err := openLedger(ctx, cfg, notify.Multi{notify.Logger{Logger: log.Logger}, metrics})
	if err != nil {
		return err
	}
	defer closeDB(db)

	catalog, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return err
	}

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	apiURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("could not parse API_URL: %w", err)
	}

	r, teardown, err := router.Config(apiURL, router.Options{CORSAllowOrigins: cfg.CORSOrigins()})
	if err != nil {
		return err
	}
	defer teardown()

	router.AttachRoutes(r.Group("/"), router.Routes{
		Controller: v1.Controller{
			Ledger:    l,
			Events:    store,
			Verifier:  newVerifier(cfg),
			Templates: catalog,
		},
		Health:      healthz.Controller{DB: db},
		Resolver:    resolver,
		EnablePprof: cfg.EnablePprof,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("version", router.Version()).Msg("Listening")
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("Shutdown signal received, waiting for requests to finish")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut down HTTP server: %w", err)
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}

// openLedger connects to the database and restores the ledger from it.
func openLedger(ctx context.Context, cfg config.Config, emitter ledger.Emitter) (*gorm.DB, *models.Store, *ledger.Ledger, error) {
	db, err := models.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	store := models.NewStore(db)
	state, err := store.Load(ctx)
	if err != nil {
		closeDB(db)
		return nil, nil, nil, err
	}

	l, err := ledger.New(ledger.Config{
		Admin:   cfg.Admin(),
		Store:   store,
		Emitter: emitter,
		State:   state,
	})
	if err != nil {
		closeDB(db)
		return nil, nil, nil, err
	}

	log.Debug().
		Int("managers", len(l.Managers())).
		Int64("distributions", l.CurrentDistributionID()).
		Msg("Ledger restored")

	return db, store, l, nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("Could not close database")
	}
}

func newVerifier(cfg config.Config) verifier.Verifier {
	if cfg.VerifierAttester != "" {
		return verifier.Attestation{
			Attester: common.HexToAddress(cfg.VerifierAttester),
			MaxBytes: cfg.MaxCiphertext,
		}
	}

	return verifier.AcceptAll{MaxBytes: cfg.MaxCiphertext}
}

func newResolver(cfg config.Config) (auth.Resolver, error) {
	if cfg.AuthMode == auth.ModeHeader {
		log.Warn().Msgf("Trusting the %s header for authentication, only use this behind a proxy that sets it", auth.HeaderPrincipal)
		return auth.Header{}, nil
	}

	return auth.NewJWT([]byte(cfg.JWTSecret), cfg.JWTIssuer, nil)
}

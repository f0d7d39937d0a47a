package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pollhub/internal/config"
	"pollhub/internal/domain/poll"
	"pollhub/internal/domain/user"
	"pollhub/internal/domain/vote"
	api "pollhub/internal/http"
	"pollhub/internal/metrics"
	"pollhub/internal/platform/database"
	"pollhub/internal/repository"
	"pollhub/internal/worker"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	api.SetLogger(logger)
	metrics.Register()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fb := &lazyFirebase{cfg: cfg}
	st, err := openStore(ctx, cfg, fb, logger)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("store close failed", "error", err)
		}
	}()

	verifier, tokens, err := newIdentity(ctx, cfg, fb)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	userSvc := user.NewService(repository.NewUserRepo(st.gw)).WithLogger(logger)
	pollSvc := poll.NewService(repository.NewPollRepo(st.gw)).WithLogger(logger)
	voteSvc := vote.NewService(repository.NewVoteRepo(st.gw), pollSvc).WithLogger(logger)

	voteCh := make(chan worker.VoteEvent, 100)
	statsWorker := worker.NewStatsWorker(voteCh, logger)

	router := api.NewRouter(api.Deps{
		Users:             userSvc,
		Polls:             pollSvc,
		Votes:             voteSvc,
		Verifier:          verifier,
		Tokens:            tokens,
		TokenTTL:          cfg.JWTTTL,
		VoteCh:            voteCh,
		Ready:             st.ready,
		VoteRatePerMinute: cfg.VoteRatePerMinute,
		VoteBurst:         cfg.VoteBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		statsWorker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "store", cfg.StoreDriver, "identity", cfg.IdentityProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg)

	if cfg.StoreDriver != config.DriverPostgres && cfg.StoreDriver != config.DriverSQLite {
		logger.Info("nothing to migrate", "store", cfg.StoreDriver)
		return nil
	}

	dialect := sqlDialect(cfg.StoreDriver)
	db, err := database.Open(cmd.Context(), dialect, cfg.DB_DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db, dialect); err != nil {
		return err
	}
	logger.Info("migrations applied", "dialect", dialect)
	return nil
}

package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/smart-parking/internal/config"
	"github.com/iliyamo/smart-parking/internal/database"
	"github.com/iliyamo/smart-parking/internal/handler"
	"github.com/iliyamo/smart-parking/internal/logging"
	"github.com/iliyamo/smart-parking/internal/middleware"
	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/parking"
	"github.com/iliyamo/smart-parking/internal/queue"
	"github.com/iliyamo/smart-parking/internal/repository"
	"github.com/iliyamo/smart-parking/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Init(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	lotMetrics, err := parking.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register parking metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	opts := parking.Options{
		Rates:     parking.Rates{HourlyRate: cfg.HourlyRate, DayPassRate: cfg.DayPassRate},
		Inventory: cfg.Inventory,
		Metrics:   lotMetrics,
	}

	var store *repository.Store
	if cfg.Persistence {
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store = repository.NewStore(db)
		opts.Journal = store
	}

	ac := config.LoadAMQPConfig()
	if ac.Enabled {
		pub := queue.NewPublisher(ac.URL, ac.Queue)
		defer pub.Close()
		opts.Publisher = pub
	}

	lot, err := parking.NewLot(opts)
	if err != nil {
		return fmt.Errorf("build lot: %w", err)
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := lot.Close(drainCtx); err != nil {
			logging.Error(drainCtx).Err(err).Msg("drain journal")
		}
	}()
	var loader snapshotLoader
	if store != nil {
		loader = store
	}
	if err := prepareLot(ctx, lot, loader, cfg.Inventory); err != nil {
		return err
	}

	rl := config.LoadRateLimitConfig()
	cc := config.LoadCacheConfig()
	var rdb *redis.Client
	if rl.Enabled || cc.Enabled {
		rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig())
		if err != nil {
			logging.Warn(ctx).Err(err).Msg("redis unavailable; rate limiting and caching disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	if cfg.OperatorPasswordHash == "" {
		logging.Warn(ctx).Msg("OPERATOR_PASSWORD_HASH not set; inventory and maintenance routes are open")
	}
	e := router.New(router.Deps{
		Parking:   handler.NewParkingHandler(lot),
		Auth:      handler.NewAuthHandler(cfg.OperatorUsername, cfg.OperatorPasswordHash, cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute),
		JWTSecret: cfg.JWTSecret,
		RateLimit: rl,
		Cache:     cc,
		Redis:     rdb,
		Metrics:   httpMetrics,
		Gatherer:  reg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Info(ctx).Str("addr", srv.Addr).Str("env", cfg.Env).Bool("persistence", cfg.Persistence).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info(context.Background()).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type snapshotLoader interface {
	Load(ctx context.Context) (parking.Snapshot, error)
}

// prepareLot restores persisted state when a loader is given and installs
// inv when the lot still has no inventory afterwards.
func prepareLot(ctx context.Context, lot *parking.Lot, loader snapshotLoader, inv model.Inventory) error {
	if loader != nil {
		snap, err := loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if err := lot.Restore(ctx, snap); err != nil {
			return fmt.Errorf("restore state: %w", err)
		}
	}
	if lot.Summary().Initialized {
		return nil
	}
	if _, err := lot.Initialize(ctx, inv); err != nil {
		return fmt.Errorf("initialize parking space: %w", err)
	}
	return nil
}

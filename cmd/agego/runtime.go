package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orneryd/agego/pkg/age"
	"github.com/orneryd/agego/pkg/cache"
	"github.com/orneryd/agego/pkg/config"
	"github.com/orneryd/agego/pkg/pool"
	"github.com/orneryd/agego/pkg/storage"
)

// runtime holds everything a database command needs.
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	client   *age.Client
	store    *storage.PlanStore
	server   *http.Server
	closers  []io.Closer
}

// loadConfig reads --config and the environment, then applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.Database.URL = dsn
	}
	if dir, _ := cmd.Flags().GetString("store-dir"); dir != "" {
		cfg.Cache.PersistDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	pool.Configure(pool.PoolConfig{Enabled: cfg.Pool.Enabled, MaxSize: cfg.Pool.MaxSize})
	return cfg, nil
}

// openRuntime connects to PostgreSQL and builds the client. With withPlanner
// the client looks plans up through the configured cache and plan store.
func openRuntime(cmd *cobra.Command, withPlanner bool) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("no database configured (set --dsn or AGEGO_DATABASE_URL)")
	}

	logger, logCloser, err := cfg.Logging.NewLogger()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: logger, closers: []io.Closer{logCloser}}
	log := logger.WithField("component", "CLI")
	log.WithField("config", cfg.String()).Debug("configuration loaded")

	envelope, err := cfg.Codec.ParseEnvelope()
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts := []age.Option{age.WithEnvelope(envelope), age.WithLogger(logger)}

	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		rt.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := age.NewMetrics(rt.registry)
		if err != nil {
			rt.Close()
			return nil, err
		}
		opts = append(opts, age.WithMetrics(metrics))
	}

	if withPlanner {
		planner, err := rt.newPlanner()
		if err != nil {
			rt.Close()
			return nil, err
		}
		planner.SetLogger(logrus.NewEntry(logger))
		opts = append(opts, age.WithPlanner(planner))
	}

	db, err := age.OpenDB(cmd.Context(), age.DBOptions{
		DSN:            cfg.Database.URL,
		LoadExtension:  cfg.Database.LoadExtension,
		SearchPath:     cfg.Database.SearchPath,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		MaxIdleConns:   cfg.Database.MaxIdleConns,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, db)

	log.WithFields(logrus.Fields{
		"database": config.RedactDSN(cfg.Database.URL),
		"envelope": envelope,
		"pooling":  pool.IsEnabled(),
	}).Debug("connected")

	rt.client = age.NewClient(age.NewSQLExecutor(db), opts...)
	return rt, nil
}

// newPlanner builds the cache and, when a directory is configured, the
// persistent plan store.
func (rt *runtime) newPlanner() (*age.Planner, error) {
	var pc *cache.PlanCache
	if rt.cfg.Cache.Enabled {
		cache.ConfigureGlobalCache(rt.cfg.Cache.Size, rt.cfg.Cache.TTL)
		pc = cache.GlobalPlanCache()
	}

	if rt.cfg.Cache.PersistDir != "" {
		store, err := storage.OpenPlanStore(rt.cfg.Cache.PersistDir)
		if err != nil {
			return nil, fmt.Errorf("opening plan store: %w", err)
		}
		rt.store = store
	}
	return age.NewPlanner(pc, rt.store), nil
}

// startMetricsServer exposes the registry over HTTP when metrics are enabled.
func (rt *runtime) startMetricsServer() error {
	if rt.registry == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	rt.server = &http.Server{
		Addr:              rt.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log := rt.log.WithField("component", "Metrics")
	go func() {
		if err := rt.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("address", rt.cfg.Metrics.Address).Info("serving metrics")
	return nil
}

// Close releases the runtime in reverse order of acquisition.
func (rt *runtime) Close() error {
	if rt.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = rt.server.Shutdown(ctx)
		cancel()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.log.WithError(err).Warn("closing plan store")
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
	return nil
}

// openPlanStore opens the plan store named by --store-dir or the config.
func openPlanStore(cmd *cobra.Command) (*storage.PlanStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.PersistDir == "" {
		return nil, errors.New("no plan store configured (set --store-dir or AGEGO_PLAN_STORE_DIR)")
	}
	return storage.OpenPlanStore(cfg.Cache.PersistDir)
}

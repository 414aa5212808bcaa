package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"CryptoRadar/internal/api"
	"CryptoRadar/internal/cache"
	"CryptoRadar/internal/collector"
	"CryptoRadar/internal/config"
	"CryptoRadar/internal/metrics"
	"CryptoRadar/internal/notifier"
	"CryptoRadar/internal/scanner"
	"CryptoRadar/internal/scheduler"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("radar stopped with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("CryptoRadar starting", zap.String("version", api.Version))
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	fetcher := collector.NewBinanceFetcher(collector.BinanceConfig{
		BaseURL:           cfg.Upstream.BaseURL,
		APIKey:            cfg.Upstream.APIKey,
		Proxy:             cfg.Proxy,
		Timeout:           cfg.Upstream.Timeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	}, logger.Named("binance"), m)
	logger.Info("data source", zap.String("fetcher", fetcher.Name()), zap.String("base_url", fetcher.BaseURL))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("series cache", zap.String("backend", store.Name()), zap.Duration("ttl", cfg.Cache.SeriesTTL))

	series := cache.NewSeriesCache(store, fetcher, cfg.Cache.SeriesTTL,
		cache.WithLogger(logger.Named("cache")), cache.WithMetrics(m))

	col := collector.NewCollector(fetcher, series, logger.Named("collector"))
	col.Interval = cfg.Scan.Interval
	col.Limit = cfg.Scan.Limit

	sc := scanner.New(fetcher, series, scanner.Config{
		MinChangePercent: cfg.Scan.MinChangePercent,
		MaxCandidates:    cfg.Scan.MaxCandidates,
		Workers:          cfg.Scan.Workers,
		Interval:         cfg.Scan.Interval,
		Limit:            cfg.Scan.Limit,
	}, cfg.Cache.SnapshotTTL, logger.Named("scanner"), m)

	var note notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		chatID, _ := cfg.ChatID() // validated
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, chatID, cfg.Proxy, logger.Named("telegram"))
		if err != nil {
			logger.Warn("telegram disabled", zap.Error(err))
		} else {
			note = tn
			go tn.StartPolling(ctx, notifier.NewCommands(sc, col, logger.Named("commands")).Handle)
			logger.Info("telegram polling started")
		}
	}

	if cfg.Schedule.Enabled {
		sched := scheduler.NewScheduler(ctx, sc, series, note, logger.Named("scheduler"), m)
		sched.AlertCooldown = cfg.Schedule.AlertCooldown
		if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.PurgeCron); err != nil {
			return fmt.Errorf("register cron tasks: %w", err)
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
		if cfg.Schedule.RunOnStart {
			logger.Info("RUN_ON_START enabled, scanning now")
			go sched.RunScanNow()
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewServer(logger.Named("http"), sc, col, m).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("CryptoRadar stopped")
	return nil
}

// openStore builds the series cache backend selected by cache.backend.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendSQLite:
		s, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath, logger.Named("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Ping(pingCtx); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping sqlite cache at %s: %w", cfg.Cache.SQLitePath, err)
		}
		return s, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		s := cache.NewRedisStore(client, cfg.Cache.RedisPrefix, cfg.Cache.SeriesTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Ping(pingCtx); err != nil {
			s.Close()
			return nil, fmt.Errorf("connect redis cache at %s: %w", cfg.Cache.RedisAddr, err)
		}
		return s, nil
	default:
		return cache.NewMemoryStore(), nil
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"cartsync/internal/adapter/handler"
	"cartsync/internal/adapter/remote"
	"cartsync/internal/adapter/storage"
	"cartsync/internal/config"
	"cartsync/internal/core/domain"
	"cartsync/internal/core/service"
	"cartsync/internal/logger"
	"cartsync/internal/port"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cartsync HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}

func runServe(configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New("cartsync")

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()
	log.Info("store ready", "backend", cfg.Store.Backend)

	remoteClient := remote.NewClient(cfg.Remote.BaseURL, time.Duration(cfg.Remote.Timeout))

	cartSvc := service.NewCartService(store, log)
	menuSvc := service.NewMenuService(store, remoteClient, time.Duration(cfg.Menu.CacheTTL), log)
	orderSvc := service.NewOrderService(store, remoteClient,
		cfg.Orders.HistoryLimit,
		service.RetryPolicy{
			Attempts: cfg.Orders.RetryAttempts,
			Delay:    time.Duration(cfg.Orders.RetryDelay),
		},
		domain.Pricing{
			TaxRate:     cfg.Pricing.TaxRate,
			DeliveryFee: cfg.Pricing.DeliveryFee,
		},
		log,
	)

	mux := http.NewServeMux()
	h := handler.NewHTTPHandler(cartSvc, menuSvc, orderSvc, log)
	h.Register(mux)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}

	// Drain queued mutations so in-flight bookkeeping lands in the store.
	cartSvc.Close()
	orderSvc.Close()
	log.Info("stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (port.KeyValueStore, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		st, err := storage.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return storage.NewRedisStore(rdb), func() { rdb.Close() }, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("connect mysql: %w", err)
		}
		st, err := storage.NewMySQLStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return st, func() { db.Close() }, nil

	case "memory":
		return storage.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

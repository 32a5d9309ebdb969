package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/punchamoorthee/roomledger/internal/api"
	"github.com/punchamoorthee/roomledger/internal/config"
	"github.com/punchamoorthee/roomledger/internal/kv"
	"github.com/punchamoorthee/roomledger/internal/logger"
	"github.com/punchamoorthee/roomledger/internal/service"
	"github.com/punchamoorthee/roomledger/internal/settlement"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logr, err := logger.New(cfg.LogLevel, cfg.LogFormat, "roomledger")
	if err != nil {
		log.Fatalf("Unable to build logger: %v", err)
	}
	defer logr.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logr.Fatal("Unable to open key-value store", zap.String("backend", cfg.KVBackend), zap.Error(err))
	}
	defer closeStore()

	resolver, err := settlement.NewResolver(cfg.DefaultAddress)
	if err != nil {
		logr.Fatal("Invalid settlement configuration", zap.Error(err))
	}

	var gateway settlement.Gateway
	if cfg.SettlementURL != "" {
		gateway = settlement.NewClient(cfg.SettlementURL, cfg.SettlementTimeout, logr.Named("settlement"))
	} else {
		logr.Warn("SETTLEMENT_URL not set, using in-process settlement simulator")
		gateway = settlement.NewSimulator(cfg.DefaultAddress)
	}

	// Initialize Layers
	svc, err := service.Open(ctx, kv.WithNamespace(store, cfg.KVNamespace), gateway, resolver, service.Options{
		MemoMaxBytes:      cfg.MemoMaxBytes,
		SettlementTimeout: cfg.SettlementTimeout,
	}, logr.Named("service"))
	if err != nil {
		logr.Fatal("Unable to load ledger state", zap.Error(err))
	}
	handler := api.NewHandler(svc, logr.Named("api"))

	// Router
	r := api.NewRouter(handler)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SettlementTimeout+5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logr.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env), zap.String("kv_backend", cfg.KVBackend))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal("Server failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (kv.Store, func(), error) {
	switch cfg.KVBackend {
	case "postgres":
		pg, err := kv.NewPostgres(ctx, cfg.DBSource)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "redis":
		rd := kv.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rd.Ping(ctx); err != nil {
			rd.Close()
			return nil, nil, err
		}
		return rd, func() { rd.Close() }, nil
	default:
		return kv.NewMemory(), func() {}, nil
	}
}

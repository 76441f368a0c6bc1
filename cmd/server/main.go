package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikh-saqib/finance-records-ledger/internal/api/handlers"
	"github.com/sheikh-saqib/finance-records-ledger/internal/config"
	"github.com/sheikh-saqib/finance-records-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/finance-records-ledger/internal/ledger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/logger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	store := flag.String("store", cfg.Store, "Store identifier: CSV path, gs://bucket/object, postgres:// DSN or memory:")
	addr := flag.String("addr", cfg.HTTPAddr, "Listen address")
	level := flag.String("log-level", cfg.LogLevel, "Log level")
	flag.Parse()

	if log, err = logger.WithLevel(log, *level); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	recordStore, err := storage.Open(ctx, *store)
	if err != nil {
		log.Fatal().Err(err).Str("store", *store).Msg("Failed to open store")
	}
	defer storage.Close(recordStore)

	opts := []ledger.Option{ledger.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, ledger.WithPublisher(publisher))
	}

	mgr, err := ledger.NewManager(ctx, recordStore, opts...)
	if err != nil {
		log.Fatal().Err(err).Str("store", *store).Msg("Failed to load ledger")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handlers.New(mgr, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", *addr).Str("store", *store).Int("records", mgr.Len()).Msg("Starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

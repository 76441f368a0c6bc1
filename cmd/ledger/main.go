// Command ledger records income and cost entries in a finance ledger and
// reports its balance.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/sheikh-saqib/finance-records-ledger/internal/config"
	"github.com/sheikh-saqib/finance-records-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/finance-records-ledger/internal/ledger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/logger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage"
)

func main() {
	os.Exit(int(run()))
}

func run() subcommands.ExitStatus {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	store := flag.String("store", cfg.Store, "Store identifier: CSV path, gs://bucket/object, postgres:// DSN or memory:")
	level := flag.String("log-level", cfg.LogLevel, "Log level")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()

	if log, err = logger.WithLevel(log, *level); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	ctx := logger.WithContext(context.Background(), log)

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

	return commander.Execute(ctx, newApp(mgr, os.Stdin, os.Stdout))
}

package main

import (
	"flag"
	"os"

	"ecomdash/internal/amqp"
	"ecomdash/internal/backend"
	"ecomdash/internal/cli"
	"ecomdash/internal/log"
	"ecomdash/internal/services"
)

func main() {
	source := flag.String("source", "csv", "where to read the dataset from: csv or sheets")
	flag.Parse()

	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	sourceType := backend.BackendType(*source)

	appBackend, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	backendCfg, err := appBackend.ForImport(sourceType)
	if err != nil {
		logger.Error("Invalid import source", log.FieldError, err, log.FieldSource, *source)
		os.Exit(2)
	}

	reader, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create import source", log.FieldError, err, log.FieldSource, *source)
		os.Exit(1)
	}
	defer reader.Close()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.ReloadPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, servers will pick up the snapshot on restart", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	sourceName := *source
	if sourceType == backend.CSVBackend {
		sourceName = cfg.DatasetURL
	}

	snap, err := services.NewImportService(reader.Reader, sourceName, repo, publisher, cfg.SnapshotKeep).Import(ctx)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err, log.FieldSource, sourceName)
		os.Exit(1)
	}
	logger.Info("Import complete", log.FieldSnapshot, snap.ID, log.FieldRows, snap.Rows)
}

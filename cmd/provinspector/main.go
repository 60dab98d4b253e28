// Package main provides the provinspector service.
//
// The service consumes pipeline-debugger events, either by replaying
// recorded dump files or from a Kafka topic, and maintains the provenance
// graph those events describe in a Neo4J or Memgraph store.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/provinspector-io/provinspector/internal/inspector"
	"github.com/provinspector-io/provinspector/internal/storage"
	"github.com/provinspector-io/provinspector/internal/stream"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "provinspector"
)

const shutdownTimeout = 10 * time.Second

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	configPath := flag.String("config", "", "optional YAML config file with service settings")
	initDumpFlag := flag.String("init-dump", "", "initialization dump to replay before consuming events")
	execDumpFlag := flag.String("exec-dump", "", "execution dump to replay; leave empty to consume Kafka")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	appCfg, fileErr := loadAppConfig(*configPath, *initDumpFlag, *execDumpFlag)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: appCfg.logLevel,
	}))

	logger.Info("starting provinspector",
		slog.String("service", name),
		slog.String("version", version),
		slog.String("log_level", appCfg.logLevel.String()),
	)

	if fileErr != nil {
		logger.Warn("config file ignored, using environment and defaults",
			slog.String("path", *configPath),
			slog.String("error", fileErr.Error()),
		)
	}

	graphCfg := storage.LoadConfig()
	if err := graphCfg.Validate(); err != nil {
		logger.Error("invalid graph store configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("graph store configured",
		slog.String("adapter", string(graphCfg.Kind)),
		slog.String("uri", graphCfg.URI),
		slog.String("database", graphCfg.Database),
		slog.String("username", graphCfg.Username),
		slog.String("password", graphCfg.MaskPassword()),
		slog.Int("connect_retries", graphCfg.ConnectRetries),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, err := storage.NewAdapter(graphCfg, logger)
	if err != nil {
		logger.Error("failed to build graph adapter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := adapter.Connect(ctx); err != nil {
		logger.Error("failed to connect to graph store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := storage.NewProvGraphDatabase(adapter, logger)
	if err != nil {
		logger.Error("failed to build graph database", slog.String("error", err.Error()))
		shutdownStore(adapter, logger)
		os.Exit(1)
	}

	translator, err := inspector.New(db, inspector.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build translator", slog.String("error", err.Error()))
		shutdownStore(adapter, logger)
		os.Exit(1)
	}

	if appCfg.initDump != "" || appCfg.execDump != "" {
		replay := stream.NewFileSource(appCfg.initDump, appCfg.execDump, logger)

		if err := replay.Run(ctx, translator); err != nil {
			logger.Error("dump replay failed", slog.String("error", err.Error()))
			shutdownStore(adapter, logger)
			os.Exit(1)
		}
	}

	if appCfg.liveMode() {
		if err := consumeKafka(ctx, appCfg, translator, logger); err != nil {
			logger.Error("stream consumption failed", slog.String("error", err.Error()))
			shutdownStore(adapter, logger)
			os.Exit(1)
		}
	}

	shutdownStore(adapter, logger)
	logger.Info("provinspector stopped")
}

// consumeKafka runs the live source until the context is canceled by a
// shutdown signal.
func consumeKafka(ctx context.Context, cfg appConfig, sink stream.Sink, logger *slog.Logger) error {
	source, err := stream.NewKafkaSource(cfg.kafka, logger)
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	logger.Info("consuming debug events",
		slog.String("topic", cfg.kafka.Topic),
		slog.String("group_id", cfg.kafka.GroupID),
		slog.Int("brokers", len(cfg.kafka.Brokers)),
	)

	return source.Run(ctx, sink)
}

// shutdownStore closes the Bolt driver with a fresh deadline; the signal
// context is usually already canceled by the time shutdown runs.
func shutdownStore(adapter storage.Adapter, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := adapter.Shutdown(ctx); err != nil {
		logger.Error("graph store shutdown failed", slog.String("error", err.Error()))
	}
}

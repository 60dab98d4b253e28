package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/provinspector-io/provinspector/internal/config"
	"github.com/provinspector-io/provinspector/internal/stream"
)

// Service environment variables. The graph store keeps its own GRAPHDB_*
// set (see internal/storage); credentials are environment-only and never
// read from the config file.
const (
	envLogLevel     = "PROVINSPECTOR_LOG_LEVEL"
	envInitDump     = "PROVINSPECTOR_INIT_DUMP"
	envExecDump     = "PROVINSPECTOR_EXEC_DUMP"
	envKafkaBrokers = "PROVINSPECTOR_KAFKA_BROKERS"
	envKafkaTopic   = "PROVINSPECTOR_KAFKA_TOPIC"
	envKafkaGroupID = "PROVINSPECTOR_KAFKA_GROUP_ID"

	defaultKafkaGroupID = "provinspector"
)

// fileConfig is the optional YAML layer underneath the environment. It
// carries service topology only: where events come from and how chatty the
// service is.
type fileConfig struct {
	LogLevel string    `yaml:"log_level"`
	InitDump string    `yaml:"init_dump"`
	ExecDump string    `yaml:"exec_dump"`
	Kafka    fileKafka `yaml:"kafka"`
}

type fileKafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// appConfig is the resolved service configuration. Resolution order per
// field: flag (where one exists), then environment, then config file, then
// built-in default.
type appConfig struct {
	logLevel slog.Level
	initDump string
	execDump string
	kafka    stream.KafkaConfig
}

// liveMode reports whether the service should consume Kafka after any dump
// replay. An execution dump makes the run a batch replay instead.
func (c appConfig) liveMode() bool {
	return c.execDump == ""
}

func readFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// loadAppConfig resolves the service configuration. A missing or malformed
// config file degrades to the remaining layers; the returned error reports
// the problem so the caller can log it once the logger exists.
func loadAppConfig(configPath, initDumpFlag, execDumpFlag string) (appConfig, error) {
	file, fileErr := readFileConfig(configPath)

	brokers := config.ParseCommaSeparatedList(config.GetEnvStr(envKafkaBrokers, ""))
	if len(brokers) == 0 {
		brokers = file.Kafka.Brokers
	}

	cfg := appConfig{
		logLevel: config.GetEnvLogLevel(envLogLevel, parseLogLevel(file.LogLevel)),
		initDump: firstNonEmpty(initDumpFlag, config.GetEnvStr(envInitDump, file.InitDump)),
		execDump: firstNonEmpty(execDumpFlag, config.GetEnvStr(envExecDump, file.ExecDump)),
		kafka: stream.KafkaConfig{
			Brokers: brokers,
			Topic:   config.GetEnvStr(envKafkaTopic, file.Kafka.Topic),
			GroupID: config.GetEnvStr(envKafkaGroupID, firstNonEmpty(file.Kafka.GroupID, defaultKafkaGroupID)),
		},
	}

	return cfg, fileErr
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// Package config reads service settings from the environment and
// provides shared container setup for integration tests.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// GetEnvStr returns the environment variable value, or defaultValue when the
// variable is unset or empty.
//
//	uri := GetEnvStr("GRAPHDB_URI", "bolt://127.0.0.1:7687")
func GetEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// GetEnvInt returns the environment variable parsed as an int. Unset, empty,
// or unparseable values fall back to defaultValue.
//
//	retries := GetEnvInt("GRAPHDB_CONNECT_RETRIES", 30)
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// GetEnvLogLevel returns the environment variable parsed as a slog level
// (debug, info, warn/warning, error, case-insensitive). Unset or unknown
// values fall back to defaultValue.
//
//	level := GetEnvLogLevel("PROVINSPECTOR_LOG_LEVEL", slog.LevelInfo)
func GetEnvLogLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "debug":
			return slog.LevelDebug
		case "info":
			return slog.LevelInfo
		case "warn", "warning":
			return slog.LevelWarn
		case "error":
			return slog.LevelError
		}
	}

	return defaultValue
}

// ParseCommaSeparatedList splits a comma-separated string into trimmed,
// non-empty parts. An empty input yields an empty slice.
func ParseCommaSeparatedList(input string) []string {
	if input == "" {
		return []string{}
	}

	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

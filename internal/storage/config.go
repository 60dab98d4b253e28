package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/provinspector-io/provinspector/internal/config"
)

// AdapterKind selects which graph DBMS an adapter speaks to. Both speak
// Bolt; they differ in connection defaults and constraint dialect.
type AdapterKind string

const (
	// Neo4J targets a Neo4J server, 4.4 or later.
	Neo4J AdapterKind = "neo4j"

	// Memgraph targets a Memgraph server.
	Memgraph AdapterKind = "memgraph"
)

// Connection defaults matching the stock server containers of both stores.
const (
	DefaultBoltURI = "bolt://127.0.0.1:7687"

	Neo4JDefaultUsername = "neo4j"
	Neo4JDefaultPassword = "neo4jneo4j"
	Neo4JDefaultDatabase = "neo4j"

	MemgraphDefaultDatabase = "memgraph"

	defaultConnectRetries = 30
)

var (
	// ErrGraphURIEmpty is returned when the graph database URI is an empty string.
	ErrGraphURIEmpty = errors.New("graph database URI cannot be empty")

	// ErrUnknownAdapterKind is returned when the adapter kind is neither neo4j nor memgraph.
	ErrUnknownAdapterKind = errors.New("unknown graph adapter kind")

	// ErrConnectRetriesInvalid is returned when the connect retry bound is not positive.
	ErrConnectRetriesInvalid = errors.New("connect retries must be at least one")
)

// Config holds Bolt connection configuration for one graph database.
type Config struct {
	Kind           AdapterKind
	URI            string
	Username       string
	password       string // private so it cannot leak through logging
	Database       string
	ConnectRetries int
}

// DefaultConfig returns the stock container defaults for the kind: Neo4J
// ships with neo4j/neo4jneo4j credentials, Memgraph with anonymous access.
func DefaultConfig(kind AdapterKind) *Config {
	cfg := &Config{
		Kind:           kind,
		URI:            DefaultBoltURI,
		ConnectRetries: defaultConnectRetries,
	}

	switch kind {
	case Neo4J:
		cfg.Username = Neo4JDefaultUsername
		cfg.password = Neo4JDefaultPassword
		cfg.Database = Neo4JDefaultDatabase
	case Memgraph:
		cfg.Database = MemgraphDefaultDatabase
	}

	return cfg
}

// LoadConfig loads graph database configuration from environment variables
// with fallback to the configured kind's container defaults.
func LoadConfig() *Config {
	kind := AdapterKind(strings.ToLower(config.GetEnvStr("GRAPHDB_ADAPTER", string(Neo4J))))

	cfg := DefaultConfig(kind)
	cfg.URI = config.GetEnvStr("GRAPHDB_URI", cfg.URI)
	cfg.Username = config.GetEnvStr("GRAPHDB_USERNAME", cfg.Username)
	cfg.password = config.GetEnvStr("GRAPHDB_PASSWORD", cfg.password) // password is private for obvious reasons.
	cfg.Database = config.GetEnvStr("GRAPHDB_NAME", cfg.Database)
	cfg.ConnectRetries = config.GetEnvInt("GRAPHDB_CONNECT_RETRIES", cfg.ConnectRetries)

	return cfg
}

// Validate checks if the graph database configuration is valid.
func (c *Config) Validate() error {
	switch c.Kind {
	case Neo4J, Memgraph:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAdapterKind, c.Kind)
	}

	if strings.TrimSpace(c.URI) == "" {
		return ErrGraphURIEmpty
	}

	if c.ConnectRetries < 1 {
		return ErrConnectRetriesInvalid
	}

	return nil
}

// MaskPassword returns a masked password safe for logging.
func (c *Config) MaskPassword() string {
	if c.password == "" {
		return ""
	}

	return "***"
}

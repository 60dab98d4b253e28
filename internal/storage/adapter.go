package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"
)

var (
	// ErrNotConnected is returned when an operation requires a live Bolt
	// connection and Connect has not succeeded yet.
	ErrNotConnected = errors.New("graph database not connected")

	// ErrConnectFailed is returned when the bounded connect retry loop gave up.
	ErrConnectFailed = errors.New("graph database connect failed")

	_ Adapter = (*Neo4JAdapter)(nil)
	_ Adapter = (*MemgraphAdapter)(nil)
)

// Adapter is the Bolt-facing surface of one graph DBMS.
type Adapter interface {
	// Connect dials the store, verifies connectivity, and installs the
	// per-class uniqueness constraints. Dialing retries at one-second pace
	// up to the configured bound, so a freshly started server container has
	// time to come up.
	Connect(ctx context.Context) error

	// MergeSubgraph merges the subgraph in a single write transaction.
	// Nodes merge on the primary label plus primary key property,
	// relationships on their endpoints plus type.
	MergeSubgraph(ctx context.Context, subgraph *Subgraph) error

	// Run executes one Cypher statement and buffers the full result.
	Run(ctx context.Context, cypher string, params map[string]any) (*Cursor, error)

	// Shutdown closes the driver. Safe on a never-connected adapter.
	Shutdown(ctx context.Context) error
}

// NewAdapter returns the adapter for the configured kind. A nil config
// selects Neo4J with its container defaults.
func NewAdapter(cfg *Config, logger *slog.Logger) (Adapter, error) {
	if cfg == nil {
		cfg = DefaultConfig(Neo4J)
	}

	switch cfg.Kind {
	case Neo4J:
		return NewNeo4JAdapter(cfg, logger), nil
	case Memgraph:
		return NewMemgraphAdapter(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapterKind, cfg.Kind)
	}
}

// boltAdapter is the shared Bolt core of both DBMS adapters. The adapters
// differ only in defaults and in the uniqueness-constraint dialect they
// install on connect.
type boltAdapter struct {
	cfg         *Config
	logger      *slog.Logger
	constraints []string
	driver      neo4j.DriverWithContext
}

func newBoltAdapter(cfg *Config, logger *slog.Logger, constraints []string) boltAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return boltAdapter{cfg: cfg, logger: logger, constraints: constraints}
}

// Connect dials the configured URI, retrying at one-second pace until the
// server verifies or the retry bound is exhausted. Connecting twice is a
// no-op.
func (a *boltAdapter) Connect(ctx context.Context) error {
	if a.driver != nil {
		return nil
	}

	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	var lastErr error

	for attempt := 1; attempt <= a.cfg.ConnectRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("connect to %s: %w", a.cfg.URI, err)
		}

		driver, err := neo4j.NewDriverWithContext(a.cfg.URI, neo4j.BasicAuth(a.cfg.Username, a.cfg.password, ""))
		if err != nil {
			lastErr = err

			continue
		}

		if err := driver.VerifyConnectivity(ctx); err != nil {
			lastErr = err

			_ = driver.Close(ctx)

			a.logger.Debug("graph database not reachable yet",
				slog.String("uri", a.cfg.URI),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)

			continue
		}

		a.driver = driver

		if err := a.ensureConstraints(ctx); err != nil {
			_ = driver.Close(ctx)
			a.driver = nil

			return err
		}

		a.logger.Info("graph database connected",
			slog.String("uri", a.cfg.URI),
			slog.String("database", a.cfg.Database),
		)

		return nil
	}

	return fmt.Errorf("%w: %d attempts to %s: %w", ErrConnectFailed, a.cfg.ConnectRetries, a.cfg.URI, lastErr)
}

// ensureConstraints installs one uniqueness constraint per PROV class label.
// Both dialects treat re-creation of an existing constraint as a no-op.
func (a *boltAdapter) ensureConstraints(ctx context.Context) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.cfg.Database})
	defer func() { _ = session.Close(ctx) }()

	for _, stmt := range a.constraints {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("create uniqueness constraint: %w", err)
		}

		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("create uniqueness constraint: %w", err)
		}
	}

	return nil
}

// MergeSubgraph merges all nodes, then all relationships, in one write
// transaction.
func (a *boltAdapter) MergeSubgraph(ctx context.Context, subgraph *Subgraph) error {
	if a.driver == nil {
		return ErrNotConnected
	}

	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.cfg.Database})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range subgraph.Nodes {
			if err := mergeNode(ctx, tx, node); err != nil {
				return nil, err
			}
		}

		for _, rel := range subgraph.Relationships {
			if err := mergeRelationship(ctx, tx, rel); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("merge subgraph: %w", err)
	}

	return nil
}

func mergeNode(ctx context.Context, tx neo4j.ManagedTransaction, node *Node) error {
	var sb strings.Builder

	sb.WriteString("MERGE (n:`")
	sb.WriteString(PrimaryLabel)
	sb.WriteString("` {`")
	sb.WriteString(PrimaryKey)
	sb.WriteString("`: $id}) SET n += $props")

	for _, label := range node.Labels {
		if label == PrimaryLabel {
			continue
		}

		sb.WriteString(" SET n:`")
		sb.WriteString(label)
		sb.WriteString("`")
	}

	result, err := tx.Run(ctx, sb.String(), map[string]any{
		"id":    node.Identifier(),
		"props": node.Properties,
	})
	if err != nil {
		return err
	}

	_, err = result.Consume(ctx)

	return err
}

func mergeRelationship(ctx context.Context, tx neo4j.ManagedTransaction, rel *Relationship) error {
	query := "MATCH (a:`" + PrimaryLabel + "` {`" + PrimaryKey + "`: $start})" +
		" MATCH (b:`" + PrimaryLabel + "` {`" + PrimaryKey + "`: $end})" +
		" MERGE (a)-[r:`" + rel.Type + "`]->(b)" +
		" SET r += $props"

	props := rel.Properties
	if props == nil {
		props = map[string]any{}
	}

	result, err := tx.Run(ctx, query, map[string]any{
		"start": rel.Start.Identifier(),
		"end":   rel.End.Identifier(),
		"props": props,
	})
	if err != nil {
		return err
	}

	_, err = result.Consume(ctx)

	return err
}

// Run executes one Cypher statement and buffers every record.
func (a *boltAdapter) Run(ctx context.Context, cypher string, params map[string]any) (*Cursor, error) {
	if a.driver == nil {
		return nil, ErrNotConnected
	}

	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.cfg.Database})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect query records: %w", err)
	}

	return NewCursor(records), nil
}

// Shutdown closes the Bolt driver. Calling it on a never-connected adapter,
// or twice, is a no-op.
func (a *boltAdapter) Shutdown(ctx context.Context) error {
	if a.driver == nil {
		return nil
	}

	err := a.driver.Close(ctx)
	a.driver = nil

	if err != nil {
		return fmt.Errorf("close graph driver: %w", err)
	}

	return nil
}

// Neo4JAdapter speaks Bolt to a Neo4J server and installs constraints in
// the FOR/REQUIRE dialect Neo4J 4.4 introduced.
type Neo4JAdapter struct {
	boltAdapter
}

// NewNeo4JAdapter builds a Neo4J adapter; a nil config uses the stock
// container defaults.
func NewNeo4JAdapter(cfg *Config, logger *slog.Logger) *Neo4JAdapter {
	if cfg == nil {
		cfg = DefaultConfig(Neo4J)
	}

	return &Neo4JAdapter{boltAdapter: newBoltAdapter(cfg, logger, neo4jConstraints())}
}

func neo4jConstraints() []string {
	stmts := make([]string, 0, len(ClassLabels))

	for _, label := range ClassLabels {
		name := "provinspector_" + strings.ToLower(label) + "_identifier"

		stmts = append(stmts, fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:`%s`) REQUIRE n.`%s` IS UNIQUE",
			name, label, PrimaryKey,
		))
	}

	return stmts
}

// MemgraphAdapter speaks Bolt to a Memgraph server, which keeps the older
// ON/ASSERT constraint dialect.
type MemgraphAdapter struct {
	boltAdapter
}

// NewMemgraphAdapter builds a Memgraph adapter; a nil config uses the stock
// container defaults.
func NewMemgraphAdapter(cfg *Config, logger *slog.Logger) *MemgraphAdapter {
	if cfg == nil {
		cfg = DefaultConfig(Memgraph)
	}

	return &MemgraphAdapter{boltAdapter: newBoltAdapter(cfg, logger, memgraphConstraints())}
}

func memgraphConstraints() []string {
	stmts := make([]string, 0, len(ClassLabels))

	for _, label := range ClassLabels {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE CONSTRAINT ON (n:`%s`) ASSERT n.`%s` IS UNIQUE",
			label, PrimaryKey,
		))
	}

	return stmts
}

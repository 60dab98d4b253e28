package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/provinspector-io/provinspector/internal/prov"
)

// clearStatement removes every node and relationship in the database.
const clearStatement = "MATCH (n) DETACH DELETE n"

// ErrNilAdapter is returned when a graph database is constructed without an
// adapter.
var ErrNilAdapter = errors.New("graph adapter cannot be nil")

// ProvGraphDatabase is the provenance store facade the translator drives:
// it encodes PROV documents and merges them through a Bolt adapter.
type ProvGraphDatabase struct {
	adapter Adapter
	logger  *slog.Logger
}

// NewProvGraphDatabase wires the facade to an adapter. The adapter may still
// be disconnected; operations before Connect fail with ErrNotConnected.
func NewProvGraphDatabase(adapter Adapter, logger *slog.Logger) (*ProvGraphDatabase, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}

	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	return &ProvGraphDatabase{adapter: adapter, logger: logger}, nil
}

// ImportGraph encodes the document and merges the resulting subgraph into
// the store. Importing the same document again is a no-op at the store
// level: nodes merge on identifier, relationships on endpoints plus type.
func (db *ProvGraphDatabase) ImportGraph(ctx context.Context, doc *prov.Document) error {
	subgraph := EncodeDocument(doc)

	if err := db.adapter.MergeSubgraph(ctx, subgraph); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	db.logger.Debug("imported provenance fragment",
		slog.Int("nodes", len(subgraph.Nodes)),
		slog.Int("relationships", len(subgraph.Relationships)),
	)

	return nil
}

// Clear removes every node and relationship from the store.
func (db *ProvGraphDatabase) Clear(ctx context.Context) error {
	if _, err := db.adapter.Run(ctx, clearStatement, nil); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}

	return nil
}

// Query runs one Cypher statement and returns a buffered cursor over the
// result.
func (db *ProvGraphDatabase) Query(ctx context.Context, cypher string) (*Cursor, error) {
	cursor, err := db.adapter.Run(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("query graph: %w", err)
	}

	return cursor, nil
}

// Shutdown closes the underlying driver.
func (db *ProvGraphDatabase) Shutdown(ctx context.Context) error {
	return db.adapter.Shutdown(ctx)
}

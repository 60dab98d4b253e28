// Package inspector implements the event-to-provenance translator. An
// Inspector consumes pipeline-debugger events, maintains the typed object
// store tracking pipeline versions, revisions, operators, and connections,
// and pushes a PROV fragment describing each event into the provenance
// store.
//
// An Inspector is single-threaded by contract: events must be applied in
// arrival order, one at a time. Callers that consume from concurrent sources
// serialize before calling into it.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/provinspector-io/provinspector/internal/domain"
	"github.com/provinspector-io/provinspector/internal/ingestion"
	"github.com/provinspector-io/provinspector/internal/prov"
	"github.com/provinspector-io/provinspector/internal/provmodel"
	"github.com/provinspector-io/provinspector/internal/storage"
)

// Sentinel errors surfaced by event application. All of them abort the
// offending event only; earlier state is preserved.
var (
	// ErrNilGraphStore indicates the Inspector was constructed without a
	// provenance store.
	ErrNilGraphStore = errors.New("graph store cannot be nil")

	// ErrBranchParentMissing indicates a step announced a new branch whose
	// parent branch is unknown.
	ErrBranchParentMissing = errors.New("parent branch not found")

	// ErrRevisionMissing indicates a branch exists but carries no revision
	// to build on.
	ErrRevisionMissing = errors.New("pipeline version revision not found")

	// ErrOperatorRevisionMissing indicates an event referenced an operator
	// absent from the revision it applies to.
	ErrOperatorRevisionMissing = errors.New("operator revision not found")
)

// GraphStore is the provenance store surface the translator writes to.
// *storage.ProvGraphDatabase is the production implementation; tests use
// in-memory recorders.
type GraphStore interface {
	// ImportGraph encodes the document and merges it into the store.
	ImportGraph(ctx context.Context, doc *prov.Document) error

	// Clear removes every node and relationship.
	Clear(ctx context.Context) error

	// Query runs a read statement and returns a buffered cursor.
	Query(ctx context.Context, cypher string) (*storage.Cursor, error)

	// Shutdown releases the underlying connection.
	Shutdown(ctx context.Context) error
}

var _ GraphStore = (*storage.ProvGraphDatabase)(nil)

// Inspector is the stateful translator. It owns the object store and the
// branch cursor (the version and revision ids the last event landed on).
type Inspector struct {
	graph  GraphStore
	repo   *storage.Repository
	logger *slog.Logger
	newID  func() string
	consts Constants

	initialized    bool
	lastVersionID  int
	lastRevisionID int
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithConstants overrides the genesis seeds.
func WithConstants(consts Constants) Option {
	return func(i *Inspector) { i.consts = consts }
}

// WithIDGenerator overrides the uuid source. Tests inject deterministic
// sequences here.
func WithIDGenerator(newID func() string) Option {
	return func(i *Inspector) {
		if newID != nil {
			i.newID = newID
		}
	}
}

// New constructs an Inspector writing to the given provenance store.
func New(graph GraphStore, opts ...Option) (*Inspector, error) {
	if graph == nil {
		return nil, ErrNilGraphStore
	}

	inspector := &Inspector{
		graph:  graph,
		repo:   storage.NewRepository(),
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		newID:  uuid.NewString,
		consts: DefaultConstants(),
	}

	for _, opt := range opts {
		opt(inspector)
	}

	inspector.lastVersionID = inspector.consts.PipelineVersionID
	inspector.lastRevisionID = inspector.consts.RevisionID

	return inspector, nil
}

// Initialize builds the genesis pipeline version from a change list
// describing the pipeline at time zero: operator creations become the
// genesis revision's operator set, connection creations its connection set,
// and every other change subtype is ignored. Calling Initialize on an
// already initialized Inspector logs a warning and changes nothing.
func (i *Inspector) Initialize(ctx context.Context, changes []ingestion.PipelineChange) error {
	if i.initialized {
		i.logger.Warn("already initialized",
			slog.Int("branch_id", i.lastVersionID),
			slog.Int("revision_id", i.lastRevisionID),
		)

		return nil
	}

	var (
		operators   []domain.OperatorRevision
		connections []domain.Connection
	)

	for _, change := range changes {
		switch change.Type {
		case domain.OperatorCreation:
			operators = append(operators, domain.OperatorRevision{
				UUID:       i.newID(),
				ID:         i.consts.OperatorRevisionID,
				Operator:   domain.Operator{ID: change.OperatorID, Name: change.OperatorName},
				Parameters: parametersFromData(change.OperatorData),
			})
		case domain.ConnectionCreation:
			connections = append(connections, domain.Connection{
				ID:             change.ConnectionID,
				FromOperatorID: change.FromOperatorID,
				ToOperatorID:   change.ToOperatorID,
			})
		}
	}

	version := domain.PipelineVersion{ID: i.consts.PipelineVersionID}

	revision := domain.PipelineVersionRevision{
		UUID:            i.newID(),
		ID:              i.consts.RevisionID,
		PipelineVersion: version,
		Operators:       operators,
		Connections:     connections,
	}

	creation := domain.PipelineVersionCreation{
		UUID:     i.newID(),
		Revision: revision,
		Time:     i.consts.Time,
	}

	i.repo.Add(version)
	i.repo.Add(revision)
	i.repo.Add(creation)

	if err := i.AddModel(ctx, provmodel.PipelineVersionCreationModel{Creation: creation}); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	i.initialized = true
	i.lastVersionID = version.ID
	i.lastRevisionID = revision.ID

	i.logger.Info("pipeline initialized",
		slog.Int("operators", len(operators)),
		slog.Int("connections", len(connections)),
	)

	return nil
}

// AddModel builds a sub-model's PROV fragment and merges it into the
// provenance store, bypassing event decoding.
func (i *Inspector) AddModel(ctx context.Context, model provmodel.Model) error {
	return i.graph.ImportGraph(ctx, model.Build())
}

// Clear empties the object store and the provenance store and resets the
// translator to its uninitialized state.
func (i *Inspector) Clear(ctx context.Context) error {
	i.repo.Clear()

	if err := i.graph.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	i.initialized = false
	i.lastVersionID = i.consts.PipelineVersionID
	i.lastRevisionID = i.consts.RevisionID

	return nil
}

// Query passes a read statement through to the provenance store.
func (i *Inspector) Query(ctx context.Context, cypher string) (*storage.Cursor, error) {
	return i.graph.Query(ctx, cypher)
}

// Shutdown releases the provenance store connection.
func (i *Inspector) Shutdown(ctx context.Context) error {
	return i.graph.Shutdown(ctx)
}

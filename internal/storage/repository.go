// Package storage provides the translator's object store, the property-graph
// encoding of PROV documents, and the Bolt adapters that merge encoded
// subgraphs into Neo4J or Memgraph.
package storage

import (
	"fmt"

	"github.com/provinspector-io/provinspector/internal/domain"
)

// Repository is the in-process object store backing the translator: every
// domain record ever created, grouped by record type in insertion order.
// The translator serializes all access; the repository is not safe for
// concurrent use.
type Repository struct {
	records map[string][]any
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{records: make(map[string][]any)}
}

// Add appends a domain record to its type's sequence. The set of storable
// record types is closed; anything else is a programmer error and panics.
func (r *Repository) Add(record any) {
	kind := recordKind(record)
	r.records[kind] = append(r.records[kind], record)
}

// Clear drops every stored record.
func (r *Repository) Clear() {
	r.records = make(map[string][]any)
}

// Len returns the total number of stored records.
func (r *Repository) Len() int {
	var n int

	for _, seq := range r.records {
		n += len(seq)
	}

	return n
}

// Match narrows a repository query to records with a matching semantic key.
type Match func(*query)

type query struct {
	id           *int
	uuid         *string
	versionID    *int
	revisionUUID *string
}

// WithID matches records carrying the integer sequence id.
func WithID(id int) Match {
	return func(q *query) { q.id = &id }
}

// WithUUID matches records carrying the uuid handle.
func WithUUID(uuid string) Match {
	return func(q *query) { q.uuid = &uuid }
}

// WithPipelineVersion matches revision and creation records by the id of
// the pipeline version that owns them.
func WithPipelineVersion(id int) Match {
	return func(q *query) { q.versionID = &id }
}

// WithPipelineVersionRevision matches creation and change records by the
// uuid of the revision they produced.
func WithPipelineVersionRevision(uuid string) Match {
	return func(q *query) { q.revisionUUID = &uuid }
}

// Get returns the first stored record of type R matching every criterion,
// in insertion order.
func Get[R any](r *Repository, matches ...Match) (R, bool) {
	var zero R

	q := buildQuery(matches)

	for _, rec := range r.records[recordKind(zero)] {
		if matchesRecord(rec, q) {
			return rec.(R), true
		}
	}

	return zero, false
}

// ListAll returns every stored record of type R matching every criterion,
// in insertion order.
func ListAll[R any](r *Repository, matches ...Match) []R {
	var zero R

	q := buildQuery(matches)

	var out []R

	for _, rec := range r.records[recordKind(zero)] {
		if matchesRecord(rec, q) {
			out = append(out, rec.(R))
		}
	}

	return out
}

func buildQuery(matches []Match) query {
	var q query

	for _, m := range matches {
		m(&q)
	}

	return q
}

func matchesRecord(record any, q query) bool {
	if q.id != nil && recordID(record) != *q.id {
		return false
	}

	if q.uuid != nil && recordUUID(record) != *q.uuid {
		return false
	}

	if q.versionID != nil && recordVersionID(record) != *q.versionID {
		return false
	}

	if q.revisionUUID != nil && recordRevisionUUID(record) != *q.revisionUUID {
		return false
	}

	return true
}

// recordKind maps a record to its type bucket.
func recordKind(record any) string {
	switch record.(type) {
	case domain.PipelineVersion:
		return "PipelineVersion"
	case domain.PipelineVersionRevision:
		return "PipelineVersionRevision"
	case domain.Operator:
		return "Operator"
	case domain.OperatorRevision:
		return "OperatorRevision"
	case domain.Parameter:
		return "Parameter"
	case domain.Connection:
		return "Connection"
	case domain.OperatorRun:
		return "OperatorRun"
	case domain.Metric:
		return "Metric"
	case domain.PipelineVersionCreation:
		return "PipelineVersionCreation"
	case domain.PipelineChange:
		return "PipelineChange"
	case domain.OperatorExecution:
		return "OperatorExecution"
	default:
		panic(fmt.Sprintf("storage: unsupported record type %T", record))
	}
}

func recordID(record any) int {
	switch rec := record.(type) {
	case domain.PipelineVersion:
		return rec.ID
	case domain.PipelineVersionRevision:
		return rec.ID
	case domain.Operator:
		return rec.ID
	case domain.OperatorRevision:
		return rec.ID
	case domain.Connection:
		return rec.ID
	default:
		panic(fmt.Sprintf("storage: %T has no integer id key", record))
	}
}

func recordUUID(record any) string {
	switch rec := record.(type) {
	case domain.PipelineVersionRevision:
		return rec.UUID
	case domain.OperatorRevision:
		return rec.UUID
	case domain.PipelineVersionCreation:
		return rec.UUID
	case domain.PipelineChange:
		return rec.UUID
	case domain.OperatorExecution:
		return rec.UUID
	default:
		panic(fmt.Sprintf("storage: %T has no uuid key", record))
	}
}

func recordVersionID(record any) int {
	switch rec := record.(type) {
	case domain.PipelineVersionRevision:
		return rec.PipelineVersion.ID
	case domain.PipelineVersionCreation:
		return rec.Revision.PipelineVersion.ID
	default:
		panic(fmt.Sprintf("storage: %T has no owning pipeline version key", record))
	}
}

func recordRevisionUUID(record any) string {
	switch rec := record.(type) {
	case domain.PipelineVersionCreation:
		return rec.Revision.UUID
	case domain.PipelineChange:
		return rec.Revision.UUID
	default:
		panic(fmt.Sprintf("storage: %T has no owning revision key", record))
	}
}

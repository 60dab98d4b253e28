// Package stream feeds debugger events into the translator. Two sources are
// provided: a file source replaying recorded dumps and a Kafka source
// consuming a live topic. Both deliver events strictly in arrival order, one
// at a time, and treat a rejected event as a skip rather than a stop.
package stream

import (
	"context"

	"github.com/provinspector-io/provinspector/internal/ingestion"
	"github.com/provinspector-io/provinspector/internal/inspector"
)

// Sink consumes decoded debugger events in arrival order.
type Sink interface {
	// Initialize applies the pipeline description captured before the first
	// debug step.
	Initialize(ctx context.Context, changes []ingestion.PipelineChange) error

	// Update applies one debug step.
	Update(ctx context.Context, step ingestion.DebugStep) error
}

var _ Sink = (*inspector.Inspector)(nil)

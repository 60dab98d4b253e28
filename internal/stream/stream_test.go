package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/provinspector-io/provinspector/internal/ingestion"
)

// recordingSink captures every delivery. The mutex makes it safe to poll
// from the test goroutine while a source runs.
type recordingSink struct {
	mu       sync.Mutex
	inits    [][]ingestion.PipelineChange
	steps    []ingestion.DebugStep
	initErr  error
	rejectID string
}

func (s *recordingSink) Initialize(_ context.Context, changes []ingestion.PipelineChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inits = append(s.inits, changes)

	return s.initErr
}

func (s *recordingSink) Update(_ context.Context, step ingestion.DebugStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.steps = append(s.steps, step)

	if step.ID == s.rejectID {
		return errors.New("rejected")
	}

	return nil
}

func (s *recordingSink) stepIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.steps))
	for _, step := range s.steps {
		ids = append(ids, step.ID)
	}

	return ids
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

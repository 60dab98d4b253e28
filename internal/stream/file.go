package stream

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/provinspector-io/provinspector/internal/ingestion"
)

// FileSource replays recorded dumps: an optional initialization dump (one
// pipeline change per line) followed by an optional execution dump (one
// debug step per line).
type FileSource struct {
	initPath string
	execPath string
	logger   *slog.Logger
}

// NewFileSource builds a replay source for the given dump files. Either path
// may be empty to skip that phase. A nil logger falls back to slog.Default.
func NewFileSource(initPath, execPath string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}

	return &FileSource{initPath: initPath, execPath: execPath, logger: logger}
}

// Run replays the dumps into the sink. A dump that cannot be read or decoded
// fails the replay; an event the sink rejects is logged and skipped.
func (s *FileSource) Run(ctx context.Context, sink Sink) error {
	if s.initPath != "" {
		changes, err := s.readInitDump()
		if err != nil {
			return err
		}

		if err := sink.Initialize(ctx, changes); err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		s.logger.Info("initialization dump replayed",
			slog.String("path", s.initPath),
			slog.Int("changes", len(changes)),
		)
	}

	if s.execPath == "" {
		return nil
	}

	steps, err := s.readExecutionDump()
	if err != nil {
		return err
	}

	applied, rejected := 0, 0

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := sink.Update(ctx, step); err != nil {
			rejected++
			s.logger.Error("event rejected",
				slog.String("step_id", step.ID),
				slog.String("error", err.Error()),
			)

			continue
		}

		applied++
	}

	s.logger.Info("execution dump replayed",
		slog.String("path", s.execPath),
		slog.Int("applied", applied),
		slog.Int("rejected", rejected),
	)

	return nil
}

func (s *FileSource) readInitDump() ([]ingestion.PipelineChange, error) {
	f, err := os.Open(s.initPath)
	if err != nil {
		return nil, fmt.Errorf("init dump: %w", err)
	}
	defer f.Close()

	changes, err := ingestion.ReadInitDump(f)
	if err != nil {
		return nil, fmt.Errorf("init dump %s: %w", s.initPath, err)
	}

	return changes, nil
}

func (s *FileSource) readExecutionDump() ([]ingestion.DebugStep, error) {
	f, err := os.Open(s.execPath)
	if err != nil {
		return nil, fmt.Errorf("execution dump: %w", err)
	}
	defer f.Close()

	steps, err := ingestion.ReadExecutionDump(f)
	if err != nil {
		return nil, fmt.Errorf("execution dump %s: %w", s.execPath, err)
	}

	return steps, nil
}

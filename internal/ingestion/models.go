// Package ingestion defines the wire records emitted by the pipeline
// debugger and the JSON codec for them: debug steps, pipeline changes, and
// operator metrics, one JSON object per line on both the init and the
// execution streams.
package ingestion

import (
	"errors"
	"fmt"

	"github.com/provinspector-io/provinspector/internal/domain"
)

type (
	// DebugStep is one debugger event: a step executed on a pipeline branch,
	// optionally carrying pipeline changes and operator metrics.
	//
	// This is the decoded form. The wire layout (field spellings, enum
	// spellings) lives in the codec; upstream identifiers keep their wire
	// semantics here, in particular Timestamp stays in epoch seconds.
	DebugStep struct {
		// ID is the globally unique step id assigned by the debugger.
		ID string

		// Timestamp is the wall-clock time of the step in epoch seconds.
		Timestamp float64

		// BranchID identifies the pipeline branch the step ran on.
		BranchID int

		// StepID is the branch-local sequence number of the step.
		StepID int

		// ParentBranchID names the branch this branch was forked from.
		// Nil for the root branch.
		ParentBranchID *int

		// OperatorID and OperatorName identify the operator the step
		// executed, if any.
		OperatorID   int
		OperatorName string

		// StepType classifies the debugger callback that produced the step.
		StepType domain.OperatorStepType

		// Metrics are the operator metrics observed during the step. An
		// empty list means the step did not execute an operator.
		Metrics []Metric

		// Changes are the pipeline changes applied by the step, in order.
		// Nil when the step changed nothing.
		Changes []PipelineChange
	}

	// PipelineChange is one structural edit to the pipeline. Type selects
	// which of the remaining fields are meaningful; the operator fields for
	// the three operator subtypes, the connection fields for the two
	// connection subtypes.
	PipelineChange struct {
		// ID is the unique change id assigned by the debugger.
		ID string

		// Type discriminates the five change subtypes.
		Type domain.PipelineChangeType

		// Operator change fields.
		OperatorID   int
		OperatorName string

		// OperatorData holds the initial parameters of a created operator.
		OperatorData map[string]any

		// ChangedParameter and ChangedValue carry a single parameter edit.
		ChangedParameter string
		ChangedValue     any

		// Connection change fields.
		ConnectionID   int
		FromOperatorID int
		ToOperatorID   int
		FromSocketID   int
		ToSocketID     int
	}

	// Metric is one named measurement reported for an operator execution.
	Metric struct {
		Name  string
		Value float64
	}
)

// Sentinel errors for event validation.
var (
	// ErrMissingStepID indicates a debug step without a unique step id.
	ErrMissingStepID = errors.New("uniqueStepID is required")

	// ErrMissingChangeID indicates a pipeline change without a unique id.
	ErrMissingChangeID = errors.New("uniqueID is required")
)

// Validate checks the step's required fields and every embedded change.
func (s *DebugStep) Validate() error {
	if s.ID == "" {
		return ErrMissingStepID
	}

	if _, err := domain.ParseOperatorStepType(string(s.StepType)); err != nil {
		return err
	}

	for i := range s.Changes {
		if err := s.Changes[i].Validate(); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}

	return nil
}

// Validate checks the change's required fields.
func (c *PipelineChange) Validate() error {
	if c.ID == "" {
		return ErrMissingChangeID
	}

	if _, err := domain.ParsePipelineChangeType(string(c.Type)); err != nil {
		return err
	}

	return nil
}

// Package domain defines the typed records the translator manipulates and
// their projections into the PROV model: pipeline versions and revisions,
// operators and operator revisions, connections, runs, metrics, and the
// activity records that tie them together.
package domain

import (
	"errors"
	"fmt"
)

// PipelineChangeType discriminates the five pipeline change subtypes.
type PipelineChangeType string

const (
	OperatorCreation     PipelineChangeType = "OperatorCreation"
	OperatorModification PipelineChangeType = "OperatorModification"
	OperatorDeletion     PipelineChangeType = "OperatorDeletion"
	ConnectionCreation   PipelineChangeType = "ConnectionCreation"
	ConnectionDeletion   PipelineChangeType = "ConnectionDeletion"
)

// OperatorStepType classifies the debugger step that triggered an operator
// execution.
type OperatorStepType string

const (
	OnSourceProducedTuple OperatorStepType = "OnSourceProducedTuple"
	OnTupleTransmitted    OperatorStepType = "OnTupleTransmitted"
	OnStreamProcessTuple  OperatorStepType = "OnStreamProcessTuple"
	PreTupleProcessed     OperatorStepType = "PreTupleProcessed"
	OnTupleProcessed      OperatorStepType = "OnTupleProcessed"
	OnOpExecuted          OperatorStepType = "OnOpExecuted"
)

var (
	// ErrUnknownChangeType indicates an event carried a pipeline change type
	// outside the five recognized subtypes.
	ErrUnknownChangeType = errors.New("unknown pipeline change type")

	// ErrUnknownStepType indicates an event carried an unrecognized operator
	// step type.
	ErrUnknownStepType = errors.New("unknown operator step type")
)

// ParsePipelineChangeType accepts both the upper-snake spelling emitted by
// the upstream debugger and the pascal spelling used on output.
func ParsePipelineChangeType(s string) (PipelineChangeType, error) {
	switch s {
	case "OPERATOR_CREATION", string(OperatorCreation):
		return OperatorCreation, nil
	case "OPERATOR_MODIFICATION", string(OperatorModification):
		return OperatorModification, nil
	case "OPERATOR_DELETION", string(OperatorDeletion):
		return OperatorDeletion, nil
	case "CONNECTION_CREATION", string(ConnectionCreation):
		return ConnectionCreation, nil
	case "CONNECTION_DELETION", string(ConnectionDeletion):
		return ConnectionDeletion, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChangeType, s)
	}
}

// ParseOperatorStepType accepts both the upper-snake spelling emitted by the
// upstream debugger and the pascal spelling used on output.
func ParseOperatorStepType(s string) (OperatorStepType, error) {
	switch s {
	case "ON_SOURCE_PRODUCED_TUPLE", string(OnSourceProducedTuple):
		return OnSourceProducedTuple, nil
	case "ON_TUPLE_TRANSMITTED", string(OnTupleTransmitted):
		return OnTupleTransmitted, nil
	case "ON_STREAM_PROCESS_TUPLE", string(OnStreamProcessTuple):
		return OnStreamProcessTuple, nil
	case "PRE_TUPLE_PROCESSED", string(PreTupleProcessed):
		return PreTupleProcessed, nil
	case "ON_TUPLE_PROCESSED", string(OnTupleProcessed):
		return OnTupleProcessed, nil
	case "ON_OP_EXECUTED", string(OnOpExecuted):
		return OnOpExecuted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStepType, s)
	}
}

// PROV role values attached to generation, usage, and invalidation edges.
const (
	RoleCreatedPipelineVersion         = "CreatedPipelineVersion"
	RoleCreatedPipelineVersionRevision = "CreatedPipelineVersionRevision"

	RoleCreatedOperator  = "CreatedOperator"
	RoleModifiedOperator = "ModifiedOperator"
	RoleDeletedOperator  = "DeletedOperator"

	RoleCreatedConnection = "CreatedConnection"
	RoleDeletedConnection = "DeletedConnection"

	RoleCreatedOperatorRun = "CreatedOperatorRun"

	RoleUsedParentPipelineVersion         = "UsedParentPipelineVersion"
	RoleUsedParentPipelineVersionRevision = "UsedParentPipelineVersionRevision"
	RoleUsedOperatorRevision              = "UsedOperatorRevision"
	RoleUsedParentOperatorRevision        = "UsedParentOperatorRevision"
)

// PROV type values attached to element nodes.
const (
	TypePipelineVersion         = "PipelineVersion"
	TypePipelineVersionRevision = "PipelineVersionRevision"
	TypeOperator                = "Operator"
	TypeOperatorRevision        = "OperatorRevision"
	TypeParameter               = "Parameter"
	TypeOperatorRun             = "OperatorRun"
	TypeMetric                  = "Metric"
	TypeConnection              = "Connection"

	TypePipelineVersionCreation = "PipelineVersionCreation"
	TypePipelineChange          = "PipelineChange"
	TypeOperatorExecution       = "OperatorExecution"

	TypeCollection = "prov:collection"
)

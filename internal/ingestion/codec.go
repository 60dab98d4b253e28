package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/provinspector-io/provinspector/internal/domain"
)

// Wire layouts. Decoding is permissive: one record shape accepts every
// change subtype and the enum parsers take both the upper-snake spelling the
// debugger emits and the pascal spelling this codec writes back out.
type (
	wireStep struct {
		UniqueStepID   string            `json:"uniqueStepID"`
		TimeStamp      float64           `json:"timeStamp"`
		BranchID       int               `json:"branchID"`
		StepID         int               `json:"stepID"`
		ParentBranchID *int              `json:"parentBranchID"`
		UniqueOpID     int               `json:"uniqueOpID"`
		OpName         string            `json:"opName"`
		StepType       string            `json:"stepType"`
		Metrics        []wireMetric      `json:"metrics"`
		Updates        []json.RawMessage `json:"updates"`
	}

	wireMetric struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	wireChange struct {
		UniqueID     string         `json:"uniqueID"`
		UpdateType   string         `json:"updateType"`
		OpID         int            `json:"opID"`
		OpName       string         `json:"opName"`
		OpData       map[string]any `json:"opData"`
		ChangedParam string         `json:"changedParam"`
		ChangedVal   any            `json:"changedVal"`
		ConID        int            `json:"conID"`
		FromOpID     int            `json:"fromOpID"`
		ToOpID       int            `json:"toOpID"`
		FromSockID   int            `json:"fromSockID"`
		ToSockID     int            `json:"toSockID"`
	}
)

// Encoding uses one record shape per change subtype so that each record
// carries exactly the fields its subtype defines.
type (
	operatorCreationWire struct {
		UniqueID   string         `json:"uniqueID"`
		UpdateType string         `json:"updateType"`
		OpID       int            `json:"opID"`
		OpName     string         `json:"opName"`
		OpData     map[string]any `json:"opData"`
	}

	operatorModificationWire struct {
		UniqueID     string `json:"uniqueID"`
		UpdateType   string `json:"updateType"`
		OpID         int    `json:"opID"`
		OpName       string `json:"opName"`
		ChangedParam string `json:"changedParam"`
		ChangedVal   any    `json:"changedVal"`
	}

	operatorDeletionWire struct {
		UniqueID   string `json:"uniqueID"`
		UpdateType string `json:"updateType"`
		OpID       int    `json:"opID"`
		OpName     string `json:"opName"`
	}

	connectionWire struct {
		UniqueID   string `json:"uniqueID"`
		UpdateType string `json:"updateType"`
		ConID      int    `json:"conID"`
		FromOpID   int    `json:"fromOpID"`
		ToOpID     int    `json:"toOpID"`
		FromSockID int    `json:"fromSockID"`
		ToSockID   int    `json:"toSockID"`
	}
)

// DecodeDebugStep parses one debug-step record.
func DecodeDebugStep(data []byte) (DebugStep, error) {
	var wire wireStep
	if err := json.Unmarshal(data, &wire); err != nil {
		return DebugStep{}, fmt.Errorf("decode debug step: %w", err)
	}

	if wire.UniqueStepID == "" {
		return DebugStep{}, ErrMissingStepID
	}

	stepType, err := domain.ParseOperatorStepType(wire.StepType)
	if err != nil {
		return DebugStep{}, fmt.Errorf("decode debug step %s: %w", wire.UniqueStepID, err)
	}

	metrics := make([]Metric, 0, len(wire.Metrics))
	for _, m := range wire.Metrics {
		metrics = append(metrics, Metric{Name: m.Name, Value: m.Value})
	}

	var changes []PipelineChange

	if wire.Updates != nil {
		changes = make([]PipelineChange, 0, len(wire.Updates))

		for i, raw := range wire.Updates {
			change, err := DecodePipelineChange(raw)
			if err != nil {
				return DebugStep{}, fmt.Errorf("decode debug step %s: update %d: %w", wire.UniqueStepID, i, err)
			}

			changes = append(changes, change)
		}
	}

	return DebugStep{
		ID:             wire.UniqueStepID,
		Timestamp:      wire.TimeStamp,
		BranchID:       wire.BranchID,
		StepID:         wire.StepID,
		ParentBranchID: wire.ParentBranchID,
		OperatorID:     wire.UniqueOpID,
		OperatorName:   wire.OpName,
		StepType:       stepType,
		Metrics:        metrics,
		Changes:        changes,
	}, nil
}

// DecodePipelineChange parses one change record, discriminated by its
// updateType field.
func DecodePipelineChange(data []byte) (PipelineChange, error) {
	var wire wireChange
	if err := json.Unmarshal(data, &wire); err != nil {
		return PipelineChange{}, fmt.Errorf("decode pipeline change: %w", err)
	}

	if wire.UniqueID == "" {
		return PipelineChange{}, ErrMissingChangeID
	}

	changeType, err := domain.ParsePipelineChangeType(wire.UpdateType)
	if err != nil {
		return PipelineChange{}, fmt.Errorf("decode pipeline change %s: %w", wire.UniqueID, err)
	}

	change := PipelineChange{ID: wire.UniqueID, Type: changeType}

	switch changeType {
	case domain.OperatorCreation:
		change.OperatorID = wire.OpID
		change.OperatorName = wire.OpName
		change.OperatorData = wire.OpData
	case domain.OperatorModification:
		change.OperatorID = wire.OpID
		change.OperatorName = wire.OpName
		change.ChangedParameter = wire.ChangedParam
		change.ChangedValue = wire.ChangedVal
	case domain.OperatorDeletion:
		change.OperatorID = wire.OpID
		change.OperatorName = wire.OpName
	case domain.ConnectionCreation, domain.ConnectionDeletion:
		change.ConnectionID = wire.ConID
		change.FromOperatorID = wire.FromOpID
		change.ToOperatorID = wire.ToOpID
		change.FromSocketID = wire.FromSockID
		change.ToSocketID = wire.ToSockID
	}

	return change, nil
}

// EncodeDebugStep serializes a step back to its wire form. Metrics always
// encode as an array, updates as null when the step carries no changes.
func EncodeDebugStep(step DebugStep) ([]byte, error) {
	metrics := make([]wireMetric, 0, len(step.Metrics))
	for _, m := range step.Metrics {
		metrics = append(metrics, wireMetric{Name: m.Name, Value: m.Value})
	}

	var updates []json.RawMessage

	if step.Changes != nil {
		updates = make([]json.RawMessage, 0, len(step.Changes))

		for i, change := range step.Changes {
			raw, err := EncodePipelineChange(change)
			if err != nil {
				return nil, fmt.Errorf("encode debug step %s: update %d: %w", step.ID, i, err)
			}

			updates = append(updates, raw)
		}
	}

	return json.Marshal(wireStep{
		UniqueStepID:   step.ID,
		TimeStamp:      step.Timestamp,
		BranchID:       step.BranchID,
		StepID:         step.StepID,
		ParentBranchID: step.ParentBranchID,
		UniqueOpID:     step.OperatorID,
		OpName:         step.OperatorName,
		StepType:       stepTypeWireName(step.StepType),
		Metrics:        metrics,
		Updates:        updates,
	})
}

// EncodePipelineChange serializes a change back to its wire form with the
// pascal-case updateType spelling.
func EncodePipelineChange(change PipelineChange) ([]byte, error) {
	switch change.Type {
	case domain.OperatorCreation:
		return json.Marshal(operatorCreationWire{
			UniqueID:   change.ID,
			UpdateType: string(change.Type),
			OpID:       change.OperatorID,
			OpName:     change.OperatorName,
			OpData:     change.OperatorData,
		})
	case domain.OperatorModification:
		return json.Marshal(operatorModificationWire{
			UniqueID:     change.ID,
			UpdateType:   string(change.Type),
			OpID:         change.OperatorID,
			OpName:       change.OperatorName,
			ChangedParam: change.ChangedParameter,
			ChangedVal:   change.ChangedValue,
		})
	case domain.OperatorDeletion:
		return json.Marshal(operatorDeletionWire{
			UniqueID:   change.ID,
			UpdateType: string(change.Type),
			OpID:       change.OperatorID,
			OpName:     change.OperatorName,
		})
	case domain.ConnectionCreation, domain.ConnectionDeletion:
		return json.Marshal(connectionWire{
			UniqueID:   change.ID,
			UpdateType: string(change.Type),
			ConID:      change.ConnectionID,
			FromOpID:   change.FromOperatorID,
			ToOpID:     change.ToOperatorID,
			FromSockID: change.FromSocketID,
			ToSockID:   change.ToSocketID,
		})
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChangeType, change.Type)
	}
}

// stepTypeWireName maps a step type to the upper-snake spelling the
// debugger uses on the wire.
func stepTypeWireName(stepType domain.OperatorStepType) string {
	switch stepType {
	case domain.OnSourceProducedTuple:
		return "ON_SOURCE_PRODUCED_TUPLE"
	case domain.OnTupleTransmitted:
		return "ON_TUPLE_TRANSMITTED"
	case domain.OnStreamProcessTuple:
		return "ON_STREAM_PROCESS_TUPLE"
	case domain.PreTupleProcessed:
		return "PRE_TUPLE_PROCESSED"
	case domain.OnTupleProcessed:
		return "ON_TUPLE_PROCESSED"
	case domain.OnOpExecuted:
		return "ON_OP_EXECUTED"
	default:
		return string(stepType)
	}
}

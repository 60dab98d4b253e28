package domain

import (
	"errors"
	"testing"
)

func TestParsePipelineChangeType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PipelineChangeType
		wantErr error
	}{
		{name: "snake operator creation", input: "OPERATOR_CREATION", want: OperatorCreation},
		{name: "pascal operator creation", input: "OperatorCreation", want: OperatorCreation},
		{name: "snake operator modification", input: "OPERATOR_MODIFICATION", want: OperatorModification},
		{name: "pascal operator modification", input: "OperatorModification", want: OperatorModification},
		{name: "snake operator deletion", input: "OPERATOR_DELETION", want: OperatorDeletion},
		{name: "pascal operator deletion", input: "OperatorDeletion", want: OperatorDeletion},
		{name: "snake connection creation", input: "CONNECTION_CREATION", want: ConnectionCreation},
		{name: "pascal connection creation", input: "ConnectionCreation", want: ConnectionCreation},
		{name: "snake connection deletion", input: "CONNECTION_DELETION", want: ConnectionDeletion},
		{name: "pascal connection deletion", input: "ConnectionDeletion", want: ConnectionDeletion},
		{name: "unknown value", input: "OPERATOR_RENAME", wantErr: ErrUnknownChangeType},
		{name: "empty value", input: "", wantErr: ErrUnknownChangeType},
		{name: "wrong case", input: "operator_creation", wantErr: ErrUnknownChangeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePipelineChangeType(tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseOperatorStepType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    OperatorStepType
		wantErr error
	}{
		{name: "snake source produced", input: "ON_SOURCE_PRODUCED_TUPLE", want: OnSourceProducedTuple},
		{name: "pascal source produced", input: "OnSourceProducedTuple", want: OnSourceProducedTuple},
		{name: "snake tuple transmitted", input: "ON_TUPLE_TRANSMITTED", want: OnTupleTransmitted},
		{name: "pascal tuple transmitted", input: "OnTupleTransmitted", want: OnTupleTransmitted},
		{name: "snake stream process", input: "ON_STREAM_PROCESS_TUPLE", want: OnStreamProcessTuple},
		{name: "pascal stream process", input: "OnStreamProcessTuple", want: OnStreamProcessTuple},
		{name: "snake pre processed", input: "PRE_TUPLE_PROCESSED", want: PreTupleProcessed},
		{name: "pascal pre processed", input: "PreTupleProcessed", want: PreTupleProcessed},
		{name: "snake tuple processed", input: "ON_TUPLE_PROCESSED", want: OnTupleProcessed},
		{name: "pascal tuple processed", input: "OnTupleProcessed", want: OnTupleProcessed},
		{name: "snake op executed", input: "ON_OP_EXECUTED", want: OnOpExecuted},
		{name: "pascal op executed", input: "OnOpExecuted", want: OnOpExecuted},
		{name: "unknown value", input: "ON_OP_CRASHED", wantErr: ErrUnknownStepType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOperatorStepType(tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

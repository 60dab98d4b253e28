package ingestion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provinspector-io/provinspector/internal/domain"
)

func TestDebugStepValidate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name    string
		step    DebugStep
		wantErr error
	}{
		{
			name: "valid step",
			step: DebugStep{ID: "s1", StepType: domain.OnOpExecuted},
		},
		{
			name:    "missing id",
			step:    DebugStep{StepType: domain.OnOpExecuted},
			wantErr: ErrMissingStepID,
		},
		{
			name:    "unknown step type",
			step:    DebugStep{ID: "s1", StepType: "OnCoffeeBreak"},
			wantErr: domain.ErrUnknownStepType,
		},
		{
			name: "invalid embedded change",
			step: DebugStep{
				ID:       "s1",
				StepType: domain.OnOpExecuted,
				Changes:  []PipelineChange{{ID: "c1", Type: "Nope"}},
			},
			wantErr: domain.ErrUnknownChangeType,
		},
		{
			name: "change missing id",
			step: DebugStep{
				ID:       "s1",
				StepType: domain.OnOpExecuted,
				Changes:  []PipelineChange{{Type: domain.OperatorCreation}},
			},
			wantErr: ErrMissingChangeID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()

			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPipelineChangeValidate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	valid := PipelineChange{ID: "c1", Type: domain.ConnectionCreation}
	require.NoError(t, valid.Validate())

	missing := PipelineChange{Type: domain.ConnectionCreation}
	require.ErrorIs(t, missing.Validate(), ErrMissingChangeID)

	unknown := PipelineChange{ID: "c1", Type: "ConnectionTeleportation"}
	require.ErrorIs(t, unknown.Validate(), domain.ErrUnknownChangeType)
}

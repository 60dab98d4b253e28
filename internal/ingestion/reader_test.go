package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provinspector-io/provinspector/internal/domain"
)

func TestReadInitDump(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	dump := strings.Join([]string{
		`{"uniqueID": "c1", "updateType": "OPERATOR_CREATION", "opID": 1, "opName": "source", "opData": {}}`,
		``,
		`{"uniqueID": "c2", "updateType": "OPERATOR_CREATION", "opID": 2, "opName": "sink", "opData": {"buffer": 16}}`,
		`{"uniqueID": "c3", "updateType": "CONNECTION_CREATION", "conID": 9, "fromOpID": 1, "toOpID": 2, "fromSockID": 0, "toSockID": 0}`,
	}, "\n")

	changes, err := ReadInitDump(strings.NewReader(dump))
	require.NoError(t, err)

	require.Len(t, changes, 3)
	assert.Equal(t, "c1", changes[0].ID)
	assert.Equal(t, domain.OperatorCreation, changes[0].Type)
	assert.Equal(t, map[string]any{"buffer": float64(16)}, changes[1].OperatorData)
	assert.Equal(t, domain.ConnectionCreation, changes[2].Type)
	assert.Equal(t, 9, changes[2].ConnectionID)
}

func TestReadInitDumpReportsLineNumbers(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	dump := strings.Join([]string{
		`{"uniqueID": "c1", "updateType": "OPERATOR_CREATION", "opID": 1, "opName": "source", "opData": {}}`,
		`{"uniqueID": "c2", "updateType": "OPERATOR_LEVITATION"}`,
	}, "\n")

	_, err := ReadInitDump(strings.NewReader(dump))
	require.ErrorIs(t, err, domain.ErrUnknownChangeType)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadExecutionDump(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	dump := strings.Join([]string{
		`{"uniqueStepID": "s1", "timeStamp": 1, "branchID": 0, "stepID": 0, "parentBranchID": null, "uniqueOpID": 1, "opName": "source", "stepType": "ON_SOURCE_PRODUCED_TUPLE", "metrics": [], "updates": null}`,
		`{"uniqueStepID": "s2", "timeStamp": 2, "branchID": 0, "stepID": 1, "parentBranchID": null, "uniqueOpID": 2, "opName": "sink", "stepType": "ON_OP_EXECUTED", "metrics": [{"name": "throughput", "value": 120.5}], "updates": null}`,
	}, "\n")

	steps, err := ReadExecutionDump(strings.NewReader(dump))
	require.NoError(t, err)

	require.Len(t, steps, 2)
	assert.Equal(t, "s1", steps[0].ID)
	assert.Equal(t, domain.OnSourceProducedTuple, steps[0].StepType)
	assert.Equal(t, "s2", steps[1].ID)
	require.Len(t, steps[1].Metrics, 1)
	assert.Equal(t, Metric{Name: "throughput", Value: 120.5}, steps[1].Metrics[0])
}

func TestReadExecutionDumpPropagatesDecodeErrors(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	dump := `{"uniqueStepID": "s1", "stepType": "ON_COFFEE_BREAK", "metrics": []}`

	_, err := ReadExecutionDump(strings.NewReader(dump))
	require.ErrorIs(t, err, domain.ErrUnknownStepType)
	assert.Contains(t, err.Error(), "line 1")
}

package stream

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provinspector-io/provinspector/internal/domain"
	"github.com/provinspector-io/provinspector/internal/ingestion"
)

// scriptedReader hands out a fixed message sequence, then reports EOF the
// way a closed kafka.Reader does.
type scriptedReader struct {
	msgs    []kafka.Message
	readErr error
	reads   int
	closed  bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}

	if r.readErr != nil {
		return kafka.Message{}, r.readErr
	}

	if r.reads >= len(r.msgs) {
		return kafka.Message{}, io.EOF
	}

	msg := r.msgs[r.reads]
	r.reads++

	return msg, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true

	return nil
}

func encodeStep(t *testing.T, id string) []byte {
	t.Helper()

	data, err := ingestion.EncodeDebugStep(ingestion.DebugStep{
		ID: id, Timestamp: 1, StepType: domain.OnOpExecuted,
	})
	require.NoError(t, err)

	return data
}

func TestKafkaConfigValidate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name    string
		cfg     KafkaConfig
		wantErr error
	}{
		{
			name: "complete",
			cfg:  KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "steps", GroupID: "g"},
		},
		{
			name:    "no brokers",
			cfg:     KafkaConfig{Topic: "steps", GroupID: "g"},
			wantErr: ErrNoBrokers,
		},
		{
			name:    "no topic",
			cfg:     KafkaConfig{Brokers: []string{"localhost:9092"}, GroupID: "g"},
			wantErr: ErrNoTopic,
		},
		{
			name:    "no group",
			cfg:     KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "steps"},
			wantErr: ErrNoGroupID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewKafkaSourceRejectsInvalidConfig(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	_, err := NewKafkaSource(KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.ErrorIs(t, err, ErrNoTopic)
}

func TestNewKafkaSourceBuildsReader(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	source, err := NewKafkaSource(KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "steps",
		GroupID: "g",
	}, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, source)
	require.NoError(t, source.Close())
}

func TestKafkaSourceDeliversStepsInOrder(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	reader := &scriptedReader{msgs: []kafka.Message{
		{Offset: 0, Value: encodeStep(t, "s1")},
		{Offset: 1, Value: encodeStep(t, "s2")},
	}}
	source := &KafkaSource{reader: reader, logger: discardLogger()}
	sink := &recordingSink{}

	require.NoError(t, source.Run(context.Background(), sink))
	assert.Equal(t, []string{"s1", "s2"}, sink.stepIDs())
}

func TestKafkaSourceSkipsUndecodableMessages(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	reader := &scriptedReader{msgs: []kafka.Message{
		{Offset: 0, Value: []byte("{not json}")},
		{Offset: 1, Value: encodeStep(t, "s1")},
	}}
	source := &KafkaSource{reader: reader, logger: discardLogger()}
	sink := &recordingSink{}

	require.NoError(t, source.Run(context.Background(), sink))
	assert.Equal(t, []string{"s1"}, sink.stepIDs())
}

func TestKafkaSourceContinuesPastRejectedEvents(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	reader := &scriptedReader{msgs: []kafka.Message{
		{Offset: 0, Value: encodeStep(t, "s1")},
		{Offset: 1, Value: encodeStep(t, "s2")},
	}}
	source := &KafkaSource{reader: reader, logger: discardLogger()}
	sink := &recordingSink{rejectID: "s1"}

	require.NoError(t, source.Run(context.Background(), sink))
	assert.Equal(t, []string{"s1", "s2"}, sink.stepIDs())
}

func TestKafkaSourceStopsWhenContextCanceled(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &KafkaSource{reader: &scriptedReader{}, logger: discardLogger()}
	sink := &recordingSink{}

	require.NoError(t, source.Run(ctx, sink))
	assert.Empty(t, sink.steps)
}

func TestKafkaSourceSurfacesReaderErrors(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	reader := &scriptedReader{readErr: errors.New("broker down")}
	source := &KafkaSource{reader: reader, logger: discardLogger()}

	err := source.Run(context.Background(), &recordingSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read message")
}

func TestKafkaSourceCloseClosesReader(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	reader := &scriptedReader{}
	source := &KafkaSource{reader: reader, logger: discardLogger()}

	require.NoError(t, source.Close())
	assert.True(t, reader.closed)
}

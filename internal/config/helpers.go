package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	startUpTimeOut = 120 * time.Second

	testGraphUsername = "neo4j"
	testGraphPassword = "neo4jneo4j"
)

// TestGraphStore encapsulates graph database test resources for cleanup.
// Used by integration tests across multiple packages to maintain consistent
// test infrastructure.
type TestGraphStore struct {
	Container *tcneo4j.Neo4jContainer
	BoltURI   string
	Username  string
	Password  string
}

// SetupTestGraphStore creates a Neo4J container and waits until it accepts
// Bolt connections. This is the standard way to set up graph store
// integration tests across all packages.
//
// Usage:
//
//	func TestMyFeature(t *testing.T) {
//		if testing.Short() {
//			t.Skip("skipping integration test in short mode")
//		}
//		ctx := context.Background()
//		store := config.SetupTestGraphStore(ctx, t)
//		t.Cleanup(func() {
//			_ = store.Container.Terminate(ctx)
//		})
//		// ... your test code
//	}
//
// Cleanup is the caller's responsibility using t.Cleanup().
func SetupTestGraphStore(ctx context.Context, t *testing.T) *TestGraphStore {
	t.Helper()

	container, err := tcneo4j.Run(ctx,
		"neo4j:5.26",
		tcneo4j.WithAdminPassword(testGraphPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Started.").WithStartupTimeout(startUpTimeOut),
		),
	)
	require.NoError(t, err, "Failed to start neo4j container")
	require.NotNil(t, container, "neo4j container is nil")

	boltURI, err := container.BoltUrl(ctx)
	require.NoError(t, err, "Failed to get bolt url")

	return &TestGraphStore{
		Container: container,
		BoltURI:   boltURI,
		Username:  testGraphUsername,
		Password:  testGraphPassword,
	}
}

// TestMessageBroker encapsulates Kafka test resources for cleanup.
type TestMessageBroker struct {
	Container *tckafka.KafkaContainer
	Brokers   []string
}

// SetupTestMessageBroker creates a single-node Kafka container for stream
// integration tests. Cleanup is the caller's responsibility using
// t.Cleanup().
func SetupTestMessageBroker(ctx context.Context, t *testing.T) *TestMessageBroker {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("provinspector-test"),
	)
	require.NoError(t, err, "Failed to start kafka container")
	require.NotNil(t, container, "kafka container is nil")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "Failed to get broker addresses")

	return &TestMessageBroker{
		Container: container,
		Brokers:   brokers,
	}
}

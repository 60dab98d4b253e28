package storage

import (
	"errors"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		envVars  map[string]string
		expected *Config
	}{
		{
			name:    "defaults to neo4j container settings",
			envVars: map[string]string{},
			expected: &Config{
				Kind:           Neo4J,
				URI:            DefaultBoltURI,
				Username:       Neo4JDefaultUsername,
				password:       Neo4JDefaultPassword, // pragma: allowlist secret
				Database:       Neo4JDefaultDatabase,
				ConnectRetries: defaultConnectRetries,
			},
		},
		{
			name: "memgraph defaults to anonymous access",
			envVars: map[string]string{
				"GRAPHDB_ADAPTER": "memgraph",
			},
			expected: &Config{
				Kind:           Memgraph,
				URI:            DefaultBoltURI,
				Username:       "",
				password:       "",
				Database:       MemgraphDefaultDatabase,
				ConnectRetries: defaultConnectRetries,
			},
		},
		{
			name: "adapter kind is case insensitive",
			envVars: map[string]string{
				"GRAPHDB_ADAPTER": "Memgraph",
			},
			expected: &Config{
				Kind:           Memgraph,
				URI:            DefaultBoltURI,
				Database:       MemgraphDefaultDatabase,
				ConnectRetries: defaultConnectRetries,
			},
		},
		{
			name: "environment overrides defaults",
			envVars: map[string]string{
				"GRAPHDB_URI":             "bolt://graph.internal:7687",
				"GRAPHDB_USERNAME":        "inspector",
				"GRAPHDB_PASSWORD":        "s3cret", // pragma: allowlist secret
				"GRAPHDB_NAME":            "provenance",
				"GRAPHDB_CONNECT_RETRIES": "5",
			},
			expected: &Config{
				Kind:           Neo4J,
				URI:            "bolt://graph.internal:7687",
				Username:       "inspector",
				password:       "s3cret", // pragma: allowlist secret
				Database:       "provenance",
				ConnectRetries: 5,
			},
		},
		{
			name: "uses default retries for invalid integer environment variables",
			envVars: map[string]string{
				"GRAPHDB_CONNECT_RETRIES": "invalid",
			},
			expected: &Config{
				Kind:           Neo4J,
				URI:            DefaultBoltURI,
				Username:       Neo4JDefaultUsername,
				password:       Neo4JDefaultPassword, // pragma: allowlist secret
				Database:       Neo4JDefaultDatabase,
				ConnectRetries: defaultConnectRetries,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			config := LoadConfig()

			if config.Kind != tt.expected.Kind {
				t.Errorf("Kind = %q, want %q", config.Kind, tt.expected.Kind)
			}

			if config.URI != tt.expected.URI {
				t.Errorf("URI = %q, want %q", config.URI, tt.expected.URI)
			}

			if config.Username != tt.expected.Username {
				t.Errorf("Username = %q, want %q", config.Username, tt.expected.Username)
			}

			if config.password != tt.expected.password {
				t.Errorf("password = %q, want %q", config.password, tt.expected.password)
			}

			if config.Database != tt.expected.Database {
				t.Errorf("Database = %q, want %q", config.Database, tt.expected.Database)
			}

			if config.ConnectRetries != tt.expected.ConnectRetries {
				t.Errorf("ConnectRetries = %d, want %d", config.ConnectRetries, tt.expected.ConnectRetries)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name      string
		config    *Config
		expectErr error
	}{
		{
			name:      "validation passes with neo4j defaults",
			config:    DefaultConfig(Neo4J),
			expectErr: nil,
		},
		{
			name:      "validation passes with memgraph defaults",
			config:    DefaultConfig(Memgraph),
			expectErr: nil,
		},
		{
			name: "validation fails with unknown adapter kind",
			config: &Config{
				Kind:           AdapterKind("dgraph"),
				URI:            DefaultBoltURI,
				ConnectRetries: defaultConnectRetries,
			},
			expectErr: ErrUnknownAdapterKind,
		},
		{
			name: "validation fails with empty URI",
			config: &Config{
				Kind:           Neo4J,
				URI:            "   ",
				ConnectRetries: defaultConnectRetries,
			},
			expectErr: ErrGraphURIEmpty,
		},
		{
			name: "validation fails with zero connect retries",
			config: &Config{
				Kind: Memgraph,
				URI:  DefaultBoltURI,
			},
			expectErr: ErrConnectRetriesInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.expectErr != nil {
				if err == nil {
					t.Errorf("Validate() expected error %v, got nil", tt.expectErr)
				} else if !errors.Is(err, tt.expectErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.expectErr)
				}
			} else {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestMaskPassword(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	withPassword := DefaultConfig(Neo4J)
	if got := withPassword.MaskPassword(); got != "***" {
		t.Errorf("MaskPassword() = %q, want %q", got, "***")
	}

	anonymous := DefaultConfig(Memgraph)
	if got := anonymous.MaskPassword(); got != "" {
		t.Errorf("MaskPassword() = %q, want empty string", got)
	}
}

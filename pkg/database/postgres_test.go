package database

import (
	"testing"
)

func TestNewPostgresConnection(t *testing.T) {
	// This test would require a running PostgreSQL instance
	// For now, we'll just test that the function exists and can be called

	// Test with invalid connection string
	_, err := NewPostgresConnection("invalid-connection-string")
	if err == nil {
		t.Error("Expected error for invalid connection string")
	}
}

func TestPostgresDB_HealthCheck(t *testing.T) {
	// This test would require a running PostgreSQL instance
	// For now, we'll just verify the method signature is correct

	// We can't test the actual health check without a database connection
	// This test just ensures the method exists and compiles
	var _ func(*PostgresDB) error = (*PostgresDB).HealthCheck
	t.Log("HealthCheck method exists and compiles correctly")
}

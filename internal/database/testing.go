package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDSNEnv names the variable holding the DSN of a disposable test database
const TestDSNEnv = "MATCH_PREDICTOR_TEST_DATABASE_DSN"

// SetupTestDB connects to the test database, skipping the test when none is configured
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to prepare test schema: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE model_bundles"); err != nil {
		db.Close()
		t.Fatalf("failed to reset test schema: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}

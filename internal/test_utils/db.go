package test_utils

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/klokku/flextime/internal/database"
)

// SetupTestDB creates a sqlite database in a temporary directory and applies all migrations.
// Each database is completely isolated from others and closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to prepare test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

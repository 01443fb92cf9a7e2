package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flextime.db")

	db, err := OpenAndMigrate(path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM worklog_history").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	t.Run("migrating twice is a no-op", func(t *testing.T) {
		assert.NoError(t, Migrate(db))
	})
}

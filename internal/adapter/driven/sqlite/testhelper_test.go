package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB opens a migrated in-memory database private to the test.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := open(context.Background(), memoryDSN(t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = RunMigrations(db.Writer)
	require.NoError(t, err)

	return db
}

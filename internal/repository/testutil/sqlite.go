package testutil

import (
	"testing"

	"mistral-thing-be/internal/model"
	"mistral-thing-be/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database scoped to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

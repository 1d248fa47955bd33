package testutil

import (
	"testing"

	"github.com/examgrid/gradeflow/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory SQLite database migrated with the
// auxiliary store schema. Each call gets an isolated database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory sqlite database")

	err = db.AutoMigrate(
		&domain.KeySheetRecord{},
		&domain.KeyMetadataRecord{},
	)
	require.NoError(t, err, "failed to migrate auxiliary store schema")

	return db
}

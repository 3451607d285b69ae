// Package sqlitetest opens migrated SQLite stores for tests
package sqlitetest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a fresh store in the test's temp dir. One connection is kept
// open so concurrent callers queue instead of failing with SQLITE_BUSY
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", filepath.Join(t.TempDir(), "bloom.db"))
	db, err := persistence.Open(sqlite.Open(dsn), logger.Gorm(logger.Nop(), gormlogger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, persistence.Migrate(db))
	return db
}

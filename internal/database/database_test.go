package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/company-task-api/internal/config"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	db := openSQLite(t)
	core, logs := observer.New(zap.InfoLevel)

	require.NoError(t, Migrate(db, zap.New(core)))

	for _, model := range Models() {
		assert.True(t, db.Migrator().HasTable(model))
	}
	for _, idx := range compositeIndexes {
		assert.True(t, db.Migrator().HasIndex(idx.table, idx.name), idx.name)
	}
	assert.Equal(t, len(compositeIndexes), logs.FilterMessage("Created index").Len())

	// a second run skips existing indexes
	require.NoError(t, Migrate(db, zap.New(core)))
	assert.Equal(t, len(compositeIndexes), logs.FilterMessage("Created index").Len())
}

func TestScopes(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db, zap.NewNop()))

	tasks := []models.Task{
		{Title: "open", CompanyID: 1, CreatedBy: 1, Status: models.TaskStatusPending},
		{Title: "doing", CompanyID: 1, CreatedBy: 1, Status: models.TaskStatusInProgress},
		{Title: "late", CompanyID: 1, CreatedBy: 1, Status: models.TaskStatusExpired},
		{Title: "done", CompanyID: 1, CreatedBy: 1, Status: models.TaskStatusCompleted},
		{Title: "binned", CompanyID: 1, CreatedBy: 1, Status: models.TaskStatusDeleted, IsDeleted: true},
		{Title: "foreign", CompanyID: 2, CreatedBy: 2, Status: models.TaskStatusPending},
	}
	require.NoError(t, db.Omit("Creator", "Assignments").Create(&tasks).Error)

	titles := func(scopes ...func(*gorm.DB) *gorm.DB) []string {
		var out []string
		require.NoError(t, db.Model(&models.Task{}).Scopes(scopes...).Order("id").Pluck("title", &out).Error)
		return out
	}

	assert.Equal(t, []string{"open", "doing", "late"}, titles(ForTenant("tasks", 1), ActiveTasks))
	assert.Equal(t, []string{"open", "doing"}, titles(ForTenant("tasks", 1), OpenTasks))
	assert.Equal(t, []string{"foreign"}, titles(ForTenant("tasks", 2)))
	assert.Equal(t, []string{"late", "done"}, titles(ForTenant("tasks", 1), Paginate(utils.NewPaginationParams(2, 2))))
	assert.Len(t, titles(Paginate(utils.PaginationParams{})), len(tasks))
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

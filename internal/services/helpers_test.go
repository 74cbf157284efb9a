package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/company-task-api/internal/database"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "test-secret-0123456789"

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestDB opens a migrated in-memory SQLite database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

// testClock is a settable clock.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// failingRecordRepo fails every insert while listing from the wrapped store.
type failingRecordRepo struct {
	repository.RecordRepository
	err error
}

func (f *failingRecordRepo) AddHistory(context.Context, *models.TaskHistory) error {
	return f.err
}

func (f *failingRecordRepo) AddDeleted(context.Context, *models.DeletedTask) error {
	return f.err
}

// racingTaskRepo runs before once ahead of the first Update or MarkExpired,
// standing in for a request that lands between load and write.
type racingTaskRepo struct {
	repository.TaskRepository
	before func()
}

func (r *racingTaskRepo) race() {
	if r.before != nil {
		before := r.before
		r.before = nil
		before()
	}
}

func (r *racingTaskRepo) Update(ctx context.Context, task *models.Task, assigneeIDs []uint64) (bool, error) {
	r.race()
	return r.TaskRepository.Update(ctx, task, assigneeIDs)
}

func (r *racingTaskRepo) MarkExpired(ctx context.Context, id uint64, at time.Time) (bool, error) {
	r.race()
	return r.TaskRepository.MarkExpired(ctx, id, at)
}

func identityOf(u *models.User) Identity {
	return Identity{ID: u.ID, Role: u.Type, TenantID: u.TenantID()}
}

func ptr[T any](v T) *T {
	return &v
}

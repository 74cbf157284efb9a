package database

import (
	"fmt"

	"github.com/yukikurage/company-task-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in creation order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TaskHistory{},
		&models.DeletedTask{},
	}
}

// compositeIndexes backs the list queries that filter on several columns.
var compositeIndexes = []struct {
	table   string
	name    string
	columns string
}{
	{"tasks", "idx_tasks_company_active", "company_id, is_deleted, status"},
	{"tasks", "idx_tasks_company_due", "company_id, to_date"},
	{"task_histories", "idx_task_histories_company_recorded", "company_id, recorded_at"},
	{"deleted_tasks", "idx_deleted_tasks_company_recorded", "company_id, recorded_at"},
}

// Migrate creates or updates the schema and the composite indexes.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := addIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}

func addIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}
	return nil
}

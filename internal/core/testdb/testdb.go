// Package testdb opens throwaway SQLite databases carrying the full schema,
// for repository and end-to-end tests.
package testdb

import (
	"fmt"

	activityDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/activity"
	categoryDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/category"
	notificationDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/notification"
	reimbursementDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/reimbursement"
	tokenDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/token"
	userDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an in-memory database. The pool is pinned to one connection
// because every new SQLite memory connection is a separate, empty database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&userDatamodel.User{},
		&categoryDatamodel.Category{},
		&reimbursementDatamodel.Reimbursement{},
		&activityDatamodel.ActivityLog{},
		&notificationDatamodel.Notification{},
		&tokenDatamodel.RevokedToken{},
	); err != nil {
		return nil, fmt.Errorf("migrate test schema: %w", err)
	}
	return db, nil
}

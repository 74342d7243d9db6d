package db

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a private in-memory SQLite database with foreign keys
// enforced. Each call gets its own named database so parallel tests and
// pooled connections never share state.
func SetupTestDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return db, nil
}

func CleanupTestDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get DB instance: %v", err)
		return
	}
	sqlDB.Close()
}

// TruncateAllTables removes all rows, children first.
func TruncateAllTables(db *gorm.DB) error {
	tables := []string{
		(model.QuoteServiceItem{}).TableName(),
		(model.QuoteRequest{}).TableName(),
		(model.BusinessWorkImage{}).TableName(),
		(model.BusinessService{}).TableName(),
		(model.BusinessLocation{}).TableName(),
		(model.Business{}).TableName(),
		(model.BusinessCategory{}).TableName(),
		(model.User{}).TableName(),
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return err
		}
	}
	return nil
}

package db

import (
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.BusinessCategory{},
		&model.Business{},
		&model.BusinessLocation{},
		&model.BusinessService{},
		&model.BusinessWorkImage{},
		&model.QuoteRequest{},
		&model.QuoteServiceItem{},
	}
}

// Migrate runs schema migrations against the global connection and seeds the
// default categories.
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedCategories(db); err != nil {
		logger.Error("Failed to seed default categories", err)
		return err
	}

	logger.Info("Database migrations completed", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

var defaultCategories = []model.BusinessCategory{
	{Name: "Home Services", Description: "Cleaning, plumbing, electrical and repairs"},
	{Name: "Events", Description: "Planning, catering, decor and photography"},
	{Name: "Construction", Description: "Builders, contractors and interior work"},
	{Name: "Professional Services", Description: "Accounting, legal and consulting"},
	{Name: "Logistics", Description: "Movers, packers and courier services"},
}

// seedCategories inserts the default categories into an empty table.
func seedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.BusinessCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Categories already present, skipping seed", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	for _, c := range defaultCategories {
		category := c
		category.IsActive = true
		if err := db.Create(&category).Error; err != nil {
			logger.Error("Failed to seed category", err, map[string]interface{}{
				"category": category.Name,
			})
			return err
		}
	}

	logger.Info("Default categories seeded", map[string]interface{}{
		"count": len(defaultCategories),
	})
	return nil
}

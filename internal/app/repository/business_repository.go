package repository

import (
	"strings"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

// BusinessFilter narrows the public directory listing. Empty fields match all.
type BusinessFilter struct {
	Query        string // name, tagline, description or service name
	City         string
	CategorySlug string
}

type BusinessRepository interface {
	WithTx(tx *gorm.DB) BusinessRepository
	Create(business *model.Business) error
	Update(business *model.Business) error
	FindByID(id uint) (*model.Business, error)
	FindDetail(categorySlug, slug string) (*model.Business, error)
	FindPublic(filter BusinessFilter) ([]model.Business, error)
	FindByOwner(ownerID uint) ([]model.Business, error)
	SetApproved(id uint, approved bool) error
	SetLocked(id uint, locked bool) error
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) WithTx(tx *gorm.DB) BusinessRepository {
	return &businessRepository{db: tx}
}

func (r *businessRepository) Create(business *model.Business) error {
	logger.Debug("Creating business in database", map[string]interface{}{
		"owner_id":    business.OwnerID,
		"category_id": business.CategoryID,
		"name":        business.Name,
	})

	if err := r.db.Omit("Owner", "Category").Create(business).Error; err != nil {
		logger.Error("Failed to create business in database", err, map[string]interface{}{
			"owner_id": business.OwnerID,
			"name":     business.Name,
		})
		return err
	}

	logger.Debug("Business created in database", map[string]interface{}{
		"business_id": business.ID,
		"slug":        business.Slug,
	})
	return nil
}

func (r *businessRepository) Update(business *model.Business) error {
	if err := r.db.Omit("Owner", "Category", "Locations", "Services", "WorkImages").Save(business).Error; err != nil {
		logger.Error("Failed to update business in database", err, map[string]interface{}{
			"business_id": business.ID,
		})
		return err
	}
	return nil
}

func (r *businessRepository) FindByID(id uint) (*model.Business, error) {
	logger.Debug("Finding business by ID in database", map[string]interface{}{
		"business_id": id,
	})

	var business model.Business
	if err := r.db.Preload("Category").Preload("Owner").First(&business, id).Error; err != nil {
		logger.Error("Failed to find business by ID in database", err, map[string]interface{}{
			"business_id": id,
		})
		return nil, err
	}
	return &business, nil
}

// FindDetail loads a business by its directory address together with its
// active services (sort order, then name), active locations and work images
// (newest first).
func (r *businessRepository) FindDetail(categorySlug, slug string) (*model.Business, error) {
	logger.Debug("Finding business detail in database", map[string]interface{}{
		"category_slug": categorySlug,
		"slug":          slug,
	})

	var business model.Business
	err := r.db.
		Preload("Category").
		Preload("Owner").
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC, name ASC")
		}).
		Preload("Locations", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("id ASC")
		}).
		Preload("WorkImages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Where("slug = ?", slug).
		Where("category_id IN (?)", r.db.Model(&model.BusinessCategory{}).Select("id").Where("slug = ?", categorySlug)).
		First(&business).Error
	if err != nil {
		logger.Error("Failed to find business detail in database", err, map[string]interface{}{
			"category_slug": categorySlug,
			"slug":          slug,
		})
		return nil, err
	}
	return &business, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// FindPublic lists publicly visible businesses by name.
func (r *businessRepository) FindPublic(filter BusinessFilter) ([]model.Business, error) {
	logger.Debug("Finding public businesses", map[string]interface{}{
		"query":    filter.Query,
		"city":     filter.City,
		"category": filter.CategorySlug,
	})

	query := r.db.Model(&model.Business{}).
		Preload("Category").
		Where("is_active = ? AND is_approved = ? AND is_locked = ?", true, true, false)

	if strings.TrimSpace(filter.Query) != "" {
		like := likePattern(filter.Query)
		serviceMatch := r.db.Model(&model.BusinessService{}).Select("business_id").Where("LOWER(name) LIKE ?", like)
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(tagline) LIKE ? OR LOWER(description) LIKE ? OR id IN (?)",
			like, like, like, serviceMatch,
		)
	}
	if strings.TrimSpace(filter.City) != "" {
		cityMatch := r.db.Model(&model.BusinessLocation{}).Select("business_id").Where("LOWER(city) LIKE ?", likePattern(filter.City))
		query = query.Where("id IN (?)", cityMatch)
	}
	if filter.CategorySlug != "" {
		categoryMatch := r.db.Model(&model.BusinessCategory{}).Select("id").Where("slug = ?", filter.CategorySlug)
		query = query.Where("category_id IN (?)", categoryMatch)
	}

	var businesses []model.Business
	if err := query.Order("name ASC").Find(&businesses).Error; err != nil {
		logger.Error("Failed to find public businesses", err, map[string]interface{}{
			"query": filter.Query,
		})
		return nil, err
	}

	logger.Debug("Public businesses found", map[string]interface{}{
		"count": len(businesses),
	})
	return businesses, nil
}

func (r *businessRepository) FindByOwner(ownerID uint) ([]model.Business, error) {
	var businesses []model.Business
	if err := r.db.Preload("Category").Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&businesses).Error; err != nil {
		logger.Error("Failed to find businesses by owner", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return businesses, nil
}

func (r *businessRepository) SetApproved(id uint, approved bool) error {
	return r.setFlag(id, "is_approved", approved)
}

func (r *businessRepository) SetLocked(id uint, locked bool) error {
	return r.setFlag(id, "is_locked", locked)
}

func (r *businessRepository) setFlag(id uint, column string, value bool) error {
	logger.Debug("Updating business flag", map[string]interface{}{
		"business_id": id,
		"column":      column,
		"value":       value,
	})

	result := r.db.Model(&model.Business{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		logger.Error("Failed to update business flag", result.Error, map[string]interface{}{
			"business_id": id,
			"column":      column,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

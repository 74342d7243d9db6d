package repository

import (
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

// CatalogRepository covers the records hanging off a business: categories,
// offered services, locations and work images.
type CatalogRepository interface {
	WithTx(tx *gorm.DB) CatalogRepository

	ListActiveCategories() ([]model.BusinessCategory, error)
	FindCategoryByID(id uint) (*model.BusinessCategory, error)
	FindCategoryByName(name string) (*model.BusinessCategory, error)
	CreateCategory(category *model.BusinessCategory) error

	CreateService(service *model.BusinessService) error
	FindServiceInBusiness(serviceID, businessID uint) (*model.BusinessService, error)
	ListActiveServices(businessID uint) ([]model.BusinessService, error)
	DeleteService(serviceID uint) error

	CreateLocation(location *model.BusinessLocation) error
	FindLocationInBusiness(locationID, businessID uint) (*model.BusinessLocation, error)
	ListActiveLocations(businessID uint) ([]model.BusinessLocation, error)

	CreateWorkImage(image *model.BusinessWorkImage) error
	ListWorkImages(businessID uint) ([]model.BusinessWorkImage, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) WithTx(tx *gorm.DB) CatalogRepository {
	return &catalogRepository{db: tx}
}

func (r *catalogRepository) ListActiveCategories() ([]model.BusinessCategory, error) {
	var categories []model.BusinessCategory
	if err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

func (r *catalogRepository) FindCategoryByID(id uint) (*model.BusinessCategory, error) {
	var category model.BusinessCategory
	if err := r.db.First(&category, id).Error; err != nil {
		logger.Error("Failed to find category by ID", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepository) FindCategoryByName(name string) (*model.BusinessCategory, error) {
	var category model.BusinessCategory
	if err := r.db.Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepository) CreateCategory(category *model.BusinessCategory) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"name": category.Name,
	})

	if err := r.db.Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"name": category.Name,
		})
		return err
	}
	return nil
}

func (r *catalogRepository) CreateService(service *model.BusinessService) error {
	logger.Debug("Creating business service in database", map[string]interface{}{
		"business_id": service.BusinessID,
		"name":        service.Name,
	})

	if err := r.db.Create(service).Error; err != nil {
		logger.Error("Failed to create business service in database", err, map[string]interface{}{
			"business_id": service.BusinessID,
			"name":        service.Name,
		})
		return err
	}
	return nil
}

// FindServiceInBusiness returns gorm.ErrRecordNotFound when the service is
// gone or belongs to another business.
func (r *catalogRepository) FindServiceInBusiness(serviceID, businessID uint) (*model.BusinessService, error) {
	var service model.BusinessService
	err := r.db.Where("id = ? AND business_id = ?", serviceID, businessID).First(&service).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find business service", err, map[string]interface{}{
				"service_id":  serviceID,
				"business_id": businessID,
			})
		}
		return nil, err
	}
	return &service, nil
}

func (r *catalogRepository) ListActiveServices(businessID uint) ([]model.BusinessService, error) {
	var services []model.BusinessService
	err := r.db.Where("business_id = ? AND is_active = ?", businessID, true).
		Order("sort_order ASC, name ASC").
		Find(&services).Error
	if err != nil {
		logger.Error("Failed to list business services", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return services, nil
}

func (r *catalogRepository) DeleteService(serviceID uint) error {
	logger.Debug("Deleting business service from database", map[string]interface{}{
		"service_id": serviceID,
	})

	if err := r.db.Delete(&model.BusinessService{}, serviceID).Error; err != nil {
		logger.Error("Failed to delete business service", err, map[string]interface{}{
			"service_id": serviceID,
		})
		return err
	}
	return nil
}

func (r *catalogRepository) CreateLocation(location *model.BusinessLocation) error {
	logger.Debug("Creating business location in database", map[string]interface{}{
		"business_id": location.BusinessID,
		"city":        location.City,
	})

	if err := r.db.Create(location).Error; err != nil {
		logger.Error("Failed to create business location in database", err, map[string]interface{}{
			"business_id": location.BusinessID,
		})
		return err
	}
	return nil
}

// FindLocationInBusiness returns gorm.ErrRecordNotFound when the location
// does not belong to businessID.
func (r *catalogRepository) FindLocationInBusiness(locationID, businessID uint) (*model.BusinessLocation, error) {
	var location model.BusinessLocation
	err := r.db.Where("id = ? AND business_id = ?", locationID, businessID).First(&location).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find business location", err, map[string]interface{}{
				"location_id": locationID,
				"business_id": businessID,
			})
		}
		return nil, err
	}
	return &location, nil
}

func (r *catalogRepository) ListActiveLocations(businessID uint) ([]model.BusinessLocation, error) {
	var locations []model.BusinessLocation
	if err := r.db.Where("business_id = ? AND is_active = ?", businessID, true).Order("id ASC").Find(&locations).Error; err != nil {
		logger.Error("Failed to list business locations", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return locations, nil
}

func (r *catalogRepository) CreateWorkImage(image *model.BusinessWorkImage) error {
	if err := r.db.Create(image).Error; err != nil {
		logger.Error("Failed to create work image", err, map[string]interface{}{
			"business_id": image.BusinessID,
		})
		return err
	}
	return nil
}

func (r *catalogRepository) ListWorkImages(businessID uint) ([]model.BusinessWorkImage, error) {
	var images []model.BusinessWorkImage
	if err := r.db.Where("business_id = ?", businessID).Order("created_at DESC, id DESC").Find(&images).Error; err != nil {
		logger.Error("Failed to list work images", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return images, nil
}

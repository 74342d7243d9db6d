package repository

import (
	"time"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteFilter narrows an owner's quote listing. Zero values match all.
type QuoteFilter struct {
	Status model.QuoteStatus
	Limit  int
}

type QuoteRepository interface {
	WithTx(tx *gorm.DB) QuoteRepository
	Create(quote *model.QuoteRequest) error
	CreateItem(item *model.QuoteServiceItem) error
	FindByID(id uint) (*model.QuoteRequest, error)
	FindByOwner(ownerID uint, filter QuoteFilter) ([]model.QuoteRequest, error)
	CountByStatusForOwner(ownerID uint) (map[model.QuoteStatus]int64, error)
	UpdateResolution(quote *model.QuoteRequest) error
	FindStale(status model.QuoteStatus, before time.Time) ([]model.QuoteRequest, error)
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) WithTx(tx *gorm.DB) QuoteRepository {
	return &quoteRepository{db: tx}
}

func (r *quoteRepository) preloadQuote() *gorm.DB {
	return r.db.
		Preload("Business").
		Preload("Business.Category").
		Preload("Customer").
		Preload("Location").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.Service")
}

// Create inserts the request row only; items are written with CreateItem.
func (r *quoteRepository) Create(quote *model.QuoteRequest) error {
	logger.Debug("Creating quote request in database", map[string]interface{}{
		"business_id": quote.BusinessID,
		"customer_id": quote.CustomerID,
	})

	if err := r.db.Omit(clause.Associations).Create(quote).Error; err != nil {
		logger.Error("Failed to create quote request in database", err, map[string]interface{}{
			"business_id": quote.BusinessID,
		})
		return err
	}

	logger.Debug("Quote request created in database", map[string]interface{}{
		"quote_id": quote.ID,
	})
	return nil
}

func (r *quoteRepository) CreateItem(item *model.QuoteServiceItem) error {
	if err := r.db.Omit(clause.Associations).Create(item).Error; err != nil {
		logger.Error("Failed to create quote item in database", err, map[string]interface{}{
			"quote_id":   item.QuoteID,
			"service_id": item.ServiceID,
		})
		return err
	}
	return nil
}

func (r *quoteRepository) FindByID(id uint) (*model.QuoteRequest, error) {
	logger.Debug("Finding quote request by ID in database", map[string]interface{}{
		"quote_id": id,
	})

	var quote model.QuoteRequest
	if err := r.preloadQuote().First(&quote, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find quote request by ID in database", err, map[string]interface{}{
				"quote_id": id,
			})
		}
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) ownedBusinessIDs(ownerID uint) *gorm.DB {
	return r.db.Model(&model.Business{}).Select("id").Where("owner_id = ?", ownerID)
}

// FindByOwner lists quotes across every business of ownerID, newest first.
func (r *quoteRepository) FindByOwner(ownerID uint, filter QuoteFilter) ([]model.QuoteRequest, error) {
	logger.Debug("Finding quote requests by owner in database", map[string]interface{}{
		"owner_id": ownerID,
		"status":   filter.Status,
		"limit":    filter.Limit,
	})

	query := r.preloadQuote().
		Where("business_id IN (?)", r.ownedBusinessIDs(ownerID)).
		Order("created_at DESC, id DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var quotes []model.QuoteRequest
	if err := query.Find(&quotes).Error; err != nil {
		logger.Error("Failed to find quote requests by owner in database", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}

	logger.Debug("Quote requests found by owner in database", map[string]interface{}{
		"owner_id": ownerID,
		"count":    len(quotes),
	})
	return quotes, nil
}

func (r *quoteRepository) CountByStatusForOwner(ownerID uint) (map[model.QuoteStatus]int64, error) {
	rows := []struct {
		Status model.QuoteStatus
		Count  int64
	}{}
	err := r.db.Model(&model.QuoteRequest{}).
		Select("status, COUNT(*) as count").
		Where("business_id IN (?)", r.ownedBusinessIDs(ownerID)).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count quote requests by status", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}

	counts := make(map[model.QuoteStatus]int64, len(model.QuoteStatuses))
	for _, s := range model.QuoteStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// UpdateResolution writes the owner-mutable columns in a single statement.
func (r *quoteRepository) UpdateResolution(quote *model.QuoteRequest) error {
	logger.Debug("Updating quote request resolution in database", map[string]interface{}{
		"quote_id": quote.ID,
		"status":   quote.Status,
	})

	err := r.db.Model(quote).
		Updates(map[string]interface{}{
			"status":        quote.Status,
			"quoted_amount": quote.QuotedAmount,
			"owner_notes":   quote.OwnerNotes,
		}).Error
	if err != nil {
		logger.Error("Failed to update quote request in database", err, map[string]interface{}{
			"quote_id": quote.ID,
		})
		return err
	}
	return nil
}

// FindStale returns quotes still in status that were created before the
// cutoff, with their business and owner loaded.
func (r *quoteRepository) FindStale(status model.QuoteStatus, before time.Time) ([]model.QuoteRequest, error) {
	var quotes []model.QuoteRequest
	err := r.db.
		Preload("Business").
		Preload("Business.Owner").
		Where("status = ? AND created_at < ?", status, before).
		Order("created_at ASC").
		Find(&quotes).Error
	if err != nil {
		logger.Error("Failed to find stale quote requests", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}
	return quotes, nil
}

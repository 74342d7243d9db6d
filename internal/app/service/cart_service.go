package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/ikkim/bizmarket-backend/pkg/metrics"
	"gorm.io/gorm"
)

var (
	ErrSessionRequired      = errors.New("session required")
	ErrBusinessNotFound     = errors.New("business not found")
	ErrBusinessNotAvailable = errors.New("business not available")
	ErrServiceNotFound      = errors.New("service not found")
)

// CartService manages the per-session, per-business quote carts.
type CartService interface {
	Read(ctx context.Context, sessionID string, businessID uint) ([]model.CartLine, error)
	Add(ctx context.Context, sessionID string, actor Actor, businessID, serviceID uint, quantity interface{}) ([]model.CartLine, error)
	Remove(ctx context.Context, sessionID string, businessID, serviceID uint) ([]model.CartLine, error)
	Clear(ctx context.Context, sessionID string, businessID uint) error
}

type cartService struct {
	store        repository.CartStore
	businessRepo repository.BusinessRepository
	catalogRepo  repository.CatalogRepository
	metrics      *metrics.Metrics
}

func NewCartService(
	store repository.CartStore,
	businessRepo repository.BusinessRepository,
	catalogRepo repository.CatalogRepository,
	m *metrics.Metrics,
) CartService {
	return &cartService{
		store:        store,
		businessRepo: businessRepo,
		catalogRepo:  catalogRepo,
		metrics:      m,
	}
}

// CoerceQuantity turns a submitted quantity into a positive integer. Values
// that are missing, non-integral or unparseable become 1, and anything below
// 1 is raised to 1.
func CoerceQuantity(v interface{}) int {
	q := 1
	switch n := v.(type) {
	case int:
		q = n
	case int64:
		q = int(n)
	case uint:
		q = int(n)
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) < math.MaxInt32 {
			q = int(n)
		}
	case json.Number:
		if parsed, err := strconv.Atoi(n.String()); err == nil {
			q = parsed
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			q = parsed
		}
	}
	if q < 1 {
		return 1
	}
	return q
}

func (s *cartService) loadBusiness(businessID uint) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return business, nil
}

func (s *cartService) Read(ctx context.Context, sessionID string, businessID uint) ([]model.CartLine, error) {
	if sessionID == "" {
		return []model.CartLine{}, nil
	}
	return s.store.Get(ctx, sessionID, businessID)
}

func (s *cartService) Add(ctx context.Context, sessionID string, actor Actor, businessID, serviceID uint, quantity interface{}) ([]model.CartLine, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrAuthenticationRequired
	}
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	logger.Info("Adding service to quote cart", map[string]interface{}{
		"business_id": businessID,
		"service_id":  serviceID,
		"user_id":     actor.UserID,
	})

	business, err := s.loadBusiness(businessID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(business) {
		logger.Warn("Cart add rejected: business not available", map[string]interface{}{
			"business_id": businessID,
			"user_id":     actor.UserID,
		})
		return nil, ErrBusinessNotAvailable
	}

	service, err := s.catalogRepo.FindServiceInBusiness(serviceID, business.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart add rejected: service not in business", map[string]interface{}{
				"business_id": businessID,
				"service_id":  serviceID,
			})
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	qty := CoerceQuantity(quantity)

	lines, err := s.store.Get(ctx, sessionID, business.ID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if lines[i].ServiceID == service.ID {
			lines[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, model.CartLine{
			ServiceID: service.ID,
			Name:      service.Name,
			Quantity:  qty,
		})
	}

	if err := s.store.Save(ctx, sessionID, business.ID, lines); err != nil {
		return nil, err
	}
	s.metrics.CartMutation("add")

	logger.Info("Service added to quote cart", map[string]interface{}{
		"business_id": business.ID,
		"service_id":  service.ID,
		"quantity":    qty,
		"lines":       len(lines),
	})
	return lines, nil
}

func (s *cartService) Remove(ctx context.Context, sessionID string, businessID, serviceID uint) ([]model.CartLine, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	if _, err := s.loadBusiness(businessID); err != nil {
		return nil, err
	}

	lines, err := s.store.Get(ctx, sessionID, businessID)
	if err != nil {
		return nil, err
	}

	kept := make([]model.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.ServiceID != serviceID {
			kept = append(kept, line)
		}
	}

	if err := s.store.Save(ctx, sessionID, businessID, kept); err != nil {
		return nil, err
	}
	s.metrics.CartMutation("remove")

	logger.Info("Service removed from quote cart", map[string]interface{}{
		"business_id": businessID,
		"service_id":  serviceID,
		"removed":     len(lines) - len(kept),
	})
	return kept, nil
}

func (s *cartService) Clear(ctx context.Context, sessionID string, businessID uint) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Clear(ctx, sessionID, businessID); err != nil {
		return err
	}
	s.metrics.CartMutation("clear")
	return nil
}

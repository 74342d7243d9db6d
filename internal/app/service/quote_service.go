package service

import (
	"context"
	"errors"
	"fmt"
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
	ErrEmptyCart               = errors.New("cart is empty")
	ErrQuoteNotFound           = errors.New("quote request not found")
	ErrQuoteAccessDenied       = errors.New("not allowed to access this quote")
	ErrInvalidQuotedAmount     = errors.New("invalid quoted amount")
	ErrInvalidQuoteStatus      = errors.New("invalid quote status")
	ErrInvalidStatusTransition = errors.New("quote status transition not allowed")
)

// QuoteForm is the customer contact form submitted with a cart.
type QuoteForm struct {
	FullName          string `json:"full_name" validate:"required,max=140"`
	Email             string `json:"email" validate:"required,email,max=254"`
	Phone             string `json:"phone" validate:"max=32"`
	AdditionalDetails string `json:"additional_details"`
	LocationID        *uint  `json:"location_id"`
}

// QuoteUpdate is the owner's resolution input. Empty Status keeps the current
// status and empty QuotedAmount keeps the current amount; OwnerNotes always
// replaces the stored notes.
type QuoteUpdate struct {
	Status       string
	QuotedAmount string
	OwnerNotes   string
}

// QuoteFormView is what a customer needs to fill in the quote form.
type QuoteFormView struct {
	Business  *model.Business          `json:"business"`
	Initial   QuoteForm                `json:"initial"`
	CartItems []model.CartLine         `json:"cart_items"`
	Locations []model.BusinessLocation `json:"locations"`
}

// OwnerDashboard lists an owner's businesses and their latest quotes.
type OwnerDashboard struct {
	Businesses   []model.Business            `json:"businesses"`
	Quotes       []model.QuoteRequest        `json:"quotes"`
	StatusCounts map[model.QuoteStatus]int64 `json:"status_counts"`
}

type QuoteService interface {
	Prefill(ctx context.Context, sessionID string, actor Actor, businessID uint) (*QuoteFormView, error)
	Submit(ctx context.Context, sessionID string, actor Actor, businessID uint, form QuoteForm) (*model.QuoteRequest, error)
	ViewQuote(actor Actor, quoteID uint) (*model.QuoteRequest, error)
	OwnerQuote(actor Actor, quoteID uint) (*model.QuoteRequest, error)
	SetStatus(actor Actor, quoteID uint, update QuoteUpdate) (*model.QuoteRequest, error)
	OwnerDashboard(actor Actor) (*OwnerDashboard, error)
	OwnerQuotes(actor Actor, status model.QuoteStatus) ([]model.QuoteRequest, error)
	ExportOwnerQuotes(actor Actor, status model.QuoteStatus) ([]byte, error)
}

// QuoteOptions carries the configurable parts of the quote lifecycle.
type QuoteOptions struct {
	StrictTransitions bool
	DashboardLimit    int
}

type quoteService struct {
	db           *gorm.DB
	quoteRepo    repository.QuoteRepository
	businessRepo repository.BusinessRepository
	catalogRepo  repository.CatalogRepository
	userRepo     repository.UserRepository
	cartStore    repository.CartStore
	notifier     QuoteNotifier
	metrics      *metrics.Metrics
	opts         QuoteOptions
}

func NewQuoteService(
	db *gorm.DB,
	quoteRepo repository.QuoteRepository,
	businessRepo repository.BusinessRepository,
	catalogRepo repository.CatalogRepository,
	userRepo repository.UserRepository,
	cartStore repository.CartStore,
	notifier QuoteNotifier,
	m *metrics.Metrics,
	opts QuoteOptions,
) QuoteService {
	if opts.DashboardLimit <= 0 {
		opts.DashboardLimit = 50
	}
	return &quoteService{
		db:           db,
		quoteRepo:    quoteRepo,
		businessRepo: businessRepo,
		catalogRepo:  catalogRepo,
		userRepo:     userRepo,
		cartStore:    cartStore,
		notifier:     notifier,
		metrics:      m,
		opts:         opts,
	}
}

// loadRequestableBusiness applies the shared preconditions of Prefill and
// Submit: the actor is signed in, the business exists, the actor may see it
// and the cart is not empty.
func (s *quoteService) loadRequestableBusiness(ctx context.Context, sessionID string, actor Actor, businessID uint) (*model.Business, []model.CartLine, error) {
	if !actor.IsAuthenticated() {
		return nil, nil, ErrAuthenticationRequired
	}

	business, err := s.businessRepo.FindByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrBusinessNotFound
		}
		return nil, nil, err
	}
	if !actor.CanSee(business) {
		logger.Warn("Quote request rejected: business not available", map[string]interface{}{
			"business_id": businessID,
			"user_id":     actor.UserID,
		})
		return nil, nil, ErrBusinessNotAvailable
	}

	lines := []model.CartLine{}
	if sessionID != "" {
		lines, err = s.cartStore.Get(ctx, sessionID, business.ID)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(lines) == 0 {
		logger.Warn("Quote request rejected: empty cart", map[string]interface{}{
			"business_id": businessID,
			"user_id":     actor.UserID,
		})
		return nil, nil, ErrEmptyCart
	}
	return business, lines, nil
}

func (s *quoteService) Prefill(ctx context.Context, sessionID string, actor Actor, businessID uint) (*QuoteFormView, error) {
	business, lines, err := s.loadRequestableBusiness(ctx, sessionID, actor, businessID)
	if err != nil {
		return nil, err
	}

	locations, err := s.catalogRepo.ListActiveLocations(business.ID)
	if err != nil {
		return nil, err
	}

	view := &QuoteFormView{
		Business:  business,
		CartItems: lines,
		Locations: locations,
	}
	if user, err := s.userRepo.FindByID(actor.UserID); err == nil {
		view.Initial.FullName = user.DisplayName()
		view.Initial.Email = user.Email
	}
	return view, nil
}

// Submit turns the session cart into a QuoteRequest with one item per cart
// line. The request, its location lookup and its items are written in one
// transaction; the cart is cleared only after commit.
func (s *quoteService) Submit(ctx context.Context, sessionID string, actor Actor, businessID uint, form QuoteForm) (*model.QuoteRequest, error) {
	logger.Info("Submitting quote request", map[string]interface{}{
		"business_id": businessID,
		"user_id":     actor.UserID,
	})

	business, lines, err := s.loadRequestableBusiness(ctx, sessionID, actor, businessID)
	if err != nil {
		return nil, err
	}

	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	if err := validateStruct(form); err != nil {
		logger.Warn("Quote request rejected: invalid contact form", map[string]interface{}{
			"business_id": businessID,
			"error":       err.Error(),
		})
		return nil, err
	}

	quote := &model.QuoteRequest{
		BusinessID:        business.ID,
		FullName:          form.FullName,
		Email:             form.Email,
		Phone:             form.Phone,
		AdditionalDetails: form.AdditionalDetails,
		Status:            model.QuoteStatusNew,
		CustomerID:        &actor.UserID,
	}

	if err := s.persistQuote(quote, business, form.LocationID, lines); err != nil {
		logger.Error("Failed to persist quote request", err, map[string]interface{}{
			"business_id": business.ID,
		})
		return nil, err
	}

	if err := s.cartStore.Clear(ctx, sessionID, business.ID); err != nil {
		logger.Warn("Quote saved but cart could not be cleared", map[string]interface{}{
			"quote_id":    quote.ID,
			"business_id": business.ID,
			"error":       err.Error(),
		})
	}
	s.metrics.QuoteSubmitted()

	saved, err := s.quoteRepo.FindByID(quote.ID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.QuoteCreated(saved, business)
	}

	logger.Info("Quote request submitted", map[string]interface{}{
		"quote_id":    saved.ID,
		"business_id": business.ID,
		"items":       len(saved.Items),
	})
	return saved, nil
}

func (s *quoteService) persistQuote(quote *model.QuoteRequest, business *model.Business, locationID *uint, lines []model.CartLine) (err error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	quotes := s.quoteRepo.WithTx(tx)
	catalog := s.catalogRepo.WithTx(tx)

	if locationID != nil {
		location, lookupErr := catalog.FindLocationInBusiness(*locationID, business.ID)
		switch {
		case lookupErr == nil:
			quote.LocationID = &location.ID
		case errors.Is(lookupErr, gorm.ErrRecordNotFound):
			logger.Debug("Ignoring location outside business", map[string]interface{}{
				"location_id": *locationID,
				"business_id": business.ID,
			})
		default:
			return lookupErr
		}
	}

	if err = quotes.Create(quote); err != nil {
		return fmt.Errorf("create quote request: %w", err)
	}

	for _, line := range lines {
		item := &model.QuoteServiceItem{
			QuoteID:     quote.ID,
			CustomLabel: line.Name,
			Quantity:    line.Quantity,
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}

		service, lookupErr := catalog.FindServiceInBusiness(line.ServiceID, business.ID)
		switch {
		case lookupErr == nil:
			item.ServiceID = &service.ID
		case errors.Is(lookupErr, gorm.ErrRecordNotFound):
			logger.Debug("Cart service no longer available, keeping label", map[string]interface{}{
				"service_id": line.ServiceID,
				"label":      line.Name,
			})
		default:
			return lookupErr
		}

		if err = quotes.CreateItem(item); err != nil {
			return fmt.Errorf("create quote item: %w", err)
		}
	}

	return tx.Commit().Error
}

func (s *quoteService) loadQuote(quoteID uint) (*model.QuoteRequest, error) {
	quote, err := s.quoteRepo.FindByID(quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return quote, nil
}

// ViewQuote is open to the linked customer, the business owner and
// superusers.
func (s *quoteService) ViewQuote(actor Actor, quoteID uint) (*model.QuoteRequest, error) {
	quote, err := s.loadQuote(quoteID)
	if err != nil {
		return nil, err
	}

	isCustomer := quote.CustomerID != nil && actor.IsAuthenticated() && *quote.CustomerID == actor.UserID
	if !isCustomer && !actor.CanManage(&quote.Business) {
		logger.Warn("Quote view denied", map[string]interface{}{
			"quote_id": quoteID,
			"user_id":  actor.UserID,
		})
		return nil, ErrQuoteAccessDenied
	}
	return quote, nil
}

func (s *quoteService) ownerQuote(actor Actor, quoteID uint) (*model.QuoteRequest, error) {
	quote, err := s.loadQuote(quoteID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAuthenticated() || quote.Business.OwnerID != actor.UserID {
		logger.Warn("Owner quote access denied", map[string]interface{}{
			"quote_id": quoteID,
			"user_id":  actor.UserID,
		})
		return nil, ErrQuoteAccessDenied
	}
	return quote, nil
}

func (s *quoteService) OwnerQuote(actor Actor, quoteID uint) (*model.QuoteRequest, error) {
	return s.ownerQuote(actor, quoteID)
}

// MaxQuotedAmount is the largest amount the decimal(10,2) column holds.
const MaxQuotedAmount = 99999999.99

// ParseQuotedAmount parses a decimal amount rounded to cents. Empty input
// yields nil.
func ParseQuotedAmount(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return nil, ErrInvalidQuotedAmount
	}
	rounded := math.Round(value*100) / 100
	if math.IsInf(rounded, 0) || rounded > MaxQuotedAmount {
		return nil, ErrInvalidQuotedAmount
	}
	return &rounded, nil
}

// SetStatus applies an owner's resolution. Every input is checked before
// anything is written, so a rejected update leaves the quote untouched.
func (s *quoteService) SetStatus(actor Actor, quoteID uint, update QuoteUpdate) (*model.QuoteRequest, error) {
	logger.Info("Updating quote request", map[string]interface{}{
		"quote_id": quoteID,
		"user_id":  actor.UserID,
		"status":   update.Status,
	})

	quote, err := s.ownerQuote(actor, quoteID)
	if err != nil {
		return nil, err
	}

	next := quote.Status
	if status := strings.TrimSpace(update.Status); status != "" {
		next = model.QuoteStatus(status)
		if !next.IsValid() {
			logger.Warn("Quote update rejected: unknown status", map[string]interface{}{
				"quote_id": quoteID,
				"status":   status,
			})
			return nil, ErrInvalidQuoteStatus
		}
	}
	if s.opts.StrictTransitions && !quote.Status.CanTransitionTo(next) {
		logger.Warn("Quote update rejected: transition not allowed", map[string]interface{}{
			"quote_id": quoteID,
			"from":     quote.Status,
			"to":       next,
		})
		return nil, ErrInvalidStatusTransition
	}

	amount, err := ParseQuotedAmount(update.QuotedAmount)
	if err != nil {
		logger.Warn("Quote update rejected: invalid amount", map[string]interface{}{
			"quote_id": quoteID,
			"amount":   update.QuotedAmount,
		})
		return nil, err
	}

	quote.Status = next
	quote.OwnerNotes = update.OwnerNotes
	if amount != nil {
		quote.QuotedAmount = amount
	}

	if err := s.quoteRepo.UpdateResolution(quote); err != nil {
		return nil, err
	}
	s.metrics.QuoteStatusChanged(string(quote.Status))
	if s.notifier != nil {
		s.notifier.QuoteUpdated(quote)
	}

	logger.Info("Quote request updated", map[string]interface{}{
		"quote_id": quote.ID,
		"status":   quote.Status,
	})
	return quote, nil
}

func (s *quoteService) OwnerDashboard(actor Actor) (*OwnerDashboard, error) {
	businesses, err := s.businessRepo.FindByOwner(actor.UserID)
	if err != nil {
		return nil, err
	}
	quotes, err := s.quoteRepo.FindByOwner(actor.UserID, repository.QuoteFilter{Limit: s.opts.DashboardLimit})
	if err != nil {
		return nil, err
	}
	counts, err := s.quoteRepo.CountByStatusForOwner(actor.UserID)
	if err != nil {
		return nil, err
	}

	logger.Info("Owner dashboard loaded", map[string]interface{}{
		"user_id":    actor.UserID,
		"businesses": len(businesses),
		"quotes":     len(quotes),
	})
	return &OwnerDashboard{
		Businesses:   businesses,
		Quotes:       quotes,
		StatusCounts: counts,
	}, nil
}

// OwnerQuotes lists every quote of the actor's businesses, optionally by
// status.
func (s *quoteService) OwnerQuotes(actor Actor, status model.QuoteStatus) ([]model.QuoteRequest, error) {
	if status != "" && !status.IsValid() {
		return nil, ErrInvalidQuoteStatus
	}
	return s.quoteRepo.FindByOwner(actor.UserID, repository.QuoteFilter{Status: status})
}

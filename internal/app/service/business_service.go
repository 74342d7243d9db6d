package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrBusinessLocked      = errors.New("business is not publicly visible")
	ErrBusinessAccess      = errors.New("not allowed to manage this business")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryExists      = errors.New("category already exists")
	ErrWorkImageForeignURL = errors.New("image url outside upload storage")
)

const defaultCountry = "India"

// BusinessDetail is the public page of a business.
type BusinessDetail struct {
	Business  *model.Business           `json:"business"`
	Services  []model.BusinessService   `json:"services"`
	Locations []model.BusinessLocation  `json:"locations"`
	Photos    []model.BusinessWorkImage `json:"photos"`
	CartItems []model.CartLine          `json:"cart_items"`
}

type LocationInput struct {
	Label         string `json:"label" validate:"max=120"`
	AddressLine1  string `json:"address_line1" validate:"required,max=200"`
	AddressLine2  string `json:"address_line2" validate:"max=200"`
	City          string `json:"city" validate:"required,max=120"`
	State         string `json:"state" validate:"max=120"`
	Pincode       string `json:"pincode" validate:"max=12"`
	Country       string `json:"country" validate:"max=80"`
	GoogleMapsURL string `json:"google_maps_url" validate:"omitempty,url"`
}

// PartnerRegistration is a new business plus its first location.
type PartnerRegistration struct {
	CategoryID    uint          `json:"category_id" validate:"required"`
	Name          string        `json:"name" validate:"required,max=140"`
	Tagline       string        `json:"tagline" validate:"max=200"`
	Description   string        `json:"description"`
	CoverImageURL string        `json:"cover_image_url" validate:"omitempty,url"`
	ContactEmail  string        `json:"contact_email" validate:"omitempty,email"`
	ContactPhone  string        `json:"contact_phone" validate:"max=32"`
	WebsiteURL    string        `json:"website_url" validate:"omitempty,url"`
	Location      LocationInput `json:"location"`
}

type ServiceInput struct {
	Name        string   `json:"name" validate:"required,max=160"`
	Description string   `json:"description"`
	BasePrice   *float64 `json:"base_price" validate:"omitempty,gte=0"`
	UnitLabel   string   `json:"unit_label" validate:"max=60"`
	SortOrder   int      `json:"sort_order" validate:"gte=0"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
	IconClass   string `json:"icon_class" validate:"max=80"`
}

type BusinessService interface {
	ListCategories() ([]model.BusinessCategory, error)
	ListPublic(filter repository.BusinessFilter) ([]model.Business, error)
	Detail(ctx context.Context, sessionID string, actor Actor, categorySlug, slug string) (*BusinessDetail, error)
	RegisterPartner(actor Actor, input PartnerRegistration) (*model.Business, error)
	AddService(actor Actor, businessID uint, input ServiceInput) (*model.BusinessService, error)
	AddLocation(actor Actor, businessID uint, input LocationInput) (*model.BusinessLocation, error)
	AddWorkImage(actor Actor, businessID uint, imageURL, caption string) (*model.BusinessWorkImage, error)
	ManagedBusiness(actor Actor, businessID uint) (*model.Business, error)
	SetApproval(businessID uint, approved bool) (*model.Business, error)
	SetLocked(businessID uint, locked bool) (*model.Business, error)
	CreateCategory(input CategoryInput) (*model.BusinessCategory, error)
}

type businessService struct {
	db           *gorm.DB
	businessRepo repository.BusinessRepository
	catalogRepo  repository.CatalogRepository
	cartStore    repository.CartStore
	imageBaseURL string
}

func NewBusinessService(
	db *gorm.DB,
	businessRepo repository.BusinessRepository,
	catalogRepo repository.CatalogRepository,
	cartStore repository.CartStore,
	imageBaseURL string,
) BusinessService {
	return &businessService{
		db:           db,
		businessRepo: businessRepo,
		catalogRepo:  catalogRepo,
		cartStore:    cartStore,
		imageBaseURL: strings.TrimSuffix(imageBaseURL, "/"),
	}
}

func (s *businessService) ListCategories() ([]model.BusinessCategory, error) {
	return s.catalogRepo.ListActiveCategories()
}

func (s *businessService) ListPublic(filter repository.BusinessFilter) ([]model.Business, error) {
	businesses, err := s.businessRepo.FindPublic(filter)
	if err != nil {
		return nil, err
	}
	logger.Info("Directory listed", map[string]interface{}{
		"query":    filter.Query,
		"city":     filter.City,
		"category": filter.CategorySlug,
		"count":    len(businesses),
	})
	return businesses, nil
}

// Detail returns ErrBusinessLocked for businesses hidden from the public
// unless the actor owns the business or is a superuser.
func (s *businessService) Detail(ctx context.Context, sessionID string, actor Actor, categorySlug, slug string) (*BusinessDetail, error) {
	business, err := s.businessRepo.FindDetail(categorySlug, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}

	if !actor.CanSee(business) {
		logger.Warn("Business detail locked", map[string]interface{}{
			"business_id": business.ID,
			"user_id":     actor.UserID,
		})
		business.Services, business.Locations, business.WorkImages = nil, nil, nil
		return &BusinessDetail{Business: business}, ErrBusinessLocked
	}

	cart := []model.CartLine{}
	if sessionID != "" {
		if cart, err = s.cartStore.Get(ctx, sessionID, business.ID); err != nil {
			return nil, err
		}
	}

	return &BusinessDetail{
		Business:  business,
		Services:  business.Services,
		Locations: business.Locations,
		Photos:    business.WorkImages,
		CartItems: cart,
	}, nil
}

func (l LocationInput) toModel(businessID uint) *model.BusinessLocation {
	country := strings.TrimSpace(l.Country)
	if country == "" {
		country = defaultCountry
	}
	return &model.BusinessLocation{
		BusinessID:    businessID,
		Label:         strings.TrimSpace(l.Label),
		AddressLine1:  strings.TrimSpace(l.AddressLine1),
		AddressLine2:  strings.TrimSpace(l.AddressLine2),
		City:          strings.TrimSpace(l.City),
		State:         strings.TrimSpace(l.State),
		Pincode:       strings.TrimSpace(l.Pincode),
		Country:       country,
		GoogleMapsURL: strings.TrimSpace(l.GoogleMapsURL),
		IsActive:      true,
	}
}

// RegisterPartner creates an active, unapproved business and its first
// location together.
func (s *businessService) RegisterPartner(actor Actor, input PartnerRegistration) (*model.Business, error) {
	logger.Info("Registering partner business", map[string]interface{}{
		"user_id":     actor.UserID,
		"name":        input.Name,
		"category_id": input.CategoryID,
	})

	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if _, err := s.catalogRepo.FindCategoryByID(input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	business := &model.Business{
		OwnerID:       actor.UserID,
		CategoryID:    input.CategoryID,
		Name:          strings.TrimSpace(input.Name),
		Tagline:       strings.TrimSpace(input.Tagline),
		Description:   input.Description,
		CoverImageURL: input.CoverImageURL,
		ContactEmail:  input.ContactEmail,
		ContactPhone:  input.ContactPhone,
		WebsiteURL:    input.WebsiteURL,
		IsActive:      true,
		IsApproved:    false,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.businessRepo.WithTx(tx).Create(business); err != nil {
			return err
		}
		location := input.Location.toModel(business.ID)
		if err := s.catalogRepo.WithTx(tx).CreateLocation(location); err != nil {
			return err
		}
		business.Locations = []model.BusinessLocation{*location}
		return nil
	})
	if err != nil {
		logger.Error("Failed to register partner business", err, map[string]interface{}{
			"user_id": actor.UserID,
		})
		return nil, err
	}

	logger.Info("Partner business registered, awaiting approval", map[string]interface{}{
		"business_id": business.ID,
		"slug":        business.Slug,
	})
	return business, nil
}

// ManagedBusiness loads a business the actor may edit.
func (s *businessService) ManagedBusiness(actor Actor, businessID uint) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if !actor.CanManage(business) {
		logger.Warn("Business management denied", map[string]interface{}{
			"business_id": businessID,
			"user_id":     actor.UserID,
		})
		return nil, ErrBusinessAccess
	}
	return business, nil
}

func (s *businessService) AddService(actor Actor, businessID uint, input ServiceInput) (*model.BusinessService, error) {
	business, err := s.ManagedBusiness(actor, businessID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	service := &model.BusinessService{
		BusinessID:  business.ID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		BasePrice:   input.BasePrice,
		UnitLabel:   input.UnitLabel,
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	if err := s.catalogRepo.CreateService(service); err != nil {
		return nil, err
	}

	logger.Info("Business service added", map[string]interface{}{
		"business_id": business.ID,
		"service_id":  service.ID,
	})
	return service, nil
}

func (s *businessService) AddLocation(actor Actor, businessID uint, input LocationInput) (*model.BusinessLocation, error) {
	business, err := s.ManagedBusiness(actor, businessID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	location := input.toModel(business.ID)
	if err := s.catalogRepo.CreateLocation(location); err != nil {
		return nil, err
	}

	logger.Info("Business location added", map[string]interface{}{
		"business_id": business.ID,
		"location_id": location.ID,
	})
	return location, nil
}

// AddWorkImage records an uploaded image. The URL must point into the
// configured upload storage.
func (s *businessService) AddWorkImage(actor Actor, businessID uint, imageURL, caption string) (*model.BusinessWorkImage, error) {
	business, err := s.ManagedBusiness(actor, businessID)
	if err != nil {
		return nil, err
	}

	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, newFieldError("image_url", "This field is required.")
	}
	if s.imageBaseURL != "" && !strings.HasPrefix(imageURL, s.imageBaseURL+"/") {
		return nil, ErrWorkImageForeignURL
	}
	if len(caption) > 200 {
		return nil, newFieldError("caption", "Ensure this value has at most 200 characters.")
	}

	image := &model.BusinessWorkImage{
		BusinessID: business.ID,
		ImageURL:   imageURL,
		Caption:    strings.TrimSpace(caption),
	}
	if err := s.catalogRepo.CreateWorkImage(image); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *businessService) SetApproval(businessID uint, approved bool) (*model.Business, error) {
	return s.setFlag(businessID, "approved", approved, s.businessRepo.SetApproved)
}

func (s *businessService) SetLocked(businessID uint, locked bool) (*model.Business, error) {
	return s.setFlag(businessID, "locked", locked, s.businessRepo.SetLocked)
}

func (s *businessService) setFlag(businessID uint, name string, value bool, set func(uint, bool) error) (*model.Business, error) {
	if err := set(businessID, value); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}

	logger.Info("Business moderation flag changed", map[string]interface{}{
		"business_id": businessID,
		"flag":        name,
		"value":       value,
	})
	return s.businessRepo.FindByID(businessID)
}

func (s *businessService) CreateCategory(input CategoryInput) (*model.BusinessCategory, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if _, err := s.catalogRepo.FindCategoryByName(name); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &model.BusinessCategory{
		Name:        name,
		Description: input.Description,
		IconClass:   input.IconClass,
		IsActive:    true,
	}
	if err := s.catalogRepo.CreateCategory(category); err != nil {
		return nil, err
	}

	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return category, nil
}

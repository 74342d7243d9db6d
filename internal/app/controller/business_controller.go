package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	apperrors "github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
)

type BusinessController struct {
	businessService service.BusinessService
}

func NewBusinessController(businessService service.BusinessService) *BusinessController {
	return &BusinessController{
		businessService: businessService,
	}
}

type AddWorkImageRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
	Caption  string `json:"caption"`
}

// ListCategories returns active categories
// GET /api/v1/categories
func (ctrl *BusinessController) ListCategories(c *gin.Context) {
	categories, err := ctrl.businessService.ListCategories()
	if err != nil {
		respondServiceError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// ListBusinesses is the public directory
// GET /api/v1/businesses?q=&city=&category=
func (ctrl *BusinessController) ListBusinesses(c *gin.Context) {
	filter := repository.BusinessFilter{
		Query:        strings.TrimSpace(c.Query("q")),
		City:         strings.TrimSpace(c.Query("city")),
		CategorySlug: strings.TrimSpace(c.Query("category")),
	}

	businesses, err := ctrl.businessService.ListPublic(filter)
	if err != nil {
		respondServiceError(c, err, "list businesses")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
		"filters":    filter,
	})
}

// GetBusinessDetail shows a business page with the session's cart
// GET /api/v1/directory/:category_slug/:slug
func (ctrl *BusinessController) GetBusinessDetail(c *gin.Context) {
	detail, err := ctrl.businessService.Detail(
		c.Request.Context(),
		middleware.GetSessionID(c),
		currentActor(c),
		c.Param("category_slug"),
		c.Param("slug"),
	)
	if errors.Is(err, service.ErrBusinessLocked) && detail != nil && detail.Business != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":    apperrors.BusinessLocked,
			"message":  "This business is not publicly visible yet",
			"locked":   true,
			"business": gin.H{"id": detail.Business.ID, "name": detail.Business.Name, "slug": detail.Business.Slug},
		})
		return
	}
	if err != nil {
		respondServiceError(c, err, "view business")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// RegisterPartner creates a business with its first location
// POST /api/v1/partner/register
func (ctrl *BusinessController) RegisterPartner(c *gin.Context) {
	var req service.PartnerRegistration
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.businessService.RegisterPartner(currentActor(c), req)
	if err != nil {
		respondServiceError(c, err, "register business")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Business submitted for approval",
		"business": business,
	})
}

// AddService adds a service to an owned business
// POST /api/v1/owner/businesses/:id/services
func (ctrl *BusinessController) AddService(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.ServiceInput
	if !bindJSON(c, &req) {
		return
	}

	created, err := ctrl.businessService.AddService(currentActor(c), businessID, req)
	if err != nil {
		respondServiceError(c, err, "create service")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"service": created})
}

// AddLocation adds a location to an owned business
// POST /api/v1/owner/businesses/:id/locations
func (ctrl *BusinessController) AddLocation(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.LocationInput
	if !bindJSON(c, &req) {
		return
	}

	location, err := ctrl.businessService.AddLocation(currentActor(c), businessID, req)
	if err != nil {
		respondServiceError(c, err, "create location")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": location})
}

// AddWorkImage records an uploaded portfolio image
// POST /api/v1/owner/businesses/:id/images
func (ctrl *BusinessController) AddWorkImage(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddWorkImageRequest
	if !bindJSON(c, &req) {
		return
	}

	image, err := ctrl.businessService.AddWorkImage(currentActor(c), businessID, req.ImageURL, req.Caption)
	if err != nil {
		respondServiceError(c, err, "create work image")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image": image})
}

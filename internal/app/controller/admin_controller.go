package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
)

type AdminController struct {
	businessService service.BusinessService
}

func NewAdminController(businessService service.BusinessService) *AdminController {
	return &AdminController{
		businessService: businessService,
	}
}

type SetApprovalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

type SetLockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// SetApproval approves or unapproves a business
// PUT /api/v1/admin/businesses/:id/approval
func (ctrl *AdminController) SetApproval(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetApprovalRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.businessService.SetApproval(businessID, *req.Approved)
	if err != nil {
		respondServiceError(c, err, "update business")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Business approval changed", map[string]interface{}{
		"business_id": businessID,
		"approved":    *req.Approved,
	})
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// SetLock locks or unlocks a business
// PUT /api/v1/admin/businesses/:id/lock
func (ctrl *AdminController) SetLock(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetLockRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.businessService.SetLocked(businessID, *req.Locked)
	if err != nil {
		respondServiceError(c, err, "update business")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Business lock changed", map[string]interface{}{
		"business_id": businessID,
		"locked":      *req.Locked,
	})
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// CreateCategory adds a business category
// POST /api/v1/admin/categories
func (ctrl *AdminController) CreateCategory(c *gin.Context) {
	var req service.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := ctrl.businessService.CreateCategory(req)
	if err != nil {
		respondServiceError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

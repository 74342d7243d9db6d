package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

// AddToCartRequest accepts quantity as a number or a string; anything
// unusable becomes 1.
type AddToCartRequest struct {
	ServiceID uint        `json:"service_id" binding:"required"`
	Quantity  interface{} `json:"quantity"`
}

func cartResponse(businessID uint, lines []model.CartLine) gin.H {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return gin.H{
		"business_id": businessID,
		"cart_items":  lines,
		"count":       len(lines),
		"quantity":    count,
	}
}

// GetCart returns the session's cart for a business
// GET /api/v1/businesses/:id/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lines, err := ctrl.cartService.Read(c.Request.Context(), middleware.GetSessionID(c), businessID)
	if err != nil {
		respondServiceError(c, err, "read cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(businessID, lines))
}

// AddToCart adds a service to the session's cart
// POST /api/v1/businesses/:id/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	lines, err := ctrl.cartService.Add(
		c.Request.Context(),
		middleware.GetSessionID(c),
		currentActor(c),
		businessID,
		req.ServiceID,
		req.Quantity,
	)
	if err != nil {
		respondServiceError(c, err, "add service to cart")
		return
	}

	log.Info("Cart updated", map[string]interface{}{
		"business_id": businessID,
		"service_id":  req.ServiceID,
	})
	c.JSON(http.StatusOK, cartResponse(businessID, lines))
}

// RemoveFromCart drops a service from the session's cart
// DELETE /api/v1/businesses/:id/cart/:service_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	serviceID, ok := parseIDParam(c, "service_id")
	if !ok {
		return
	}

	lines, err := ctrl.cartService.Remove(c.Request.Context(), middleware.GetSessionID(c), businessID, serviceID)
	if err != nil {
		respondServiceError(c, err, "remove service from cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(businessID, lines))
}

// ClearCart empties the session's cart for a business
// DELETE /api/v1/businesses/:id/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.Clear(c.Request.Context(), middleware.GetSessionID(c), businessID); err != nil {
		respondServiceError(c, err, "clear cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse(businessID, []model.CartLine{}))
}

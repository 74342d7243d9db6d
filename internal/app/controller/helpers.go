package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	apperrors "github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
	"github.com/ikkim/bizmarket-backend/internal/storage"
)

// currentActor builds the service actor from the authenticated identity, or
// the anonymous actor.
func currentActor(c *gin.Context) service.Actor {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return service.Actor{}
	}
	role, _ := middleware.GetUserRole(c)
	return service.Actor{UserID: userID, Role: role}
}

// parseIDParam reads a positive numeric path parameter, writing a 400 when it
// is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var serviceErrorMappings = []errorMapping{
	{service.ErrAuthenticationRequired, http.StatusUnauthorized, apperrors.AuthUnauthorized, "Please log in to request a quote"},
	{service.ErrSessionRequired, http.StatusBadRequest, apperrors.CartSessionRequired, "A session is required for the quote cart"},
	{service.ErrEmptyCart, http.StatusBadRequest, apperrors.CartEmpty, "Add at least one service before requesting a quote"},
	{service.ErrBusinessNotFound, http.StatusNotFound, apperrors.BusinessNotFound, "Business not found"},
	{service.ErrBusinessNotAvailable, http.StatusForbidden, apperrors.BusinessNotAvailable, "This business is not available"},
	{service.ErrBusinessLocked, http.StatusForbidden, apperrors.BusinessLocked, "This business is not publicly visible"},
	{service.ErrBusinessAccess, http.StatusForbidden, apperrors.AuthzOwnerOnly, "Only the business owner can do this"},
	{service.ErrServiceNotFound, http.StatusNotFound, apperrors.ServiceNotFound, "Service not found for this business"},
	{service.ErrCategoryNotFound, http.StatusBadRequest, apperrors.CategoryNotFound, "Category does not exist"},
	{service.ErrCategoryExists, http.StatusConflict, apperrors.CategoryAlreadyExists, "Category already exists"},
	{service.ErrWorkImageForeignURL, http.StatusBadRequest, apperrors.ValidationInvalidFormat, "Image must be uploaded through the upload endpoint"},
	{service.ErrQuoteNotFound, http.StatusNotFound, apperrors.QuoteNotFound, "Quote request not found"},
	{service.ErrQuoteAccessDenied, http.StatusForbidden, apperrors.AuthzForbidden, "You are not allowed to access this quote request"},
	{service.ErrInvalidQuotedAmount, http.StatusBadRequest, apperrors.QuoteInvalidAmount, "Quoted amount must be a number between 0 and 99,999,999.99"},
	{service.ErrInvalidQuoteStatus, http.StatusBadRequest, apperrors.QuoteInvalidStatus, "Unknown quote status"},
	{service.ErrInvalidStatusTransition, http.StatusBadRequest, apperrors.QuoteInvalidTransition, "This status change is not allowed"},
	{service.ErrEmailAlreadyExists, http.StatusConflict, apperrors.AuthEmailAlreadyExists, "Email already registered"},
	{service.ErrUsernameAlreadyExists, http.StatusConflict, apperrors.AuthUsernameExists, "Username already exists"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid username or password"},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "User not found"},
	{storage.ErrContentTypeNotAllowed, http.StatusBadRequest, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)"},
}

// respondServiceError writes the response for an error returned by a
// service. operation names the attempted action for logs and fallback
// messages.
func respondServiceError(c *gin.Context, err error, operation string) {
	log := middleware.GetLoggerFromContext(c)

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		log.Warn("Validation failed", map[string]interface{}{
			"operation": operation,
			"fields":    verr.Fields,
		})
		apperrors.RespondWithValidationError(c, verr.Fields)
		return
	}

	for _, m := range serviceErrorMappings {
		if errors.Is(err, m.target) {
			log.Warn("Request rejected", map[string]interface{}{
				"operation": operation,
				"code":      m.code,
			})
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	log.Error("Request failed", err, map[string]interface{}{
		"operation": operation,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, operation)
}

// bindJSON binds the request body, writing a 400 on malformed input.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return false
	}
	return true
}

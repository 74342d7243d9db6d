package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	apperrors "github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Signup creates an account and logs it in
// POST /api/v1/auth/signup
func (ctrl *AuthController) Signup(c *gin.Context) {
	var req service.SignupInput
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Signup(req)
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created",
		"user":    user,
		"tokens":  tokens,
	})
}

// Login authenticates by username or email
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Identifier, req.Password)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in",
		"user":    user,
		"tokens":  tokens,
	})
}

// GetMe returns the authenticated user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		respondServiceError(c, err, "fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout revokes the current access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	token := middleware.GetToken(c)
	if token == "" {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to revoke token", err)
		apperrors.InternalError(c, "Could not log out. Please try again later")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

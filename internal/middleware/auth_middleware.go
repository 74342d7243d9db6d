package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/ikkim/bizmarket-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
	TokenKey     = "access_token"
)

// RevocationChecker reports whether a token was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	revoked   RevocationChecker
}

// NewAuthMiddleware accepts a nil checker when revocation is not tracked.
func NewAuthMiddleware(jwtSecret string, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		revoked:   revoked,
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter used by websocket clients. ok is false when a header
// is present but malformed.
func bearerToken(c *gin.Context, allowQuery bool) (token string, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			return c.Query("token"), true
		}
		return "", true
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// verify validates an access token and checks the blacklist.
func (m *AuthMiddleware) verify(c *gin.Context, token string) (*util.Claims, string, string) {
	claims, err := util.ValidateToken(token, m.jwtSecret)
	if err != nil {
		if err == util.ErrExpiredToken {
			return nil, errors.AuthTokenExpired, "Session expired, please log in again"
		}
		return nil, errors.AuthTokenInvalid, "Invalid authentication token"
	}
	if claims.TokenType != util.TokenTypeAccess {
		return nil, errors.AuthTokenInvalid, "Invalid authentication token"
	}
	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(c.Request.Context(), token)
		if err != nil {
			GetLoggerFromContext(c).Error("Failed to check token revocation", err)
		}
		if revoked {
			return nil, errors.AuthTokenRevoked, "Session ended, please log in again"
		}
	}
	return claims, "", ""
}

func setIdentity(c *gin.Context, claims *util.Claims, token string) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UserRoleKey, model.UserRole(claims.Role))
	c.Set(TokenKey, token)
}

// Authenticate validates JWT token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := bearerToken(c, true)
		if !ok {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Malformed authorization header")
			c.Abort()
			return
		}
		if token == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, code, message := m.verify(c, token)
		if claims == nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path": c.Request.URL.Path,
				"code": code,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, code, message)
			c.Abort()
			return
		}

		setIdentity(c, claims, token)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})

		c.Next()
	}
}

// OptionalAuthenticate sets user info when a valid token is present and
// otherwise continues as a guest.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := bearerToken(c, false)
		if !ok || token == "" {
			c.Next()
			return
		}

		claims, code, _ := m.verify(c, token)
		if claims == nil {
			log.Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path": c.Request.URL.Path,
				"code": code,
			})
			c.Next()
			return
		}

		setIdentity(c, claims, token)
		c.Next()
	}
}

// RequireRole checks if user has required role
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzRoleNotFound, "Role information missing")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.Forbidden(c, "")
		c.Abort()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	return role.(model.UserRole), true
}

// GetToken returns the raw access token of an authenticated request.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}

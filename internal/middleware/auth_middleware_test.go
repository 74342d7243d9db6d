package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/ikkim/bizmarket-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, token string) (bool, error) {
	return r[token], nil
}

func setupMiddlewareTest(revoked revokedSet) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router, NewAuthMiddleware(testJWTSecret, revoked)
}

func generateTestTokens(t *testing.T, userID uint, role string) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(userID, "test@example.com", role, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func whoami(c *gin.Context) {
	userID, ok := GetUserID(c)
	role, _ := GetUserRole(c)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role, "authenticated": ok})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorResponse {
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	tokens := generateTestTokens(t, 7, "user")
	revoked := generateTestTokens(t, 8, "user")

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantCode   string
	}{
		{"bearer header", "Bearer " + tokens.AccessToken, "", http.StatusOK, ""},
		{"query token", "", tokens.AccessToken, http.StatusOK, ""},
		{"missing", "", "", http.StatusUnauthorized, errors.AuthUnauthorized},
		{"malformed header", "Token abc", "", http.StatusUnauthorized, errors.AuthTokenInvalid},
		{"garbage token", "Bearer abc", "", http.StatusUnauthorized, errors.AuthTokenInvalid},
		{"refresh token", "Bearer " + tokens.RefreshToken, "", http.StatusUnauthorized, errors.AuthTokenInvalid},
		{"revoked token", "Bearer " + revoked.AccessToken, "", http.StatusUnauthorized, errors.AuthTokenRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, auth := setupMiddlewareTest(revokedSet{revoked.AccessToken: true})
			router.GET("/test", auth.Authenticate(), whoami)

			url := "/test"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Error)
			}
		})
	}
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.OptionalAuthenticate(), whoami)
	tokens := generateTestTokens(t, 7, "user")

	for header, wantAuth := range map[string]bool{
		"":                              false,
		"Bearer nonsense":               false,
		"Bearer " + tokens.AccessToken:  true,
		"Bearer " + tokens.RefreshToken: false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, wantAuth, body["authenticated"], header)
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	admin := generateTestTokens(t, 1, string(model.RoleAdmin))
	user := generateTestTokens(t, 2, string(model.RoleUser))

	router, auth := setupMiddlewareTest(nil)
	router.GET("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin), whoami)
	router.GET("/no-auth", auth.RequireRole(model.RoleAdmin), whoami)

	for token, want := range map[string]int{
		admin.AccessToken: http.StatusOK,
		user.AccessToken:  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-auth", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errors.AuthzRoleNotFound, decodeError(t, w).Error)
}

func TestContextAccessors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)
	_, ok = GetUserRole(c)
	assert.False(t, ok)
	assert.Empty(t, GetToken(c))

	c.Set(UserIDKey, uint(9))
	c.Set(UserEmailKey, "a@example.com")
	c.Set(UserRoleKey, model.RoleAdmin)
	c.Set(TokenKey, "tok")

	id, _ := GetUserID(c)
	email, _ := GetUserEmail(c)
	role, _ := GetUserRole(c)
	assert.Equal(t, uint(9), id)
	assert.Equal(t, "a@example.com", email)
	assert.Equal(t, model.RoleAdmin, role)
	assert.Equal(t, "tok", GetToken(c))
}

package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/config"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	"github.com/ikkim/bizmarket-backend/internal/db"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
	"github.com/ikkim/bizmarket-backend/internal/storage"
	"github.com/ikkim/bizmarket-backend/pkg/metrics"
	pkgredis "github.com/ikkim/bizmarket-backend/pkg/redis"
	"github.com/ikkim/bizmarket-backend/pkg/util"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret       = "test-secret"
	testCookieName   = "test_session"
	testImageBaseURL = "https://cdn.example.com"
)

type fakePresigner struct{}

func (fakePresigner) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.example.com/" + key + "?signature=x", nil
}

// harness mounts the controllers on a gin engine backed by SQLite and
// miniredis, with the same middleware chain the server uses.
type harness struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis

	shoppers int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	m := metrics.New("test")
	blacklist := pkgredis.NewTokenBlacklist(client)

	userRepo := repository.NewUserRepository(testDB)
	businessRepo := repository.NewBusinessRepository(testDB)
	catalogRepo := repository.NewCatalogRepository(testDB)
	quoteRepo := repository.NewQuoteRepository(testDB)
	cartStore := repository.NewRedisCartStore(client, time.Hour)

	authService := service.NewAuthService(userRepo, blacklist, testSecret, 15*time.Minute, time.Hour)
	businessService := service.NewBusinessService(testDB, businessRepo, catalogRepo, cartStore, testImageBaseURL)
	cartService := service.NewCartService(cartStore, businessRepo, catalogRepo, m)
	quoteService := service.NewQuoteService(
		testDB, quoteRepo, businessRepo, catalogRepo, userRepo, cartStore,
		service.NewNotificationService(nil, nil, m), m, service.QuoteOptions{},
	)
	uploadService := service.NewUploadService(
		businessService,
		storage.NewS3StorageWithPresigner(fakePresigner{}, "bucket", "ap-south-1", testImageBaseURL),
	)

	authCtrl := NewAuthController(authService)
	businessCtrl := NewBusinessController(businessService)
	cartCtrl := NewCartController(cartService)
	quoteCtrl := NewQuoteController(quoteService)
	ownerCtrl := NewOwnerController(quoteService)
	adminCtrl := NewAdminController(businessService)
	uploadCtrl := NewUploadController(uploadService)

	auth := middleware.NewAuthMiddleware(testSecret, blacklist)
	session := middleware.Session(config.SessionConfig{CookieName: testCookieName, TTL: time.Hour})

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())

	r.POST("/auth/signup", authCtrl.Signup)
	r.POST("/auth/login", authCtrl.Login)
	r.GET("/auth/me", auth.Authenticate(), authCtrl.GetMe)
	r.POST("/auth/logout", auth.Authenticate(), authCtrl.Logout)

	r.GET("/categories", businessCtrl.ListCategories)
	r.GET("/businesses", businessCtrl.ListBusinesses)
	r.GET("/directory/:category_slug/:slug", session, auth.OptionalAuthenticate(), businessCtrl.GetBusinessDetail)

	b := r.Group("/businesses/:id", session)
	b.GET("/cart", auth.OptionalAuthenticate(), cartCtrl.GetCart)
	shopper := b.Group("", auth.Authenticate())
	shopper.POST("/cart", cartCtrl.AddToCart)
	shopper.DELETE("/cart", cartCtrl.ClearCart)
	shopper.DELETE("/cart/:service_id", cartCtrl.RemoveFromCart)
	shopper.GET("/quote-form", quoteCtrl.GetQuoteForm)
	shopper.POST("/quotes", quoteCtrl.SubmitQuote)

	r.GET("/quotes/:id", auth.Authenticate(), quoteCtrl.GetQuote)
	r.POST("/partner/register", auth.Authenticate(), businessCtrl.RegisterPartner)

	o := r.Group("/owner", auth.Authenticate())
	o.GET("/dashboard", ownerCtrl.Dashboard)
	o.GET("/quotes/export", ownerCtrl.ExportQuotes)
	o.GET("/quotes/:id", ownerCtrl.GetQuote)
	o.PUT("/quotes/:id", ownerCtrl.UpdateQuote)
	o.POST("/businesses/:id/services", businessCtrl.AddService)
	o.POST("/businesses/:id/locations", businessCtrl.AddLocation)
	o.POST("/businesses/:id/images/presign", uploadCtrl.PresignWorkImage)
	o.POST("/businesses/:id/images", businessCtrl.AddWorkImage)

	a := r.Group("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin))
	a.PUT("/businesses/:id/approval", adminCtrl.SetApproval)
	a.PUT("/businesses/:id/lock", adminCtrl.SetLock)
	a.POST("/categories", adminCtrl.CreateCategory)

	return &harness{t: t, router: r, db: testDB, redis: mr}
}

// client carries a session cookie and an optional bearer token across
// requests, like a browser.
type client struct {
	h       *harness
	token   string
	session *http.Cookie
}

func (h *harness) anonymous() *client {
	return &client{h: h}
}

func (h *harness) as(user *model.User) *client {
	h.t.Helper()
	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testSecret, 15*time.Minute, time.Hour)
	require.NoError(h.t, err)
	return &client{h: h, token: tokens.AccessToken}
}

// shopper signs in a fresh customer with their own session.
func (h *harness) shopper() *client {
	h.t.Helper()
	h.shoppers++
	return h.as(h.createUser(fmt.Sprintf("shopper%d", h.shoppers), model.RoleUser))
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.h.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.session != nil {
		req.AddCookie(c.session)
	}

	w := httptest.NewRecorder()
	c.h.router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == testCookieName {
			c.session = cookie
		}
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (h *harness) createUser(username string, role model.UserRole) *model.User {
	h.t.Helper()
	hash, err := util.HashPassword("password123")
	require.NoError(h.t, err)
	user := &model.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(h.t, h.db.Create(user).Error)
	return user
}

func (h *harness) createCategory(name string) *model.BusinessCategory {
	h.t.Helper()
	category := &model.BusinessCategory{Name: name, IsActive: true}
	require.NoError(h.t, h.db.Create(category).Error)
	return category
}

func (h *harness) createBusiness(owner *model.User, category *model.BusinessCategory, name string, approved bool) *model.Business {
	h.t.Helper()
	business := &model.Business{
		OwnerID:    owner.ID,
		CategoryID: category.ID,
		Name:       name,
		IsActive:   true,
		IsApproved: approved,
	}
	require.NoError(h.t, h.db.Omit("Owner", "Category").Create(business).Error)
	return business
}

func (h *harness) createService(business *model.Business, name string) *model.BusinessService {
	h.t.Helper()
	svc := &model.BusinessService{BusinessID: business.ID, Name: name, IsActive: true}
	require.NoError(h.t, h.db.Create(svc).Error)
	return svc
}

func (h *harness) createLocation(business *model.Business, city string) *model.BusinessLocation {
	h.t.Helper()
	location := &model.BusinessLocation{BusinessID: business.ID, AddressLine1: "4 Lake View", City: city, IsActive: true}
	require.NoError(h.t, h.db.Create(location).Error)
	return location
}

// shop is an approved business with one service and one location.
type shop struct {
	owner    *model.User
	category *model.BusinessCategory
	business *model.Business
	service  *model.BusinessService
	location *model.BusinessLocation
}

func (h *harness) createShop() shop {
	h.t.Helper()
	owner := h.createUser("owner", model.RoleUser)
	category := h.createCategory("Cleaning")
	business := h.createBusiness(owner, category, "Sparkle Co", true)
	return shop{
		owner:    owner,
		category: category,
		business: business,
		service:  h.createService(business, "Deep Clean"),
		location: h.createLocation(business, "Pune"),
	}
}

func cartPath(businessID uint) string {
	return fmt.Sprintf("/businesses/%d/cart", businessID)
}

func quotesPath(businessID uint) string {
	return fmt.Sprintf("/businesses/%d/quotes", businessID)
}

func validQuoteForm() map[string]interface{} {
	return map[string]interface{}{
		"full_name": "Asha Rao",
		"email":     "asha@example.com",
		"phone":     "+919811111111",
	}
}

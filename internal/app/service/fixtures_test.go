package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/internal/db"
	"github.com/ikkim/bizmarket-backend/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv is a wired set of repositories over SQLite and miniredis.
type testEnv struct {
	db           *gorm.DB
	redis        *miniredis.Miniredis
	cartStore    repository.CartStore
	userRepo     repository.UserRepository
	businessRepo repository.BusinessRepository
	catalogRepo  repository.CatalogRepository
	quoteRepo    repository.QuoteRepository
	metrics      *metrics.Metrics
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &testEnv{
		db:           testDB,
		redis:        mr,
		cartStore:    repository.NewRedisCartStore(client, time.Hour),
		userRepo:     repository.NewUserRepository(testDB),
		businessRepo: repository.NewBusinessRepository(testDB),
		catalogRepo:  repository.NewCatalogRepository(testDB),
		quoteRepo:    repository.NewQuoteRepository(testDB),
		metrics:      metrics.New("test"),
	}
}

func (e *testEnv) cartService() CartService {
	return NewCartService(e.cartStore, e.businessRepo, e.catalogRepo, e.metrics)
}

func (e *testEnv) quoteService(notifier QuoteNotifier, opts QuoteOptions) QuoteService {
	return NewQuoteService(e.db, e.quoteRepo, e.businessRepo, e.catalogRepo, e.userRepo, e.cartStore, notifier, e.metrics, opts)
}

func (e *testEnv) createUser(t *testing.T, username string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "hashed",
		FullName:     "",
		Role:         role,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createCategory(t *testing.T, name string) *model.BusinessCategory {
	t.Helper()
	category := &model.BusinessCategory{Name: name, IsActive: true}
	require.NoError(t, e.db.Create(category).Error)
	return category
}

func (e *testEnv) createBusiness(t *testing.T, owner *model.User, category *model.BusinessCategory, name string, approved bool) *model.Business {
	t.Helper()
	business := &model.Business{
		OwnerID:      owner.ID,
		CategoryID:   category.ID,
		Name:         name,
		ContactPhone: "+919800000000",
		IsActive:     true,
		IsApproved:   approved,
	}
	require.NoError(t, e.db.Omit("Owner", "Category").Create(business).Error)
	return business
}

func (e *testEnv) createService(t *testing.T, business *model.Business, name string) *model.BusinessService {
	t.Helper()
	service := &model.BusinessService{BusinessID: business.ID, Name: name, IsActive: true}
	require.NoError(t, e.db.Create(service).Error)
	return service
}

func (e *testEnv) createLocation(t *testing.T, business *model.Business, city string) *model.BusinessLocation {
	t.Helper()
	location := &model.BusinessLocation{
		BusinessID:   business.ID,
		AddressLine1: "4 Lake View",
		City:         city,
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(location).Error)
	return location
}

func actorFor(user *model.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}

// recordingNotifier captures quote events.
type recordingNotifier struct {
	mu       sync.Mutex
	created  []uint
	updated  []uint
	reminded []uint
}

func (r *recordingNotifier) QuoteCreated(quote *model.QuoteRequest, _ *model.Business) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, quote.ID)
}

func (r *recordingNotifier) QuoteUpdated(quote *model.QuoteRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, quote.ID)
}

func (r *recordingNotifier) QuoteReminder(quote *model.QuoteRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminded = append(r.reminded, quote.ID)
}

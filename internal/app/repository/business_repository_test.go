package repository

import (
	"testing"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBusinessTest(t *testing.T) (*gorm.DB, BusinessRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB, NewBusinessRepository(testDB)
}

func TestBusinessRepository_CreateGeneratesUniqueSlugs(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	owner := createTestUser(t, testDB, "owner")
	category := createTestCategory(t, testDB, "Home Services")

	first := &model.Business{OwnerID: owner.ID, CategoryID: category.ID, Name: "Sparkle Cleaners", IsActive: true}
	second := &model.Business{OwnerID: owner.ID, CategoryID: category.ID, Name: "Sparkle Cleaners", IsActive: true}
	third := &model.Business{OwnerID: owner.ID, CategoryID: category.ID, Name: "Sparkle Cleaners", IsActive: true}
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))
	require.NoError(t, repo.Create(third))

	assert.Equal(t, "sparkle-cleaners", first.Slug)
	assert.Equal(t, "sparkle-cleaners-1", second.Slug)
	assert.Equal(t, "sparkle-cleaners-2", third.Slug)
}

func TestBusinessRepository_FindPublic(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	owner := createTestUser(t, testDB, "owner")
	home := createTestCategory(t, testDB, "Home Services")
	events := createTestCategory(t, testDB, "Events")

	plumber := createTestBusiness(t, testDB, owner, home, "Pipe Masters", true)
	createTestLocation(t, testDB, plumber, "Pune")
	caterer := createTestBusiness(t, testDB, owner, events, "Feast Co", true)
	createTestLocation(t, testDB, caterer, "Mumbai")
	createTestService(t, testDB, caterer, "Wedding Buffet", 0)
	createTestBusiness(t, testDB, owner, home, "Pending Plumbers", false)

	locked := createTestBusiness(t, testDB, owner, home, "Hidden Pipes", true)
	require.NoError(t, repo.SetLocked(locked.ID, true))

	tests := []struct {
		name   string
		filter BusinessFilter
		want   []string
	}{
		{"all visible", BusinessFilter{}, []string{"Feast Co", "Pipe Masters"}},
		{"query on name", BusinessFilter{Query: "pipe"}, []string{"Pipe Masters"}},
		{"query on service", BusinessFilter{Query: "BUFFET"}, []string{"Feast Co"}},
		{"city", BusinessFilter{City: "mum"}, []string{"Feast Co"}},
		{"category", BusinessFilter{CategorySlug: home.Slug}, []string{"Pipe Masters"}},
		{"no match", BusinessFilter{Query: "pipe", City: "Mumbai"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			businesses, err := repo.FindPublic(tt.filter)
			require.NoError(t, err)

			names := []string{}
			for _, b := range businesses {
				names = append(names, b.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestBusinessRepository_FindDetail(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	owner := createTestUser(t, testDB, "owner")
	category := createTestCategory(t, testDB, "Home Services")
	business := createTestBusiness(t, testDB, owner, category, "Pipe Masters", true)

	createTestService(t, testDB, business, "Zebra Taps", 0)
	createTestService(t, testDB, business, "Basin Fix", 1)
	createTestService(t, testDB, business, "Anchor Pipes", 0)
	inactive := createTestService(t, testDB, business, "Retired", 0)
	require.NoError(t, testDB.Model(inactive).Update("is_active", false).Error)
	createTestLocation(t, testDB, business, "Pune")

	found, err := repo.FindDetail(category.Slug, business.Slug)
	require.NoError(t, err)
	require.Len(t, found.Services, 3)
	assert.Equal(t, "Anchor Pipes", found.Services[0].Name)
	assert.Equal(t, "Zebra Taps", found.Services[1].Name)
	assert.Equal(t, "Basin Fix", found.Services[2].Name)
	assert.Len(t, found.Locations, 1)
	assert.Equal(t, owner.ID, found.Owner.ID)

	_, err = repo.FindDetail("events", business.Slug)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBusinessRepository_Flags(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	owner := createTestUser(t, testDB, "owner")
	category := createTestCategory(t, testDB, "Home Services")
	business := createTestBusiness(t, testDB, owner, category, "Pipe Masters", false)

	require.NoError(t, repo.SetApproved(business.ID, true))
	found, err := repo.FindByID(business.ID)
	require.NoError(t, err)
	assert.True(t, found.IsApproved)
	assert.True(t, found.IsVisiblePublic())

	assert.ErrorIs(t, repo.SetLocked(9999, true), gorm.ErrRecordNotFound)
}

func TestBusinessRepository_FindByOwner(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	owner := createTestUser(t, testDB, "owner")
	other := createTestUser(t, testDB, "other")
	category := createTestCategory(t, testDB, "Home Services")
	createTestBusiness(t, testDB, owner, category, "Mine", true)
	createTestBusiness(t, testDB, other, category, "Theirs", true)

	businesses, err := repo.FindByOwner(owner.ID)
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Mine", businesses[0].Name)
}

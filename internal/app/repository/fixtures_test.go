package repository

import (
	"fmt"
	"testing"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "hashed",
		Role:         model.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestCategory(t *testing.T, db *gorm.DB, name string) *model.BusinessCategory {
	t.Helper()
	category := &model.BusinessCategory{Name: name, IsActive: true}
	require.NoError(t, db.Create(category).Error)
	return category
}

func createTestBusiness(t *testing.T, db *gorm.DB, owner *model.User, category *model.BusinessCategory, name string, visible bool) *model.Business {
	t.Helper()
	business := &model.Business{
		OwnerID:    owner.ID,
		CategoryID: category.ID,
		Name:       name,
		IsActive:   true,
		IsApproved: visible,
	}
	require.NoError(t, db.Omit("Owner", "Category").Create(business).Error)
	return business
}

func createTestService(t *testing.T, db *gorm.DB, business *model.Business, name string, sortOrder int) *model.BusinessService {
	t.Helper()
	service := &model.BusinessService{
		BusinessID: business.ID,
		Name:       name,
		SortOrder:  sortOrder,
		IsActive:   true,
	}
	require.NoError(t, db.Create(service).Error)
	return service
}

func createTestLocation(t *testing.T, db *gorm.DB, business *model.Business, city string) *model.BusinessLocation {
	t.Helper()
	location := &model.BusinessLocation{
		BusinessID:   business.ID,
		AddressLine1: "12 Market Road",
		City:         city,
		IsActive:     true,
	}
	require.NoError(t, db.Create(location).Error)
	return location
}

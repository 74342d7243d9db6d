package model

import (
	"time"
)

type UserRole string // account role

const (
	RoleUser  UserRole = "user"  // regular customer or business owner
	RoleAdmin UserRole = "admin" // superuser
)

// User is hard-deleted so that quote requests referencing it fall back to a
// NULL customer through the foreign key.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FullName     string    `gorm:"size:150" json:"full_name"`
	Role         UserRole  `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsSuperuser() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

package service

import (
	"errors"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
)

// ErrAuthenticationRequired rejects cart changes and quote requests from
// anonymous visitors.
var ErrAuthenticationRequired = errors.New("authentication required")

// Actor is the identity performing an operation. The zero value is an
// anonymous visitor.
type Actor struct {
	UserID uint
	Role   model.UserRole
}

func (a Actor) IsAuthenticated() bool {
	return a.UserID != 0
}

func (a Actor) IsSuperuser() bool {
	return a.IsAuthenticated() && a.Role == model.RoleAdmin
}

// CanManage reports whether the actor owns the business or is a superuser.
func (a Actor) CanManage(business *model.Business) bool {
	if a.IsSuperuser() {
		return true
	}
	return a.IsAuthenticated() && business.OwnerID == a.UserID
}

// CanSee applies the public visibility rule with the owner/superuser
// preview exception.
func (a Actor) CanSee(business *model.Business) bool {
	return business.IsVisiblePublic() || a.CanManage(business)
}

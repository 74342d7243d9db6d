package model

import (
	"fmt"
	"time"

	"github.com/ikkim/bizmarket-backend/pkg/util"
	"gorm.io/gorm"
)

type BusinessCategory struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:140;uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	IconClass   string    `gorm:"size:80" json:"icon_class"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BusinessCategory) TableName() string {
	return "business_categories"
}

func (c *BusinessCategory) BeforeCreate(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = util.Slugify(c.Name)
	}
	return nil
}

// Business is a seller listed in the directory. It is publicly visible only
// while active, approved and not locked.
type Business struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	OwnerID       uint             `gorm:"not null;index" json:"owner_id"`
	Owner         User             `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"owner,omitempty"`
	CategoryID    uint             `gorm:"not null;index" json:"category_id"`
	Category      BusinessCategory `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Name          string           `gorm:"size:140;not null" json:"name"`
	Slug          string           `gorm:"size:160;uniqueIndex" json:"slug"`
	Tagline       string           `gorm:"size:200" json:"tagline"`
	Description   string           `gorm:"type:text" json:"description"`
	CoverImageURL string           `json:"cover_image_url"`
	ContactEmail  string           `json:"contact_email"`
	ContactPhone  string           `gorm:"size:32" json:"contact_phone"`
	WebsiteURL    string           `json:"website_url"`

	IsActive   bool `gorm:"not null;index" json:"is_active"`   // listing switched on by the owner
	IsApproved bool `gorm:"not null;index" json:"is_approved"` // reviewed by an admin
	IsLocked   bool `gorm:"not null" json:"is_locked"`         // contact details hidden until unlocked

	Locations  []BusinessLocation  `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"locations,omitempty"`
	Services   []BusinessService   `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"services,omitempty"`
	WorkImages []BusinessWorkImage `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"work_images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Business) TableName() string {
	return "businesses"
}

// IsVisiblePublic reports whether anonymous visitors may see the business.
func (b *Business) IsVisiblePublic() bool {
	return b.IsActive && b.IsApproved && !b.IsLocked
}

// BeforeCreate derives a unique slug from the name, appending -1, -2, ...
// on collision.
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.Slug != "" {
		return nil
	}

	base := util.Slugify(b.Name)
	if base == "" {
		base = "business"
	}
	slug := base
	for counter := 1; ; counter++ {
		var count int64
		if err := tx.Model(&Business{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
	b.Slug = slug
	return nil
}

type BusinessLocation struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	BusinessID    uint      `gorm:"not null;index" json:"business_id"`
	Label         string    `gorm:"size:120" json:"label"`
	AddressLine1  string    `gorm:"size:200;not null" json:"address_line1"`
	AddressLine2  string    `gorm:"size:200" json:"address_line2"`
	City          string    `gorm:"size:120;index;not null" json:"city"`
	State         string    `gorm:"size:120" json:"state"`
	Pincode       string    `gorm:"size:12" json:"pincode"`
	Country       string    `gorm:"size:80" json:"country"`
	GoogleMapsURL string    `json:"google_maps_url"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func (BusinessLocation) TableName() string {
	return "business_locations"
}

// String renders the location the way it is shown in quote forms.
func (l *BusinessLocation) String() string {
	if l.Label != "" {
		return fmt.Sprintf("%s (%s)", l.Label, l.City)
	}
	return fmt.Sprintf("%s, %s", l.AddressLine1, l.City)
}

// BusinessService is an offering a customer can add to a quote cart.
type BusinessService struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	BusinessID  uint      `gorm:"not null;index" json:"business_id"`
	Name        string    `gorm:"size:160;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	BasePrice   *float64  `gorm:"type:decimal(10,2)" json:"base_price,omitempty"` // starting price, optional
	UnitLabel   string    `gorm:"size:60" json:"unit_label"`                      // e.g. "per hour"
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BusinessService) TableName() string {
	return "business_services"
}

type BusinessWorkImage struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	BusinessID uint      `gorm:"not null;index" json:"business_id"`
	ImageURL   string    `gorm:"not null" json:"image_url"`
	Caption    string    `gorm:"size:200" json:"caption"`
	CreatedAt  time.Time `json:"created_at"`
}

func (BusinessWorkImage) TableName() string {
	return "business_work_images"
}

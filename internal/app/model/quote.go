package model

import (
	"time"
)

type QuoteStatus string // quote lifecycle state

const (
	QuoteStatusNew       QuoteStatus = "NEW"       // submitted, not yet looked at
	QuoteStatusInReview  QuoteStatus = "IN_REVIEW" // owner is preparing a price
	QuoteStatusQuoted    QuoteStatus = "QUOTED"    // price sent to the customer
	QuoteStatusAccepted  QuoteStatus = "ACCEPTED"  // customer agreed
	QuoteStatusRejected  QuoteStatus = "REJECTED"  // customer declined
	QuoteStatusCancelled QuoteStatus = "CANCELLED" // withdrawn by either side
)

// QuoteStatuses lists every status in display order.
var QuoteStatuses = []QuoteStatus{
	QuoteStatusNew,
	QuoteStatusInReview,
	QuoteStatusQuoted,
	QuoteStatusAccepted,
	QuoteStatusRejected,
	QuoteStatusCancelled,
}

var quoteStatusLabels = map[QuoteStatus]string{
	QuoteStatusNew:       "New",
	QuoteStatusInReview:  "In review",
	QuoteStatusQuoted:    "Quoted",
	QuoteStatusAccepted:  "Accepted",
	QuoteStatusRejected:  "Rejected",
	QuoteStatusCancelled: "Cancelled",
}

// quoteTransitions is the forward graph used when strict transitions are on.
// CANCELLED is reachable from every non-terminal state and is added in
// CanTransitionTo.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusNew:      {QuoteStatusInReview},
	QuoteStatusInReview: {QuoteStatusQuoted},
	QuoteStatusQuoted:   {QuoteStatusAccepted, QuoteStatusRejected},
}

func (s QuoteStatus) IsValid() bool {
	_, ok := quoteStatusLabels[s]
	return ok
}

func (s QuoteStatus) Label() string {
	if label, ok := quoteStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s QuoteStatus) IsTerminal() bool {
	switch s {
	case QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next follows s in the lifecycle graph.
// Staying in the same status is always allowed.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if next == QuoteStatusCancelled {
		return true
	}
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// QuoteRequest is a customer's request for pricing on one or more services of
// a single business. Contact details are copied from the submission form and
// stay fixed even if the linked customer account changes or disappears.
type QuoteRequest struct {
	ID                uint              `gorm:"primarykey" json:"id"`
	BusinessID        uint              `gorm:"not null;index" json:"business_id"`
	Business          Business          `gorm:"foreignKey:BusinessID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"business,omitempty"`
	CustomerID        *uint             `gorm:"index" json:"customer_id,omitempty"`
	Customer          *User             `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"customer,omitempty"`
	FullName          string            `gorm:"size:140;not null" json:"full_name"`
	Email             string            `gorm:"not null" json:"email"`
	Phone             string            `gorm:"size:32" json:"phone"`
	AdditionalDetails string            `gorm:"type:text" json:"additional_details"`
	LocationID        *uint             `gorm:"index" json:"location_id,omitempty"`
	Location          *BusinessLocation `gorm:"foreignKey:LocationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"location,omitempty"`
	Status            QuoteStatus       `gorm:"type:varchar(20);not null;default:'NEW';index" json:"status"`
	QuotedAmount      *float64          `gorm:"type:decimal(10,2)" json:"quoted_amount"`
	OwnerNotes        string            `gorm:"type:text" json:"owner_notes"`
	CreatedAt         time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	Items []QuoteServiceItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (QuoteRequest) TableName() string {
	return "quote_requests"
}

// QuoteServiceItem is one line of a quote. The service reference is cleared
// when the service is deleted; CustomLabel keeps the name the customer saw.
type QuoteServiceItem struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	QuoteID     uint             `gorm:"not null;index" json:"quote_id"`
	ServiceID   *uint            `gorm:"index" json:"service_id,omitempty"`
	Service     *BusinessService `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"service,omitempty"`
	CustomLabel string           `gorm:"size:160" json:"custom_label"`
	Quantity    int              `gorm:"not null;default:1" json:"quantity"`
}

func (QuoteServiceItem) TableName() string {
	return "quote_service_items"
}

// DisplayName prefers the live service name over the snapshot label.
func (i *QuoteServiceItem) DisplayName() string {
	if i.Service != nil && i.Service.Name != "" {
		return i.Service.Name
	}
	if i.CustomLabel != "" {
		return i.CustomLabel
	}
	return "Item"
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from QuoteStatus
		to   QuoteStatus
		want bool
	}{
		{QuoteStatusNew, QuoteStatusInReview, true},
		{QuoteStatusNew, QuoteStatusQuoted, false},
		{QuoteStatusNew, QuoteStatusCancelled, true},
		{QuoteStatusInReview, QuoteStatusQuoted, true},
		{QuoteStatusQuoted, QuoteStatusAccepted, true},
		{QuoteStatusQuoted, QuoteStatusRejected, true},
		{QuoteStatusQuoted, QuoteStatusNew, false},
		{QuoteStatusAccepted, QuoteStatusCancelled, false},
		{QuoteStatusCancelled, QuoteStatusNew, false},
		{QuoteStatusQuoted, QuoteStatusQuoted, true},
		{QuoteStatusAccepted, QuoteStatusAccepted, true},
		{QuoteStatusNew, QuoteStatus("ARCHIVED"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestQuoteStatus_Validity(t *testing.T) {
	for _, s := range QuoteStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, QuoteStatus("new").IsValid())
	assert.Equal(t, "In review", QuoteStatusInReview.Label())
	assert.Equal(t, "BOGUS", QuoteStatus("BOGUS").Label())
}

func TestQuoteServiceItem_DisplayName(t *testing.T) {
	item := QuoteServiceItem{CustomLabel: "Deep clean", Service: &BusinessService{Name: "Deep cleaning"}}
	assert.Equal(t, "Deep cleaning", item.DisplayName())

	item.Service = nil
	assert.Equal(t, "Deep clean", item.DisplayName())

	item.CustomLabel = ""
	assert.Equal(t, "Item", item.DisplayName())
}

func TestBusiness_IsVisiblePublic(t *testing.T) {
	assert.True(t, (&Business{IsActive: true, IsApproved: true}).IsVisiblePublic())
	assert.False(t, (&Business{IsActive: true}).IsVisiblePublic())
	assert.False(t, (&Business{IsApproved: true}).IsVisiblePublic())
	assert.False(t, (&Business{IsActive: true, IsApproved: true, IsLocked: true}).IsVisiblePublic())
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "quote_cart_42", CartKey(42))
}

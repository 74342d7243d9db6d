package model

import "fmt"

// CartLine is one entry of a quote cart. Carts live in session storage, not
// in the relational store.
type CartLine struct {
	ServiceID uint   `json:"service_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// CartKey is the session key holding the cart for one business.
func CartKey(businessID uint) string {
	return fmt.Sprintf("quote_cart_%d", businessID)
}

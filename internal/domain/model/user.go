package model

import "time"

// User is the paying account. Only the fields the payment flow reads are modeled.
type User struct {
	ID               string
	Email            string
	StripeCustomerID string
	CreatedAt        time.Time
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// HasCustomer reports whether a provider customer identity was already persisted.
func (u *User) HasCustomer() bool { return u != nil && u.StripeCustomerID != "" }

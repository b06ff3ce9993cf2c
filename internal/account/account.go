package account

import (
	"strings"
	"time"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree     Plan = "FREE"
	PlanPro      Plan = "PRO"
	PlanBusiness Plan = "BUSINESS"
)

// Valid reports whether p is a known tier.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanBusiness:
		return true
	}
	return false
}

// Paid reports whether p is anything other than FREE.
func (p Plan) Paid() bool { return p.Valid() && p != PlanFree }

// User is a person who can sign in.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified *time.Time `json:"emailVerified"`
	Image         string     `json:"image"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Verified reports whether the user confirmed their email address.
func (u *User) Verified() bool { return u != nil && u.EmailVerified != nil }

// Customer is the billing row of a user. There is at most one per user.
type Customer struct {
	ID                     int64      `json:"id"`
	AuthUserID             string     `json:"authUserId"`
	Name                   string     `json:"name"`
	Plan                   Plan       `json:"plan"`
	StripeCustomerID       string     `json:"stripeCustomerId"`
	StripeSubscriptionID   string     `json:"stripeSubscriptionId"`
	StripePriceID          string     `json:"stripePriceId"`
	StripeCurrentPeriodEnd *time.Time `json:"stripeCurrentPeriodEnd"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// Subscription summarises a customer's plan for the dashboard.
type Subscription struct {
	Plan                   Plan       `json:"plan"`
	StripeCustomerID       string     `json:"stripeCustomerId"`
	StripeCurrentPeriodEnd *time.Time `json:"stripeCurrentPeriodEnd"`
	IsPaid                 bool       `json:"isPaid"`
}

// SubscriptionOf derives the subscription view. A nil customer is FREE.
// A paid plan whose period has ended counts as unpaid.
func SubscriptionOf(c *Customer, now time.Time) Subscription {
	if c == nil {
		return Subscription{Plan: PlanFree}
	}
	s := Subscription{
		Plan:                   c.Plan,
		StripeCustomerID:       c.StripeCustomerID,
		StripeCurrentPeriodEnd: c.StripeCurrentPeriodEnd,
	}
	s.IsPaid = c.Plan.Paid() && c.StripeCustomerID != "" &&
		(c.StripeCurrentPeriodEnd == nil || c.StripeCurrentPeriodEnd.After(now))
	return s
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package billing

import "context"

// CheckoutRequest describes a subscription checkout.
type CheckoutRequest struct {
	PriceID       string
	CustomerEmail string
	UserID        string
	SuccessURL    string
	CancelURL     string
}

// Provider creates hosted payment sessions and returns their URLs.
type Provider interface {
	PortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	CheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

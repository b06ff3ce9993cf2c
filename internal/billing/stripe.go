package billing

import (
	"context"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Config holds payment provider settings.
type Config struct {
	APIKey string `env:"STRIPE_API_KEY"`
	// APIBase overrides the API URL, e.g. for stripe-mock.
	APIBase string `env:"STRIPE_API_BASE"`
	// ReturnPath is appended to the site URL for success, cancel and portal return.
	ReturnPath string `env:"STRIPE_RETURN_PATH" envDefault:"/dashboard"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool { return c.APIKey != "" }

// Stripe implements Provider on the Stripe API.
type Stripe struct {
	api *client.API
}

// NewStripe creates a Stripe provider. A nil httpClient uses the SDK default.
// Failed requests are not retried.
func NewStripe(cfg Config, httpClient *http.Client) (*Stripe, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	bc := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.APIBase != "" {
		bc.URL = stripe.String(cfg.APIBase)
	}
	return &Stripe{api: client.New(cfg.APIKey, stripe.NewBackendsWithConfig(bc))}, nil
}

// PortalSession opens the billing portal for an existing customer.
func (s *Stripe) PortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// CheckoutSession starts a card subscription checkout with a single line item.
func (s *Stripe) CheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(req.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": req.UserID},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

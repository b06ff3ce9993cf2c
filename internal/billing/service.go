package billing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/saasfly/saasfly/internal/account"
	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/pkg/logger"
)

// Accounts is the account data the service reads.
type Accounts interface {
	CustomerByAuthUserID(ctx context.Context, userID string) (*account.Customer, error)
	UserByID(ctx context.Context, id string) (*account.User, error)
}

// Service decides between the billing portal and a new checkout.
type Service struct {
	accounts  Accounts
	provider  Provider
	returnURL string
	logger    *slog.Logger
}

// NewService creates a billing service. Every hosted page returns the user
// to siteURL + returnPath.
func NewService(accounts Accounts, provider Provider, siteURL, returnPath string, log *slog.Logger) *Service {
	if log == nil {
		log = logger.NewNope()
	}
	return &Service{
		accounts:  accounts,
		provider:  provider,
		returnURL: strings.TrimRight(siteURL, "/") + returnPath,
		logger:    log,
	}
}

// ReturnURL is where hosted pages send the user back to.
func (s *Service) ReturnURL() string { return s.returnURL }

// CreateSession returns the URL of a billing portal session when the user
// has a paid plan and a provider customer, otherwise of a checkout session
// for planID.
func (s *Service) CreateSession(ctx context.Context, id *identity.Identity, planID string) (string, error) {
	if id == nil || id.ID == "" {
		return "", ErrUnauthorized
	}
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return "", ErrPlanRequired
	}

	customer, err := s.accounts.CustomerByAuthUserID(ctx, id.ID)
	if err != nil && !errors.Is(err, account.ErrCustomerNotFound) {
		return "", err
	}

	if customer != nil && customer.Plan.Paid() && customer.StripeCustomerID != "" {
		url, err := s.provider.PortalSession(ctx, customer.StripeCustomerID, s.returnURL)
		if err != nil {
			return "", errors.Join(ErrProviderFailed, err)
		}
		if url == "" {
			return "", ErrEmptySession
		}
		return url, nil
	}
	if customer != nil && customer.Plan.Paid() {
		s.logger.WarnContext(ctx, "paid customer without provider id, falling back to checkout",
			slog.String("user_id", id.ID))
	}

	email, err := s.email(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.provider.CheckoutSession(ctx, CheckoutRequest{
		PriceID:       planID,
		CustomerEmail: email,
		UserID:        id.ID,
		SuccessURL:    s.returnURL,
		CancelURL:     s.returnURL,
	})
	if err != nil {
		return "", errors.Join(ErrProviderFailed, err)
	}
	if url == "" {
		return "", ErrEmptySession
	}
	return url, nil
}

// email prefers the identity's address and falls back to the stored user.
func (s *Service) email(ctx context.Context, id *identity.Identity) (string, error) {
	if id.Email != "" {
		return id.Email, nil
	}
	u, err := s.accounts.UserByID(ctx, id.ID)
	if errors.Is(err, account.ErrUserNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	if u.Email == "" {
		return "", ErrUserNotFound
	}
	return u.Email, nil
}

package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/saasfly/saasfly/internal/rpc"
	"github.com/saasfly/saasfly/pkg/logger"
	"github.com/saasfly/saasfly/pkg/sanitizer"
)

// MaxNameLength bounds stored display names, in runes.
const MaxNameLength = 64

// Store is the part of Repository the procedures need.
type Store interface {
	UpdateUserName(ctx context.Context, id, name string) error
	CustomerByAuthUserID(ctx context.Context, userID string) (*Customer, error)
	InsertCustomer(ctx context.Context, userID string) (bool, error)
}

// Procedures serves the customer.* and auth.* RPC procedures.
type Procedures struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewProcedures creates the procedure set. A nil logger discards output.
func NewProcedures(store Store, log *slog.Logger) *Procedures {
	if log == nil {
		log = logger.NewNope()
	}
	return &Procedures{store: store, logger: log, now: time.Now}
}

// Register adds every procedure to r.
func (p *Procedures) Register(r *rpc.Router) {
	r.RegisterAll("customer", p.Customer())
	r.RegisterAll("auth", p.Auth())
}

// Customer returns the customer.* procedures.
func (p *Procedures) Customer() map[string]rpc.Procedure {
	return map[string]rpc.Procedure{
		"updateUserName": rpc.Mutation(p.updateUserName, rpc.Authed()),
		"insertCustomer": rpc.Mutation(p.insertCustomer, rpc.Authed()),
		"queryCustomer":  rpc.Query(p.queryCustomer, rpc.Authed()),
	}
}

// Auth returns the auth.* procedures.
func (p *Procedures) Auth() map[string]rpc.Procedure {
	return map[string]rpc.Procedure{
		"mySubscription": rpc.Query(p.mySubscription, rpc.Authed()),
	}
}

type updateUserNameInput struct {
	Name   string `json:"name" validate:"required,max=256"`
	UserID string `json:"userId" validate:"required"`
}

// UpdateResult reports the outcome of a name change.
type UpdateResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

func (p *Procedures) updateUserName(ctx context.Context, rc *rpc.Context, in updateUserNameInput) (UpdateResult, error) {
	if in.UserID != rc.UserID {
		return UpdateResult{Success: false, Reason: "no auth"}, nil
	}
	name := sanitizer.DisplayName(in.Name, MaxNameLength)
	if name == "" {
		return UpdateResult{}, rpc.NewError(rpc.CodeBadRequest, "Name is empty")
	}
	if err := p.store.UpdateUserName(ctx, in.UserID, name); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UpdateResult{}, rpc.NewError(rpc.CodeNotFound, "User not found")
		}
		p.logger.ErrorContext(ctx, "update user name", slog.String("user_id", in.UserID), slog.Any("error", err))
		return UpdateResult{}, err
	}
	return UpdateResult{Success: true, Reason: ""}, nil
}

type userIDInput struct {
	UserID string `json:"userId" validate:"required"`
}

// InsertResult reports whether a customer row was created.
type InsertResult struct {
	Inserted bool `json:"inserted"`
}

func (p *Procedures) insertCustomer(ctx context.Context, rc *rpc.Context, in userIDInput) (InsertResult, error) {
	if in.UserID != rc.UserID {
		return InsertResult{}, rpc.NewError(rpc.CodeForbidden, "FORBIDDEN")
	}
	ok, err := p.store.InsertCustomer(ctx, in.UserID)
	if err != nil {
		p.logger.ErrorContext(ctx, "insert customer", slog.String("user_id", in.UserID), slog.Any("error", err))
		return InsertResult{}, err
	}
	return InsertResult{Inserted: ok}, nil
}

func (p *Procedures) queryCustomer(ctx context.Context, rc *rpc.Context, in userIDInput) (*Customer, error) {
	if in.UserID != rc.UserID {
		return nil, rpc.NewError(rpc.CodeForbidden, "FORBIDDEN")
	}
	c, err := p.store.CustomerByAuthUserID(ctx, in.UserID)
	if errors.Is(err, ErrCustomerNotFound) {
		return nil, nil
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "query customer", slog.String("user_id", in.UserID), slog.Any("error", err))
		return nil, err
	}
	return c, nil
}

func (p *Procedures) mySubscription(ctx context.Context, rc *rpc.Context, _ struct{}) (Subscription, error) {
	c, err := p.store.CustomerByAuthUserID(ctx, rc.UserID)
	if err != nil && !errors.Is(err, ErrCustomerNotFound) {
		p.logger.ErrorContext(ctx, "query subscription", slog.String("user_id", rc.UserID), slog.Any("error", err))
		return Subscription{}, err
	}
	return SubscriptionOf(c, p.now()), nil
}

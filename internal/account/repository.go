package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saasfly/saasfly/pkg/db"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository reads and writes users and customers.
type Repository struct {
	db DBTX
}

// NewRepository creates a repository over conn.
func NewRepository(conn DBTX) *Repository {
	return &Repository{db: conn}
}

const userColumns = `id, COALESCE(name, ''), email, email_verified, COALESCE(image, ''), created_at, updated_at`

const customerColumns = `id, auth_user_id, COALESCE(name, ''), plan,
	COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''), COALESCE(stripe_price_id, ''),
	stripe_current_period_end, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var (
		c    Customer
		plan string
	)
	err := row.Scan(&c.ID, &c.AuthUserID, &c.Name, &plan,
		&c.StripeCustomerID, &c.StripeSubscriptionID, &c.StripePriceID,
		&c.StripeCurrentPeriodEnd, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	c.Plan = Plan(plan)
	return &c, nil
}

// UserByEmail looks a user up by normalized email.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UserByID looks a user up by id.
func (r *Repository) UserByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// UpsertUser inserts u or refreshes the existing row with the same email.
// Empty name or image never overwrite stored values, and a verification
// timestamp, once set, is kept.
func (r *Repository) UpsertUser(ctx context.Context, u User) (*User, error) {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return nil, ErrInvalidEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return scanUser(r.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, email_verified, image)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''))
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, users.name),
			image = COALESCE(EXCLUDED.image, users.image),
			email_verified = COALESCE(users.email_verified, EXCLUDED.email_verified),
			updated_at = NOW()
		RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.EmailVerified, u.Image))
}

// MarkEmailVerified stamps the user's email as verified at t unless it
// already is.
func (r *Repository) MarkEmailVerified(ctx context.Context, id string, t time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET email_verified = COALESCE(email_verified, $2), updated_at = NOW() WHERE id = $1`,
		id, t)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserName sets the display name of a user.
func (r *Repository) UpdateUserName(ctx context.Context, id, name string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CustomerByAuthUserID returns the customer row of a user.
func (r *Repository) CustomerByAuthUserID(ctx context.Context, userID string) (*Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE auth_user_id = $1`, userID))
}

// InsertCustomer creates a FREE customer row for userID. It reports false
// when the user already has one.
func (r *Repository) InsertCustomer(ctx context.Context, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO customers (auth_user_id, plan) VALUES ($1, $2) ON CONFLICT (auth_user_id) DO NOTHING`,
		userID, string(PlanFree))
	if err != nil {
		return false, fmt.Errorf("insert customer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SignIn upserts u and makes sure it has a customer row, in one transaction.
func (r *Repository) SignIn(ctx context.Context, u User) (*User, error) {
	var out *User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		txr := NewRepository(tx)
		user, err := txr.UpsertUser(ctx, u)
		if err != nil {
			return err
		}
		if _, err := txr.InsertCustomer(ctx, user.ID); err != nil {
			return err
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

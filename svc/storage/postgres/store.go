// Package postgres implements the account and subscription stores on
// PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/replykit/pkg/pg"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/account"
)

// Store is safe for concurrent use. Every entitlement mutation is a single
// statement keyed by user id.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &Store{pool: pool}
}

var (
	_ account.Store              = (*Store)(nil)
	_ subscription.Store         = (*Store)(nil)
	_ subscription.CustomerStore = (*Store)(nil)
	_ subscription.EventStore    = (*Store)(nil)
)

const userColumns = `u.id, u.username, u.password_hash, u.email, u.phone, u.is_verified, u.is_phone_verified,
	u.verification_token, u.sms_code, u.sms_code_expires_at, u.reset_token, u.reset_token_expires_at,
	u.stripe_customer_id, u.stripe_subscription_id, u.created_at`

func userDest(u *account.User) []any {
	return []any{
		&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Phone, &u.IsVerified, &u.IsPhoneVerified,
		&u.VerificationToken, &u.SMSCode, &u.SMSCodeExpiresAt, &u.ResetToken, &u.ResetTokenExpiresAt,
		&u.StripeCustomerID, &u.StripeSubscriptionID, &u.CreatedAt,
	}
}

func (s *Store) queryUser(ctx context.Context, where string, arg any) (*account.User, error) {
	var u account.User
	err := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE `+where, arg).Scan(userDest(&u)...)
	if pg.IsNotFoundError(err) {
		return nil, account.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *account.User) error {
	err := pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, email, phone, verification_token)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			user.Username, user.PasswordHash, user.Email, user.Phone, user.VerificationToken,
		).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO subscriptions (user_id) VALUES ($1)`, user.ID)
		return err
	})
	if pg.IsDuplicateKeyError(err) {
		return account.ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*account.User, error) {
	return s.queryUser(ctx, `u.id = $1`, id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*account.User, error) {
	return s.queryUser(ctx, `u.username = $1`, username)
}

func (s *Store) SetVerificationToken(ctx context.Context, userID int64, digest string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET verification_token = $2 WHERE id = $1`, userID, digest)
	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrUserNotFound
	}
	return nil
}

func (s *Store) ConsumeVerificationToken(ctx context.Context, digest string) (*account.User, bool, error) {
	var (
		u           account.User
		wasVerified bool
	)
	err := s.pool.QueryRow(ctx, `
		WITH prev AS (
			SELECT id, is_verified FROM users WHERE verification_token = $1 FOR UPDATE
		)
		UPDATE users u SET is_verified = TRUE, verification_token = NULL
		FROM prev
		WHERE u.id = prev.id
		RETURNING `+userColumns+`, prev.is_verified`,
		digest,
	).Scan(append(userDest(&u), &wasVerified)...)
	if pg.IsNotFoundError(err) {
		return nil, false, account.ErrInvalidToken
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to consume verification token: %w", err)
	}
	return &u, wasVerified, nil
}

func (s *Store) SetResetToken(ctx context.Context, userID int64, digest string, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_token_expires_at = $3 WHERE id = $1`,
		userID, digest, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrUserNotFound
	}
	return nil
}

func (s *Store) ConsumeResetToken(ctx context.Context, digest string, passwordHash []byte, now time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL
		WHERE reset_token = $1 AND reset_token_expires_at > $3
		RETURNING id`,
		digest, passwordHash, now,
	).Scan(&id)
	if pg.IsNotFoundError(err) {
		return 0, account.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, tier, usage, created_at, updated_at FROM subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&sub.UserID, &sub.Tier, &sub.Usage, &sub.CreatedAt, &sub.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return &sub, nil
}

func (s *Store) SetTier(ctx context.Context, userID int64, tier subscription.Tier) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (user_id, tier, usage) VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET tier = EXCLUDED.tier, usage = 0, updated_at = NOW()`,
		userID, string(tier),
	)
	if pg.IsForeignKeyViolationError(err) {
		return subscription.ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}
	return nil
}

func (s *Store) IncrementUsage(ctx context.Context, userID int64, limit int) (int, error) {
	var usage int
	err := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET usage = usage + 1, updated_at = NOW()
		WHERE user_id = $1 AND usage < $2
		RETURNING usage`,
		userID, limit,
	).Scan(&usage)
	if err == nil {
		return usage, nil
	}
	if !pg.IsNotFoundError(err) {
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check subscription: %w", err)
	}
	if !exists {
		return 0, subscription.ErrSubscriptionNotFound
	}
	return 0, subscription.ErrUsageExceeded
}

func (s *Store) Customer(ctx context.Context, userID int64) (*subscription.Customer, error) {
	c := subscription.Customer{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT username, email, COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, '')
		FROM users WHERE id = $1`,
		userID,
	).Scan(&c.Username, &c.Email, &c.StripeCustomerID, &c.StripeSubscriptionID)
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return &c, nil
}

func (s *Store) UserIDByStripeCustomer(ctx context.Context, customerID string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM users WHERE stripe_customer_id = $1`, customerID).Scan(&id)
	if pg.IsNotFoundError(err) {
		return 0, subscription.ErrCustomerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query stripe customer: %w", err)
	}
	return id, nil
}

func (s *Store) SetStripeCustomer(ctx context.Context, userID int64, customerID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET stripe_customer_id = $2 WHERE id = $1`, userID, customerID)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) SetStripeSubscription(ctx context.Context, userID int64, customerID, subscriptionID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET
			stripe_customer_id = COALESCE(NULLIF($2, ''), stripe_customer_id),
			stripe_subscription_id = COALESCE(NULLIF($3, ''), stripe_subscription_id)
		WHERE id = $1`,
		userID, customerID, subscriptionID,
	)
	if err != nil {
		return fmt.Errorf("failed to set stripe subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO webhook_events (event_id, type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventType,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Unmark(ctx context.Context, eventID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM webhook_events WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("failed to unmark webhook event: %w", err)
	}
	return nil
}

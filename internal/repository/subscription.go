package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository is the persistence interface for the subscription
// ledger. All mutations to a user's row are serialized: Mutate runs its
// callback inside a transaction holding a row lock, and lazy creation is an
// atomic upsert so concurrent first access cannot race-create duplicates.
type SubscriptionRepository interface {
	// GetByUserID returns the user's subscription or ErrNotFound.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)

	// GetByStripeSubscriptionID returns the row linked to the given external
	// subscription id, or ErrNotFound.
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)

	// CreateIfAbsent inserts the row unless the user already has one, and
	// returns the row that won (the inserted one or the pre-existing one).
	CreateIfAbsent(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)

	// Mutate loads the user's row under a row lock, applies fn and persists
	// the result. fn receives nil when no row exists and may return a new row
	// to insert. Returning an error rolls everything back.
	Mutate(ctx context.Context, userID uuid.UUID, fn func(current *domain.Subscription) (*domain.Subscription, error)) (*domain.Subscription, error)

	// DeactivateByStripeSubscriptionID sets is_active=false on the row linked
	// to the external id and returns the committed row. A missing row is not
	// an error; it is reported as a nil row.
	DeactivateByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)

	// Stats returns per-plan counts of subscriptions.
	Stats(ctx context.Context) (*domain.SubscriptionStats, error)
}

const subscriptionColumns = `id, user_id, plan, is_active, stripe_customer_id,
	stripe_subscription_id, started_at, expires_at, created_at, updated_at`

type postgresSubscriptionRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresSubscriptionRepository creates a PostgreSQL-backed subscription repository.
func NewPostgresSubscriptionRepository(pool *pgxpool.Pool, log *logger.Logger) SubscriptionRepository {
	return &postgresSubscriptionRepo{pool: pool, log: log}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.IsActive, &sub.StripeCustomerID,
		&sub.StripeSubscriptionID, &sub.StartedAt, &sub.ExpiresAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan subscription: %w", err)
	}
	return &sub, nil
}

func (r *postgresSubscriptionRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`
	return scanSubscription(r.pool.QueryRow(ctx, query, userID))
}

func (r *postgresSubscriptionRepo) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = $1`
	return scanSubscription(r.pool.QueryRow(ctx, query, stripeSubscriptionID))
}

func (r *postgresSubscriptionRepo) CreateIfAbsent(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	// The unique constraint on user_id closes the create-if-missing race:
	// a concurrent second insert becomes a no-op and the winning row is
	// read back instead.
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.Plan, sub.IsActive, sub.StripeCustomerID,
		sub.StripeSubscriptionID, sub.StartedAt, sub.ExpiresAt, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		r.log.Errorw("Failed to insert subscription", "error", err, "userID", sub.UserID)
		return nil, fmt.Errorf("repository: failed to create subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Someone else won the insert, return their row.
		return r.GetByUserID(ctx, sub.UserID)
	}
	return sub, nil
}

func (r *postgresSubscriptionRepo) Mutate(ctx context.Context, userID uuid.UUID, fn func(current *domain.Subscription) (*domain.Subscription, error)) (*domain.Subscription, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 FOR UPDATE`
	current, err := scanSubscription(tx.QueryRow(ctx, query, userID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Nothing to persist.
		return current, tx.Commit(ctx)
	}

	if current == nil {
		insert := `
			INSERT INTO subscriptions (` + subscriptionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err = tx.Exec(ctx, insert,
			updated.ID, updated.UserID, updated.Plan, updated.IsActive, updated.StripeCustomerID,
			updated.StripeSubscriptionID, updated.StartedAt, updated.ExpiresAt, updated.CreatedAt, updated.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, ErrDuplicate
			}
			return nil, fmt.Errorf("repository: failed to insert subscription: %w", err)
		}
	} else {
		update := `
			UPDATE subscriptions SET
				plan = $2, is_active = $3, stripe_customer_id = $4,
				stripe_subscription_id = $5, started_at = $6, expires_at = $7, updated_at = $8
			WHERE user_id = $1`
		_, err = tx.Exec(ctx, update,
			updated.UserID, updated.Plan, updated.IsActive, updated.StripeCustomerID,
			updated.StripeSubscriptionID, updated.StartedAt, updated.ExpiresAt, updated.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to update subscription: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit subscription mutation: %w", err)
	}
	return updated, nil
}

func (r *postgresSubscriptionRepo) DeactivateByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	// Single statement, so the returned row is exactly what was committed.
	query := `
		UPDATE subscriptions SET is_active = false, updated_at = now()
		WHERE stripe_subscription_id = $1
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, stripeSubscriptionID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		r.log.Errorw("Failed to deactivate subscription", "error", err, "stripeSubscriptionID", stripeSubscriptionID)
		return nil, fmt.Errorf("repository: failed to deactivate subscription: %w", err)
	}
	return sub, nil
}

func (r *postgresSubscriptionRepo) Stats(ctx context.Context) (*domain.SubscriptionStats, error) {
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE is_active),
			count(*) FILTER (WHERE plan = 'free' AND is_active),
			count(*) FILTER (WHERE plan = 'professional' AND is_active),
			count(*) FILTER (WHERE plan = 'enterprise' AND is_active)
		FROM subscriptions`

	var stats domain.SubscriptionStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total, &stats.Active, &stats.Free, &stats.Professional, &stats.Enterprise,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to load subscription stats: %w", err)
	}
	return &stats, nil
}

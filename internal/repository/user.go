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

// UserRepository is the persistence interface for accounts and profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile *domain.Profile) error
}

type postgresUserRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresUserRepository creates a PostgreSQL-backed user repository.
func NewPostgresUserRepository(pool *pgxpool.Pool, log *logger.Logger) UserRepository {
	return &postgresUserRepo{pool: pool, log: log}
}

const userColumns = `id, email, username, hashed_password, role, is_active, is_verified, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword, &u.Role,
		&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *postgresUserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, user.Username, user.HashedPassword, user.Role,
		user.IsActive, user.IsVerified, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		r.log.Errorw("Failed to create user", "error", err, "email", user.Email)
		return fmt.Errorf("repository: failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

const profileColumns = `id, user_id, first_name, last_name, college, major, year, bio, skills,
	experience, github_url, linkedin_url, portfolio_url, avatar_url, is_public, created_at, updated_at`

func (r *postgresUserRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.College, &p.Major, &p.Year,
		&p.Bio, &p.Skills, &p.Experience, &p.GithubURL, &p.LinkedinURL,
		&p.PortfolioURL, &p.AvatarURL, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan profile: %w", err)
	}
	return &p, nil
}

func (r *postgresUserRepo) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			college = EXCLUDED.college, major = EXCLUDED.major, year = EXCLUDED.year,
			bio = EXCLUDED.bio, skills = EXCLUDED.skills, experience = EXCLUDED.experience,
			github_url = EXCLUDED.github_url, linkedin_url = EXCLUDED.linkedin_url,
			portfolio_url = EXCLUDED.portfolio_url, avatar_url = EXCLUDED.avatar_url,
			is_public = EXCLUDED.is_public, updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		profile.ID, profile.UserID, profile.FirstName, profile.LastName, profile.College,
		profile.Major, profile.Year, profile.Bio, profile.Skills, profile.Experience,
		profile.GithubURL, profile.LinkedinURL, profile.PortfolioURL, profile.AvatarURL,
		profile.IsPublic, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		r.log.Errorw("Failed to upsert profile", "error", err, "userID", profile.UserID)
		return fmt.Errorf("repository: failed to upsert profile: %w", err)
	}
	return nil
}

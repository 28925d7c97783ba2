package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectRepository is the persistence interface for project postings.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

type postgresProjectRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresProjectRepository creates a PostgreSQL-backed project repository.
func NewPostgresProjectRepository(pool *pgxpool.Pool, log *logger.Logger) ProjectRepository {
	return &postgresProjectRepo{pool: pool, log: log}
}

const projectColumns = `id, owner_id, title, description, required_skills, budget_min, budget_max,
	timeline, status, is_remote, created_at, updated_at, expires_at`

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.RequiredSkills,
		&p.BudgetMin, &p.BudgetMax, &p.Timeline, &p.Status, &p.IsRemote,
		&p.CreatedAt, &p.UpdatedAt, &p.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan project: %w", err)
	}
	return &p, nil
}

func (r *postgresProjectRepo) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		project.ID, project.OwnerID, project.Title, project.Description, project.RequiredSkills,
		project.BudgetMin, project.BudgetMax, project.Timeline, project.Status, project.IsRemote,
		project.CreatedAt, project.UpdatedAt, project.ExpiresAt,
	)
	if err != nil {
		r.log.Errorw("Failed to create project", "error", err, "ownerID", project.OwnerID)
		return fmt.Errorf("repository: failed to create project: %w", err)
	}
	return nil
}

func (r *postgresProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresProjectRepo) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.OwnerID != nil {
		conds = append(conds, "owner_id = "+arg(*filter.OwnerID))
	}
	if filter.Skill != "" {
		conds = append(conds, arg(filter.Skill)+" = ANY(required_skills)")
	}
	if filter.IsRemote != nil {
		conds = append(conds, "is_remote = "+arg(*filter.IsRemote))
	}

	query := `SELECT ` + projectColumns + ` FROM projects`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += " LIMIT " + arg(limit)
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *postgresProjectRepo) Update(ctx context.Context, project *domain.Project) error {
	query := `
		UPDATE projects SET
			title = $2, description = $3, required_skills = $4, budget_min = $5,
			budget_max = $6, timeline = $7, status = $8, is_remote = $9,
			updated_at = $10, expires_at = $11
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		project.ID, project.Title, project.Description, project.RequiredSkills,
		project.BudgetMin, project.BudgetMax, project.Timeline, project.Status,
		project.IsRemote, project.UpdatedAt, project.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresProjectRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM projects WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count projects: %w", err)
	}
	return count, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollaborationRepository is the persistence interface for collaboration requests.
type CollaborationRepository interface {
	Create(ctx context.Context, req *domain.CollaborationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CollaborationRequest, error)
	ListBySender(ctx context.Context, senderID uuid.UUID) ([]domain.CollaborationRequest, error)
	ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]domain.CollaborationRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CollaborationStatus) error
}

type postgresCollaborationRepo struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresCollaborationRepository creates a PostgreSQL-backed collaboration repository.
func NewPostgresCollaborationRepository(pool *pgxpool.Pool, log *logger.Logger) CollaborationRepository {
	return &postgresCollaborationRepo{pool: pool, log: log}
}

const collaborationColumns = `id, sender_id, receiver_id, project_id, message, status, created_at, updated_at`

func scanCollaboration(row rowScanner) (*domain.CollaborationRequest, error) {
	var c domain.CollaborationRequest
	err := row.Scan(&c.ID, &c.SenderID, &c.ReceiverID, &c.ProjectID, &c.Message,
		&c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan collaboration request: %w", err)
	}
	return &c, nil
}

func (r *postgresCollaborationRepo) Create(ctx context.Context, req *domain.CollaborationRequest) error {
	query := `
		INSERT INTO collaboration_requests (` + collaborationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.SenderID, req.ReceiverID, req.ProjectID, req.Message,
		req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		r.log.Errorw("Failed to create collaboration request", "error", err, "senderID", req.SenderID)
		return fmt.Errorf("repository: failed to create collaboration request: %w", err)
	}
	return nil
}

func (r *postgresCollaborationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CollaborationRequest, error) {
	query := `SELECT ` + collaborationColumns + ` FROM collaboration_requests WHERE id = $1`
	return scanCollaboration(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresCollaborationRepo) listBy(ctx context.Context, column string, id uuid.UUID) ([]domain.CollaborationRequest, error) {
	query := `SELECT ` + collaborationColumns + ` FROM collaboration_requests WHERE ` + column + ` = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list collaboration requests: %w", err)
	}
	defer rows.Close()

	requests := []domain.CollaborationRequest{}
	for rows.Next() {
		c, err := scanCollaboration(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *c)
	}
	return requests, rows.Err()
}

func (r *postgresCollaborationRepo) ListBySender(ctx context.Context, senderID uuid.UUID) ([]domain.CollaborationRequest, error) {
	return r.listBy(ctx, "sender_id", senderID)
}

func (r *postgresCollaborationRepo) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]domain.CollaborationRequest, error) {
	return r.listBy(ctx, "receiver_id", receiverID)
}

func (r *postgresCollaborationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CollaborationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE collaboration_requests SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("repository: failed to update collaboration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

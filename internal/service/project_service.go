package service

import (
	"context"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
)

// ProjectService manages project postings. Creation is gated by the owner's
// subscription plan project limit.
type ProjectService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req domain.ProjectRequest) (*domain.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	Update(ctx context.Context, id, callerID uuid.UUID, req domain.ProjectRequest) (*domain.Project, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
}

type projectService struct {
	projects      repository.ProjectRepository
	subscriptions SubscriptionService
	log           *logger.Logger
}

func NewProjectService(projects repository.ProjectRepository, subscriptions SubscriptionService, log *logger.Logger) ProjectService {
	return &projectService{projects: projects, subscriptions: subscriptions, log: log}
}

func (s *projectService) Create(ctx context.Context, ownerID uuid.UUID, req domain.ProjectRequest) (*domain.Project, error) {
	count, err := s.projects.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.subscriptions.CanCreateProject(ctx, ownerID, count); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          req.Title,
		Description:    req.Description,
		RequiredSkills: req.RequiredSkills,
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		Timeline:       req.Timeline,
		Status:         domain.ProjectStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.IsRemote != nil {
		project.IsRemote = *req.IsRemote
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.log.Infow("Project created", "projectID", project.ID, "ownerID", ownerID)
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	return s.projects.List(ctx, filter)
}

func (s *projectService) Update(ctx context.Context, id, callerID uuid.UUID, req domain.ProjectRequest) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}

	project.Title = req.Title
	project.Description = req.Description
	project.RequiredSkills = req.RequiredSkills
	project.BudgetMin = req.BudgetMin
	project.BudgetMax = req.BudgetMax
	project.Timeline = req.Timeline
	if req.IsRemote != nil {
		project.IsRemote = *req.IsRemote
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != callerID {
		return domain.ErrForbidden
	}
	return s.projects.Delete(ctx, id)
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
)

// ProfileService manages user profiles.
type ProfileService interface {
	// Get returns the user's own profile.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)

	// GetPublic returns another user's profile only when it is public.
	GetPublic(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)

	// Upsert creates or replaces the user's profile.
	Upsert(ctx context.Context, userID uuid.UUID, req domain.ProfileRequest) (*domain.Profile, error)
}

type profileService struct {
	users repository.UserRepository
	log   *logger.Logger
}

func NewProfileService(users repository.UserRepository, log *logger.Logger) ProfileService {
	return &profileService{users: users, log: log}
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return s.users.GetProfile(ctx, userID)
}

func (s *profileService) GetPublic(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsPublic {
		return nil, repository.ErrNotFound
	}
	return profile, nil
}

func (s *profileService) Upsert(ctx context.Context, userID uuid.UUID, req domain.ProfileRequest) (*domain.Profile, error) {
	now := time.Now().UTC()

	existing, err := s.users.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	profile := &domain.Profile{
		ID:        uuid.New(),
		UserID:    userID,
		IsPublic:  true,
		CreatedAt: now,
	}
	if existing != nil {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		profile.IsPublic = existing.IsPublic
	}

	profile.FirstName = req.FirstName
	profile.LastName = req.LastName
	profile.College = req.College
	profile.Major = req.Major
	profile.Year = req.Year
	profile.Bio = req.Bio
	profile.Skills = req.Skills
	profile.Experience = req.Experience
	profile.GithubURL = req.GithubURL
	profile.LinkedinURL = req.LinkedinURL
	profile.PortfolioURL = req.PortfolioURL
	if req.IsPublic != nil {
		profile.IsPublic = *req.IsPublic
	}
	profile.UpdatedAt = now

	if err := s.users.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes regular students from administrators.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// User is a registered account. The password hash never leaves the backend.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	Role           UserRole  `json:"role"`
	IsActive       bool      `json:"is_active"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile is the public-facing part of a user account.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	College      string    `json:"college"`
	Major        string    `json:"major"`
	Year         int       `json:"year"`
	Bio          string    `json:"bio,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	Experience   string    `json:"experience,omitempty"`
	GithubURL    string    `json:"github_url,omitempty"`
	LinkedinURL  string    `json:"linkedin_url,omitempty"`
	PortfolioURL string    `json:"portfolio_url,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        *User     `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ProfileRequest is the payload for creating or updating a profile.
type ProfileRequest struct {
	FirstName    string   `json:"first_name" binding:"required,max=100"`
	LastName     string   `json:"last_name" binding:"required,max=100"`
	College      string   `json:"college" binding:"required,max=255"`
	Major        string   `json:"major" binding:"required,max=255"`
	Year         int      `json:"year" binding:"required,min=1,max=8"`
	Bio          string   `json:"bio"`
	Skills       []string `json:"skills"`
	Experience   string   `json:"experience"`
	GithubURL    string   `json:"github_url"`
	LinkedinURL  string   `json:"linkedin_url"`
	PortfolioURL string   `json:"portfolio_url"`
	IsPublic     *bool    `json:"is_public"`
}


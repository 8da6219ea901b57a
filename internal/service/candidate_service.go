package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
)

// CandidateService handles candidate accounts and login.
type CandidateService struct {
	candidateRepo *repository.CandidateRepository
	authService   *AuthService
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(candidateRepo *repository.CandidateRepository, authService *AuthService) *CandidateService {
	return &CandidateService{
		candidateRepo: candidateRepo,
		authService:   authService,
	}
}

// Login verifies credentials and issues a JWT. Unknown emails and wrong
// passwords both surface as ErrInvalidCredentials so the response does not
// leak which accounts exist.
func (s *CandidateService) Login(ctx context.Context, email, password string) (*model.Candidate, string, error) {
	candidate, err := s.candidateRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get candidate: %w", err)
	}

	if err := s.authService.CheckPassword(candidate.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.authService.GenerateToken(ctx, candidate.ID)
	if err != nil {
		return nil, "", err
	}
	return candidate, token, nil
}

// Logout drops the candidate's login session.
func (s *CandidateService) Logout(ctx context.Context, candidateID int) error {
	return s.authService.ResetSession(ctx, candidateID)
}

// Register creates a candidate account with a hashed password.
func (s *CandidateService) Register(ctx context.Context, email, name, password string, targetYear int) (*model.Candidate, error) {
	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	candidate := &model.Candidate{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		TargetYear:   targetYear,
	}
	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// GetProfile retrieves a candidate by ID.
func (s *CandidateService) GetProfile(ctx context.Context, candidateID int) (*model.Candidate, error) {
	return s.candidateRepo.GetByID(ctx, candidateID)
}

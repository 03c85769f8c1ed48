package staff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Service handles staff account logic.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService builds a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, validate: validator.New()}
}

// Create registers a staff account with a bcrypt hashed password.
func (s *Service) Create(ctx context.Context, req CreateMemberRequest) (*Member, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	if !ValidRole(req.Role) {
		return nil, fmt.Errorf("%w: invalid role %q", httpx.ErrValidation, req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	m := &Member{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, wrapErr(err)
	}
	return m, nil
}

// Get loads one staff member.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return m, nil
}

// List returns all staff accounts.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.repo.List(ctx)
}

// Update patches one staff account, rehashing the password when supplied.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateMemberRequest) (*Member, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Email != nil {
		m.Email = *req.Email
	}
	if req.Role != nil {
		if !ValidRole(*req.Role) {
			return nil, fmt.Errorf("%w: invalid role %q", httpx.ErrValidation, *req.Role)
		}
		m.Role = *req.Role
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		m.PasswordHash = string(hash)
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, wrapErr(err)
	}
	return m, nil
}

// Delete removes a staff account.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return wrapErr(s.repo.Delete(ctx, id))
}

// Authenticate verifies credentials for an active account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Member, error) {
	m, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, wrapErr(err)
	}
	if !m.IsActive {
		return nil, fmt.Errorf("%w: account disabled", httpx.ErrConflict)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", httpx.ErrValidation)
	}
	return m, nil
}

func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: staff member", httpx.ErrNotFound)
	case errors.Is(err, ErrEmailTaken):
		return fmt.Errorf("%w: staff email already in use", httpx.ErrDuplicate)
	}
	return err
}

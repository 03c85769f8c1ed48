package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Service handles client business logic.
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

// Create registers a new active client. Email must be unique.
func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	c := &Client{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Address:  req.Address,
		City:     req.City,
		Country:  req.Country,
		TaxID:    req.TaxID,
		IsActive: true,
		Notes:    req.Notes,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, wrapErr(err)
	}
	return c, nil
}

// Get loads one client.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return c, nil
}

// List returns clients matching the filter.
func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

// Update patches one client.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*Client, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Company != nil {
		c.Company = *req.Company
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.City != nil {
		c.City = *req.City
	}
	if req.Country != nil {
		c.Country = *req.Country
	}
	if req.TaxID != nil {
		c.TaxID = *req.TaxID
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, wrapErr(err)
	}
	return c, nil
}

// Deactivate flags a client inactive without deleting its history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Client, error) {
	inactive := false
	return s.Update(ctx, id, UpdateClientRequest{IsActive: &inactive})
}

// Delete removes a client permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return wrapErr(s.repo.Delete(ctx, id))
}

func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: client", httpx.ErrNotFound)
	case errors.Is(err, ErrEmailTaken):
		return fmt.Errorf("%w: client email already in use", httpx.ErrDuplicate)
	}
	return err
}

package app

import (
	"context"
	"fmt"

	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/logger"
	"github.com/scopewatch/api/pkg/pagination"
	"github.com/scopewatch/api/pkg/validator"
)

// ProgramService handles monitored program management.
type ProgramService struct {
	programRepo program.Repository
	validate    *validator.Validator
	logger      *logger.Logger
}

// NewProgramService creates a new ProgramService.
func NewProgramService(programRepo program.Repository, log *logger.Logger) *ProgramService {
	return &ProgramService{
		programRepo: programRepo,
		validate:    validator.New(),
		logger:      log.With("service", "program"),
	}
}

// CreateProgramInput represents the input for registering a program.
type CreateProgramInput struct {
	Platform string `json:"platform" validate:"required"`
	Handle   string `json:"handle" validate:"required,max=200"`
	Name     string `json:"name" validate:"max=300"`
	URL      string `json:"url" validate:"omitempty,url"`
}

// Create registers a new program for monitoring.
func (s *ProgramService) Create(ctx context.Context, input CreateProgramInput) (*program.Program, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	platform, err := program.ParsePlatform(input.Platform)
	if err != nil {
		return nil, err
	}

	p, err := program.New(platform, input.Handle, input.Name, input.URL)
	if err != nil {
		return nil, err
	}

	if err := s.programRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("program registered", "platform", platform.String(), "handle", p.Handle())
	return p, nil
}

// Get retrieves a program by ID.
func (s *ProgramService) Get(ctx context.Context, id shared.ID) (*program.Program, error) {
	return s.programRepo.GetByID(ctx, id)
}

// List retrieves programs with pagination.
func (s *ProgramService) List(ctx context.Context, pg pagination.Pagination) (pagination.Result[*program.Program], error) {
	return s.programRepo.List(ctx, pg)
}

// SetActive toggles monitoring for a program.
func (s *ProgramService) SetActive(ctx context.Context, id shared.ID, active bool) (*program.Program, error) {
	p, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		p.Activate()
	} else {
		p.Deactivate()
	}

	if err := s.programRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("program monitoring toggled", "handle", p.Handle(), "active", active)
	return p, nil
}

// Delete removes a program and stops monitoring it.
func (s *ProgramService) Delete(ctx context.Context, id shared.ID) error {
	if err := s.programRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("program deleted", "id", id.String())
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-api/internal/models"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
)

type counselorStore interface {
	Create(ctx context.Context, counselor *models.Counselor) error
	Update(ctx context.Context, counselor *models.Counselor) error
	FindByID(ctx context.Context, id int64) (*models.Counselor, error)
	List(ctx context.Context, filter models.CounselorFilter) ([]models.Counselor, int, error)
	Deactivate(ctx context.Context, id int64) error
}

// CreateCounselorRequest is the payload for registering a counselor.
type CreateCounselorRequest struct {
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	PhoneNumber    string `json:"phone_number" validate:"omitempty,max=30"`
	Specialization string `json:"specialization" validate:"omitempty,max=200"`
	Bio            string `json:"bio" validate:"omitempty,max=2000"`
}

// UpdateCounselorRequest is the payload for updating a counselor profile.
type UpdateCounselorRequest struct {
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	PhoneNumber    string `json:"phone_number" validate:"omitempty,max=30"`
	Specialization string `json:"specialization" validate:"omitempty,max=200"`
	Bio            string `json:"bio" validate:"omitempty,max=2000"`
	Active         *bool  `json:"active"`
}

// CounselorService manages the counseling staff directory.
type CounselorService struct {
	store     counselorStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCounselorService creates a counselor service.
func NewCounselorService(store counselorStore, validate *validator.Validate, logger *zap.Logger) *CounselorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounselorService{store: store, validator: validate, logger: logger}
}

// Create registers a new counselor, active by default.
func (s *CounselorService) Create(ctx context.Context, req CreateCounselorRequest) (*models.Counselor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid counselor payload")
	}

	counselor := &models.Counselor{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Specialization: req.Specialization,
		Bio:            req.Bio,
		Active:         true,
	}
	if err := s.store.Create(ctx, counselor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to create counselor")
	}

	s.logger.Info("counselor created", zap.Int64("counselor_id", counselor.ID))
	return counselor, nil
}

// Update replaces a counselor's profile fields.
func (s *CounselorService) Update(ctx context.Context, id int64, req UpdateCounselorRequest) (*models.Counselor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid counselor payload")
	}

	counselor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	counselor.FirstName = req.FirstName
	counselor.LastName = req.LastName
	counselor.Email = req.Email
	counselor.PhoneNumber = req.PhoneNumber
	counselor.Specialization = req.Specialization
	counselor.Bio = req.Bio
	if req.Active != nil {
		counselor.Active = *req.Active
	}

	if err := s.store.Update(ctx, counselor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to update counselor")
	}

	s.logger.Info("counselor updated", zap.Int64("counselor_id", counselor.ID))
	return counselor, nil
}

// GetByID loads a counselor.
func (s *CounselorService) GetByID(ctx context.Context, id int64) (*models.Counselor, error) {
	return s.load(ctx, id)
}

// List returns counselors with pagination metadata.
func (s *CounselorService) List(ctx context.Context, filter models.CounselorFilter) ([]models.Counselor, *models.Pagination, error) {
	counselors, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list counselors")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return counselors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Deactivate soft-deletes a counselor. The record stays so history keeps
// resolving, but the counselor no longer accepts bookings.
func (s *CounselorService) Deactivate(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to deactivate counselor")
	}
	s.logger.Info("counselor deactivated", zap.Int64("counselor_id", id))
	return nil
}

func (s *CounselorService) load(ctx context.Context, id int64) (*models.Counselor, error) {
	counselor, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "counselor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load counselor")
	}
	return counselor, nil
}

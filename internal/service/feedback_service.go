package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-api/internal/models"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
)

const maxCommentLength = 2000

var profanityPattern = regexp.MustCompile(`(?i)(bad|awful|terrible|horrible|worst|hate|stupid|idiot|dumb|suck)`)

type feedbackStore interface {
	Create(ctx context.Context, fb *models.Feedback) error
	Update(ctx context.Context, fb *models.Feedback) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Feedback, error)
	ExistsForAppointment(ctx context.Context, appointmentID, excludeID int64) (bool, error)
	ListAll(ctx context.Context) ([]models.Feedback, error)
	ListByCounselor(ctx context.Context, counselorID int64) ([]models.Feedback, error)
	ListByRatingRange(ctx context.Context, min, max int) ([]models.Feedback, error)
	Search(ctx context.Context, term string) ([]models.Feedback, error)
	RatingByCounselor(ctx context.Context, counselorID int64) (*models.CounselorRating, error)
}

// SubmitFeedbackRequest is the payload for submitting feedback.
type SubmitFeedbackRequest struct {
	AppointmentID int64  `json:"appointment_id" validate:"required,gt=0"`
	StudentID     int64  `json:"student_id" validate:"required,gt=0"`
	CounselorID   int64  `json:"counselor_id" validate:"required,gt=0"`
	Rating        int    `json:"rating" validate:"required"`
	Comments      string `json:"comments"`
}

// UpdateFeedbackRequest is the payload for revising feedback.
type UpdateFeedbackRequest struct {
	Rating   int    `json:"rating" validate:"required"`
	Comments string `json:"comments"`
}

// FeedbackService manages student feedback on appointments. Comments are
// required, bounded in length and screened for abusive language; one
// feedback record is allowed per appointment.
type FeedbackService struct {
	store     feedbackStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService creates a feedback service.
func NewFeedbackService(store feedbackStore, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{store: store, validator: validate, logger: logger}
}

// Submit records feedback for an appointment.
func (s *FeedbackService) Submit(ctx context.Context, req SubmitFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}
	if err := validateFeedbackContent(req.Rating, req.Comments); err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsForAppointment(ctx, req.AppointmentID, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to check existing feedback")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "feedback already submitted for this appointment")
	}

	fb := &models.Feedback{
		AppointmentID: req.AppointmentID,
		StudentID:     req.StudentID,
		CounselorID:   req.CounselorID,
		Rating:        req.Rating,
		Comments:      strings.TrimSpace(req.Comments),
	}
	if err := s.store.Create(ctx, fb); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to save feedback")
	}

	s.logger.Info("feedback submitted",
		zap.Int64("feedback_id", fb.ID),
		zap.Int64("appointment_id", fb.AppointmentID),
		zap.Int("rating", fb.Rating))
	return fb, nil
}

// Update revises the rating and comments of existing feedback.
func (s *FeedbackService) Update(ctx context.Context, id int64, req UpdateFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}
	if err := validateFeedbackContent(req.Rating, req.Comments); err != nil {
		return nil, err
	}

	fb, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	fb.Rating = req.Rating
	fb.Comments = strings.TrimSpace(req.Comments)
	if err := s.store.Update(ctx, fb); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to update feedback")
	}

	s.logger.Info("feedback updated", zap.Int64("feedback_id", fb.ID))
	return fb, nil
}

// Delete removes feedback.
func (s *FeedbackService) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to delete feedback")
	}
	s.logger.Info("feedback deleted", zap.Int64("feedback_id", id))
	return nil
}

// GetByID loads feedback by id.
func (s *FeedbackService) GetByID(ctx context.Context, id int64) (*models.Feedback, error) {
	return s.load(ctx, id)
}

// ListAll returns all feedback, newest first.
func (s *FeedbackService) ListAll(ctx context.Context) ([]models.Feedback, error) {
	items, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list feedback")
	}
	return items, nil
}

// ListByCounselor returns a counselor's feedback, newest first.
func (s *FeedbackService) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Feedback, error) {
	if counselorID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "counselor id is required")
	}
	items, err := s.store.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list counselor feedback")
	}
	return items, nil
}

// ListByRatingRange returns feedback with rating inside [min, max].
func (s *FeedbackService) ListByRatingRange(ctx context.Context, min, max int) ([]models.Feedback, error) {
	if min < 1 || max > 5 || min > max {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating range must satisfy 1 <= min <= max <= 5")
	}
	items, err := s.store.ListByRatingRange(ctx, min, max)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list feedback by rating")
	}
	return items, nil
}

// Search returns feedback whose comments contain the term.
func (s *FeedbackService) Search(ctx context.Context, term string) ([]models.Feedback, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search term must be at least 2 characters")
	}
	items, err := s.store.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to search feedback")
	}
	return items, nil
}

// RatingByCounselor returns a counselor's aggregate rating.
func (s *FeedbackService) RatingByCounselor(ctx context.Context, counselorID int64) (*models.CounselorRating, error) {
	if counselorID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "counselor id is required")
	}
	rating, err := s.store.RatingByCounselor(ctx, counselorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to aggregate counselor rating")
	}
	return rating, nil
}

func (s *FeedbackService) load(ctx context.Context, id int64) (*models.Feedback, error) {
	fb, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load feedback")
	}
	return fb, nil
}

func validateFeedbackContent(rating int, comments string) error {
	if rating < 1 || rating > 5 {
		return appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}
	trimmed := strings.TrimSpace(comments)
	if trimmed == "" {
		return appErrors.Clone(appErrors.ErrValidation, "comments are required")
	}
	if len(trimmed) > maxCommentLength {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("comments must not exceed %d characters", maxCommentLength))
	}
	if profanityPattern.MatchString(trimmed) {
		return appErrors.Clone(appErrors.ErrValidation, "comments contain inappropriate language")
	}
	return nil
}

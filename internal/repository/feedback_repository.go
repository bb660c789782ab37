package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wellness-api/internal/models"
)

const feedbackColumns = "id, appointment_id, student_id, counselor_id, rating, comments, created_at, updated_at"

// FeedbackRepository provides persistence for appointment feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create stores new feedback and assigns its identifier.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	now := time.Now().UTC()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	const query = `INSERT INTO feedback (appointment_id, student_id, counselor_id, rating, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		fb.AppointmentID, fb.StudentID, fb.CounselorID, fb.Rating, fb.Comments, fb.CreatedAt, fb.UpdatedAt,
	).Scan(&fb.ID)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// Update modifies a feedback record.
func (r *FeedbackRepository) Update(ctx context.Context, fb *models.Feedback) error {
	fb.UpdatedAt = time.Now().UTC()
	const query = `UPDATE feedback SET rating = :rating, comments = :comments, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fb); err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return nil
}

// Delete removes feedback by id.
func (r *FeedbackRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return nil
}

// FindByID loads feedback by id. Returns sql.ErrNoRows when absent.
func (r *FeedbackRepository) FindByID(ctx context.Context, id int64) (*models.Feedback, error) {
	query := fmt.Sprintf("SELECT %s FROM feedback WHERE id = $1", feedbackColumns)
	var fb models.Feedback
	if err := r.db.GetContext(ctx, &fb, query, id); err != nil {
		return nil, err
	}
	return &fb, nil
}

// ExistsForAppointment reports whether feedback already exists for the
// appointment, optionally ignoring one feedback id (for updates).
func (r *FeedbackRepository) ExistsForAppointment(ctx context.Context, appointmentID, excludeID int64) (bool, error) {
	const query = `SELECT 1 FROM feedback WHERE appointment_id = $1 AND ($2 = 0 OR id <> $2) LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, appointmentID, excludeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("feedback exists for appointment: %w", err)
	}
	return true, nil
}

// ListAll returns all feedback, newest first.
func (r *FeedbackRepository) ListAll(ctx context.Context) ([]models.Feedback, error) {
	query := fmt.Sprintf("SELECT %s FROM feedback ORDER BY created_at DESC", feedbackColumns)
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// ListByCounselor returns feedback for a counselor, newest first.
func (r *FeedbackRepository) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Feedback, error) {
	query := fmt.Sprintf("SELECT %s FROM feedback WHERE counselor_id = $1 ORDER BY created_at DESC", feedbackColumns)
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query, counselorID); err != nil {
		return nil, fmt.Errorf("list feedback by counselor: %w", err)
	}
	return items, nil
}

// ListByRatingRange returns feedback with rating in [min, max], newest first.
func (r *FeedbackRepository) ListByRatingRange(ctx context.Context, min, max int) ([]models.Feedback, error) {
	query := fmt.Sprintf("SELECT %s FROM feedback WHERE rating BETWEEN $1 AND $2 ORDER BY created_at DESC", feedbackColumns)
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query, min, max); err != nil {
		return nil, fmt.Errorf("list feedback by rating range: %w", err)
	}
	return items, nil
}

// Search returns feedback whose comments match the term, newest first.
func (r *FeedbackRepository) Search(ctx context.Context, term string) ([]models.Feedback, error) {
	query := fmt.Sprintf("SELECT %s FROM feedback WHERE comments ILIKE $1 ORDER BY created_at DESC", feedbackColumns)
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("search feedback: %w", err)
	}
	return items, nil
}

// RatingByCounselor aggregates average rating and feedback count.
func (r *FeedbackRepository) RatingByCounselor(ctx context.Context, counselorID int64) (*models.CounselorRating, error) {
	const query = `SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS total FROM feedback WHERE counselor_id = $1`
	var row struct {
		AvgRating float64 `db:"avg_rating"`
		Total     int     `db:"total"`
	}
	if err := r.db.GetContext(ctx, &row, query, counselorID); err != nil {
		return nil, fmt.Errorf("rating by counselor: %w", err)
	}
	return &models.CounselorRating{
		CounselorID:   counselorID,
		AverageRating: row.AvgRating,
		FeedbackCount: row.Total,
	}, nil
}

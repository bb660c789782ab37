package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/wellness-api/internal/models"
)

// ErrOverlap is returned when the database exclusion constraint rejects a
// write because the interval collides with an existing non-cancelled booking
// for the same counselor. The service layer translates it into a conflict
// error; it must not be retried automatically.
var ErrOverlap = errors.New("appointment interval overlaps an existing booking")

const appointmentColumns = "id, counselor_id, student_id, start_time, end_time, status, notes, created_at, updated_at"

// AppointmentRepository provides persistence for appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create stores a new appointment and assigns its identifier.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	const query = `INSERT INTO appointments (counselor_id, student_id, start_time, end_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		appt.CounselorID, appt.StudentID, appt.StartTime, appt.EndTime,
		appt.Status, appt.Notes, appt.CreatedAt, appt.UpdatedAt,
	).Scan(&appt.ID)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// Update persists mutable appointment fields.
func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	appt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE appointments SET start_time = :start_time, end_time = :end_time, status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, appt); err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

// FindByID loads an appointment by id. Returns sql.ErrNoRows when absent.
func (r *AppointmentRepository) FindByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1", appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// List returns appointments with optional filtering and pagination.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	base := "FROM appointments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CounselorID != 0 {
		conditions = append(conditions, fmt.Sprintf("counselor_id = $%d", len(args)+1))
		args = append(args, filter.CounselorID)
	}
	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"start_time": true,
		"end_time":   true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_time"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", appointmentColumns, base, sortBy, order, size, offset)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	return appointments, total, nil
}

// ListByCounselor returns a counselor's appointments ordered by start time.
func (r *AppointmentRepository) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE counselor_id = $1 ORDER BY start_time ASC", appointmentColumns)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, counselorID); err != nil {
		return nil, fmt.Errorf("list appointments by counselor: %w", err)
	}
	return appointments, nil
}

// ListByStudent returns a student's appointments ordered by start time.
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE student_id = $1 ORDER BY start_time ASC", appointmentColumns)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, studentID); err != nil {
		return nil, fmt.Errorf("list appointments by student: %w", err)
	}
	return appointments, nil
}

// FindByCounselorAndDateRange returns the counselor's non-cancelled
// appointments whose interval intersects [start, end). Used as the conflict
// candidate set and for availability computation.
func (r *AppointmentRepository) FindByCounselorAndDateRange(ctx context.Context, counselorID int64, start, end time.Time) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments
		WHERE counselor_id = $1 AND start_time < $3 AND end_time > $2 AND status <> $4
		ORDER BY start_time ASC`, appointmentColumns)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, counselorID, start, end, models.StatusCancelled); err != nil {
		return nil, fmt.Errorf("find appointments by counselor and range: %w", err)
	}
	return appointments, nil
}

// CountByStudentAndDateRange counts a student's non-cancelled appointments
// that start within [start, end), optionally excluding one appointment id.
func (r *AppointmentRepository) CountByStudentAndDateRange(ctx context.Context, studentID int64, start, end time.Time, excludeID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM appointments
		WHERE student_id = $1 AND start_time >= $2 AND start_time < $3 AND status <> $4 AND ($5 = 0 OR id <> $5)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, start, end, models.StatusCancelled, excludeID); err != nil {
		return 0, fmt.Errorf("count appointments by student and range: %w", err)
	}
	return count, nil
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 23P01 exclusion_violation, 23505 unique_violation.
	return pqErr.Code == "23P01" || pqErr.Code == "23505"
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wellness-api/internal/models"
)

const counselorColumns = "id, first_name, last_name, email, phone_number, specialization, bio, active, created_at, updated_at"

// CounselorRepository provides persistence for counselors.
type CounselorRepository struct {
	db *sqlx.DB
}

// NewCounselorRepository creates a new counselor repository.
func NewCounselorRepository(db *sqlx.DB) *CounselorRepository {
	return &CounselorRepository{db: db}
}

// Exists reports whether an active counselor with the given id exists.
func (r *CounselorRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT 1 FROM counselors WHERE id = $1 AND active = TRUE LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("counselor exists: %w", err)
	}
	return true, nil
}

// FindByID loads a counselor by id. Returns sql.ErrNoRows when absent.
func (r *CounselorRepository) FindByID(ctx context.Context, id int64) (*models.Counselor, error) {
	query := fmt.Sprintf("SELECT %s FROM counselors WHERE id = $1", counselorColumns)
	var counselor models.Counselor
	if err := r.db.GetContext(ctx, &counselor, query, id); err != nil {
		return nil, err
	}
	return &counselor, nil
}

// List returns counselors with optional filtering and pagination.
func (r *CounselorRepository) List(ctx context.Context, filter models.CounselorFilter) ([]models.Counselor, int, error) {
	base := "FROM counselors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"last_name":  true,
		"email":      true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "last_name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", counselorColumns, base, sortBy, order, size, offset)
	var counselors []models.Counselor
	if err := r.db.SelectContext(ctx, &counselors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list counselors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count counselors: %w", err)
	}

	return counselors, total, nil
}

// Create stores a new counselor and assigns its identifier.
func (r *CounselorRepository) Create(ctx context.Context, counselor *models.Counselor) error {
	now := time.Now().UTC()
	counselor.CreatedAt = now
	counselor.UpdatedAt = now

	const query = `INSERT INTO counselors (first_name, last_name, email, phone_number, specialization, bio, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		counselor.FirstName, counselor.LastName, counselor.Email, counselor.PhoneNumber,
		counselor.Specialization, counselor.Bio, counselor.Active, counselor.CreatedAt, counselor.UpdatedAt,
	).Scan(&counselor.ID)
	if err != nil {
		return fmt.Errorf("create counselor: %w", err)
	}
	return nil
}

// Update modifies a counselor record.
func (r *CounselorRepository) Update(ctx context.Context, counselor *models.Counselor) error {
	counselor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE counselors SET first_name = :first_name, last_name = :last_name, email = :email, phone_number = :phone_number, specialization = :specialization, bio = :bio, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, counselor); err != nil {
		return fmt.Errorf("update counselor: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a counselor.
func (r *CounselorRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE counselors SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate counselor: %w", err)
	}
	return nil
}

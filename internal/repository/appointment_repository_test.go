package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-api/internal/models"
)

func newAppointmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func appointmentRows(appointments ...models.Appointment) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "counselor_id", "student_id", "start_time", "end_time", "status", "notes", "created_at", "updated_at"})
	for _, appt := range appointments {
		rows.AddRow(appt.ID, appt.CounselorID, appt.StudentID, appt.StartTime, appt.EndTime, appt.Status, appt.Notes, appt.CreatedAt, appt.UpdatedAt)
	}
	return rows
}

func TestAppointmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(1), int64(10), sqlmock.AnyArg(), sqlmock.AnyArg(), models.StatusScheduled, "intake", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	appt := &models.Appointment{
		CounselorID: 1,
		StudentID:   10,
		StartTime:   time.Now().Add(time.Hour),
		EndTime:     time.Now().Add(2 * time.Hour),
		Status:      models.StatusScheduled,
		Notes:       "intake",
	}
	require.NoError(t, repo.Create(context.Background(), appt))
	assert.Equal(t, int64(42), appt.ID)
	assert.False(t, appt.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateOverlap(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})

	err := repo.Create(context.Background(), &models.Appointment{
		CounselorID: 1,
		StudentID:   10,
		StartTime:   time.Now().Add(time.Hour),
		EndTime:     time.Now().Add(2 * time.Hour),
		Status:      models.StatusScheduled,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, counselor_id, student_id, start_time, end_time, status, notes, created_at, updated_at FROM appointments WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(appointmentRows(models.Appointment{
			ID: 7, CounselorID: 1, StudentID: 10,
			StartTime: now, EndTime: now.Add(time.Hour),
			Status: models.StatusScheduled, CreatedAt: now, UpdatedAt: now,
		}))

	appt, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), appt.ID)
	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery("SELECT .* FROM appointments WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, counselor_id, student_id, start_time, end_time, status, notes, created_at, updated_at FROM appointments WHERE 1=1 AND counselor_id = $1 AND status = $2 ORDER BY start_time ASC LIMIT 20 OFFSET 0")).
		WithArgs(int64(1), models.StatusScheduled).
		WillReturnRows(appointmentRows(models.Appointment{
			ID: 1, CounselorID: 1, StudentID: 10,
			StartTime: now, EndTime: now.Add(time.Hour),
			Status: models.StatusScheduled, CreatedAt: now, UpdatedAt: now,
		}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM appointments WHERE 1=1 AND counselor_id = $1 AND status = $2")).
		WithArgs(int64(1), models.StatusScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	appointments, total, err := repo.List(context.Background(), models.AppointmentFilter{
		CounselorID: 1,
		Status:      models.StatusScheduled,
	})
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryFindByCounselorAndDateRange(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	start := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	mock.ExpectQuery("SELECT .* FROM appointments\\s+WHERE counselor_id = \\$1 AND start_time < \\$3 AND end_time > \\$2 AND status <> \\$4").
		WithArgs(int64(1), start, end, models.StatusCancelled).
		WillReturnRows(appointmentRows())

	appointments, err := repo.FindByCounselorAndDateRange(context.Background(), 1, start, end)
	require.NoError(t, err)
	assert.Empty(t, appointments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCountByStudentAndDateRange(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	start := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM appointments\\s+WHERE student_id = \\$1 AND start_time >= \\$2 AND start_time < \\$3 AND status <> \\$4 AND \\(\\$5 = 0 OR id <> \\$5\\)").
		WithArgs(int64(10), start, end, models.StatusCancelled, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByStudentAndDateRange(context.Background(), 10, start, end, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateOverlap(t *testing.T) {
	db, mock, cleanup := newAppointmentMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments SET").
		WillReturnError(&pq.Error{Code: "23P01"})

	err := repo.Update(context.Background(), &models.Appointment{
		ID: 1, CounselorID: 1, StudentID: 10,
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
		Status: models.StatusScheduled,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

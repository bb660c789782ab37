package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-api/internal/models"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
)

type mockFeedbackStore struct {
	items  map[int64]*models.Feedback
	nextID int64
	rating *models.CounselorRating
}

func newMockFeedbackStore() *mockFeedbackStore {
	return &mockFeedbackStore{items: make(map[int64]*models.Feedback), nextID: 1}
}

func (m *mockFeedbackStore) Create(ctx context.Context, fb *models.Feedback) error {
	fb.ID = m.nextID
	m.nextID++
	cp := *fb
	m.items[fb.ID] = &cp
	return nil
}

func (m *mockFeedbackStore) Update(ctx context.Context, fb *models.Feedback) error {
	cp := *fb
	m.items[fb.ID] = &cp
	return nil
}

func (m *mockFeedbackStore) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *mockFeedbackStore) FindByID(ctx context.Context, id int64) (*models.Feedback, error) {
	if fb, ok := m.items[id]; ok {
		cp := *fb
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeedbackStore) ExistsForAppointment(ctx context.Context, appointmentID, excludeID int64) (bool, error) {
	for _, fb := range m.items {
		if fb.AppointmentID == appointmentID && (excludeID == 0 || fb.ID != excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFeedbackStore) ListAll(ctx context.Context) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range m.items {
		out = append(out, *fb)
	}
	return out, nil
}

func (m *mockFeedbackStore) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range m.items {
		if fb.CounselorID == counselorID {
			out = append(out, *fb)
		}
	}
	return out, nil
}

func (m *mockFeedbackStore) ListByRatingRange(ctx context.Context, min, max int) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range m.items {
		if fb.Rating >= min && fb.Rating <= max {
			out = append(out, *fb)
		}
	}
	return out, nil
}

func (m *mockFeedbackStore) Search(ctx context.Context, term string) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range m.items {
		if strings.Contains(strings.ToLower(fb.Comments), strings.ToLower(term)) {
			out = append(out, *fb)
		}
	}
	return out, nil
}

func (m *mockFeedbackStore) RatingByCounselor(ctx context.Context, counselorID int64) (*models.CounselorRating, error) {
	if m.rating != nil {
		return m.rating, nil
	}
	return &models.CounselorRating{CounselorID: counselorID}, nil
}

func validFeedback() SubmitFeedbackRequest {
	return SubmitFeedbackRequest{
		AppointmentID: 1,
		StudentID:     10,
		CounselorID:   1,
		Rating:        4,
		Comments:      "Very helpful session, learned useful techniques.",
	}
}

func TestFeedbackServiceSubmit(t *testing.T) {
	store := newMockFeedbackStore()
	svc := NewFeedbackService(store, nil, nil)

	fb, err := svc.Submit(context.Background(), validFeedback())
	require.NoError(t, err)
	assert.NotZero(t, fb.ID)
	assert.Equal(t, 4, fb.Rating)
	assert.Len(t, store.items, 1)
}

func TestFeedbackServiceSubmitDuplicate(t *testing.T) {
	store := newMockFeedbackStore()
	svc := NewFeedbackService(store, nil, nil)

	_, err := svc.Submit(context.Background(), validFeedback())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), validFeedback())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrDuplicate.Code))
	assert.Len(t, store.items, 1)
}

func TestFeedbackServiceSubmitValidation(t *testing.T) {
	store := newMockFeedbackStore()
	svc := NewFeedbackService(store, nil, nil)

	t.Run("rating out of range", func(t *testing.T) {
		req := validFeedback()
		req.Rating = 6
		_, err := svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rating must be between 1 and 5")
	})

	t.Run("empty comments", func(t *testing.T) {
		req := validFeedback()
		req.Comments = "   "
		_, err := svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "comments are required")
	})

	t.Run("comments too long", func(t *testing.T) {
		req := validFeedback()
		req.Comments = strings.Repeat("a", 2001)
		_, err := svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not exceed 2000 characters")
	})

	t.Run("inappropriate language", func(t *testing.T) {
		req := validFeedback()
		req.Comments = "This counselor was TERRIBLE and a waste of time"
		_, err := svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inappropriate language")
	})
}

func TestFeedbackServiceUpdate(t *testing.T) {
	store := newMockFeedbackStore()
	svc := NewFeedbackService(store, nil, nil)

	fb, err := svc.Submit(context.Background(), validFeedback())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), fb.ID, UpdateFeedbackRequest{
		Rating:   5,
		Comments: "Even better on reflection.",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "Even better on reflection.", updated.Comments)
}

func TestFeedbackServiceUpdateNotFound(t *testing.T) {
	svc := NewFeedbackService(newMockFeedbackStore(), nil, nil)

	_, err := svc.Update(context.Background(), 99, UpdateFeedbackRequest{Rating: 3, Comments: "fine session overall"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestFeedbackServiceDelete(t *testing.T) {
	store := newMockFeedbackStore()
	svc := NewFeedbackService(store, nil, nil)

	fb, err := svc.Submit(context.Background(), validFeedback())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), fb.ID))
	assert.Empty(t, store.items)

	err = svc.Delete(context.Background(), fb.ID)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestFeedbackServiceSearch(t *testing.T) {
	store := newMockFeedbackStore()
	svc := NewFeedbackService(store, nil, nil)

	_, err := svc.Submit(context.Background(), validFeedback())
	require.NoError(t, err)

	t.Run("term too short", func(t *testing.T) {
		_, err := svc.Search(context.Background(), "a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 2 characters")
	})

	t.Run("matches comments", func(t *testing.T) {
		items, err := svc.Search(context.Background(), "techniques")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestFeedbackServiceListByRatingRange(t *testing.T) {
	store := newMockFeedbackStore()
	svc := NewFeedbackService(store, nil, nil)

	_, err := svc.ListByRatingRange(context.Background(), 0, 5)
	require.Error(t, err)
	_, err = svc.ListByRatingRange(context.Background(), 1, 6)
	require.Error(t, err)
	_, err = svc.ListByRatingRange(context.Background(), 4, 2)
	require.Error(t, err)

	_, err = svc.ListByRatingRange(context.Background(), 1, 5)
	require.NoError(t, err)
}

func TestFeedbackServiceRatingByCounselor(t *testing.T) {
	store := newMockFeedbackStore()
	store.rating = &models.CounselorRating{CounselorID: 1, AverageRating: 4.5, FeedbackCount: 2}
	svc := NewFeedbackService(store, nil, nil)

	rating, err := svc.RatingByCounselor(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, rating.AverageRating, 0.0001)
	assert.Equal(t, 2, rating.FeedbackCount)

	_, err = svc.RatingByCounselor(context.Background(), 0)
	require.Error(t, err)
}

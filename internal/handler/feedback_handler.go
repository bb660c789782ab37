package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-api/internal/service"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
	"github.com/noah-isme/wellness-api/pkg/response"
)

// FeedbackHandler wires the feedback service to HTTP routes.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs a new FeedbackHandler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Submit godoc
// @Summary Submit appointment feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body service.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	fb, err := h.feedback.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fb)
}

// Update godoc
// @Summary Update feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path int true "Feedback ID"
// @Param payload body service.UpdateFeedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Router /feedback/{id} [put]
func (h *FeedbackHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	fb, err := h.feedback.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fb, nil)
}

// Delete godoc
// @Summary Delete feedback
// @Tags Feedback
// @Param id path int true "Feedback ID"
// @Success 204
// @Router /feedback/{id} [delete]
func (h *FeedbackHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.feedback.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get feedback detail
// @Tags Feedback
// @Produce json
// @Param id path int true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/{id} [get]
func (h *FeedbackHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	fb, err := h.feedback.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fb, nil)
}

// List godoc
// @Summary List feedback
// @Tags Feedback
// @Produce json
// @Param min_rating query int false "Minimum rating"
// @Param max_rating query int false "Maximum rating"
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	minRaw, maxRaw := c.Query("min_rating"), c.Query("max_rating")
	if minRaw != "" || maxRaw != "" {
		min, err := strconv.Atoi(c.DefaultQuery("min_rating", "1"))
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid min_rating"))
			return
		}
		max, err := strconv.Atoi(c.DefaultQuery("max_rating", "5"))
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid max_rating"))
			return
		}
		items, err := h.feedback.ListByRatingRange(ctx, min, max)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, items, nil)
		return
	}

	items, err := h.feedback.ListAll(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Search godoc
// @Summary Search feedback comments
// @Tags Feedback
// @Produce json
// @Param q query string true "Search term (min 2 characters)"
// @Success 200 {object} response.Envelope
// @Router /feedback/search [get]
func (h *FeedbackHandler) Search(c *gin.Context) {
	items, err := h.feedback.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ByCounselor godoc
// @Summary List a counselor's feedback
// @Tags Feedback
// @Produce json
// @Param id path int true "Counselor ID"
// @Success 200 {object} response.Envelope
// @Router /counselors/{id}/feedback [get]
func (h *FeedbackHandler) ByCounselor(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.feedback.ListByCounselor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CounselorRating godoc
// @Summary Get a counselor's aggregate rating
// @Tags Feedback
// @Produce json
// @Param id path int true "Counselor ID"
// @Success 200 {object} response.Envelope
// @Router /counselors/{id}/rating [get]
func (h *FeedbackHandler) CounselorRating(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	rating, err := h.feedback.RatingByCounselor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating, nil)
}

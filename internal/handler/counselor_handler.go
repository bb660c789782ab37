package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-api/internal/models"
	"github.com/noah-isme/wellness-api/internal/service"
	appErrors "github.com/noah-isme/wellness-api/pkg/errors"
	"github.com/noah-isme/wellness-api/pkg/response"
)

// CounselorHandler wires counselor services to HTTP routes.
type CounselorHandler struct {
	counselors   *service.CounselorService
	appointments *service.AppointmentService
	exports      *service.ExportService
}

// NewCounselorHandler constructs a new CounselorHandler.
func NewCounselorHandler(counselors *service.CounselorService, appointments *service.AppointmentService, exports *service.ExportService) *CounselorHandler {
	return &CounselorHandler{counselors: counselors, appointments: appointments, exports: exports}
}

// List godoc
// @Summary List counselors
// @Tags Counselors
// @Produce json
// @Param search query string false "Search by name/email"
// @Param active query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /counselors [get]
func (h *CounselorHandler) List(c *gin.Context) {
	filter := models.CounselorFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if active := c.Query("active"); active != "" {
		switch strings.ToLower(active) {
		case "true":
			val := true
			filter.Active = &val
		case "false":
			val := false
			filter.Active = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	counselors, pagination, err := h.counselors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counselors, pagination)
}

// Get godoc
// @Summary Get counselor detail
// @Tags Counselors
// @Produce json
// @Param id path int true "Counselor ID"
// @Success 200 {object} response.Envelope
// @Router /counselors/{id} [get]
func (h *CounselorHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	counselor, err := h.counselors.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counselor, nil)
}

// Create godoc
// @Summary Create counselor
// @Tags Counselors
// @Accept json
// @Produce json
// @Param payload body service.CreateCounselorRequest true "Counselor payload"
// @Success 201 {object} response.Envelope
// @Router /counselors [post]
func (h *CounselorHandler) Create(c *gin.Context) {
	var req service.CreateCounselorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid counselor payload"))
		return
	}
	counselor, err := h.counselors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, counselor)
}

// Update godoc
// @Summary Update counselor
// @Tags Counselors
// @Accept json
// @Produce json
// @Param id path int true "Counselor ID"
// @Param payload body service.UpdateCounselorRequest true "Counselor payload"
// @Success 200 {object} response.Envelope
// @Router /counselors/{id} [put]
func (h *CounselorHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateCounselorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid counselor payload"))
		return
	}
	counselor, err := h.counselors.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counselor, nil)
}

// Delete godoc
// @Summary Deactivate counselor
// @Tags Counselors
// @Param id path int true "Counselor ID"
// @Success 204
// @Router /counselors/{id} [delete]
func (h *CounselorHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.counselors.Deactivate(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Availability godoc
// @Summary List a counselor's free slots for a day
// @Tags Counselors
// @Produce json
// @Param id path int true "Counselor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /counselors/{id}/availability [get]
func (h *CounselorHandler) Availability(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	day, err := parseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	slots := h.appointments.FindAvailableSlots(c.Request.Context(), id, day)
	response.JSON(c, http.StatusOK, slots, nil)
}

// Appointments godoc
// @Summary List a counselor's appointments
// @Tags Counselors
// @Produce json
// @Param id path int true "Counselor ID"
// @Success 200 {object} response.Envelope
// @Router /counselors/{id}/appointments [get]
func (h *CounselorHandler) Appointments(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	appointments, err := h.appointments.ListByCounselor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, nil)
}

// CheckAvailability godoc
// @Summary Check whether an interval is free for a counselor
// @Tags Counselors
// @Produce json
// @Param id path int true "Counselor ID"
// @Param start query string true "Interval start (RFC3339)"
// @Param end query string true "Interval end (RFC3339)"
// @Param exclude query int false "Appointment ID to ignore"
// @Success 200 {object} response.Envelope
// @Router /counselors/{id}/availability/check [get]
func (h *CounselorHandler) CheckAvailability(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid start timestamp, expected RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid end timestamp, expected RFC3339"))
		return
	}
	var excludeID int64
	if raw := c.Query("exclude"); raw != "" {
		excludeID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid exclude parameter"))
			return
		}
	}
	conflict, err := h.appointments.HasConflict(c.Request.Context(), id, start, end, excludeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"available": !conflict}, nil)
}

// SchedulePDF godoc
// @Summary Export a counselor's daily schedule as PDF
// @Tags Counselors
// @Produce application/pdf
// @Param id path int true "Counselor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {string} string "PDF payload"
// @Router /counselors/{id}/schedule.pdf [get]
func (h *CounselorHandler) SchedulePDF(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	day, err := parseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.exports.DailySchedulePDF(c.Request.Context(), id, day)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required")
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	return day, nil
}

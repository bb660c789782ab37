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

// AppointmentHandler wires the scheduling service to HTTP routes.
type AppointmentHandler struct {
	appointments *service.AppointmentService
	exports      *service.ExportService
}

// NewAppointmentHandler constructs a new AppointmentHandler.
func NewAppointmentHandler(appointments *service.AppointmentService, exports *service.ExportService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, exports: exports}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Book godoc
// @Summary Book an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body service.BookAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req service.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	appt, err := h.appointments.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Get godoc
// @Summary Get appointment detail
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	appt, err := h.appointments.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// List godoc
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param counselor_id query int false "Filter by counselor"
// @Param student_id query int false "Filter by student"
// @Param status query string false "Filter by status"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	filter, err := parseAppointmentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	appointments, pagination, err := h.appointments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, pagination)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body cancelRequest false "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancellation payload"))
			return
		}
	}
	appt, err := h.appointments.Cancel(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Complete godoc
// @Summary Mark an appointment completed
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	appt, err := h.appointments.Complete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// ListByStudent godoc
// @Summary List a student's appointments
// @Tags Appointments
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/appointments [get]
func (h *AppointmentHandler) ListByStudent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	appointments, err := h.appointments.ListByStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, nil)
}

// ExportCSV godoc
// @Summary Export appointments as CSV
// @Tags Appointments
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Router /appointments/export [get]
func (h *AppointmentHandler) ExportCSV(c *gin.Context) {
	filter, err := parseAppointmentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.exports.AppointmentsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="appointments.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

func parseAppointmentFilter(c *gin.Context) (models.AppointmentFilter, error) {
	filter := models.AppointmentFilter{
		Status:    models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if raw := c.Query("counselor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid counselor id")
		}
		filter.CounselorID = id
	}
	if raw := c.Query("student_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
		}
		filter.StudentID = id
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid from timestamp, expected RFC3339")
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid to timestamp, expected RFC3339")
		}
		filter.To = to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter, nil
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
	}
	return id, nil
}

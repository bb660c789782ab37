package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts all API routes on the engine.
func RegisterRoutes(r *gin.Engine, appointments *AppointmentHandler, counselors *CounselorHandler, feedback *FeedbackHandler) {
	api := r.Group("/api/v1")

	api.POST("/appointments", appointments.Book)
	api.GET("/appointments", appointments.List)
	api.GET("/appointments/export", appointments.ExportCSV)
	api.GET("/appointments/:id", appointments.Get)
	api.POST("/appointments/:id/cancel", appointments.Cancel)
	api.POST("/appointments/:id/complete", appointments.Complete)

	api.GET("/counselors", counselors.List)
	api.POST("/counselors", counselors.Create)
	api.GET("/counselors/:id", counselors.Get)
	api.PUT("/counselors/:id", counselors.Update)
	api.DELETE("/counselors/:id", counselors.Delete)
	api.GET("/counselors/:id/availability", counselors.Availability)
	api.GET("/counselors/:id/availability/check", counselors.CheckAvailability)
	api.GET("/counselors/:id/appointments", counselors.Appointments)
	api.GET("/counselors/:id/schedule.pdf", counselors.SchedulePDF)
	api.GET("/counselors/:id/feedback", feedback.ByCounselor)
	api.GET("/counselors/:id/rating", feedback.CounselorRating)

	api.POST("/feedback", feedback.Submit)
	api.GET("/feedback", feedback.List)
	api.GET("/feedback/search", feedback.Search)
	api.GET("/feedback/:id", feedback.Get)
	api.PUT("/feedback/:id", feedback.Update)
	api.DELETE("/feedback/:id", feedback.Delete)

	api.GET("/students/:id/appointments", appointments.ListByStudent)
}

package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/schedule"
	"clinic-booking-server/internal/store"
	"clinic-booking-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Store *store.AppointmentStore
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(s *store.AppointmentStore) *AppointmentHandler {
	return &AppointmentHandler{Store: s}
}

// storeError maps the store failure taxonomy onto HTTP responses.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, store.ErrConflict):
		utils.Conflict(c, err.Error())
	default:
		utils.InternalServerError(c, "Database error: "+err.Error())
	}
}

// CreateAppointmentRequest represents the request body for booking a slot.
// Date and time arrive as raw form strings and are validated by the store.
type CreateAppointmentRequest struct {
	DoctorID string `json:"doctorId" binding:"required,uuid"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
}

// Create handles a patient booking a slot. The patient id always comes from
// the authenticated token.
func (h *AppointmentHandler) Create(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Patient ID not found in token")
		return
	}

	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Store.Book(c.Request.Context(), patientID, req.DoctorID, req.Date, req.Time)
	if err != nil {
		storeError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appt)
}

// List handles fetching appointments for the logged-in user. Patients get
// their full history; doctors get the current week unless an explicit
// from/to range is supplied.
func (h *AppointmentHandler) List(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	ctx := c.Request.Context()

	var (
		rows []store.AppointmentRow
		err  error
	)
	switch role {
	case models.RolePatient:
		rows, err = h.Store.ListByPatient(ctx, userID)
	case models.RoleDoctor:
		from, to := c.Query("from"), c.Query("to")
		if from == "" || to == "" {
			now := time.Now()
			from = schedule.StartOfWeek(now).Format("2006-01-02")
			to = schedule.EndOfWeek(now).Format("2006-01-02")
		}
		rows, err = h.Store.ListByDoctorBetween(ctx, userID, from, to)
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}
	if err != nil {
		storeError(c, err)
		return
	}

	utils.Success(c, "Appointments fetched successfully", rows)
}

// ListRange handles fetching a patient's appointments between two dates.
func (h *AppointmentHandler) ListRange(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	rows, err := h.Store.ListByPatientBetween(c.Request.Context(), patientID, c.Query("from"), c.Query("to"))
	if err != nil {
		storeError(c, err)
		return
	}

	utils.Success(c, "Appointments fetched successfully", rows)
}

// Cancel handles a patient cancelling their own appointment. Cancelling an
// appointment that is already resolved, or that belongs to someone else, is
// a silent no-op.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if err := h.Store.CancelByPatient(c.Request.Context(), c.Param("id"), patientID); err != nil {
		storeError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled", nil)
}

// RescheduleAppointmentRequest represents the request body for moving an
// appointment to a new date/time.
type RescheduleAppointmentRequest struct {
	DoctorID string `json:"doctorId" binding:"required,uuid"`
	NewDate  string `json:"newDate" binding:"required"`
	NewTime  string `json:"newTime" binding:"required"`
}

// Reschedule handles a patient moving an ACTIVE appointment to a new slot.
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	err := h.Store.RescheduleByPatient(c.Request.Context(),
		c.Param("id"), patientID, req.DoctorID, req.NewDate, req.NewTime)
	if err != nil {
		storeError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled", nil)
}

// SetStateRequest represents the request body for a doctor setting an
// appointment's state.
type SetStateRequest struct {
	State string `json:"state" binding:"required"`
}

// SetState handles a doctor overwriting the state of one of their
// appointments. Transitions are not constrained.
func (h *AppointmentHandler) SetState(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req SetStateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Store.SetStateByDoctor(c.Request.Context(), c.Param("id"), doctorID, req.State); err != nil {
		storeError(c, err)
		return
	}

	utils.Success(c, "Appointment state updated", nil)
}

// SaveExamRequest represents the request body for recording an exam.
type SaveExamRequest struct {
	Note         string `json:"note"`
	Prescription string `json:"prescription"`
}

// SaveExam handles a doctor recording the exam note and prescription on one
// of their appointments.
func (h *AppointmentHandler) SaveExam(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req SaveExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.Store.SaveExam(c.Request.Context(), c.Param("id"), doctorID, req.Note, req.Prescription); err != nil {
		storeError(c, err)
		return
	}

	utils.Success(c, "Exam saved", nil)
}

// GetExam handles a doctor fetching the exam note and prescription of one
// of their appointments.
func (h *AppointmentHandler) GetExam(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	note, prescription, err := h.Store.Exam(c.Request.Context(), c.Param("id"), doctorID)
	if err != nil {
		storeError(c, err)
		return
	}

	utils.Success(c, "Exam fetched successfully", gin.H{
		"note":         note,
		"prescription": prescription,
	})
}

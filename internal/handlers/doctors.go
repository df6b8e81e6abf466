package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/schedule"
	"clinic-booking-server/internal/store"
	"clinic-booking-server/internal/utils"
)

// DoctorHandler handles doctor directory and schedule requests.
type DoctorHandler struct {
	Users        *store.UserStore
	Appointments *store.AppointmentStore
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(users *store.UserStore, appointments *store.AppointmentStore) *DoctorHandler {
	return &DoctorHandler{Users: users, Appointments: appointments}
}

// GetBranches handles listing the distinct doctor branches.
func (h *DoctorHandler) GetBranches(c *gin.Context) {
	branches, err := h.Users.Branches(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch branches: "+err.Error())
		return
	}
	utils.Success(c, "Branches fetched successfully", branches)
}

// GetDoctors handles listing doctors, filtered by branch or by a free-text
// search over name, surname and branch.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		doctors []store.DoctorListing
		err     error
	)
	if branch := c.Query("branch"); branch != "" {
		doctors, err = h.Users.DoctorsByBranch(ctx, branch)
	} else {
		doctors, err = h.Users.SearchDoctors(ctx, c.Query("q"))
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// SlotList is the response body of the free-slot query for one doctor/date.
type SlotList struct {
	DoctorID string   `json:"doctorId"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
}

// GetDoctorSlots handles listing the doctor's free slots for a date: the
// working-hours specification expanded to hourly slots, minus the ones
// already booked.
func (h *DoctorHandler) GetDoctorSlots(c *gin.Context) {
	ctx := c.Request.Context()
	doctorID := c.Param("id")

	date, err := store.NormalizeDate(c.Query("date"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	doctor, err := h.Users.DoctorByUserID(ctx, doctorID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch doctor: "+err.Error())
		return
	}
	if doctor == nil {
		utils.NotFound(c, "Doctor not found")
		return
	}

	free := []string{}
	for _, slot := range schedule.HourlySlots(doctor.WorkingHours) {
		taken, err := h.Appointments.IsSlotTaken(ctx, doctorID, date, slot)
		if err != nil {
			utils.InternalServerError(c, "Failed to check slot: "+err.Error())
			return
		}
		if !taken {
			free = append(free, slot)
		}
	}

	utils.Success(c, "Slots fetched successfully", SlotList{
		DoctorID: doctorID,
		Date:     date,
		Slots:    free,
	})
}

// UpdateWorkingHoursRequest represents the request body for a doctor
// updating their working-hours specification.
type UpdateWorkingHoursRequest struct {
	WorkingHours string `json:"workingHours" binding:"required"`
}

// UpdateWorkingHours handles a doctor updating their own working hours.
func (h *DoctorHandler) UpdateWorkingHours(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateWorkingHoursRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Users.UpdateWorkingHours(c.Request.Context(), doctorID, req.WorkingHours); err != nil {
		utils.InternalServerError(c, "Failed to update working hours: "+err.Error())
		return
	}

	utils.Success(c, "Working hours updated successfully", gin.H{
		"workingHours": req.WorkingHours,
		"slots":        schedule.HourlySlots(req.WorkingHours),
	})
}

// SearchPatients handles doctor-side patient search by national id, name or
// surname.
func (h *DoctorHandler) SearchPatients(c *gin.Context) {
	patients, err := h.Users.SearchPatients(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.InternalServerError(c, "Failed to search patients: "+err.Error())
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}

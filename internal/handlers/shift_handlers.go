package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/internal/services"
	"spa_backend/pkg/utils"
)

// ShiftHandler serves shifts, assignments, registrations and the schedule view.
type ShiftHandler struct {
	shiftService services.ShiftService
	loc          *time.Location
}

func NewShiftHandler(ss services.ShiftService, loc *time.Location) *ShiftHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ShiftHandler{shiftService: ss, loc: loc}
}

type createShiftsRequest struct {
	Shifts []services.ShiftInput `json:"shifts" binding:"required,min=1,dive"`
}

type shiftRegistrationRequest struct {
	ShiftIDs []int64 `json:"shift_ids" binding:"required,min=1"`
}

// CreateShifts creates one or more shifts in a single request.
func (h *ShiftHandler) CreateShifts(c *gin.Context) {
	var req createShiftsRequest
	if !bindJSON(c, &req, "CreateShifts") {
		return
	}
	shifts, err := h.shiftService.CreateShifts(c.Request.Context(), req.Shifts)
	if err != nil {
		respondServiceError(c, err, "CreateShifts")
		return
	}
	c.JSON(http.StatusCreated, shifts)
}

func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.ShiftInput
	if !bindJSON(c, &req, "UpdateShift") {
		return
	}
	shift, err := h.shiftService.UpdateShift(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateShift")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// DeleteShift removes a shift and reverses pay for everyone assigned to it.
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.shiftService.DeleteShift(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteShift")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListShifts defaults to the next fourteen days.
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, 14)
	if !ok {
		return
	}
	shifts, err := h.shiftService.ListShifts(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err, "ListShifts")
		return
	}
	c.JSON(http.StatusOK, nonNilShifts(shifts))
}

func (h *ShiftHandler) GetShift(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	shift, err := h.shiftService.GetShift(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetShift")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// AssignShift puts a staff member on a shift and records the pay.
func (h *ShiftHandler) AssignShift(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req assignStaffRequest
	if !bindJSON(c, &req, "AssignShift") {
		return
	}
	shift, err := h.shiftService.AssignShift(c.Request.Context(), id, req.StaffID)
	if err != nil {
		respondServiceError(c, err, "AssignShift")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// UnassignShift takes a staff member off a shift and reverses the pay.
func (h *ShiftHandler) UnassignShift(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	staffID, ok := idParam(c, "staff_id")
	if !ok {
		return
	}
	if err := h.shiftService.UnassignShift(c.Request.Context(), id, staffID); err != nil {
		respondServiceError(c, err, "UnassignShift")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Registrations ---

// RegisterForShifts lets a staff member ask to work the given shifts.
func (h *ShiftHandler) RegisterForShifts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req shiftRegistrationRequest
	if !bindJSON(c, &req, "RegisterForShifts") {
		return
	}
	regs, err := h.shiftService.RegisterForShifts(c.Request.Context(), actor, req.ShiftIDs)
	if err != nil {
		respondServiceError(c, err, "RegisterForShifts")
		return
	}
	c.JSON(http.StatusCreated, regs)
}

func (h *ShiftHandler) ListRegistrations(c *gin.Context) {
	var status *models.RegistrationStatus
	switch raw := models.RegistrationStatus(c.Query("status")); raw {
	case "":
	case models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected:
		status = &raw
	default:
		utils.RespondValidationFailed(c, "Invalid status")
		return
	}
	regs, err := h.shiftService.ListRegistrations(c.Request.Context(), status)
	if err != nil {
		respondServiceError(c, err, "ListRegistrations")
		return
	}
	if regs == nil {
		regs = []models.ShiftRegistration{}
	}
	c.JSON(http.StatusOK, regs)
}

func (h *ShiftHandler) ApproveRegistration(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reg, err := h.shiftService.ApproveRegistration(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "ApproveRegistration")
		return
	}
	c.JSON(http.StatusOK, reg)
}

func (h *ShiftHandler) RejectRegistration(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reg, err := h.shiftService.RejectRegistration(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "RejectRegistration")
		return
	}
	c.JSON(http.StatusOK, reg)
}

// --- Schedule views ---

// MyShifts returns the caller's assigned shifts. Defaults to the next fourteen days.
func (h *ShiftHandler) MyShifts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c, h.loc, 14)
	if !ok {
		return
	}
	shifts, err := h.shiftService.MyShifts(c.Request.Context(), actor, from, to)
	if err != nil {
		respondServiceError(c, err, "MyShifts")
		return
	}
	c.JSON(http.StatusOK, nonNilShifts(shifts))
}

// Schedule is the calendar view. Defaults to the next seven days.
func (h *ShiftHandler) Schedule(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, 7)
	if !ok {
		return
	}
	shifts, err := h.shiftService.Schedule(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err, "Schedule")
		return
	}
	c.JSON(http.StatusOK, nonNilShifts(shifts))
}

func nonNilShifts(s []models.Shift) []models.Shift {
	if s == nil {
		return []models.Shift{}
	}
	return s
}

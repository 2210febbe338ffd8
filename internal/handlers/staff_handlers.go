package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/internal/services"
	"spa_backend/pkg/utils"
)

// StaffHandler holds the staff service.
type StaffHandler struct {
	staffService services.StaffService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(ss services.StaffService) *StaffHandler {
	return &StaffHandler{staffService: ss}
}

// --- Staff members ---

// CreateStaff handles the creation of a staff account.
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	var req services.CreateStaffRequest
	if !bindJSON(c, &req, "CreateStaff") {
		return
	}
	staff, err := h.staffService.CreateStaff(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateStaff")
		return
	}
	c.JSON(http.StatusCreated, staff)
}

// ListStaff handles fetching staff with optional role, search and active filters.
func (h *StaffHandler) ListStaff(c *gin.Context) {
	filters := models.StaffFilters{
		Search:     c.Query("search"),
		ActiveOnly: c.Query("active") == "true",
	}
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseStaffRole(raw)
		if !ok {
			utils.RespondValidationFailed(c, "Invalid role")
			return
		}
		filters.Role = &role
	}

	staff, err := h.staffService.ListStaff(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ListStaff")
		return
	}
	if staff == nil {
		staff = []models.StaffMember{}
	}
	c.JSON(http.StatusOK, staff)
}

// ListPublicStaff returns the bookable technicians shown to customers.
func (h *StaffHandler) ListPublicStaff(c *gin.Context) {
	refs, err := h.staffService.ListPublicStaff(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListPublicStaff")
		return
	}
	c.JSON(http.StatusOK, refs)
}

// GetStaff handles fetching a single staff member by ID.
func (h *StaffHandler) GetStaff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	staff, err := h.staffService.GetStaff(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetStaff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

// UpdateStaff handles updating a staff member.
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateStaffRequest
	if !bindJSON(c, &req, "UpdateStaff") {
		return
	}
	staff, err := h.staffService.UpdateStaff(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateStaff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

// DeactivateStaff soft-deletes a staff member.
func (h *StaffHandler) DeactivateStaff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.staffService.DeactivateStaff(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeactivateStaff")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Job titles ---

func (h *StaffHandler) ListJobTitles(c *gin.Context) {
	titles, err := h.staffService.ListJobTitles(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListJobTitles")
		return
	}
	c.JSON(http.StatusOK, titles)
}

func (h *StaffHandler) CreateJobTitle(c *gin.Context) {
	var req services.JobTitleRequest
	if !bindJSON(c, &req, "CreateJobTitle") {
		return
	}
	title, err := h.staffService.CreateJobTitle(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateJobTitle")
		return
	}
	c.JSON(http.StatusCreated, title)
}

func (h *StaffHandler) UpdateJobTitle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.JobTitleRequest
	if !bindJSON(c, &req, "UpdateJobTitle") {
		return
	}
	title, err := h.staffService.UpdateJobTitle(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateJobTitle")
		return
	}
	c.JSON(http.StatusOK, title)
}

// DeleteJobTitle fails with 409 while staff still hold the title.
func (h *StaffHandler) DeleteJobTitle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.staffService.DeleteJobTitle(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteJobTitle")
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/internal/services"
	"spa_backend/pkg/utils"
)

// BookingHandler holds the booking service and the salon's time zone for query parsing.
type BookingHandler struct {
	bookingService services.BookingService
	loc            *time.Location
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bs services.BookingService, loc *time.Location) *BookingHandler {
	if loc == nil {
		loc = time.Local
	}
	return &BookingHandler{bookingService: bs, loc: loc}
}

type assignStaffRequest struct {
	StaffID int64 `json:"staff_id" binding:"required"`
}

// timeQuery accepts RFC 3339 or a local "YYYY-MM-DDTHH:MM" wall-clock time.
func (h *BookingHandler) timeQuery(c *gin.Context, name string) (time.Time, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		utils.RespondValidationFailed(c, name+" is required")
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", v, h.loc)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name+", expected RFC 3339 time")
		return time.Time{}, false
	}
	return t, true
}

// --- Availability ---

// CheckAvailability reports whether a staff member (or anyone) can take the proposed booking.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	var req services.AvailabilityRequest
	if !bindJSON(c, &req, "CheckAvailability") {
		return
	}
	result, err := h.bookingService.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CheckAvailability")
		return
	}
	c.JSON(http.StatusOK, result)
}

// AvailableStaff lists technicians free at start_time for the given service_ids.
func (h *BookingHandler) AvailableStaff(c *gin.Context) {
	start, ok := h.timeQuery(c, "start_time")
	if !ok {
		return
	}
	serviceIDs, ok := idListQuery(c, "service_ids")
	if !ok {
		return
	}
	staff, err := h.bookingService.AvailableStaff(c.Request.Context(), start, serviceIDs)
	if err != nil {
		respondServiceError(c, err, "AvailableStaff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

// AvailableSlots lists the slot grid for a date with per-slot availability.
func (h *BookingHandler) AvailableSlots(c *gin.Context) {
	date, ok := dateQuery(c, "date", h.loc)
	if !ok {
		return
	}
	if date == nil {
		utils.RespondValidationFailed(c, "date is required")
		return
	}
	serviceIDs, ok := idListQuery(c, "service_ids")
	if !ok {
		return
	}
	staffID, ok := int64Query(c, "staff_id")
	if !ok {
		return
	}
	slots, err := h.bookingService.AvailableSlots(c.Request.Context(), *date, serviceIDs, staffID)
	if err != nil {
		respondServiceError(c, err, "AvailableSlots")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// --- Creation and edits ---

// BookAsCustomer creates a booking for the authenticated customer.
func (h *BookingHandler) BookAsCustomer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.CreateBookingRequest
	if !bindJSON(c, &req, "BookAsCustomer") {
		return
	}
	booking, err := h.bookingService.BookAsCustomer(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "BookAsCustomer")
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// CreateBooking creates a booking on behalf of a customer.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.CreateBookingRequest
	if !bindJSON(c, &req, "CreateBooking") {
		return
	}
	booking, err := h.bookingService.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateBooking")
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateBookingRequest
	if !bindJSON(c, &req, "UpdateBooking") {
		return
	}
	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) AssignStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req assignStaffRequest
	if !bindJSON(c, &req, "AssignStaff") {
		return
	}
	booking, err := h.bookingService.AssignStaff(c.Request.Context(), actor, id, req.StaffID)
	if err != nil {
		respondServiceError(c, err, "AssignStaff")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// --- Status transitions ---

type transitionFunc func(c *gin.Context, actor models.Actor, id int64) (*models.Booking, error)

func (h *BookingHandler) transition(c *gin.Context, op string, fn transitionFunc) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	booking, err := fn(c, actor, id)
	if err != nil {
		respondServiceError(c, err, op)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.transition(c, "ConfirmBooking", func(c *gin.Context, a models.Actor, id int64) (*models.Booking, error) {
		return h.bookingService.Confirm(c.Request.Context(), a, id)
	})
}

func (h *BookingHandler) StartBooking(c *gin.Context) {
	h.transition(c, "StartBooking", func(c *gin.Context, a models.Actor, id int64) (*models.Booking, error) {
		return h.bookingService.Start(c.Request.Context(), a, id)
	})
}

func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, "CompleteBooking", func(c *gin.Context, a models.Actor, id int64) (*models.Booking, error) {
		return h.bookingService.Complete(c.Request.Context(), a, id)
	})
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.transition(c, "CancelBooking", func(c *gin.Context, a models.Actor, id int64) (*models.Booking, error) {
		return h.bookingService.CancelByStaff(c.Request.Context(), a, id)
	})
}

// CancelMyBooking lets a customer cancel their own booking while outside the cutoff window.
func (h *BookingHandler) CancelMyBooking(c *gin.Context) {
	h.transition(c, "CancelMyBooking", func(c *gin.Context, a models.Actor, id int64) (*models.Booking, error) {
		return h.bookingService.CancelByCustomer(c.Request.Context(), a, id)
	})
}

// --- Queries ---

// ListBookings handles fetching bookings with filters and pagination.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, pageSize := pagination(c)
	filters := models.BookingFilters{Page: page, PageSize: pageSize}

	var ok bool
	if filters.CustomerID, ok = int64Query(c, "customer_id"); !ok {
		return
	}
	if filters.StaffID, ok = int64Query(c, "staff_id"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		if !models.IsValidBookingStatus(raw) {
			utils.RespondValidationFailed(c, "Invalid status")
			return
		}
		status := models.BookingStatus(raw)
		filters.Status = &status
	}
	if filters.DateFrom, ok = dateQuery(c, "from", h.loc); !ok {
		return
	}
	to, ok := dateQuery(c, "to", h.loc)
	if !ok {
		return
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		filters.DateTo = &end
	}

	result, err := h.bookingService.ListBookings(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ListBookings")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "GetBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListMyBookings returns the authenticated customer's bookings, newest first.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, pageSize := pagination(c)
	result, err := h.bookingService.ListMyBookings(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "ListMyBookings")
		return
	}
	c.JSON(http.StatusOK, result)
}

// MySchedule returns a technician's bookings. Defaults to the next seven days.
func (h *BookingHandler) MySchedule(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c, h.loc, 7)
	if !ok {
		return
	}
	bookings, err := h.bookingService.MySchedule(c.Request.Context(), actor, from, to)
	if err != nil {
		respondServiceError(c, err, "MySchedule")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// Statistics counts bookings per status. Defaults to today.
func (h *BookingHandler) Statistics(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, 1)
	if !ok {
		return
	}
	stats, err := h.bookingService.Statistics(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err, "BookingStatistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

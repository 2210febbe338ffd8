package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/internal/services"
)

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

// ListCustomers handles fetching customers with pagination and search.
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	page, pageSize := pagination(c)
	filters := models.CustomerFilters{Search: c.Query("search"), Page: page, PageSize: pageSize}

	result, err := h.customerService.ListCustomers(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ListCustomers")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCustomer handles fetching a single customer by ID.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetCustomer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// QuickAddCustomer registers a walk-in customer without a password.
func (h *CustomerHandler) QuickAddCustomer(c *gin.Context) {
	var req services.QuickAddCustomerRequest
	if !bindJSON(c, &req, "QuickAddCustomer") {
		return
	}
	customer, err := h.customerService.QuickAddCustomer(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "QuickAddCustomer")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer handles updating a customer's details.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCustomerRequest
	if !bindJSON(c, &req, "UpdateCustomer") {
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateCustomer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// ActivateCustomer re-enables a customer account.
func (h *CustomerHandler) ActivateCustomer(c *gin.Context) {
	h.setActive(c, true, "ActivateCustomer")
}

// DeactivateCustomer blocks a customer from logging in and booking.
func (h *CustomerHandler) DeactivateCustomer(c *gin.Context) {
	h.setActive(c, false, "DeactivateCustomer")
}

func (h *CustomerHandler) setActive(c *gin.Context, active bool, op string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.SetCustomerActive(c.Request.Context(), id, active); err != nil {
		respondServiceError(c, err, op)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": active})
}

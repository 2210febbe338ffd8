package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/services"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// ListServices returns the catalog. Only active services are listed unless include_inactive=true.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	activeOnly := c.Query("include_inactive") != "true"
	items, err := h.catalogService.ListServices(c.Request.Context(), activeOnly)
	if err != nil {
		respondServiceError(c, err, "ListServices")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.catalogService.GetService(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetService")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req services.ServiceRequest
	if !bindJSON(c, &req, "CreateService") {
		return
	}
	item, err := h.catalogService.CreateService(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateService")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.ServiceRequest
	if !bindJSON(c, &req, "UpdateService") {
		return
	}
	item, err := h.catalogService.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateService")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeactivateService hides a service from the catalog. Past bookings keep referencing it.
func (h *CatalogHandler) DeactivateService(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateService(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeactivateService")
		return
	}
	c.Status(http.StatusNoContent)
}

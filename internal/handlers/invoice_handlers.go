package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/internal/payments/momo"
	"spa_backend/internal/services"
	"spa_backend/pkg/utils"
)

// InvoiceHandler serves invoices, cash payments and the MoMo callback.
type InvoiceHandler struct {
	invoiceService services.InvoiceService
	loc            *time.Location
}

func NewInvoiceHandler(is services.InvoiceService, loc *time.Location) *InvoiceHandler {
	if loc == nil {
		loc = time.Local
	}
	return &InvoiceHandler{invoiceService: is, loc: loc}
}

type createInvoiceRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// CreateInvoice bills a completed booking.
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req createInvoiceRequest
	if !bindJSON(c, &req, "CreateInvoice") {
		return
	}
	invoice, err := h.invoiceService.CreateFromBooking(c.Request.Context(), actor, req.BookingID)
	if err != nil {
		respondServiceError(c, err, "CreateInvoice")
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// ListInvoices returns invoices and the summary stats for the same filters.
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	filters := models.InvoiceFilters{Search: c.Query("search")}
	var ok bool
	if filters.CustomerID, ok = int64Query(c, "customer_id"); !ok {
		return
	}
	switch raw := models.InvoiceStatus(c.Query("status")); raw {
	case "":
	case models.InvoiceStatusPaid, models.InvoiceStatusUnpaid:
		filters.Status = &raw
	default:
		utils.RespondValidationFailed(c, "Invalid status")
		return
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

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ListInvoices")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "GetInvoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) ListMyInvoices(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	invoices, err := h.invoiceService.ListMyInvoices(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err, "ListMyInvoices")
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, invoices)
}

// RecordCashPayment marks an invoice paid in cash and returns the change due.
func (h *InvoiceHandler) RecordCashPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.CashPaymentRequest
	if !bindJSON(c, &req, "RecordCashPayment") {
		return
	}
	result, err := h.invoiceService.RecordCashPayment(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "RecordCashPayment")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateGatewayPayment asks MoMo for a payment link for the invoice.
func (h *InvoiceHandler) CreateGatewayPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	link, err := h.invoiceService.CreateGatewayPayment(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "CreateGatewayPayment")
		return
	}
	c.JSON(http.StatusOK, link)
}

// MoMoIPN receives MoMo's server-to-server result callback. It is unauthenticated;
// the notification signature is the only trust anchor.
func (h *InvoiceHandler) MoMoIPN(c *gin.Context) {
	var n momo.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		utils.LogWarn("MoMoIPN: malformed notification", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadRequest, momo.Ack{ResultCode: 1, Message: "malformed notification"})
		return
	}
	ack := momo.Ack{PartnerCode: n.PartnerCode, RequestID: n.RequestID, OrderID: n.OrderID}

	if err := h.invoiceService.HandleGatewayNotification(c.Request.Context(), n); err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			utils.LogWarn("MoMoIPN: rejected notification", map[string]interface{}{"order_id": n.OrderID})
			ack.ResultCode, ack.Message = 1, "invalid signature"
			c.JSON(http.StatusBadRequest, ack)
			return
		}
		utils.LogError(err, "MoMoIPN: failed to apply notification", map[string]interface{}{"order_id": n.OrderID})
		ack.ResultCode, ack.Message = 1, "internal error"
		c.JSON(http.StatusInternalServerError, ack)
		return
	}
	ack.Message = "success"
	c.JSON(http.StatusOK, ack)
}

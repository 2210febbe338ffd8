package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/export"
	"spa_backend/internal/models"
	"spa_backend/internal/services"
	"spa_backend/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PayrollHandler serves monthly payroll, ledger rows and the spreadsheet export.
type PayrollHandler struct {
	payrollService services.PayrollService
}

func NewPayrollHandler(ps services.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: ps}
}

type recordShiftRequest struct {
	StaffID int64 `json:"staff_id" binding:"required"`
	ShiftID int64 `json:"shift_id" binding:"required"`
}

type recomputeRequest struct {
	StaffID *int64 `json:"staff_id"`
	Month   int    `json:"month" binding:"required"`
	Year    int    `json:"year" binding:"required"`
}

// monthQuery reads the required month and year query parameters.
func monthQuery(c *gin.Context) (int, int, bool) {
	month, ok := intQuery(c, "month")
	if !ok {
		return 0, 0, false
	}
	year, ok := intQuery(c, "year")
	if !ok {
		return 0, 0, false
	}
	if month == nil || year == nil {
		utils.RespondValidationFailed(c, "month and year are required")
		return 0, 0, false
	}
	return *month, *year, true
}

// ListMonthly lists monthly payroll filtered by month, year and staff_id.
func (h *PayrollHandler) ListMonthly(c *gin.Context) {
	var filters models.PayrollFilters
	var ok bool
	if filters.Month, ok = intQuery(c, "month"); !ok {
		return
	}
	if filters.Year, ok = intQuery(c, "year"); !ok {
		return
	}
	if filters.StaffID, ok = int64Query(c, "staff_id"); !ok {
		return
	}
	rows, err := h.payrollService.ListMonthly(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ListMonthlyPayroll")
		return
	}
	if rows == nil {
		rows = []models.MonthlyPayroll{}
	}
	c.JSON(http.StatusOK, rows)
}

// ListLedger returns one staff member's per-shift rows for a month.
func (h *PayrollHandler) ListLedger(c *gin.Context) {
	staffID, ok := idParam(c, "staff_id")
	if !ok {
		return
	}
	month, year, ok := monthQuery(c)
	if !ok {
		return
	}
	rows, err := h.payrollService.ListLedger(c.Request.Context(), staffID, month, year)
	if err != nil {
		respondServiceError(c, err, "ListLedger")
		return
	}
	if rows == nil {
		rows = []models.LedgerRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// RecordShiftWorked records pay for a worked shift. Repeating the call returns the existing row.
func (h *PayrollHandler) RecordShiftWorked(c *gin.Context) {
	var req recordShiftRequest
	if !bindJSON(c, &req, "RecordShiftWorked") {
		return
	}
	row, err := h.payrollService.RecordShiftWorked(c.Request.Context(), req.StaffID, req.ShiftID)
	if err != nil {
		respondServiceError(c, err, "RecordShiftWorked")
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *PayrollHandler) ReverseShiftWorked(c *gin.Context) {
	var req recordShiftRequest
	if !bindJSON(c, &req, "ReverseShiftWorked") {
		return
	}
	if err := h.payrollService.ReverseShiftWorked(c.Request.Context(), req.StaffID, req.ShiftID); err != nil {
		respondServiceError(c, err, "ReverseShiftWorked")
		return
	}
	c.Status(http.StatusNoContent)
}

// Recompute rebuilds monthly totals from the ledger, for one staff member or everyone.
func (h *PayrollHandler) Recompute(c *gin.Context) {
	var req recomputeRequest
	if !bindJSON(c, &req, "RecomputePayroll") {
		return
	}
	if req.StaffID != nil {
		monthly, err := h.payrollService.RecomputeMonth(c.Request.Context(), *req.StaffID, req.Month, req.Year)
		if err != nil {
			respondServiceError(c, err, "RecomputePayroll")
			return
		}
		c.JSON(http.StatusOK, []models.MonthlyPayroll{*monthly})
		return
	}
	rows, err := h.payrollService.RecomputeAll(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		respondServiceError(c, err, "RecomputePayroll")
		return
	}
	if rows == nil {
		rows = []models.MonthlyPayroll{}
	}
	c.JSON(http.StatusOK, rows)
}

// AdjustLedgerRow sets a row's bonus or deduction and re-sums the month.
func (h *PayrollHandler) AdjustLedgerRow(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.AdjustLedgerRequest
	if !bindJSON(c, &req, "AdjustLedgerRow") {
		return
	}
	row, err := h.payrollService.AdjustLedgerRow(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "AdjustLedgerRow")
		return
	}
	c.JSON(http.StatusOK, row)
}

// MyPayroll lists the caller's monthly payroll for ?year (default current year).
func (h *PayrollHandler) MyPayroll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	year, ok := intQuery(c, "year")
	if !ok {
		return
	}
	rows, err := h.payrollService.MyPayroll(c.Request.Context(), actor, year)
	if err != nil {
		respondServiceError(c, err, "MyPayroll")
		return
	}
	if rows == nil {
		rows = []models.MonthlyPayroll{}
	}
	c.JSON(http.StatusOK, rows)
}

// Export streams the month's payroll as an xlsx workbook.
func (h *PayrollHandler) Export(c *gin.Context) {
	month, year, ok := monthQuery(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.payrollService.ExportMonth(c.Request.Context(), month, year, &buf); err != nil {
		respondServiceError(c, err, "ExportPayroll")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.PayrollFilename(month, year)+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Package export renders reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"spa_backend/internal/models"
)

const payrollSheet = "Payroll"

var payrollHeaders = []string{"Staff ID", "Staff", "Month", "Base", "Bonus", "Deduction", "Total"}

// PayrollWorkbook builds a workbook with one row per monthly payroll and a totals row.
// Amounts are written as numbers; excelize stores them as float cells, the exact values
// stay in the database.
func PayrollWorkbook(month, year int, rows []models.MonthlyPayroll) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(payrollSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range payrollHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(payrollSheet, cell, h); err != nil {
			return nil, err
		}
	}

	period := fmt.Sprintf("%02d/%d", month, year)
	sum := struct{ base, bonus, deduction, total decimal.Decimal }{}
	for i, p := range rows {
		r := i + 2
		values := []interface{}{p.StaffID, p.StaffName, period, p.Base.InexactFloat64(), p.Bonus.InexactFloat64(), p.Deduction.InexactFloat64(), p.Total.InexactFloat64()}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			if err := f.SetCellValue(payrollSheet, cell, v); err != nil {
				return nil, err
			}
		}
		sum.base = sum.base.Add(p.Base)
		sum.bonus = sum.bonus.Add(p.Bonus)
		sum.deduction = sum.deduction.Add(p.Deduction)
		sum.total = sum.total.Add(p.Total)
	}

	last := len(rows) + 2
	totals := []interface{}{"", "TOTAL", period, sum.base.InexactFloat64(), sum.bonus.InexactFloat64(), sum.deduction.InexactFloat64(), sum.total.InexactFloat64()}
	for col, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(col+1, last)
		if err := f.SetCellValue(payrollSheet, cell, v); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(payrollSheet, "B", "B", 28); err != nil {
		return nil, err
	}
	return f, nil
}

// WritePayroll streams the payroll workbook to w.
func WritePayroll(w io.Writer, month, year int, rows []models.MonthlyPayroll) error {
	f, err := PayrollWorkbook(month, year, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// PayrollFilename is the download name for a month's export.
func PayrollFilename(month, year int) string {
	return fmt.Sprintf("payroll_%d_%02d.xlsx", year, month)
}

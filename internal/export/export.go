// Package export writes a budget document as an XLSX workbook with a summary
// sheet and one row per employee.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"budget-engine/internal/formula"
	"budget-engine/internal/model"
	"budget-engine/internal/schema"
)

const (
	SummarySheet   = "Summary"
	EmployeesSheet = "Employees"
)

const amountFormat = "#,##0.00"

type summaryRow struct {
	label string
	value float64
}

func summaryRows(doc model.Document, agg model.Aggregates) []summaryRow {
	rows := []summaryRow{
		{"Total Budget (CHF)", doc.TotalBudget},
		{"Acquisition Costs (CHF)", agg.TotalAcquisitionCosts},
		{"Administration Costs (CHF)", agg.TotalAdministrationCosts},
	}
	if agg.TotalManagementCosts != nil {
		rows = append(rows, summaryRow{"Management Costs (CHF)", *agg.TotalManagementCosts})
	}
	if agg.TotalVacationCosts != nil {
		rows = append(rows, summaryRow{"Vacation Costs (CHF)", *agg.TotalVacationCosts})
	}
	return append(rows,
		summaryRow{"Public Funds (CHF)", agg.TotalPublicFunds},
		summaryRow{"Remaining Budget (CHF)", agg.RemainingBudget},
	)
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Workbook builds the workbook for doc. The caller closes it.
func Workbook(doc model.Document, agg model.Aggregates) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(EmployeesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating employee sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(amountFormat)})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSummary(f, doc, agg, bold, amountStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeEmployees(f, doc, bold); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func strPtr(s string) *string { return &s }

func writeSummary(f *excelize.File, doc model.Document, agg model.Aggregates, bold, amountStyle int) error {
	rows := summaryRows(doc, agg)
	for i, r := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(SummarySheet, labelCell, r.label); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, valueCell, round2(r.value)); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, labelCell, labelCell, bold); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, valueCell, valueCell, amountStyle); err != nil {
			return err
		}
	}

	next := len(rows) + 1
	labelCell, _ := excelize.CoordinatesToCellName(1, next)
	valueCell, _ := excelize.CoordinatesToCellName(2, next)
	_ = f.SetCellValue(SummarySheet, labelCell, "Utilization (%)")
	_ = f.SetCellStyle(SummarySheet, labelCell, labelCell, bold)
	util := formula.Utilization(agg.TotalPublicFunds, doc.TotalBudget)
	if err := f.SetCellValue(SummarySheet, valueCell, decimal.NewFromFloat(util).Round(1).InexactFloat64()); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 28)
}

// writeEmployees writes in-scope columns in canonical record order.
func writeEmployees(f *excelize.File, doc model.Document, bold int) error {
	cols := schema.Columns(doc.Settings)
	for c, field := range cols {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(EmployeesSheet, cell, field.Column); err != nil {
			return err
		}
		if err := f.SetCellStyle(EmployeesSheet, cell, cell, bold); err != nil {
			return err
		}
	}

	for r := range doc.Employees {
		e := &doc.Employees[r]
		for c, field := range cols {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var value any
			if v, ok := field.Numeric(e); ok && field.Kind != schema.KindFlag {
				value = round2(v)
			} else {
				value = field.Text(e)
			}
			if err := f.SetCellValue(EmployeesSheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write streams the workbook for doc to w.
func Write(w io.Writer, doc model.Document, agg model.Aggregates) error {
	f, err := Workbook(doc, agg)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

package commissions

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// ExportExcel renders the report as a spreadsheet. Monetary cells are
// written as fixed two-decimal strings so nothing re-rounds them.
func ExportExcel(report Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, err
	}

	headers := []string{"Number", "Client", "Project", "Status", "IssueDate", "PaidAt", "Amount", "AmountPaid", "CommissionPercent", "CommissionAmount"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(exportSheet, cell, header)
	}

	for i, row := range report.Invoices {
		rowNo := i + 2
		f.SetCellValue(exportSheet, "A"+fmt.Sprint(rowNo), row.Number)
		f.SetCellValue(exportSheet, "B"+fmt.Sprint(rowNo), row.ClientName)
		f.SetCellValue(exportSheet, "C"+fmt.Sprint(rowNo), row.ProjectName)
		f.SetCellValue(exportSheet, "D"+fmt.Sprint(rowNo), string(row.Status))
		f.SetCellValue(exportSheet, "E"+fmt.Sprint(rowNo), row.IssueDate.Format("2006-01-02"))
		f.SetCellValue(exportSheet, "F"+fmt.Sprint(rowNo), formatDate(row.PaidAt))
		f.SetCellValue(exportSheet, "G"+fmt.Sprint(rowNo), row.Amount.StringFixed(2))
		f.SetCellValue(exportSheet, "H"+fmt.Sprint(rowNo), row.AmountPaid.StringFixed(2))
		f.SetCellValue(exportSheet, "I"+fmt.Sprint(rowNo), row.CommissionPercent.String())
		f.SetCellValue(exportSheet, "J"+fmt.Sprint(rowNo), row.CommissionAmount.StringFixed(2))
	}

	summaryRow := len(report.Invoices) + 3
	f.SetCellValue(exportSheet, "A"+fmt.Sprint(summaryRow), "OpenCommission")
	f.SetCellValue(exportSheet, "B"+fmt.Sprint(summaryRow), report.Summary.OpenCommission.StringFixed(2))
	f.SetCellValue(exportSheet, "A"+fmt.Sprint(summaryRow+1), "EarnedCommission")
	f.SetCellValue(exportSheet, "B"+fmt.Sprint(summaryRow+1), report.Summary.EarnedCommission.StringFixed(2))
	f.SetCellValue(exportSheet, "A"+fmt.Sprint(summaryRow+2), "TotalInvoicesOpen")
	f.SetCellValue(exportSheet, "B"+fmt.Sprint(summaryRow+2), report.Summary.TotalInvoicesOpen)
	f.SetCellValue(exportSheet, "A"+fmt.Sprint(summaryRow+3), "TotalInvoicesPaid")
	f.SetCellValue(exportSheet, "B"+fmt.Sprint(summaryRow+3), report.Summary.TotalInvoicesPaid)

	return f, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

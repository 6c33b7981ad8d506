package commissions

import (
	"testing"

	"bitbucket.org/craftsight/commissions_backend/models"
)

func TestExportExcelWritesRowsAndSummary(t *testing.T) {
	report := Report{
		Invoices: []InvoiceWithCommission{
			{
				Number:           "INV-1",
				ClientName:       "Acme",
				ProjectName:      "Website",
				Status:           models.InvoiceStatusOpen,
				IssueDate:        date("2026-03-10"),
				Amount:           dec("1000"),
				CommissionAmount: dec("100"),
			},
		},
		Summary: Summary{
			OpenCommission:    dec("100"),
			EarnedCommission:  dec("0"),
			TotalInvoicesOpen: 1,
		},
	}

	f, err := ExportExcel(report)
	if err != nil {
		t.Fatalf("ExportExcel: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(exportSheet, "A1"); got != "Number" {
		t.Errorf("A1 = %q", got)
	}
	if got, _ := f.GetCellValue(exportSheet, "A2"); got != "INV-1" {
		t.Errorf("A2 = %q", got)
	}
	if got, _ := f.GetCellValue(exportSheet, "G2"); got != "1000.00" {
		t.Errorf("G2 = %q", got)
	}
	if got, _ := f.GetCellValue(exportSheet, "J2"); got != "100.00" {
		t.Errorf("J2 = %q", got)
	}
	if got, _ := f.GetCellValue(exportSheet, "A4"); got != "OpenCommission" {
		t.Errorf("A4 = %q", got)
	}
	if got, _ := f.GetCellValue(exportSheet, "B4"); got != "100.00" {
		t.Errorf("B4 = %q", got)
	}
}

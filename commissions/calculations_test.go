package commissions

import (
	"testing"
	"time"

	"bitbucket.org/craftsight/commissions_backend/models"
	"bitbucket.org/craftsight/commissions_backend/utils"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func TestCalculateCommission(t *testing.T) {
	tenPct := decimal.NewFromInt(10)

	open := &models.Invoice{Status: models.InvoiceStatusOpen, Amount: dec("1000"), AmountPaid: decimal.Zero}
	if got := CalculateCommission(open, tenPct); !got.Equal(dec("100")) {
		t.Errorf("open: got %s, want 100", got)
	}

	paid := &models.Invoice{Status: models.InvoiceStatusPaid, Amount: dec("1000"), AmountPaid: dec("950")}
	if got := CalculateCommission(paid, tenPct); !got.Equal(dec("95")) {
		t.Errorf("paid: got %s, want 95", got)
	}

	// A paid invoice with nothing actually collected earns nothing.
	paidZero := &models.Invoice{Status: models.InvoiceStatusPaid, Amount: dec("1000"), AmountPaid: decimal.Zero}
	if got := CalculateCommission(paidZero, tenPct); !got.IsZero() {
		t.Errorf("paid with zero collected: got %s, want 0", got)
	}

	for _, status := range []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusClosed} {
		invoice := &models.Invoice{Status: status, Amount: dec("1000"), AmountPaid: dec("1000")}
		if got := CalculateCommission(invoice, tenPct); !got.IsZero() {
			t.Errorf("%s: got %s, want 0", status, got)
		}
	}
}

func TestCalculateCommissionFractionalPercentIsExact(t *testing.T) {
	invoice := &models.Invoice{Status: models.InvoiceStatusOpen, Amount: dec("333.33")}
	got := CalculateCommission(invoice, dec("7.5"))
	if !got.Equal(dec("24.99975")) {
		t.Errorf("got %s, want 24.99975", got)
	}
}

func TestResolveRate(t *testing.T) {
	defaultRule := &models.CommissionRule{ID: 1, Percent: decimal.NewFromInt(10), IsDefault: utils.NewTrue()}
	custom := &models.CommissionRule{ID: 2, Percent: decimal.NewFromInt(25)}
	assignments := []*models.ProjectRuleAssignment{
		{ProjectHarvestId: "p1", CommissionRuleId: 2, CommissionRule: custom},
		{ProjectHarvestId: "p2", CommissionRuleId: 9},
	}

	if got := ResolveRate("p1", assignments, defaultRule); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("assigned project: got %s, want 25", got)
	}
	// Assignment present but rule not loaded: default applies.
	if got := ResolveRate("p2", assignments, defaultRule); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("assignment without rule: got %s, want 10", got)
	}
	if got := ResolveRate("p3", assignments, defaultRule); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("unassigned project: got %s, want 10", got)
	}
}

func TestFilterByDateRange(t *testing.T) {
	invoices := []*models.Invoice{
		{Number: "open-in", Status: models.InvoiceStatusOpen, IssueDate: date("2026-03-10")},
		{Number: "open-out", Status: models.InvoiceStatusOpen, IssueDate: date("2026-04-02")},
		{Number: "paid-in", Status: models.InvoiceStatusPaid, IssueDate: date("2026-01-01"), PaidAt: datePtr("2026-03-31")},
		{Number: "paid-nil", Status: models.InvoiceStatusPaid, IssueDate: date("2026-03-15")},
		{Number: "paid-out", Status: models.InvoiceStatusPaid, IssueDate: date("2026-03-15"), PaidAt: datePtr("2026-05-01")},
		{Number: "draft", Status: models.InvoiceStatusDraft, IssueDate: date("2026-03-15")},
		{Number: "closed", Status: models.InvoiceStatusClosed, IssueDate: date("2026-03-15")},
	}

	filtered := FilterByDateRange(invoices, date("2026-03-01"), date("2026-03-31"))
	var numbers []string
	for _, invoice := range filtered {
		numbers = append(numbers, invoice.Number)
	}
	want := []string{"open-in", "paid-in"}
	if len(numbers) != len(want) {
		t.Fatalf("filtered = %v, want %v", numbers, want)
	}
	for i := range want {
		if numbers[i] != want[i] {
			t.Fatalf("filtered = %v, want %v", numbers, want)
		}
	}
}

func TestFilterByDateRangeBoundsAreInclusive(t *testing.T) {
	invoices := []*models.Invoice{
		{Number: "at-start", Status: models.InvoiceStatusOpen, IssueDate: date("2026-03-01")},
		{Number: "at-end", Status: models.InvoiceStatusOpen, IssueDate: date("2026-03-31")},
	}
	filtered := FilterByDateRange(invoices, date("2026-03-01"), date("2026-03-31"))
	if len(filtered) != 2 {
		t.Errorf("got %d invoices, want both boundary dates kept", len(filtered))
	}
}

func TestSummarize(t *testing.T) {
	rows := []InvoiceWithCommission{
		{Status: models.InvoiceStatusOpen, CommissionAmount: dec("100")},
		{Status: models.InvoiceStatusOpen, CommissionAmount: dec("40.5")},
		{Status: models.InvoiceStatusPaid, CommissionAmount: dec("95")},
		{Status: models.InvoiceStatusDraft, CommissionAmount: decimal.Zero},
		{Status: models.InvoiceStatusClosed, CommissionAmount: decimal.Zero},
	}
	summary := Summarize(rows)
	if !summary.OpenCommission.Equal(dec("140.5")) {
		t.Errorf("open = %s, want 140.5", summary.OpenCommission)
	}
	if !summary.EarnedCommission.Equal(dec("95")) {
		t.Errorf("earned = %s, want 95", summary.EarnedCommission)
	}
	if summary.TotalInvoicesOpen != 2 || summary.TotalInvoicesPaid != 1 {
		t.Errorf("counts = %d open / %d paid, want 2/1", summary.TotalInvoicesOpen, summary.TotalInvoicesPaid)
	}
}

package commissions

import (
	"time"

	"bitbucket.org/craftsight/commissions_backend/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InvoiceWithCommission is a mirrored invoice joined with the commission
// computed for it under the owning user's rules.
type InvoiceWithCommission struct {
	ID                int                  `json:"id"`
	HarvestId         string               `json:"harvest_id"`
	ClientHarvestId   string               `json:"client_harvest_id"`
	Number            string               `json:"number"`
	IssueDate         time.Time            `json:"issue_date"`
	DueDate           *time.Time           `json:"due_date"`
	Status            models.InvoiceStatus `json:"status"`
	Amount            decimal.Decimal      `json:"amount"`
	AmountPaid        decimal.Decimal      `json:"amount_paid"`
	PaidAt            *time.Time           `json:"paid_at"`
	ClientName        string               `json:"client_name"`
	ProjectName       string               `json:"project_name"`
	CommissionPercent decimal.Decimal      `json:"commission_percent"`
	CommissionAmount  decimal.Decimal      `json:"commission_amount"`
}

type Summary struct {
	OpenCommission    decimal.Decimal `json:"openCommission"`
	EarnedCommission  decimal.Decimal `json:"earnedCommission"`
	TotalInvoicesOpen int             `json:"totalInvoicesOpen"`
	TotalInvoicesPaid int             `json:"totalInvoicesPaid"`
}

// CalculateCommission computes one invoice's commission at the given
// percent. Paid invoices with a positive paid amount earn on what was
// actually collected; open invoices project on the billed amount; draft and
// closed invoices earn nothing.
func CalculateCommission(invoice *models.Invoice, percent decimal.Decimal) decimal.Decimal {
	if invoice.Status == models.InvoiceStatusPaid && invoice.AmountPaid.IsPositive() {
		return invoice.AmountPaid.Mul(percent).Div(hundred)
	}
	if invoice.Status == models.InvoiceStatusOpen {
		return invoice.Amount.Mul(percent).Div(hundred)
	}
	return decimal.Zero
}

// ResolveRate returns the percent of the first assignment matching the
// project, falling back to the default rule. An assignment whose rule was
// not loaded resolves to the default as well.
func ResolveRate(projectHarvestId string, assignments []*models.ProjectRuleAssignment, defaultRule *models.CommissionRule) decimal.Decimal {
	for _, assignment := range assignments {
		if assignment.ProjectHarvestId != projectHarvestId {
			continue
		}
		if assignment.CommissionRule != nil {
			return assignment.CommissionRule.Percent
		}
		break
	}
	return defaultRule.Percent
}

// FilterByDateRange keeps invoices whose relevant date falls inside
// [start, end] inclusive. Paid invoices key on PaidAt (paid invoices
// without one are dropped), open invoices key on IssueDate, and every
// other status is excluded.
func FilterByDateRange(invoices []*models.Invoice, start time.Time, end time.Time) []*models.Invoice {
	filtered := make([]*models.Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		if invoice.Status == models.InvoiceStatusPaid {
			if invoice.PaidAt != nil && inRange(*invoice.PaidAt, start, end) {
				filtered = append(filtered, invoice)
			}
			continue
		}
		if invoice.Status == models.InvoiceStatusOpen && inRange(invoice.IssueDate, start, end) {
			filtered = append(filtered, invoice)
		}
	}
	return filtered
}

func inRange(t time.Time, start time.Time, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// Summarize totals the commission rows. Draft and closed invoices
// contribute to neither bucket.
func Summarize(rows []InvoiceWithCommission) Summary {
	summary := Summary{
		OpenCommission:   decimal.Zero,
		EarnedCommission: decimal.Zero,
	}
	for _, row := range rows {
		switch row.Status {
		case models.InvoiceStatusOpen:
			summary.OpenCommission = summary.OpenCommission.Add(row.CommissionAmount)
			summary.TotalInvoicesOpen++
		case models.InvoiceStatusPaid:
			summary.EarnedCommission = summary.EarnedCommission.Add(row.CommissionAmount)
			summary.TotalInvoicesPaid++
		}
	}
	return summary
}

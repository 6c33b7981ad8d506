package commissions

import (
	"bitbucket.org/craftsight/commissions_backend/models"
)

type Report struct {
	Invoices []InvoiceWithCommission `json:"invoices"`
	Summary  Summary                 `json:"summary"`
}

// BuildReport joins mirrored invoices with their projects and rules and
// computes commission per invoice. It is pure; callers load the inputs.
//
// Invoices carry only a client reference, so each one is matched to a
// project through the client: when a client has several projects the last
// one mirrored wins. Rule resolution therefore happens per client, not per
// project, for multi-project clients.
func BuildReport(
	invoices []*models.Invoice,
	projects []*models.BillingProject,
	clients []*models.BillingClient,
	assignments []*models.ProjectRuleAssignment,
	defaultRule *models.CommissionRule,
) Report {
	projectByClient := make(map[string]*models.BillingProject, len(projects))
	for _, project := range projects {
		projectByClient[project.ClientHarvestId] = project
	}
	clientNames := make(map[string]string, len(clients))
	for _, client := range clients {
		clientNames[client.HarvestId] = client.Name
	}

	rows := make([]InvoiceWithCommission, 0, len(invoices))
	for _, invoice := range invoices {
		percent := defaultRule.Percent
		projectName := ""
		if project := projectByClient[invoice.ClientHarvestId]; project != nil {
			projectName = project.Name
			percent = ResolveRate(project.HarvestId, assignments, defaultRule)
		}
		rows = append(rows, InvoiceWithCommission{
			ID:                invoice.ID,
			HarvestId:         invoice.HarvestId,
			ClientHarvestId:   invoice.ClientHarvestId,
			Number:            invoice.Number,
			IssueDate:         invoice.IssueDate,
			DueDate:           invoice.DueDate,
			Status:            invoice.Status,
			Amount:            invoice.Amount,
			AmountPaid:        invoice.AmountPaid,
			PaidAt:            invoice.PaidAt,
			ClientName:        clientNames[invoice.ClientHarvestId],
			ProjectName:       projectName,
			CommissionPercent: percent,
			CommissionAmount:  CalculateCommission(invoice, percent),
		})
	}

	return Report{Invoices: rows, Summary: Summarize(rows)}
}

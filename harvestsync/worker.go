package harvestsync

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/craftsight/commissions_backend/models"
	"bitbucket.org/craftsight/commissions_backend/utils"
	"github.com/shopspring/decimal"
)

var ErrNoConnection = errors.New("no harvest connection found")

type remoteAPI interface {
	Probe(ctx context.Context) error
	ListClients(ctx context.Context) ([]RemoteClient, error)
	ListProjects(ctx context.Context) ([]RemoteProject, error)
	ListAllInvoices(ctx context.Context) ([]RemoteInvoice, error)
}

type clientFactory func(accountId string, accessToken string) (remoteAPI, error)

// SyncForUser runs one full reconciliation pass against the user's Harvest
// account: probe, then clients, projects, invoices, then the LastSyncAt
// stamp. Any error aborts the pass; rows already written stay, but the
// result carries no stats. Nothing serializes concurrent passes for the
// same user. Each upsert is individually safe under the external-id
// uniqueness index, so the worst case is two overlapping passes producing
// two stat sets that cannot be meaningfully combined.
func SyncForUser(ctx context.Context, userId int) SyncResult {
	return syncForUser(ctx, NewStore(), func(accountId string, accessToken string) (remoteAPI, error) {
		return newHarvestClient(accountId, accessToken)
	}, userId)
}

func syncForUser(ctx context.Context, store Store, connect clientFactory, userId int) SyncResult {
	conn, err := store.Connection(ctx, userId)
	if err != nil {
		return failure(err)
	}
	if conn == nil {
		return failure(ErrNoConnection)
	}

	accessToken, err := utils.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return failure(err)
	}

	client, err := connect(conn.AccountId, accessToken)
	if err != nil {
		return failure(err)
	}
	if err := client.Probe(ctx); err != nil {
		return failure(err)
	}

	stats := SyncStats{}

	remoteClients, err := client.ListClients(ctx)
	if err != nil {
		return failure(err)
	}
	for _, remote := range remoteClients {
		harvestId := strconv.FormatInt(remote.ID, 10)
		existing, err := store.FindClient(ctx, harvestId)
		if err != nil {
			return failure(err)
		}
		if existing == nil {
			if err := store.CreateClient(ctx, &models.BillingClient{
				HarvestId: harvestId,
				Name:      remote.Name,
			}); err != nil {
				return failure(err)
			}
			stats.ClientsCreated++
			continue
		}
		if err := store.UpdateClientName(ctx, harvestId, remote.Name); err != nil {
			return failure(err)
		}
	}

	defaultRule, err := store.DefaultRule(ctx, userId)
	if err != nil {
		return failure(err)
	}

	remoteProjects, err := client.ListProjects(ctx)
	if err != nil {
		return failure(err)
	}
	for _, remote := range remoteProjects {
		harvestId := strconv.FormatInt(remote.ID, 10)
		existing, err := store.FindProject(ctx, harvestId)
		if err != nil {
			return failure(err)
		}
		if existing != nil {
			if err := store.UpdateProject(ctx, harvestId, remote.Name, remote.IsActive); err != nil {
				return failure(err)
			}
			continue
		}
		isActive := remote.IsActive
		if err := store.CreateProject(ctx, &models.BillingProject{
			HarvestId:       harvestId,
			ClientHarvestId: strconv.FormatInt(remote.Client.ID, 10),
			Name:            remote.Name,
			IsActive:        &isActive,
		}); err != nil {
			return failure(err)
		}
		stats.ProjectsCreated++
		// Newly observed projects start on the default rule. Existing
		// assignments, including manual reassignments, are never touched.
		if defaultRule != nil {
			if err := store.AssignRuleIfAbsent(ctx, userId, harvestId, defaultRule.ID); err != nil {
				return failure(err)
			}
		}
	}

	remoteInvoices, err := client.ListAllInvoices(ctx)
	if err != nil {
		return failure(err)
	}
	for _, remote := range remoteInvoices {
		invoice := buildInvoice(remote)
		existing, err := store.FindInvoice(ctx, invoice.HarvestId)
		if err != nil {
			return failure(err)
		}
		if existing == nil {
			if err := store.CreateInvoice(ctx, invoice); err != nil {
				return failure(err)
			}
			stats.InvoicesCreated++
			continue
		}
		if err := store.UpdateInvoice(ctx, invoice); err != nil {
			return failure(err)
		}
		stats.InvoicesUpdated++
	}

	if err := store.StampLastSync(ctx, userId, time.Now()); err != nil {
		return failure(err)
	}
	return SyncResult{Success: true, Stats: &stats}
}

func failure(err error) SyncResult {
	return SyncResult{Success: false, Error: err.Error()}
}

func buildInvoice(remote RemoteInvoice) *models.Invoice {
	return &models.Invoice{
		HarvestId:       strconv.FormatInt(remote.ID, 10),
		ClientHarvestId: strconv.FormatInt(remote.Client.ID, 10),
		Number:          remote.Number,
		IssueDate:       parseDate(remote.IssueDate, time.Now()),
		DueDate:         parseDatePtr(remote.DueDate),
		Status:          mapInvoiceState(remote.State),
		Amount:          decimalFromNumber(remote.Amount),
		AmountPaid:      decimalFromNumber(remote.PaidAmount),
		PaidAt:          parseDatePtr(remote.PaidDate),
	}
}

func mapInvoiceState(state string) models.InvoiceStatus {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "open":
		return models.InvoiceStatusOpen
	case "paid":
		return models.InvoiceStatusPaid
	case "closed":
		return models.InvoiceStatusClosed
	default:
		return models.InvoiceStatusDraft
	}
}

// decimalFromNumber keeps the remote value exact; a blank or malformed
// number maps to zero rather than aborting the pass.
func decimalFromNumber(n json.Number) decimal.Decimal {
	value, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return value
}

func parseDate(value string, fallback time.Time) time.Time {
	parsed := parseDatePtr(value)
	if parsed == nil {
		return fallback
	}
	return *parsed
}

func parseDatePtr(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}

package harvestsync

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"bitbucket.org/craftsight/commissions_backend/models"
	"bitbucket.org/craftsight/commissions_backend/utils"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. The fake store validates the
// reconciliation semantics: idempotent re-runs, fail-fast on probe errors,
// no partial stats on mid-pass failure, and default-rule binding that never
// overwrites an existing assignment.

type fakeStore struct {
	conn        *models.HarvestConnection
	clients     map[string]*models.BillingClient
	projects    map[string]*models.BillingProject
	invoices    map[string]*models.Invoice
	assignments map[string]int
	defaultRule *models.CommissionRule
	lastSyncAt  *time.Time

	failInvoiceCreateAfter int
	invoiceCreates         int
}

func newFakeStore(conn *models.HarvestConnection, defaultRule *models.CommissionRule) *fakeStore {
	return &fakeStore{
		conn:                   conn,
		clients:                map[string]*models.BillingClient{},
		projects:               map[string]*models.BillingProject{},
		invoices:               map[string]*models.Invoice{},
		assignments:            map[string]int{},
		defaultRule:            defaultRule,
		failInvoiceCreateAfter: -1,
	}
}

func (s *fakeStore) Connection(ctx context.Context, userId int) (*models.HarvestConnection, error) {
	return s.conn, nil
}

func (s *fakeStore) StampLastSync(ctx context.Context, userId int, t time.Time) error {
	s.lastSyncAt = &t
	return nil
}

func (s *fakeStore) FindClient(ctx context.Context, harvestId string) (*models.BillingClient, error) {
	return s.clients[harvestId], nil
}

func (s *fakeStore) CreateClient(ctx context.Context, client *models.BillingClient) error {
	s.clients[client.HarvestId] = client
	return nil
}

func (s *fakeStore) UpdateClientName(ctx context.Context, harvestId string, name string) error {
	s.clients[harvestId].Name = name
	return nil
}

func (s *fakeStore) FindProject(ctx context.Context, harvestId string) (*models.BillingProject, error) {
	return s.projects[harvestId], nil
}

func (s *fakeStore) CreateProject(ctx context.Context, project *models.BillingProject) error {
	s.projects[project.HarvestId] = project
	return nil
}

func (s *fakeStore) UpdateProject(ctx context.Context, harvestId string, name string, isActive bool) error {
	s.projects[harvestId].Name = name
	s.projects[harvestId].IsActive = &isActive
	return nil
}

func (s *fakeStore) FindInvoice(ctx context.Context, harvestId string) (*models.Invoice, error) {
	return s.invoices[harvestId], nil
}

func (s *fakeStore) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if s.failInvoiceCreateAfter >= 0 && s.invoiceCreates >= s.failInvoiceCreateAfter {
		return errors.New("simulated write failure")
	}
	s.invoiceCreates++
	s.invoices[invoice.HarvestId] = invoice
	return nil
}

func (s *fakeStore) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	s.invoices[invoice.HarvestId] = invoice
	return nil
}

func (s *fakeStore) DefaultRule(ctx context.Context, userId int) (*models.CommissionRule, error) {
	return s.defaultRule, nil
}

func (s *fakeStore) AssignRuleIfAbsent(ctx context.Context, userId int, projectHarvestId string, ruleId int) error {
	if _, ok := s.assignments[projectHarvestId]; ok {
		return nil
	}
	s.assignments[projectHarvestId] = ruleId
	return nil
}

type fakeRemote struct {
	probeErr error
	clients  []RemoteClient
	projects []RemoteProject
	invoices []RemoteInvoice
}

func (r *fakeRemote) Probe(ctx context.Context) error { return r.probeErr }
func (r *fakeRemote) ListClients(ctx context.Context) ([]RemoteClient, error) {
	return r.clients, nil
}
func (r *fakeRemote) ListProjects(ctx context.Context) ([]RemoteProject, error) {
	return r.projects, nil
}
func (r *fakeRemote) ListAllInvoices(ctx context.Context) ([]RemoteInvoice, error) {
	return r.invoices, nil
}

func factoryFor(remote *fakeRemote) clientFactory {
	return func(accountId string, accessToken string) (remoteAPI, error) {
		return remote, nil
	}
}

func testConnection(t *testing.T) *models.HarvestConnection {
	t.Helper()
	encrypted, err := utils.Encrypt("harvest-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	return &models.HarvestConnection{
		ID:                   1,
		UserId:               42,
		AccountId:            "998877",
		AccessTokenEncrypted: encrypted,
	}
}

func defaultRuleFixture() *models.CommissionRule {
	return &models.CommissionRule{
		ID:        9,
		UserId:    42,
		Name:      "Default Rule",
		Percent:   decimal.NewFromInt(10),
		IsDefault: utils.NewTrue(),
	}
}

func sampleRemote() *fakeRemote {
	return &fakeRemote{
		clients: []RemoteClient{
			{ID: 100, Name: "Acme", IsActive: true},
			{ID: 200, Name: "Globex", IsActive: true},
		},
		projects: []RemoteProject{
			{ID: 1000, Name: "Website", IsActive: true, Client: remoteRef{ID: 100, Name: "Acme"}},
			{ID: 2000, Name: "Mobile App", IsActive: false, Client: remoteRef{ID: 200, Name: "Globex"}},
		},
		invoices: []RemoteInvoice{
			{ID: 5000, Client: remoteRef{ID: 100}, Number: "INV-1", IssueDate: "2026-01-15", State: "open", Amount: json.Number("1000"), PaidAmount: json.Number("0")},
			{ID: 5001, Client: remoteRef{ID: 200}, Number: "INV-2", IssueDate: "2026-01-20", State: "paid", Amount: json.Number("950"), PaidAmount: json.Number("950"), PaidDate: "2026-02-01"},
		},
	}
}

func TestSyncCreatesMirrorsOnFirstRun(t *testing.T) {
	store := newFakeStore(testConnection(t), defaultRuleFixture())
	remote := sampleRemote()

	result := syncForUser(context.Background(), store, factoryFor(remote), 42)
	if !result.Success {
		t.Fatalf("sync failed: %s", result.Error)
	}
	want := SyncStats{ClientsCreated: 2, ProjectsCreated: 2, InvoicesCreated: 2}
	if *result.Stats != want {
		t.Errorf("stats = %+v, want %+v", *result.Stats, want)
	}
	if store.lastSyncAt == nil {
		t.Error("LastSyncAt not stamped")
	}

	invoice := store.invoices["5001"]
	if invoice == nil {
		t.Fatal("invoice 5001 not mirrored")
	}
	if invoice.Status != models.InvoiceStatusPaid {
		t.Errorf("status = %q", invoice.Status)
	}
	if !invoice.AmountPaid.Equal(decimal.NewFromInt(950)) {
		t.Errorf("amount paid = %s", invoice.AmountPaid)
	}
	if invoice.PaidAt == nil || invoice.PaidAt.Format("2006-01-02") != "2026-02-01" {
		t.Errorf("paid at = %v", invoice.PaidAt)
	}
}

func TestSyncSecondRunCountsUpdatesNotCreates(t *testing.T) {
	store := newFakeStore(testConnection(t), defaultRuleFixture())
	remote := sampleRemote()

	first := syncForUser(context.Background(), store, factoryFor(remote), 42)
	if !first.Success {
		t.Fatalf("first sync failed: %s", first.Error)
	}

	remote.clients[0].Name = "Acme Renamed"
	second := syncForUser(context.Background(), store, factoryFor(remote), 42)
	if !second.Success {
		t.Fatalf("second sync failed: %s", second.Error)
	}
	want := SyncStats{InvoicesUpdated: 2}
	if *second.Stats != want {
		t.Errorf("stats = %+v, want %+v", *second.Stats, want)
	}
	if store.clients["100"].Name != "Acme Renamed" {
		t.Errorf("client rename not mirrored: %q", store.clients["100"].Name)
	}
}

func TestSyncBindsNewProjectsToDefaultRuleOnly(t *testing.T) {
	store := newFakeStore(testConnection(t), defaultRuleFixture())
	// The user manually moved project 1000 to rule 77 before this pass.
	store.projects["1000"] = &models.BillingProject{HarvestId: "1000", ClientHarvestId: "100", Name: "Website"}
	store.assignments["1000"] = 77

	result := syncForUser(context.Background(), store, factoryFor(sampleRemote()), 42)
	if !result.Success {
		t.Fatalf("sync failed: %s", result.Error)
	}
	if got := store.assignments["1000"]; got != 77 {
		t.Errorf("existing assignment overwritten: rule %d", got)
	}
	if got := store.assignments["2000"]; got != 9 {
		t.Errorf("new project not bound to default rule: rule %d", got)
	}
}

func TestSyncProbeFailureWritesNothing(t *testing.T) {
	store := newFakeStore(testConnection(t), defaultRuleFixture())
	remote := sampleRemote()
	remote.probeErr = &APIError{StatusCode: 401, Body: "invalid token"}

	result := syncForUser(context.Background(), store, factoryFor(remote), 42)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Stats != nil {
		t.Error("failed sync must not report stats")
	}
	if !strings.Contains(result.Error, "invalid token") {
		t.Errorf("error = %q", result.Error)
	}
	if len(store.clients) != 0 || len(store.invoices) != 0 {
		t.Error("probe failure must not write mirrors")
	}
	if store.lastSyncAt != nil {
		t.Error("LastSyncAt stamped on failed pass")
	}
}

func TestSyncMidPassFailureKeepsEarlierWritesButNoStats(t *testing.T) {
	store := newFakeStore(testConnection(t), defaultRuleFixture())
	store.failInvoiceCreateAfter = 1

	result := syncForUser(context.Background(), store, factoryFor(sampleRemote()), 42)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Stats != nil {
		t.Error("failed sync must not report stats")
	}
	if len(store.clients) != 2 || len(store.projects) != 2 {
		t.Error("writes before the failure should persist")
	}
	if len(store.invoices) != 1 {
		t.Errorf("got %d invoices, want the 1 written before the failure", len(store.invoices))
	}
	if store.lastSyncAt != nil {
		t.Error("LastSyncAt stamped on failed pass")
	}
}

func TestSyncWithoutConnectionFails(t *testing.T) {
	store := newFakeStore(nil, defaultRuleFixture())

	result := syncForUser(context.Background(), store, factoryFor(sampleRemote()), 42)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != ErrNoConnection.Error() {
		t.Errorf("error = %q", result.Error)
	}
}

func TestMapInvoiceState(t *testing.T) {
	cases := map[string]models.InvoiceStatus{
		"open":    models.InvoiceStatusOpen,
		"PAID":    models.InvoiceStatusPaid,
		" closed": models.InvoiceStatusClosed,
		"draft":   models.InvoiceStatusDraft,
		"weird":   models.InvoiceStatusDraft,
		"":        models.InvoiceStatusDraft,
	}
	for state, want := range cases {
		if got := mapInvoiceState(state); got != want {
			t.Errorf("mapInvoiceState(%q) = %q, want %q", state, got, want)
		}
	}
}

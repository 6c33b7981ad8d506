package harvestsync

import (
	"context"
	"time"

	"bitbucket.org/craftsight/commissions_backend/models"
)

// Store is the slice of persistence the sync worker needs. The production
// implementation delegates to the models package; tests swap in an
// in-memory fake.
type Store interface {
	Connection(ctx context.Context, userId int) (*models.HarvestConnection, error)
	StampLastSync(ctx context.Context, userId int, t time.Time) error

	FindClient(ctx context.Context, harvestId string) (*models.BillingClient, error)
	CreateClient(ctx context.Context, client *models.BillingClient) error
	UpdateClientName(ctx context.Context, harvestId string, name string) error

	FindProject(ctx context.Context, harvestId string) (*models.BillingProject, error)
	CreateProject(ctx context.Context, project *models.BillingProject) error
	UpdateProject(ctx context.Context, harvestId string, name string, isActive bool) error

	FindInvoice(ctx context.Context, harvestId string) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	UpdateInvoice(ctx context.Context, invoice *models.Invoice) error

	DefaultRule(ctx context.Context, userId int) (*models.CommissionRule, error)
	AssignRuleIfAbsent(ctx context.Context, userId int, projectHarvestId string, ruleId int) error
}

type gormStore struct{}

func NewStore() Store {
	return gormStore{}
}

func (gormStore) Connection(ctx context.Context, userId int) (*models.HarvestConnection, error) {
	return models.GetHarvestConnection(ctx, userId)
}

func (gormStore) StampLastSync(ctx context.Context, userId int, t time.Time) error {
	return models.StampLastSync(ctx, userId, t)
}

func (gormStore) FindClient(ctx context.Context, harvestId string) (*models.BillingClient, error) {
	return models.FindBillingClientByHarvestId(ctx, harvestId)
}

func (gormStore) CreateClient(ctx context.Context, client *models.BillingClient) error {
	return models.CreateBillingClient(ctx, client)
}

func (gormStore) UpdateClientName(ctx context.Context, harvestId string, name string) error {
	return models.UpdateBillingClientName(ctx, harvestId, name)
}

func (gormStore) FindProject(ctx context.Context, harvestId string) (*models.BillingProject, error) {
	return models.FindBillingProjectByHarvestId(ctx, harvestId)
}

func (gormStore) CreateProject(ctx context.Context, project *models.BillingProject) error {
	return models.CreateBillingProject(ctx, project)
}

func (gormStore) UpdateProject(ctx context.Context, harvestId string, name string, isActive bool) error {
	return models.UpdateBillingProject(ctx, harvestId, name, isActive)
}

func (gormStore) FindInvoice(ctx context.Context, harvestId string) (*models.Invoice, error) {
	return models.FindInvoiceByHarvestId(ctx, harvestId)
}

func (gormStore) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return models.CreateInvoice(ctx, invoice)
}

func (gormStore) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return models.UpdateInvoiceByHarvestId(ctx, invoice)
}

func (gormStore) DefaultRule(ctx context.Context, userId int) (*models.CommissionRule, error) {
	return models.GetDefaultCommissionRule(ctx, userId)
}

func (gormStore) AssignRuleIfAbsent(ctx context.Context, userId int, projectHarvestId string, ruleId int) error {
	return models.AssignRuleIfAbsent(ctx, userId, projectHarvestId, ruleId)
}

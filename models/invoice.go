package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice mirrors an invoice from the billing provider. Monetary fields are
// carried verbatim (no currency conversion); AmountPaid is meaningful only
// when Status is paid, and PaidAt is set only for paid invoices.
type Invoice struct {
	ID              int             `gorm:"primary_key" json:"id"`
	HarvestId       string          `gorm:"size:64;not null;uniqueIndex" json:"harvest_id"`
	ClientHarvestId string          `gorm:"size:64;not null;index" json:"client_harvest_id"`
	Number          string          `gorm:"size:50;not null" json:"number"`
	IssueDate       time.Time       `gorm:"not null" json:"issue_date"`
	DueDate         *time.Time      `json:"due_date"`
	Status          InvoiceStatus   `gorm:"size:20;not null;index" json:"status"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount_paid"`
	PaidAt          *time.Time      `json:"paid_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindInvoiceByHarvestId returns (nil, nil) when no mirror exists.
func FindInvoiceByHarvestId(ctx context.Context, harvestId string) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Where("harvest_id = ?", harvestId).Take(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func CreateInvoice(ctx context.Context, invoice *Invoice) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(invoice).Error
}

// UpdateInvoiceByHarvestId overwrites every synced field, including the
// nullable dates (a map update so nil values are written through).
func UpdateInvoiceByHarvestId(ctx context.Context, invoice *Invoice) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Invoice{}).
		Where("harvest_id = ?", invoice.HarvestId).
		Updates(map[string]interface{}{
			"client_harvest_id": invoice.ClientHarvestId,
			"number":            invoice.Number,
			"issue_date":        invoice.IssueDate,
			"due_date":          invoice.DueDate,
			"status":            invoice.Status,
			"amount":            invoice.Amount,
			"amount_paid":       invoice.AmountPaid,
			"paid_at":           invoice.PaidAt,
		}).Error
}

func GetInvoices(ctx context.Context) ([]*Invoice, error) {
	db := config.GetDB()
	var results []*Invoice
	if err := db.WithContext(ctx).Order("issue_date desc, id desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

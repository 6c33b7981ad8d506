package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"gorm.io/gorm"
)

// BillingClient mirrors a client record from the billing provider. Mirrors
// are shared state, not scoped to any user; the sync worker is their only
// writer.
type BillingClient struct {
	ID        int       `gorm:"primary_key" json:"id"`
	HarvestId string    `gorm:"size:64;not null;uniqueIndex" json:"harvest_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindBillingClientByHarvestId returns (nil, nil) when no mirror exists.
func FindBillingClientByHarvestId(ctx context.Context, harvestId string) (*BillingClient, error) {
	db := config.GetDB()
	var client BillingClient
	err := db.WithContext(ctx).Where("harvest_id = ?", harvestId).Take(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func CreateBillingClient(ctx context.Context, client *BillingClient) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(client).Error
}

func UpdateBillingClientName(ctx context.Context, harvestId string, name string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&BillingClient{}).
		Where("harvest_id = ?", harvestId).
		Update("name", name).Error
}

func GetBillingClients(ctx context.Context) ([]*BillingClient, error) {
	db := config.GetDB()
	var results []*BillingClient
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

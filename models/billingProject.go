package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"gorm.io/gorm"
)

// BillingProject mirrors a project record from the billing provider.
// Projects are created on first sync observation and updated on every later
// one; sync never deletes them.
type BillingProject struct {
	ID              int       `gorm:"primary_key" json:"id"`
	HarvestId       string    `gorm:"size:64;not null;uniqueIndex" json:"harvest_id"`
	ClientHarvestId string    `gorm:"size:64;not null;index" json:"client_harvest_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindBillingProjectByHarvestId returns (nil, nil) when no mirror exists.
func FindBillingProjectByHarvestId(ctx context.Context, harvestId string) (*BillingProject, error) {
	db := config.GetDB()
	var project BillingProject
	err := db.WithContext(ctx).Where("harvest_id = ?", harvestId).Take(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func CreateBillingProject(ctx context.Context, project *BillingProject) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(project).Error
}

func UpdateBillingProject(ctx context.Context, harvestId string, name string, isActive bool) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&BillingProject{}).
		Where("harvest_id = ?", harvestId).
		Updates(map[string]interface{}{
			"name":      name,
			"is_active": isActive,
		}).Error
}

func GetBillingProjects(ctx context.Context) ([]*BillingProject, error) {
	db := config.GetDB()
	var results []*BillingProject
	if err := db.WithContext(ctx).Order("is_active desc, name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"gorm.io/gorm"
)

// HarvestConnection stores one Harvest account link per user. The access
// token is kept encrypted at rest; LastSyncAt stays nil until the first
// fully successful sync pass.
type HarvestConnection struct {
	ID                   int        `gorm:"primary_key" json:"id"`
	UserId               int        `gorm:"not null;uniqueIndex" json:"user_id"`
	AccountId            string     `gorm:"size:64;not null" json:"account_id"`
	AccessTokenEncrypted string     `gorm:"type:text;not null" json:"-"`
	LastSyncAt           *time.Time `json:"last_sync_at"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetHarvestConnection returns (nil, nil) when the user has no connection.
func GetHarvestConnection(ctx context.Context, userId int) (*HarvestConnection, error) {
	db := config.GetDB()
	var conn HarvestConnection
	err := db.WithContext(ctx).Where("user_id = ?", userId).Take(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func UpsertHarvestConnection(ctx context.Context, userId int, accountId string, encryptedToken string) (*HarvestConnection, error) {
	db := config.GetDB()

	conn, err := GetHarvestConnection(ctx, userId)
	if err != nil {
		return nil, err
	}

	if conn == nil {
		conn = &HarvestConnection{
			UserId:               userId,
			AccountId:            accountId,
			AccessTokenEncrypted: encryptedToken,
		}
		if err := db.WithContext(ctx).Create(conn).Error; err != nil {
			return nil, err
		}
		return conn, nil
	}

	if err := db.WithContext(ctx).Model(conn).Updates(map[string]interface{}{
		"account_id":             accountId,
		"access_token_encrypted": encryptedToken,
	}).Error; err != nil {
		return nil, err
	}
	return conn, nil
}

func StampLastSync(ctx context.Context, userId int, t time.Time) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&HarvestConnection{}).
		Where("user_id = ?", userId).
		Update("last_sync_at", t).Error
}

package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"bitbucket.org/craftsight/commissions_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionRule is user-scoped. Exactly one rule per user carries
// IsDefault=true; that rule can be re-rated but never renamed or deleted.
type CommissionRule struct {
	ID        int             `gorm:"primary_key" json:"id"`
	UserId    int             `gorm:"not null;uniqueIndex:idx_rule_user_name,priority:1" json:"user_id"`
	Name      string          `gorm:"size:100;not null;uniqueIndex:idx_rule_user_name,priority:2" json:"name"`
	Percent   decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"percent"`
	IsDefault *bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCommissionRule struct {
	Name    string          `json:"name" binding:"required"`
	Percent decimal.Decimal `json:"percent"`
}

const (
	defaultRuleName    = "Default Rule"
	defaultRulePercent = 10
)

var hundred = decimal.NewFromInt(100)

// validate input for both create & update. (id = 0 for create)
func (input *NewCommissionRule) validate(ctx context.Context, userId int, id int) error {
	if input.Percent.IsNegative() || input.Percent.GreaterThan(hundred) {
		return errors.New("percent must be between 0 and 100")
	}
	if err := utils.ValidateUnique[CommissionRule](ctx, userId, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateCommissionRule(ctx context.Context, input *NewCommissionRule) (*CommissionRule, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}
	if err := input.validate(ctx, userId, 0); err != nil {
		return nil, err
	}

	rule := CommissionRule{
		UserId:    userId,
		Name:      input.Name,
		Percent:   input.Percent,
		IsDefault: utils.NewFalse(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func UpdateCommissionRule(ctx context.Context, id int, input *NewCommissionRule) (*CommissionRule, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}

	rule, err := utils.FetchModel[CommissionRule](ctx, userId, id)
	if err != nil {
		return nil, err
	}

	if rule.IsDefault != nil && *rule.IsDefault && input.Name != rule.Name {
		return nil, errors.New("cannot rename default rule")
	}
	if err := input.validate(ctx, userId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(rule).Updates(map[string]interface{}{
		"name":    input.Name,
		"percent": input.Percent,
	}).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteCommissionRule refuses the default rule and re-points any project
// assignments at the default rule before deleting.
func DeleteCommissionRule(ctx context.Context, id int) (*CommissionRule, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}

	rule, err := utils.FetchModel[CommissionRule](ctx, userId, id)
	if err != nil {
		return nil, err
	}
	if rule.IsDefault != nil && *rule.IsDefault {
		return nil, errors.New("cannot delete default rule")
	}

	defaultRule, err := GetDefaultCommissionRule(ctx, userId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if defaultRule != nil {
			if err := tx.Model(&ProjectRuleAssignment{}).
				Where("user_id = ? AND commission_rule_id = ?", userId, rule.ID).
				Update("commission_rule_id", defaultRule.ID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(rule).Error
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func GetCommissionRules(ctx context.Context) ([]*CommissionRule, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var results []*CommissionRule
	if err := db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("is_default desc, name").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetDefaultCommissionRule returns (nil, nil) when the user has no default
// rule yet.
func GetDefaultCommissionRule(ctx context.Context, userId int) (*CommissionRule, error) {
	db := config.GetDB()
	var rule CommissionRule
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userId, true).
		Take(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// EnsureDefaultCommissionRule creates the user's default rule (10%) when
// none exists yet.
func EnsureDefaultCommissionRule(ctx context.Context, userId int) (*CommissionRule, error) {
	rule, err := GetDefaultCommissionRule(ctx, userId)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		return rule, nil
	}

	rule = &CommissionRule{
		UserId:    userId,
		Name:      defaultRuleName,
		Percent:   decimal.NewFromInt(defaultRulePercent),
		IsDefault: utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

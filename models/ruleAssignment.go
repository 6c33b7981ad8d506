package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/craftsight/commissions_backend/config"
	"gorm.io/gorm"
)

// ProjectRuleAssignment binds one mirrored project to one of the user's
// commission rules. The (user, project) pair is unique; absence of an
// assignment means the user's default rule applies.
type ProjectRuleAssignment struct {
	ID               int             `gorm:"primary_key" json:"id"`
	UserId           int             `gorm:"not null;uniqueIndex:idx_assignment_user_project,priority:1" json:"user_id"`
	ProjectHarvestId string          `gorm:"size:64;not null;uniqueIndex:idx_assignment_user_project,priority:2" json:"project_harvest_id"`
	CommissionRuleId int             `gorm:"not null;index" json:"commission_rule_id"`
	CommissionRule   *CommissionRule `gorm:"foreignKey:CommissionRuleId" json:"commission_rule,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetRuleAssignments(ctx context.Context, userId int) ([]*ProjectRuleAssignment, error) {
	db := config.GetDB()
	var results []*ProjectRuleAssignment
	if err := db.WithContext(ctx).
		Preload("CommissionRule").
		Where("user_id = ?", userId).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertRuleAssignment creates or re-points the assignment for the
// (user, project) pair. The rule must belong to the same user; callers
// verify that before calling.
func UpsertRuleAssignment(ctx context.Context, userId int, projectHarvestId string, ruleId int) (*ProjectRuleAssignment, error) {
	db := config.GetDB()

	var assignment ProjectRuleAssignment
	err := db.WithContext(ctx).
		Where("user_id = ? AND project_harvest_id = ?", userId, projectHarvestId).
		Take(&assignment).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		assignment = ProjectRuleAssignment{
			UserId:           userId,
			ProjectHarvestId: projectHarvestId,
			CommissionRuleId: ruleId,
		}
		if err := db.WithContext(ctx).Create(&assignment).Error; err != nil {
			return nil, err
		}
		return &assignment, nil
	}

	if err := db.WithContext(ctx).Model(&assignment).
		Update("commission_rule_id", ruleId).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// AssignRuleIfAbsent creates the assignment only when the (user, project)
// pair has none; an existing assignment is left untouched. The unique index
// keeps concurrent creates safe.
func AssignRuleIfAbsent(ctx context.Context, userId int, projectHarvestId string, ruleId int) error {
	db := config.GetDB()
	assignment := ProjectRuleAssignment{
		UserId:           userId,
		ProjectHarvestId: projectHarvestId,
		CommissionRuleId: ruleId,
	}
	return db.WithContext(ctx).
		Where("user_id = ? AND project_harvest_id = ?", userId, projectHarvestId).
		FirstOrCreate(&assignment).Error
}

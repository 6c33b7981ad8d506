package models

import (
	"log"

	"bitbucket.org/craftsight/commissions_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&HarvestConnection{},
		&BillingClient{}, &BillingProject{}, &Invoice{},
		&CommissionRule{}, &ProjectRuleAssignment{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

package models

import (
	"log"

	"github.com/sellerdesk/orders-backoffice/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Order{},
		&AmazonCredential{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

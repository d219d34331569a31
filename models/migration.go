package models

import (
	"log"

	"github.com/kilo/kilo_backend/config"
)

// MigrateTable creates the tables this service writes to. orders and
// documents are normally owned by the dashboard schema; AutoMigrate only adds
// what is missing.
func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Order{}, &Document{},
		&ActivityLog{}, &Notification{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

package gormrepo

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the schema for every record kind the
// engine persists.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&citizenModel{},
		&activityModel{},
		&contractModel{},
		&stackModel{},
		&buildingModel{},
		&stratagemModel{},
	)
}

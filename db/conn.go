// Package db opens the metadata database and keeps the schema current
package db

import (
	"fmt"

	"docuvault/scan-api/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dial gorm.Dialector

	dsn := viper.GetString("database.dsn")

	switch viper.GetString("database.driver") {
	case "postgres":
		dial = postgres.Open(dsn)
	default:
		dial = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dial)
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	err = db.AutoMigrate(model.User{}, model.Document{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

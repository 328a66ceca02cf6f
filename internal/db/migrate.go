package db

import (
	"money_service/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
	"gorm.io/gorm/clause"  // Clause helpers for upserts
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(&domain.User{}, &domain.AuthToken{}, &domain.Transaction{}, &domain.SystemCounter{})
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	// Seed the single visit-counter row; ignored if it already exists
	err = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.SystemCounter{Key: 0, Visits: 0}).Error
	if err != nil {
		logrus.Fatalf("failed to seed visit counter: %v", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
}

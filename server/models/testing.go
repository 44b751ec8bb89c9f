package models

import (
	"log"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var testDatastore *Datastore

// InitializeTestDatastore opens a shared in-memory database for tests and
// wipes all rows, so every test starts from a clean slate.
func InitializeTestDatastore() *Datastore {
	if testDatastore == nil {
		db, err := gorm.Open(sqliteEncrypt.Open("file::memory:?cache=shared"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			log.Panicf("failed to open test database: %v", err)
		}

		// A single connection keeps every session on the same in-memory db.
		sqlDB, err := db.DB()
		if err != nil {
			log.Panic(err)
		}
		sqlDB.SetMaxOpenConns(1)

		testDatastore = &Datastore{db: db}
		if err := testDatastore.AutoMigrate(); err != nil {
			log.Panicf("failed to migrate test database: %v", err)
		}
	}

	for _, table := range []string{"phone_numbers", "contacts", "users"} {
		testDatastore.db.Exec("DELETE FROM " + table)
	}

	return testDatastore
}

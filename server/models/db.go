package models

import (
	"log"
	"os"
	"path/filepath"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/pkg/errors"
	"github.com/sgabriel/rolodex/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "rolodex.db"

// Connect opens the encrypted sqlite database, migrates the schema and
// returns a ready-to-use datastore.
func Connect(passPhrase, dbRootDir string) (*Datastore, error) {
	dsn, err := dbDSN(passPhrase, dbRootDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set sqlite DSN")
	}

	db, err := gorm.Open(sqliteEncrypt.Open(dsn), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	ds := &Datastore{db: db}
	if err = ds.AutoMigrate(); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return ds, nil
}

func (ds *Datastore) AutoMigrate() error {
	return ds.db.AutoMigrate(&User{}, &Contact{}, &PhoneNumber{})
}

// Close drains the underlying connection pool. Called once on shutdown.
func (ds *Datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// DbFilePath returns the location of the sqlite file, e.g. for backups.
func DbFilePath(dbRootDir string) string {
	return filepath.Join(dbRootDir, "db", DB_NAME)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func dbDSN(passPhrase, dbRootDir string) (string, error) {
	dbDir := filepath.Join(dbRootDir, "db")
	if err := utils.CreateDirIfNotExist(dbDir); err != nil {
		return "", err
	}

	dsn := "file:" + filepath.Join(dbDir, DB_NAME) +
		"?_pragma_key=" + passPhrase +
		"&_pragma_cipher_page_size=4096&_journal_mode=WAL"

	return dsn, nil
}

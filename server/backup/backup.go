// Package backup periodically copies the encrypted sqlite file to Google
// Cloud Storage, and restores it on a fresh host before the server boots.
package backup

import (
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"github.com/sgabriel/rolodex/server/gstorage"
	"github.com/sgabriel/rolodex/server/logger"
	"github.com/sgabriel/rolodex/shared"
	"github.com/sgabriel/rolodex/utils"
)

var logg = logger.NewLogger()

type Scheduler struct {
	scheduler  *gocron.Scheduler
	gs         *gstorage.GStorage
	config     shared.StorageConfig
	dbFilePath string
}

func NewScheduler(gs *gstorage.GStorage, config shared.StorageConfig, dbFilePath string) *Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.TagsUnique()

	return &Scheduler{
		scheduler:  scheduler,
		gs:         gs,
		config:     config,
		dbFilePath: dbFilePath,
	}
}

// Start schedules the recurring backup job using the configured cron
// expression and runs the scheduler in its own goroutine.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.config.SqliteBackupSchedule).Tag("sqlite-backup").Do(func() {
		if err := s.BackupNow(); err != nil {
			logg.Errorf("sqlite backup failed: %v", err)
			return
		}
		logg.Infof("sqlite backup uploaded to bucket %q", s.config.Bucket)
	})
	if err != nil {
		return errors.Wrap(err, "failed to schedule sqlite backup")
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// BackupNow uploads the current database file.
func (s *Scheduler) BackupNow() error {
	if !utils.FileExist(s.dbFilePath) {
		return errors.Errorf("no database file at %v", s.dbFilePath)
	}

	return s.gs.UploadFile(s.config.Bucket, s.config.Prefix, s.dbFilePath)
}

// RestoreIfMissing pulls the last uploaded database file when none exists
// locally, e.g. after the server moves to a new host. A bucket with no
// backup yet is not an error.
func (s *Scheduler) RestoreIfMissing() error {
	if utils.FileExist(s.dbFilePath) {
		return nil
	}

	err := s.gs.DownloadFile(s.config.Bucket, s.config.Prefix, filepath.Base(s.dbFilePath), s.dbFilePath)
	if err == gstorage.ErrObjectNotExist {
		logg.Infof("no sqlite backup found in bucket %q, starting fresh", s.config.Bucket)
		return nil
	}

	return err
}

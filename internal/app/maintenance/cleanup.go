package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
	"github.com/siimut/drive/internal/services"
	"github.com/siimut/drive/pkg/logger"
)

const (
	defaultTrashRetentionDays    = 30
	defaultActivityRetentionDays = 365
	defaultSchedule              = "@daily"
)

// Cleaner coordinates background maintenance: purging nodes that have sat in
// the trash past the retention window and pruning old activity rows.
type Cleaner struct {
	db    *gorm.DB
	drive *services.DriveService
	audit *services.ActivityService
	cron  *cron.Cron
	now   func() time.Time
	log   *zap.Logger

	enabled           bool
	trashRetention    int
	activityRetention int
	schedule          string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithTrashRetentionDays adjusts how long trashed nodes survive before purge.
func WithTrashRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.trashRetention = days
		}
	}
}

// WithActivityRetentionDays adjusts how long activity rows are retained.
func WithActivityRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.activityRetention = days
		}
	}
}

// WithSchedule overrides the cron specification for both cleanup jobs.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(db *gorm.DB, drive *services.DriveService, audit *services.ActivityService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:                db,
		drive:             drive,
		audit:             audit,
		now:               time.Now,
		trashRetention:    defaultTrashRetentionDays,
		activityRetention: defaultActivityRetentionDays,
		schedule:          defaultSchedule,
		log:               logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.drive != nil || cleaner.audit != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.drive != nil && c.db != nil && c.trashRetention > 0 {
		if _, err := c.cron.AddFunc(c.schedule, func() {
			if _, err := c.PurgeExpiredTrash(context.Background()); err != nil {
				c.log.Warn("trash purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil && c.activityRetention > 0 {
		if _, err := c.cron.AddFunc(c.schedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.activityRetention); err != nil {
				c.log.Warn("activity cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.drive != nil && c.db != nil && c.trashRetention > 0 {
		if _, err := c.PurgeExpiredTrash(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.audit != nil && c.activityRetention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.activityRetention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// PurgeExpiredTrash permanently deletes nodes whose trashed_at timestamp is
// older than the retention window. Each purge runs through the tree engine so
// blobs and subtrees go with the node.
func (c *Cleaner) PurgeExpiredTrash(ctx context.Context) (int, error) {
	if c.db == nil || c.drive == nil {
		return 0, errors.New("purge trash: db and drive service are required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := c.now().AddDate(0, 0, -c.trashRetention)

	var expired []models.Node
	if err := c.db.WithContext(ctx).
		Select("id").
		Where("is_trashed = ? AND trashed_at < ?", true, cutoff).
		Order("depth ASC").
		Find(&expired).Error; err != nil {
		return 0, err
	}

	purged := 0
	var errs error
	for i := range expired {
		err := c.drive.Delete(ctx, expired[i].ID)
		switch {
		case err == nil:
			purged++
		// A deeper trashed node may already be gone with its purged ancestor.
		case services.IsNotFound(err):
		default:
			errs = multierr.Append(errs, err)
		}
	}

	if purged > 0 {
		c.log.Info("purged expired trash", zap.Int("count", purged))
	}
	return purged, errs
}

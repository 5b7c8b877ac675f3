package maintenance

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/siimut/drive/internal/database/testutil"
	"github.com/siimut/drive/internal/models"
	"github.com/siimut/drive/internal/services"
	"github.com/siimut/drive/internal/storage"
)

func newFixture(t *testing.T) (*gorm.DB, *services.DriveService, *services.ActivityService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	store, err := services.NewNodeStore(db)
	require.NoError(t, err)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	drive, err := services.NewDriveService(db, store, blobs)
	require.NoError(t, err)
	activities, err := services.NewActivityService(db)
	require.NoError(t, err)

	return db, drive, activities
}

func TestPurgeExpiredTrash(t *testing.T) {
	db, drive, activities := newFixture(t)
	ctx := context.Background()

	fresh, err := drive.CreateFolder(ctx, services.CreateFolderInput{Name: "Fresh"})
	require.NoError(t, err)
	_, err = drive.MoveToTrash(ctx, fresh.ID, nil)
	require.NoError(t, err)

	expired, err := drive.CreateFolder(ctx, services.CreateFolderInput{Name: "Expired"})
	require.NoError(t, err)
	_, err = drive.UploadFile(ctx, services.UploadFileInput{
		Name:     "stale.txt",
		ParentID: &expired.ID,
		Content:  bytes.NewReader([]byte("stale")),
	})
	require.NoError(t, err)
	_, err = drive.MoveToTrash(ctx, expired.ID, nil)
	require.NoError(t, err)

	// Age the trashed_at stamp past the retention window.
	old := time.Now().AddDate(0, 0, -60)
	require.NoError(t, db.Model(&models.Node{}).
		Where("id = ?", expired.ID).
		Update("trashed_at", old).Error)

	cleaner := NewCleaner(db, drive, activities, WithTrashRetentionDays(30))
	purged, err := cleaner.PurgeExpiredTrash(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	var count int64
	require.NoError(t, db.Model(&models.Node{}).Where("id = ?", expired.ID).Count(&count).Error)
	require.Zero(t, count)

	// The subtree went with the purged folder.
	require.NoError(t, db.Model(&models.Node{}).Where("parent_id = ?", expired.ID).Count(&count).Error)
	require.Zero(t, count)

	// The recently trashed node survives.
	require.NoError(t, db.Model(&models.Node{}).Where("id = ?", fresh.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRunOncePrunesActivities(t *testing.T) {
	db, drive, activities := newFixture(t)
	ctx := context.Background()

	node, err := drive.CreateFolder(ctx, services.CreateFolderInput{Name: "Logged"})
	require.NoError(t, err)

	old := time.Now().AddDate(0, 0, -400)
	require.NoError(t, db.Model(&models.Activity{}).
		Where("node_id = ?", node.ID).
		Update("created_at", old).Error)

	cleaner := NewCleaner(db, drive, activities, WithActivityRetentionDays(365))
	require.NoError(t, cleaner.RunOnce(ctx))

	var count int64
	require.NoError(t, db.Model(&models.Activity{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCleanerStartStop(t *testing.T) {
	db, drive, activities := newFixture(t)

	cleaner := NewCleaner(db, drive, activities, WithSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}

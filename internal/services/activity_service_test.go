package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/siimut/drive/internal/database/testutil"
	"github.com/siimut/drive/internal/models"
)

func TestActivityListAndCleanup(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	store, err := NewNodeStore(db)
	require.NoError(t, err)
	activities, err := NewActivityService(db)
	require.NoError(t, err)
	ctx := context.Background()

	node := mustCreateFolder(t, store, "Audited", nil)
	actor := uint64(3)

	require.NoError(t, recordActivity(db, node.ID, &actor, models.ActionCreate, nil))
	require.NoError(t, recordActivity(db, node.ID, &actor, models.ActionRename,
		map[string]any{"from": "Audited", "to": "Renamed"}))

	feed, err := activities.ListForNode(ctx, node.ID, 10)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	// Newest first.
	require.Equal(t, models.ActionRename, feed[0].Action)
	require.NotEmpty(t, feed[0].Meta)

	listed, total, err := activities.List(ctx, ActivityListOptions{
		Filters: ActivityFilters{Action: models.ActionRename},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Renamed", listed[0].Description())

	// Age one row past the retention window.
	old := time.Now().AddDate(0, 0, -10)
	require.NoError(t, db.Model(&models.Activity{}).
		Where("action = ?", models.ActionCreate).
		Update("created_at", old).Error)

	removed, err := activities.CleanupOlderThan(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	feed, err = activities.ListForNode(ctx, node.ID, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
}

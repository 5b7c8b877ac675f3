package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1024 B"},
		{2048, "2 KB"},
		{1536, "1.5 KB"},
		{1048576, "1024 KB"},
		{1048577, "1 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, FormatBytes(tc.size), "size %d", tc.size)
	}
}

func TestStorageStats(t *testing.T) {
	drive, _, db := newTestDrive(t)
	ctx := context.Background()

	svc, err := NewStorageService(db)
	require.NoError(t, err)

	folder, err := drive.CreateFolder(ctx, CreateFolderInput{Name: "Docs"})
	require.NoError(t, err)
	_, err = drive.UploadFile(ctx, UploadFileInput{
		Name:     "one.txt",
		ParentID: &folder.ID,
		Content:  bytes.NewReader(make([]byte, 100)),
	})
	require.NoError(t, err)
	second, err := drive.UploadFile(ctx, UploadFileInput{
		Name:     "two.txt",
		ParentID: &folder.ID,
		Content:  bytes.NewReader(make([]byte, 50)),
	})
	require.NoError(t, err)

	// Trashed files still count toward usage; trashed folders leave the
	// folder count.
	_, err = drive.MoveToTrash(ctx, second.ID, nil)
	require.NoError(t, err)
	hidden, err := drive.CreateFolder(ctx, CreateFolderInput{Name: "Hidden"})
	require.NoError(t, err)
	_, err = drive.MoveToTrash(ctx, hidden.ID, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.FolderCount)
	require.Equal(t, int64(2), stats.FileCount)
	require.Equal(t, int64(2), stats.TrashedCount)
	require.Equal(t, int64(150), stats.TotalBytes)
	require.Equal(t, "150 B", stats.TotalFormatted)
}

func TestStorageStatsForOwner(t *testing.T) {
	drive, _, db := newTestDrive(t)
	ctx := context.Background()

	svc, err := NewStorageService(db)
	require.NoError(t, err)

	mine := uint64(7)
	theirs := uint64(8)
	folder, err := drive.CreateFolder(ctx, CreateFolderInput{Name: "Mine", ActorID: &mine})
	require.NoError(t, err)
	_, err = drive.UploadFile(ctx, UploadFileInput{
		Name:     "a.bin",
		ParentID: &folder.ID,
		Content:  bytes.NewReader(make([]byte, 200)),
		ActorID:  &mine,
	})
	require.NoError(t, err)
	_, err = drive.CreateFolder(ctx, CreateFolderInput{Name: "Theirs", ActorID: &theirs})
	require.NoError(t, err)
	_, err = drive.UploadFile(ctx, UploadFileInput{
		Name:    "b.bin",
		Content: bytes.NewReader(make([]byte, 500)),
		ActorID: &theirs,
	})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, &mine)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.FolderCount)
	require.Equal(t, int64(1), stats.FileCount)
	require.Equal(t, int64(0), stats.TrashedCount)
	require.Equal(t, int64(200), stats.TotalBytes)

	all, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), all.FolderCount)
	require.Equal(t, int64(2), all.FileCount)
	require.Equal(t, int64(700), all.TotalBytes)
}

func TestStorageUsageForUser(t *testing.T) {
	drive, _, db := newTestDrive(t)
	svc, err := NewStorageService(db)
	require.NoError(t, err)
	ctx := context.Background()

	actor := uint64(42)
	_, err = drive.UploadFile(ctx, UploadFileInput{
		Name:    "mine.bin",
		Content: bytes.NewReader(make([]byte, 300)),
		ActorID: &actor,
	})
	require.NoError(t, err)
	_, err = drive.UploadFile(ctx, UploadFileInput{
		Name:    "theirs.bin",
		Content: bytes.NewReader(make([]byte, 700)),
	})
	require.NoError(t, err)

	total, err := svc.UsageForUser(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, int64(300), total)
}

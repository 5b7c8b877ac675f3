package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/siimut/drive/internal/database/testutil"
	"github.com/siimut/drive/internal/models"
	apperrors "github.com/siimut/drive/pkg/errors"
)

func newTestNodeStore(t *testing.T) (*NodeStore, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t)
	store, err := NewNodeStore(db)
	require.NoError(t, err)
	return store, db
}

func mustCreateFolder(t *testing.T, store *NodeStore, name string, parentID *uint64) *models.Node {
	t.Helper()
	node, err := store.Create(context.Background(), CreateNodeInput{
		Kind:     models.NodeKindFolder,
		Name:     name,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return node
}

func closureDepth(t *testing.T, db *gorm.DB, ancestorID, descendantID uint64) int {
	t.Helper()
	var row models.NodePath
	err := db.Where("ancestor_id = ? AND descendant_id = ?", ancestorID, descendantID).First(&row).Error
	require.NoError(t, err)
	return row.Depth
}

func TestNodeStoreCreateComputesPathAndDepth(t *testing.T) {
	store, db := newTestNodeStore(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Documents", nil)
	require.Equal(t, "/", root.Path)
	require.Equal(t, 0, root.Depth)
	require.Equal(t, "documents", root.Slug)

	child := mustCreateFolder(t, store, "Reports", &root.ID)
	require.Equal(t, root.SubtreePrefix(), child.Path)
	require.Equal(t, 1, child.Depth)

	grandchild, err := store.Create(ctx, CreateNodeInput{
		Kind:     models.NodeKindFile,
		Name:     "q1.pdf",
		ParentID: &child.ID,
	})
	require.NoError(t, err)
	require.Equal(t, child.SubtreePrefix(), grandchild.Path)
	require.Equal(t, 2, grandchild.Depth)

	require.Equal(t, 0, closureDepth(t, db, root.ID, root.ID))
	require.Equal(t, 1, closureDepth(t, db, root.ID, child.ID))
	require.Equal(t, 2, closureDepth(t, db, root.ID, grandchild.ID))
	require.Equal(t, 1, closureDepth(t, db, child.ID, grandchild.ID))
}

func TestNodeStoreCreateRejectsFileParent(t *testing.T) {
	store, _ := newTestNodeStore(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Root", nil)
	file, err := store.Create(ctx, CreateNodeInput{
		Kind:     models.NodeKindFile,
		Name:     "a.txt",
		ParentID: &root.ID,
	})
	require.NoError(t, err)

	_, err = store.Create(ctx, CreateNodeInput{
		Kind:     models.NodeKindFolder,
		Name:     "child",
		ParentID: &file.ID,
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestNodeStoreSiblingNameConflicts(t *testing.T) {
	store, _ := newTestNodeStore(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Root", nil)
	mustCreateFolder(t, store, "Photos", &root.ID)

	_, err := store.Create(ctx, CreateNodeInput{
		Kind:     models.NodeKindFolder,
		Name:     "Photos",
		ParentID: &root.ID,
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	// Root-level names collide too, despite parent_id being NULL.
	_, err = store.Create(ctx, CreateNodeInput{
		Kind: models.NodeKindFolder,
		Name: "Root",
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	// A trashed sibling does not block an active one with the same name.
	other := mustCreateFolder(t, store, "Archive", &root.ID)
	_, err = store.MoveToTrash(ctx, other.ID, nil)
	require.NoError(t, err)

	replacement := mustCreateFolder(t, store, "Archive", &root.ID)
	require.NotEqual(t, other.ID, replacement.ID)
}

func TestNodeStoreRenameKeepsPath(t *testing.T) {
	store, _ := newTestNodeStore(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Root", nil)
	file, err := store.Create(ctx, CreateNodeInput{
		Kind:     models.NodeKindFile,
		Name:     "a.txt",
		ParentID: &root.ID,
	})
	require.NoError(t, err)

	renamed, err := store.Rename(ctx, file.ID, "b.txt", nil)
	require.NoError(t, err)
	require.Equal(t, "b.txt", renamed.Name)
	require.Equal(t, "b-txt", renamed.Slug)
	require.Equal(t, file.Path, renamed.Path)
	require.Equal(t, file.Depth, renamed.Depth)
}

func TestNodeStoreMoveRewritesSubtree(t *testing.T) {
	store, db := newTestNodeStore(t)
	ctx := context.Background()

	a := mustCreateFolder(t, store, "A", nil)
	b := mustCreateFolder(t, store, "B", &a.ID)
	c := mustCreateFolder(t, store, "C", &b.ID)
	dest := mustCreateFolder(t, store, "Dest", nil)

	moved, err := store.ChangeParent(ctx, b.ID, &dest.ID, nil)
	require.NoError(t, err)
	require.Equal(t, dest.SubtreePrefix(), moved.Path)
	require.Equal(t, 1, moved.Depth)

	var movedChild models.Node
	require.NoError(t, db.First(&movedChild, "id = ?", c.ID).Error)
	require.Equal(t, moved.SubtreePrefix(), movedChild.Path)
	require.Equal(t, 2, movedChild.Depth)

	// Closure reflects the new shape: dest is now an ancestor of c, a is not.
	require.Equal(t, 2, closureDepth(t, db, dest.ID, c.ID))
	var stale int64
	require.NoError(t, db.Model(&models.NodePath{}).
		Where("ancestor_id = ? AND descendant_id = ?", a.ID, c.ID).
		Count(&stale).Error)
	require.Zero(t, stale)
}

func TestNodeStoreMoveToRootAndBack(t *testing.T) {
	store, _ := newTestNodeStore(t)
	ctx := context.Background()

	a := mustCreateFolder(t, store, "A", nil)
	b := mustCreateFolder(t, store, "B", &a.ID)

	toRoot, err := store.ChangeParent(ctx, b.ID, nil, nil)
	require.NoError(t, err)
	require.Nil(t, toRoot.ParentID)
	require.Equal(t, "/", toRoot.Path)
	require.Equal(t, 0, toRoot.Depth)

	back, err := store.ChangeParent(ctx, b.ID, &a.ID, nil)
	require.NoError(t, err)
	require.Equal(t, a.SubtreePrefix(), back.Path)
	require.Equal(t, 1, back.Depth)
}

func TestNodeStoreMoveCyclePrevention(t *testing.T) {
	store, db := newTestNodeStore(t)
	ctx := context.Background()

	a := mustCreateFolder(t, store, "A", nil)
	b := mustCreateFolder(t, store, "B", &a.ID)
	c := mustCreateFolder(t, store, "C", &b.ID)

	_, err := store.ChangeParent(ctx, a.ID, &a.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	_, err = store.ChangeParent(ctx, a.ID, &c.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	// Rejected moves leave the tree untouched.
	var fresh models.Node
	require.NoError(t, db.First(&fresh, "id = ?", a.ID).Error)
	require.Nil(t, fresh.ParentID)
	require.Equal(t, "/", fresh.Path)
	require.Equal(t, 0, fresh.Depth)
}

func TestNodeStoreMoveDestinationSiblingConflict(t *testing.T) {
	store, _ := newTestNodeStore(t)
	ctx := context.Background()

	a := mustCreateFolder(t, store, "A", nil)
	dest := mustCreateFolder(t, store, "Dest", nil)
	mustCreateFolder(t, store, "Shared", &dest.ID)

	// Same name under a different parent is fine until the move.
	source := mustCreateFolder(t, store, "Shared", &a.ID)

	_, err := store.ChangeParent(ctx, source.ID, &dest.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestNodeStoreTrashRestoreSingleNode(t *testing.T) {
	store, db := newTestNodeStore(t)
	ctx := context.Background()

	parent := mustCreateFolder(t, store, "Parent", nil)
	child := mustCreateFolder(t, store, "Child", &parent.ID)

	trashed, err := store.MoveToTrash(ctx, parent.ID, nil)
	require.NoError(t, err)
	require.True(t, trashed.IsTrashed)
	require.NotNil(t, trashed.TrashedAt)

	// Trashing is not recursive.
	var freshChild models.Node
	require.NoError(t, db.First(&freshChild, "id = ?", child.ID).Error)
	require.False(t, freshChild.IsTrashed)

	restored, err := store.RestoreFromTrash(ctx, parent.ID, nil)
	require.NoError(t, err)
	require.False(t, restored.IsTrashed)
	require.Nil(t, restored.TrashedAt)
}

func TestNodeStoreHardDeleteRemovesSatelliteRows(t *testing.T) {
	store, db := newTestNodeStore(t)
	ctx := context.Background()

	node := mustCreateFolder(t, store, "Doomed", nil)
	require.NoError(t, db.Create(&models.Favorite{UserID: 7, NodeID: node.ID}).Error)
	require.NoError(t, recordActivity(db, node.ID, nil, models.ActionCreate, nil))

	require.NoError(t, store.HardDelete(ctx, node.ID))

	var count int64
	require.NoError(t, db.Model(&models.Node{}).Where("id = ?", node.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.Favorite{}).Where("node_id = ?", node.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.Activity{}).Where("node_id = ?", node.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.NodePath{}).
		Where("ancestor_id = ? OR descendant_id = ?", node.ID, node.ID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, store.HardDelete(ctx, node.ID), apperrors.ErrNotFound)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siimut/drive/internal/database/testutil"
	"github.com/siimut/drive/internal/models"
	apperrors "github.com/siimut/drive/pkg/errors"
)

func newTestQueries(t *testing.T) (*NodeQueryService, *NodeStore) {
	t.Helper()
	db := testutil.MustOpenTestDB(t)
	store, err := NewNodeStore(db)
	require.NoError(t, err)
	queries, err := NewNodeQueryService(db)
	require.NoError(t, err)
	return queries, store
}

func TestQueryChildrenFoldersFirst(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Root", nil)
	_, err := store.Create(ctx, CreateNodeInput{Kind: models.NodeKindFile, Name: "zz.txt", ParentID: &root.ID})
	require.NoError(t, err)
	mustCreateFolder(t, store, "Beta", &root.ID)
	_, err = store.Create(ctx, CreateNodeInput{Kind: models.NodeKindFile, Name: "aa.txt", ParentID: &root.ID})
	require.NoError(t, err)
	mustCreateFolder(t, store, "Alpha", &root.ID)

	trashed := mustCreateFolder(t, store, "Hidden", &root.ID)
	_, err = store.MoveToTrash(ctx, trashed.ID, nil)
	require.NoError(t, err)

	children, err := queries.Children(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 4)

	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Alpha", "Beta", "aa.txt", "zz.txt"}, names)
}

func TestQueryDescendantsAndTree(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Root", nil)
	a := mustCreateFolder(t, store, "A", &root.ID)
	b := mustCreateFolder(t, store, "B", &a.ID)
	_, err := store.Create(ctx, CreateNodeInput{Kind: models.NodeKindFile, Name: "deep.txt", ParentID: &b.ID})
	require.NoError(t, err)

	descendants, err := queries.Descendants(ctx, root.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, descendants, 3)
	// Shallowest first.
	require.Equal(t, "A", descendants[0].Name)
	require.Equal(t, "B", descendants[1].Name)
	require.Equal(t, "deep.txt", descendants[2].Name)

	// A depth bound trims the deeper levels.
	bounded, err := queries.Descendants(ctx, root.ID, false, 1)
	require.NoError(t, err)
	require.Len(t, bounded, 1)
	require.Equal(t, "A", bounded[0].Name)

	tree, err := queries.Tree(ctx, root.ID, 0)
	require.NoError(t, err)
	require.Equal(t, root.ID, tree.ID)
	require.Len(t, tree.Children, 1)
	require.Equal(t, a.ID, tree.Children[0].ID)
	require.Len(t, tree.Children[0].Children, 1)
	require.Equal(t, b.ID, tree.Children[0].Children[0].ID)
	require.Len(t, tree.Children[0].Children[0].Children, 1)
}

func TestQueryAncestorsMatchesPath(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Root", nil)
	mid := mustCreateFolder(t, store, "Mid", &root.ID)
	leaf := mustCreateFolder(t, store, "Leaf", &mid.ID)

	ancestors, err := queries.Ancestors(ctx, leaf.ID)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	require.Equal(t, root.ID, ancestors[0].ID)
	require.Equal(t, mid.ID, ancestors[1].ID)

	roots, err := queries.Ancestors(ctx, root.ID)
	require.NoError(t, err)
	require.Empty(t, roots)
}

func TestQueryAncestorsIntegrityMismatch(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Root", nil)
	leaf := mustCreateFolder(t, store, "Leaf", &root.ID)

	// Corrupt the closure table so it disagrees with the materialized path.
	require.NoError(t, queries.db.
		Where("ancestor_id = ? AND descendant_id = ?", root.ID, leaf.ID).
		Delete(&models.NodePath{}).Error)

	_, err := queries.Ancestors(ctx, leaf.ID)
	require.ErrorIs(t, err, apperrors.ErrIntegrity)
}

func TestQuerySearch(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	root := mustCreateFolder(t, store, "Reports", nil)
	_, err := store.Create(ctx, CreateNodeInput{Kind: models.NodeKindFile, Name: "Annual Report.pdf", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateNodeInput{Kind: models.NodeKindFile, Name: "photo.jpg", ParentID: &root.ID})
	require.NoError(t, err)

	results, total, err := queries.Search(ctx, SearchOptions{Query: "report"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, results, 2)

	files, total, err := queries.Search(ctx, SearchOptions{Query: "report", Kind: models.NodeKindFile})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Annual Report.pdf", files[0].Name)
}

func TestQuerySearchScopedToParent(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	inbox := mustCreateFolder(t, store, "Inbox", nil)
	archive := mustCreateFolder(t, store, "Archive", nil)
	_, err := store.Create(ctx, CreateNodeInput{Kind: models.NodeKindFile, Name: "notes.txt", ParentID: &inbox.ID})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateNodeInput{Kind: models.NodeKindFile, Name: "notes.txt", ParentID: &archive.ID})
	require.NoError(t, err)

	all, total, err := queries.Search(ctx, SearchOptions{Query: "notes"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, all, 2)

	scoped, total, err := queries.Search(ctx, SearchOptions{Query: "notes", ParentID: &archive.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, scoped, 1)
	require.Equal(t, archive.ID, *scoped[0].ParentID)
}

func TestQueryPaginate(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	parent := mustCreateFolder(t, store, "Bulk", nil)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		mustCreateFolder(t, store, name, &parent.ID)
	}
	trashedChild := mustCreateFolder(t, store, "f", &parent.ID)
	_, err := store.MoveToTrash(ctx, trashedChild.ID, nil)
	require.NoError(t, err)

	first, total, err := queries.Paginate(ctx, &parent.ID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, first, 2)
	require.Equal(t, "a", first[0].Name)
	require.Equal(t, "b", first[1].Name)

	last, total, err := queries.Paginate(ctx, &parent.ID, 3, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, last, 1)
	require.Equal(t, "e", last[0].Name)

	// A nil parent pages through the root level.
	roots, total, err := queries.Paginate(ctx, nil, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, roots, 1)
	require.Equal(t, parent.ID, roots[0].ID)
}

func TestQueryTrashedAndRoots(t *testing.T) {
	queries, store := newTestQueries(t)
	ctx := context.Background()

	visible := mustCreateFolder(t, store, "Visible", nil)
	gone := mustCreateFolder(t, store, "Gone", nil)
	_, err := store.MoveToTrash(ctx, gone.ID, nil)
	require.NoError(t, err)

	roots, err := queries.Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, visible.ID, roots[0].ID)

	trashed, err := queries.Trashed(ctx)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	require.Equal(t, gone.ID, trashed[0].ID)
}

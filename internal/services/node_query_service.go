package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
	apperrors "github.com/siimut/drive/pkg/errors"
)

// NodeQueryService serves all read paths over the tree. Subtree and ancestor
// queries go through the closure table; the materialized path column is kept
// for display and ordering and is cross-checked against the closure rows when
// ancestors are listed.
type NodeQueryService struct {
	db *gorm.DB
}

// NewNodeQueryService constructs a query service.
func NewNodeQueryService(db *gorm.DB) (*NodeQueryService, error) {
	if db == nil {
		return nil, errors.New("node query service: db is required")
	}
	return &NodeQueryService{db: db}, nil
}

// Get loads a single node with its detail row, tags and creator.
func (s *NodeQueryService) Get(ctx context.Context, id uint64) (*models.Node, error) {
	ctx = ensureContext(ctx)

	var node models.Node
	if err := s.db.WithContext(ctx).
		Preload("Folder").
		Preload("File").
		Preload("Tags").
		Preload("Creator").
		First(&node, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("node query: load node %d: %w", id, err)
	}
	return &node, nil
}

// Roots lists the non-trashed top-level nodes.
func (s *NodeQueryService) Roots(ctx context.Context) ([]models.Node, error) {
	ctx = ensureContext(ctx)

	var nodes []models.Node
	if err := s.db.WithContext(ctx).
		Where("parent_id IS NULL AND is_trashed = ?", false).
		Preload("Folder").
		Preload("File").
		Order(siblingOrder).
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("node query: list roots: %w", err)
	}
	return nodes, nil
}

// Children lists a folder's direct non-trashed children, folders first.
func (s *NodeQueryService) Children(ctx context.Context, parentID uint64) ([]models.Node, error) {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, parentID); err != nil {
		return nil, err
	}

	var nodes []models.Node
	if err := s.db.WithContext(ctx).
		Where("parent_id = ? AND is_trashed = ?", parentID, false).
		Preload("Folder").
		Preload("File").
		Order(siblingOrder).
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("node query: list children of %d: %w", parentID, err)
	}
	return nodes, nil
}

// Descendants lists every node under the given one via the closure table,
// shallowest first. The node itself is not included. A positive maxDepth
// limits how many levels below the node are returned.
func (s *NodeQueryService) Descendants(ctx context.Context, id uint64, includeTrashed bool, maxDepth int) ([]models.Node, error) {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Joins("JOIN node_paths ON node_paths.descendant_id = nodes.id").
		Where("node_paths.ancestor_id = ? AND node_paths.depth > 0", id)
	if maxDepth > 0 {
		query = query.Where("node_paths.depth <= ?", maxDepth)
	}
	if !includeTrashed {
		query = query.Where("nodes.is_trashed = ?", false)
	}

	var nodes []models.Node
	if err := query.
		Preload("Folder").
		Preload("File").
		Order("node_paths.depth ASC, nodes.position ASC, nodes.name ASC").
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("node query: list descendants of %d: %w", id, err)
	}
	return nodes, nil
}

// Ancestors returns the node's ancestor chain, root first, loaded through the
// closure table and cross-checked against the materialized path. A mismatch
// between the two structures is surfaced as an integrity error.
func (s *NodeQueryService) Ancestors(ctx context.Context, id uint64) ([]models.Node, error) {
	ctx = ensureContext(ctx)

	node, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pathIDs, err := node.PathIDs()
	if err != nil {
		return nil, apperrors.ErrIntegrity.WithInternal(
			fmt.Errorf("node %d has malformed path %q: %w", node.ID, node.Path, err))
	}

	var ancestors []models.Node
	if err := s.db.WithContext(ctx).
		Joins("JOIN node_paths ON node_paths.ancestor_id = nodes.id").
		Where("node_paths.descendant_id = ? AND node_paths.depth > 0", id).
		Order("node_paths.depth DESC").
		Find(&ancestors).Error; err != nil {
		return nil, fmt.Errorf("node query: list ancestors of %d: %w", id, err)
	}

	if len(ancestors) != len(pathIDs) {
		return nil, apperrors.ErrIntegrity.WithMessage("ancestor chain does not match materialized path")
	}
	for i := range ancestors {
		if ancestors[i].ID != pathIDs[i] {
			return nil, apperrors.ErrIntegrity.WithMessage("ancestor chain does not match materialized path")
		}
	}

	return ancestors, nil
}

// SearchOptions narrows and pages a node search. A non-nil ParentID scopes
// the search to direct children of that node.
type SearchOptions struct {
	Query          string
	Kind           models.NodeKind
	TagID          uint64
	ParentID       *uint64
	IncludeTrashed bool
	Page           int
	PageSize       int
}

// Search finds nodes whose name or slug contains the query string.
func (s *NodeQueryService) Search(ctx context.Context, opts SearchOptions) ([]models.Node, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Node{})
	if term := strings.TrimSpace(opts.Query); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR slug LIKE ?", pattern, pattern)
	}
	if opts.Kind != "" {
		query = query.Where("kind = ?", opts.Kind)
	}
	if opts.ParentID != nil {
		query = query.Where("parent_id = ?", *opts.ParentID)
	}
	if opts.TagID != 0 {
		query = query.Joins("JOIN node_tags ON node_tags.node_id = nodes.id").
			Where("node_tags.tag_id = ?", opts.TagID)
	}
	if !opts.IncludeTrashed {
		query = query.Where("is_trashed = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("node query: count search: %w", err)
	}

	var nodes []models.Node
	if err := query.
		Preload("Folder").
		Preload("File").
		Order(siblingOrder).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&nodes).Error; err != nil {
		return nil, 0, fmt.Errorf("node query: search: %w", err)
	}
	return nodes, total, nil
}

// Paginate returns one page of a folder's non-trashed children together with
// the total count. A nil parentID pages through the root level.
func (s *NodeQueryService) Paginate(ctx context.Context, parentID *uint64, page, perPage int) ([]models.Node, int64, error) {
	ctx = ensureContext(ctx)

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Node{}).Where("is_trashed = ?", false)
	if parentID != nil {
		if _, err := s.Get(ctx, *parentID); err != nil {
			return nil, 0, err
		}
		query = query.Where("parent_id = ?", *parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("node query: count page: %w", err)
	}

	var nodes []models.Node
	if err := query.
		Preload("Folder").
		Preload("File").
		Order(siblingOrder).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&nodes).Error; err != nil {
		return nil, 0, fmt.Errorf("node query: list page: %w", err)
	}
	return nodes, total, nil
}

// Trashed lists trashed nodes, most recently trashed first.
func (s *NodeQueryService) Trashed(ctx context.Context) ([]models.Node, error) {
	ctx = ensureContext(ctx)

	var nodes []models.Node
	if err := s.db.WithContext(ctx).
		Where("is_trashed = ?", true).
		Preload("Folder").
		Preload("File").
		Order("trashed_at DESC, id DESC").
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("node query: list trashed: %w", err)
	}
	return nodes, nil
}

// Recent lists the most recently updated non-trashed files.
func (s *NodeQueryService) Recent(ctx context.Context, limit int) ([]models.Node, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 200 {
		limit = 20
	}

	var nodes []models.Node
	if err := s.db.WithContext(ctx).
		Where("kind = ? AND is_trashed = ?", models.NodeKindFile, false).
		Preload("File").
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("node query: list recent: %w", err)
	}
	return nodes, nil
}

// FavoritesOf lists a user's favorited non-trashed nodes.
func (s *NodeQueryService) FavoritesOf(ctx context.Context, userID uint64) ([]models.Node, error) {
	ctx = ensureContext(ctx)

	var nodes []models.Node
	if err := s.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.node_id = nodes.id").
		Where("favorites.user_id = ? AND nodes.is_trashed = ?", userID, false).
		Preload("Folder").
		Preload("File").
		Order("favorites.created_at DESC").
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("node query: list favorites of user %d: %w", userID, err)
	}
	return nodes, nil
}

// TreeNode is a node with its nested non-trashed children.
type TreeNode struct {
	models.Node
	Children []*TreeNode `json:"children"`
}

// Tree returns the nested subtree rooted at the given node, built from one
// closure-table query. A positive maxDepth bounds the nesting.
func (s *NodeQueryService) Tree(ctx context.Context, id uint64, maxDepth int) (*TreeNode, error) {
	ctx = ensureContext(ctx)

	root, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	descendants, err := s.Descendants(ctx, id, false, maxDepth)
	if err != nil {
		return nil, err
	}

	index := map[uint64]*TreeNode{
		root.ID: {Node: *root, Children: []*TreeNode{}},
	}
	for i := range descendants {
		node := descendants[i]
		index[node.ID] = &TreeNode{Node: node, Children: []*TreeNode{}}
	}

	// Descendants arrive shallowest first, so parents are always indexed
	// before their children.
	for i := range descendants {
		node := descendants[i]
		if node.ParentID == nil {
			continue
		}
		if parent, ok := index[*node.ParentID]; ok {
			parent.Children = append(parent.Children, index[node.ID])
		}
	}

	return index[root.ID], nil
}

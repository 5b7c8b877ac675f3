package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
	apperrors "github.com/siimut/drive/pkg/errors"
)

// NodeStore owns node identity and tree shape: it is the only component that
// writes parent_id, path or depth. Path and depth are recomputed synchronously
// inside Create and ChangeParent; the closure table is rewritten in the same
// statements' transaction so subtree queries never observe a half-moved tree.
type NodeStore struct {
	db *gorm.DB
}

// NewNodeStore constructs a node store over the given database handle.
func NewNodeStore(db *gorm.DB) (*NodeStore, error) {
	if db == nil {
		return nil, errors.New("node store: db is required")
	}
	return &NodeStore{db: db}, nil
}

// WithTx returns a store bound to the supplied transaction handle. Tree
// operations compose several store calls inside one transaction this way.
func (s *NodeStore) WithTx(tx *gorm.DB) *NodeStore {
	if tx == nil {
		return s
	}
	return &NodeStore{db: tx}
}

// CreateNodeInput describes a node creation request.
type CreateNodeInput struct {
	Kind     models.NodeKind
	Name     string
	ParentID *uint64
	Position int
	ActorID  *uint64
}

// Create inserts a node with materialized path and depth derived from its
// parent, enforcing the active-sibling name invariant.
func (s *NodeStore) Create(ctx context.Context, input CreateNodeInput) (*models.Node, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("node name is required")
	}
	if input.Kind != models.NodeKindFolder && input.Kind != models.NodeKindFile {
		return nil, apperrors.NewBadRequest("node kind must be folder or file")
	}

	path := "/"
	depth := 0
	if input.ParentID != nil {
		parent, err := s.get(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsFolder() {
			return nil, apperrors.ErrInvalidOperation.WithMessage("parent must be a folder")
		}
		path = parent.SubtreePrefix()
		depth = parent.Depth + 1
	}

	if err := s.checkSiblingName(ctx, input.ParentID, name, false, 0); err != nil {
		return nil, err
	}

	node := models.Node{
		Kind:      input.Kind,
		Name:      name,
		Slug:      slugify(name),
		ParentID:  input.ParentID,
		Path:      path,
		Depth:     depth,
		Position:  input.Position,
		CreatedBy: input.ActorID,
		UpdatedBy: input.ActorID,
	}

	if err := s.db.WithContext(ctx).Create(&node).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("node store: create node: %w", err)
	}

	if err := s.insertClosureRows(ctx, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

// Rename updates name and slug, re-checking the sibling-name invariant against
// the node's current parent. Path and depth are untouched.
func (s *NodeStore) Rename(ctx context.Context, id uint64, newName string, actorID *uint64) (*models.Node, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(newName)
	if name == "" {
		return nil, apperrors.NewBadRequest("node name is required")
	}

	node, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkSiblingName(ctx, node.ParentID, name, node.IsTrashed, node.ID); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":       name,
		"slug":       slugify(name),
		"updated_by": actorID,
	}
	if err := s.db.WithContext(ctx).Model(&models.Node{}).Where("id = ?", node.ID).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("node store: rename node: %w", err)
	}

	return s.get(ctx, id)
}

// ChangeParent moves a node (and implicitly its whole subtree) under a new
// parent, or to the root when newParentID is nil.
//
// The subtree path rewrite is a single bulk UPDATE over every node whose path
// begins with the moved node's old prefix; the closure table is rewritten with
// the standard detach/reattach pair. Both happen on the same handle as the
// node's own update, so callers running inside a transaction get an atomic
// move.
func (s *NodeStore) ChangeParent(ctx context.Context, id uint64, newParentID *uint64, actorID *uint64) (*models.Node, error) {
	ctx = ensureContext(ctx)

	node, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if newParentID != nil && *newParentID == node.ID {
		return nil, apperrors.ErrInvalidOperation.WithMessage("cannot move a node into itself")
	}

	newPath := "/"
	newDepth := 0
	if newParentID != nil {
		parent, err := s.get(ctx, *newParentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsFolder() {
			return nil, apperrors.ErrInvalidOperation.WithMessage("parent must be a folder")
		}

		// Cycle check against the closure table: any ancestor/self link from
		// the moving node to the destination means the destination sits
		// inside the moving subtree.
		var links int64
		if err := s.db.WithContext(ctx).Model(&models.NodePath{}).
			Where("ancestor_id = ? AND descendant_id = ?", node.ID, parent.ID).
			Count(&links).Error; err != nil {
			return nil, fmt.Errorf("node store: cycle check: %w", err)
		}
		if links > 0 {
			return nil, apperrors.ErrInvalidOperation.WithMessage("cannot move a node into its own descendant")
		}

		newPath = parent.SubtreePrefix()
		newDepth = parent.Depth + 1
	}

	if err := s.checkSiblingName(ctx, newParentID, node.Name, node.IsTrashed, node.ID); err != nil {
		return nil, err
	}

	oldPrefix := node.SubtreePrefix()
	depthDelta := newDepth - node.Depth

	updates := map[string]any{
		"parent_id":  newParentID,
		"path":       newPath,
		"depth":      newDepth,
		"updated_by": actorID,
	}
	if err := s.db.WithContext(ctx).Model(&models.Node{}).Where("id = ?", node.ID).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("node store: reparent node: %w", err)
	}

	newPrefix := newPath + strconv.FormatUint(node.ID, 10) + "/"
	if err := s.db.WithContext(ctx).Model(&models.Node{}).
		Where("path LIKE ?", oldPrefix+"%").
		Updates(map[string]any{
			"path":  gorm.Expr("REPLACE(path, ?, ?)", oldPrefix, newPrefix),
			"depth": gorm.Expr("depth + ?", depthDelta),
		}).Error; err != nil {
		return nil, fmt.Errorf("node store: rewrite subtree paths: %w", err)
	}

	if err := s.rewriteClosure(ctx, node.ID, newParentID); err != nil {
		return nil, err
	}

	return s.get(ctx, id)
}

// MoveToTrash flags exactly the target node as trashed. Descendants keep
// whatever state they had; trashing is deliberately non-recursive.
func (s *NodeStore) MoveToTrash(ctx context.Context, id uint64, actorID *uint64) (*models.Node, error) {
	return s.setTrashed(ctx, id, actorID, true)
}

// RestoreFromTrash clears the trashed flag on exactly the target node.
func (s *NodeStore) RestoreFromTrash(ctx context.Context, id uint64, actorID *uint64) (*models.Node, error) {
	return s.setTrashed(ctx, id, actorID, false)
}

// HardDelete removes a single node row together with its satellite rows,
// closure links, tags, favorites and activities. Callers are responsible for
// cascading children first; the tree operations engine does so recursively.
func (s *NodeStore) HardDelete(ctx context.Context, id uint64) error {
	ctx = ensureContext(ctx)

	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	if err := db.Where("node_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
		return fmt.Errorf("node store: delete activities for node %d: %w", id, err)
	}
	if err := db.Where("node_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
		return fmt.Errorf("node store: delete favorites for node %d: %w", id, err)
	}
	if err := db.Where("node_id = ?", id).Delete(&models.NodeTag{}).Error; err != nil {
		return fmt.Errorf("node store: delete node tags for node %d: %w", id, err)
	}
	if err := db.Where("ancestor_id = ? OR descendant_id = ?", id, id).Delete(&models.NodePath{}).Error; err != nil {
		return fmt.Errorf("node store: delete closure rows for node %d: %w", id, err)
	}
	if err := db.Where("node_id = ?", id).Delete(&models.FolderDetail{}).Error; err != nil {
		return fmt.Errorf("node store: delete folder detail for node %d: %w", id, err)
	}
	if err := db.Where("node_id = ?", id).Delete(&models.FileDetail{}).Error; err != nil {
		return fmt.Errorf("node store: delete file detail for node %d: %w", id, err)
	}

	if err := db.Where("id = ?", id).Delete(&models.Node{}).Error; err != nil {
		return fmt.Errorf("node store: delete node %d: %w", id, err)
	}
	return nil
}

func (s *NodeStore) setTrashed(ctx context.Context, id uint64, actorID *uint64, trashed bool) (*models.Node, error) {
	ctx = ensureContext(ctx)

	node, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var trashedAt *time.Time
	if trashed {
		now := time.Now()
		trashedAt = &now
	}

	updates := map[string]any{
		"is_trashed": trashed,
		"trashed_at": trashedAt,
		"updated_by": actorID,
	}
	if err := s.db.WithContext(ctx).Model(&models.Node{}).Where("id = ?", node.ID).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("node store: update trash state: %w", err)
	}

	return s.get(ctx, id)
}

func (s *NodeStore) get(ctx context.Context, id uint64) (*models.Node, error) {
	var node models.Node
	if err := s.db.WithContext(ctx).First(&node, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("node store: load node %d: %w", id, err)
	}
	return &node, nil
}

// checkSiblingName enforces the (parent_id, name, is_trashed) uniqueness key
// at write time. The SQL unique index cannot cover root nodes (NULL parent),
// so the check always runs before the write.
func (s *NodeStore) checkSiblingName(ctx context.Context, parentID *uint64, name string, trashed bool, excludeID uint64) error {
	query := s.db.WithContext(ctx).Model(&models.Node{}).
		Where("name = ? AND is_trashed = ?", name, trashed)

	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("node store: sibling check: %w", err)
	}
	if count > 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (s *NodeStore) insertClosureRows(ctx context.Context, node *models.Node) error {
	if err := s.db.WithContext(ctx).Create(&models.NodePath{
		AncestorID:   node.ID,
		DescendantID: node.ID,
		Depth:        0,
	}).Error; err != nil {
		return fmt.Errorf("node store: closure self row: %w", err)
	}

	if node.ParentID == nil {
		return nil
	}

	if err := s.db.WithContext(ctx).Exec(
		`INSERT INTO node_paths (ancestor_id, descendant_id, depth)
		 SELECT ancestor_id, ?, depth + 1 FROM node_paths WHERE descendant_id = ?`,
		node.ID, *node.ParentID,
	).Error; err != nil {
		return fmt.Errorf("node store: closure ancestor rows: %w", err)
	}
	return nil
}

// rewriteClosure detaches the moved subtree from its old ancestor chain and
// reattaches it under the new parent's chain. Rows internal to the subtree
// (including self rows) survive both statements untouched.
func (s *NodeStore) rewriteClosure(ctx context.Context, nodeID uint64, newParentID *uint64) error {
	// The derived-table wrapper keeps MySQL happy about deleting from a table
	// referenced in its own subquery.
	if err := s.db.WithContext(ctx).Exec(
		`DELETE FROM node_paths
		 WHERE descendant_id IN (
		   SELECT descendant_id FROM (
		     SELECT descendant_id FROM node_paths WHERE ancestor_id = ?
		   ) AS subtree
		 )
		 AND ancestor_id NOT IN (
		   SELECT descendant_id FROM (
		     SELECT descendant_id FROM node_paths WHERE ancestor_id = ?
		   ) AS subtree_anchors
		 )`,
		nodeID, nodeID,
	).Error; err != nil {
		return fmt.Errorf("node store: detach closure subtree: %w", err)
	}

	if newParentID == nil {
		return nil
	}

	if err := s.db.WithContext(ctx).Exec(
		`INSERT INTO node_paths (ancestor_id, descendant_id, depth)
		 SELECT supertree.ancestor_id, subtree.descendant_id, supertree.depth + subtree.depth + 1
		 FROM node_paths AS supertree
		 CROSS JOIN node_paths AS subtree
		 WHERE supertree.descendant_id = ? AND subtree.ancestor_id = ?`,
		*newParentID, nodeID,
	).Error; err != nil {
		return fmt.Errorf("node store: attach closure subtree: %w", err)
	}
	return nil
}

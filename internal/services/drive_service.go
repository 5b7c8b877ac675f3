package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/siimut/drive/internal/models"
	"github.com/siimut/drive/internal/storage"
	apperrors "github.com/siimut/drive/pkg/errors"
	"github.com/siimut/drive/pkg/logger"
	"github.com/siimut/drive/pkg/metrics"
)

// DriveService is the tree operations engine. Every mutation runs inside a
// single database transaction: node rows, satellite details, closure links and
// activity rows commit or roll back together. Blob writes cannot be rolled
// back, so uploads compensate by deleting the stored blob when the transaction
// fails.
type DriveService struct {
	db    *gorm.DB
	nodes *NodeStore
	blobs storage.BlobStore
	log   *zap.Logger
}

// NewDriveService constructs the tree operations engine.
func NewDriveService(db *gorm.DB, nodes *NodeStore, blobs storage.BlobStore) (*DriveService, error) {
	if db == nil {
		return nil, errors.New("drive service: db is required")
	}
	if nodes == nil {
		return nil, errors.New("drive service: node store is required")
	}
	if blobs == nil {
		return nil, errors.New("drive service: blob store is required")
	}
	return &DriveService{
		db:    db,
		nodes: nodes,
		blobs: blobs,
		log:   logger.WithModule("drive"),
	}, nil
}

func observeOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.NodeOperations.WithLabelValues(operation, result).Inc()
}

// CreateFolderInput describes a folder creation request.
type CreateFolderInput struct {
	Name     string
	ParentID *uint64
	Position int
	Color    *string
	Icon     *string
	ActorID  *uint64
}

// CreateFolder inserts a folder node with its detail row and a create activity.
func (s *DriveService) CreateFolder(ctx context.Context, input CreateFolderInput) (node *models.Node, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("create", err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, txErr := s.nodes.WithTx(tx).Create(ctx, CreateNodeInput{
			Kind:     models.NodeKindFolder,
			Name:     input.Name,
			ParentID: input.ParentID,
			Position: input.Position,
			ActorID:  input.ActorID,
		})
		if txErr != nil {
			return txErr
		}

		detail := models.FolderDetail{
			NodeID: created.ID,
			Color:  input.Color,
			Icon:   input.Icon,
		}
		if txErr := tx.Create(&detail).Error; txErr != nil {
			return fmt.Errorf("drive service: create folder detail: %w", txErr)
		}

		if txErr := recordActivity(tx, created.ID, input.ActorID, models.ActionCreate, nil); txErr != nil {
			return txErr
		}

		created.Folder = &detail
		node = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("folder created", zap.Uint64("node_id", node.ID), zap.String("name", node.Name))
	return node, nil
}

// UploadFileInput describes a file upload request.
type UploadFileInput struct {
	Name       string
	ParentID   *uint64
	MimeType   string
	Visibility models.Visibility
	Content    io.Reader
	ActorID    *uint64
}

// UploadFile stores the blob, then creates the file node and its detail row in
// one transaction. If the transaction fails after the blob was written, the
// blob is deleted on a best-effort basis.
func (s *DriveService) UploadFile(ctx context.Context, input UploadFileInput) (node *models.Node, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("upload", err) }()

	if input.Content == nil {
		return nil, apperrors.NewBadRequest("file content is required")
	}
	if input.MimeType == "" {
		input.MimeType = "application/octet-stream"
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if visibility != models.VisibilityPrivate && visibility != models.VisibilityPublic {
		return nil, apperrors.NewBadRequest("visibility must be private or public")
	}

	blob, err := s.blobs.Store(ctx, input.Content)
	if err != nil {
		return nil, apperrors.ErrStorageBackend.WithInternal(err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, txErr := s.nodes.WithTx(tx).Create(ctx, CreateNodeInput{
			Kind:     models.NodeKindFile,
			Name:     input.Name,
			ParentID: input.ParentID,
			ActorID:  input.ActorID,
		})
		if txErr != nil {
			return txErr
		}

		reference := blob.Reference
		checksum := blob.Checksum
		detail := models.FileDetail{
			NodeID:          created.ID,
			BlobReference:   &reference,
			MimeType:        input.MimeType,
			SizeBytes:       blob.Size,
			Checksum:        &checksum,
			StorageLocation: s.blobs.Location(),
			Visibility:      visibility,
			Version:         1,
		}
		if txErr := tx.Create(&detail).Error; txErr != nil {
			return fmt.Errorf("drive service: create file detail: %w", txErr)
		}

		meta := map[string]any{
			"size":      blob.Size,
			"mime_type": input.MimeType,
		}
		if txErr := recordActivity(tx, created.ID, input.ActorID, models.ActionUpload, meta); txErr != nil {
			return txErr
		}

		created.File = &detail
		node = created
		return nil
	})
	if err != nil {
		if cleanupErr := s.blobs.Delete(ctx, blob.Reference); cleanupErr != nil {
			s.log.Warn("orphan blob cleanup failed",
				zap.String("reference", blob.Reference), zap.Error(cleanupErr))
		}
		return nil, err
	}

	metrics.UploadBytes.Add(float64(blob.Size))
	s.log.Info("file uploaded",
		zap.Uint64("node_id", node.ID),
		zap.String("name", node.Name),
		zap.Int64("size", blob.Size))
	return node, nil
}

// Download returns a file node together with its blob contents and logs a
// download activity.
func (s *DriveService) Download(ctx context.Context, id uint64, actorID *uint64) (*models.Node, []byte, error) {
	ctx = ensureContext(ctx)

	node, err := s.loadNode(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !node.IsFile() {
		return nil, nil, apperrors.ErrInvalidOperation.WithMessage("only files can be downloaded")
	}
	if node.File == nil || node.File.BlobReference == nil {
		return nil, nil, apperrors.ErrIntegrity.WithMessage("file has no stored content")
	}

	data, err := s.blobs.Read(ctx, *node.File.BlobReference)
	if err != nil {
		return nil, nil, apperrors.ErrStorageBackend.WithInternal(err)
	}

	if err := recordActivity(s.db.WithContext(ctx), node.ID, actorID, models.ActionDownload, nil); err != nil {
		return nil, nil, err
	}
	return node, data, nil
}

// Rename changes a node's display name and slug.
func (s *DriveService) Rename(ctx context.Context, id uint64, newName string, actorID *uint64) (node *models.Node, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("rename", err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.nodes.WithTx(tx)

		before, txErr := store.get(ctx, id)
		if txErr != nil {
			return txErr
		}

		renamed, txErr := store.Rename(ctx, id, newName, actorID)
		if txErr != nil {
			return txErr
		}

		meta := map[string]any{
			"from": before.Name,
			"to":   renamed.Name,
		}
		if txErr := recordActivity(tx, renamed.ID, actorID, models.ActionRename, meta); txErr != nil {
			return txErr
		}

		node = renamed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Move reparents a node and its subtree under a new parent, or to the root
// when newParentID is nil.
func (s *DriveService) Move(ctx context.Context, id uint64, newParentID *uint64, actorID *uint64) (node *models.Node, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("move", err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.nodes.WithTx(tx)

		before, txErr := store.get(ctx, id)
		if txErr != nil {
			return txErr
		}

		moved, txErr := store.ChangeParent(ctx, id, newParentID, actorID)
		if txErr != nil {
			return txErr
		}

		meta := map[string]any{
			"from_parent": before.ParentID,
			"to_parent":   newParentID,
		}
		if txErr := recordActivity(tx, moved.ID, actorID, models.ActionMove, meta); txErr != nil {
			return txErr
		}

		node = moved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("node moved", zap.Uint64("node_id", node.ID), zap.String("path", node.Path))
	return node, nil
}

// Copy duplicates a node under the target parent, or next to the source when
// targetParentID is nil. The top-level copy is named newName, falling back to
// the source name with a " (Copy)" suffix; descendants keep their names.
// Positions reset to 0, file copies share the source blob reference and
// restart at version 1, and trashed descendants are skipped. Every node the
// recursion creates gets its own copy activity.
func (s *DriveService) Copy(ctx context.Context, id uint64, targetParentID *uint64, newName string, actorID *uint64) (node *models.Node, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("copy", err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, txErr := s.loadNodeOn(tx, ctx, id)
		if txErr != nil {
			return txErr
		}

		parentID := targetParentID
		if parentID == nil {
			parentID = source.ParentID
		}
		name := strings.TrimSpace(newName)
		if name == "" {
			name = source.Name + " (Copy)"
		}

		copied, txErr := s.copySubtree(ctx, tx, source, parentID, name, actorID)
		if txErr != nil {
			return txErr
		}

		node = copied
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("node copied", zap.Uint64("source_id", id), zap.Uint64("copy_id", node.ID))
	return node, nil
}

func (s *DriveService) copySubtree(ctx context.Context, tx *gorm.DB, source *models.Node, parentID *uint64, name string, actorID *uint64) (*models.Node, error) {
	created, err := s.nodes.WithTx(tx).Create(ctx, CreateNodeInput{
		Kind:     source.Kind,
		Name:     name,
		ParentID: parentID,
		Position: 0,
		ActorID:  actorID,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case source.IsFolder():
		detail := models.FolderDetail{NodeID: created.ID}
		if source.Folder != nil {
			detail.CoverReference = source.Folder.CoverReference
			detail.Color = source.Folder.Color
			detail.Icon = source.Folder.Icon
		}
		if err := tx.Create(&detail).Error; err != nil {
			return nil, fmt.Errorf("drive service: copy folder detail: %w", err)
		}
		created.Folder = &detail

	case source.IsFile():
		if source.File == nil {
			return nil, apperrors.ErrIntegrity.WithMessage("file node is missing its detail row")
		}
		detail := models.FileDetail{
			NodeID:          created.ID,
			BlobReference:   source.File.BlobReference,
			MimeType:        source.File.MimeType,
			SizeBytes:       source.File.SizeBytes,
			Checksum:        source.File.Checksum,
			StorageLocation: source.File.StorageLocation,
			Visibility:      source.File.Visibility,
			Version:         1,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return nil, fmt.Errorf("drive service: copy file detail: %w", err)
		}
		created.File = &detail
	}

	meta := map[string]any{"source_id": source.ID}
	if err := recordActivity(tx, created.ID, actorID, models.ActionCopy, meta); err != nil {
		return nil, err
	}

	var children []models.Node
	if err := tx.WithContext(ctx).
		Where("parent_id = ? AND is_trashed = ?", source.ID, false).
		Preload("Folder").
		Preload("File").
		Order(siblingOrder).
		Find(&children).Error; err != nil {
		return nil, fmt.Errorf("drive service: load children of %d: %w", source.ID, err)
	}

	for i := range children {
		child := children[i]
		if _, err := s.copySubtree(ctx, tx, &child, &created.ID, child.Name, actorID); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// MoveToTrash flags a single node as trashed. Descendants are untouched.
func (s *DriveService) MoveToTrash(ctx context.Context, id uint64, actorID *uint64) (node *models.Node, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("trash", err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trashed, txErr := s.nodes.WithTx(tx).MoveToTrash(ctx, id, actorID)
		if txErr != nil {
			return txErr
		}
		if txErr := recordActivity(tx, trashed.ID, actorID, models.ActionDelete, nil); txErr != nil {
			return txErr
		}
		node = trashed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// RestoreFromTrash clears the trashed flag on a single node.
func (s *DriveService) RestoreFromTrash(ctx context.Context, id uint64, actorID *uint64) (node *models.Node, err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("restore", err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restored, txErr := s.nodes.WithTx(tx).RestoreFromTrash(ctx, id, actorID)
		if txErr != nil {
			return txErr
		}
		if txErr := recordActivity(tx, restored.ID, actorID, models.ActionRestore, nil); txErr != nil {
			return txErr
		}
		node = restored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Delete permanently removes a node and its entire subtree: blobs first, then
// database rows children-first. No activity is recorded; the audit trail of a
// permanently deleted node disappears with it.
func (s *DriveService) Delete(ctx context.Context, id uint64) (err error) {
	ctx = ensureContext(ctx)
	defer func() { observeOperation("delete", err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.nodes.WithTx(tx)

		if _, txErr := store.get(ctx, id); txErr != nil {
			return txErr
		}

		// Deepest nodes first so children never outlive their parent row.
		var subtree []models.Node
		if txErr := tx.WithContext(ctx).
			Joins("JOIN node_paths ON node_paths.descendant_id = nodes.id").
			Where("node_paths.ancestor_id = ?", id).
			Preload("File").
			Order("nodes.depth DESC, nodes.id DESC").
			Find(&subtree).Error; txErr != nil {
			return fmt.Errorf("drive service: load subtree of %d: %w", id, txErr)
		}

		for i := range subtree {
			target := subtree[i]

			if target.IsFile() && target.File != nil && target.File.BlobReference != nil {
				reference := *target.File.BlobReference
				if s.blobStillReferenced(ctx, tx, reference, target.ID) {
					s.log.Debug("blob shared by another file, keeping",
						zap.String("reference", reference), zap.Uint64("node_id", target.ID))
				} else if txErr := s.blobs.Delete(ctx, reference); txErr != nil {
					return apperrors.ErrStorageBackend.WithInternal(
						fmt.Errorf("delete blob %s: %w", reference, txErr))
				}
			}

			if txErr := store.HardDelete(ctx, target.ID); txErr != nil {
				return txErr
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("node permanently deleted", zap.Uint64("node_id", id))
	return nil
}

// blobStillReferenced reports whether any file outside the node being deleted
// points at the blob. Copies share blob references, so deletion must not
// orphan the surviving copy.
func (s *DriveService) blobStillReferenced(ctx context.Context, tx *gorm.DB, reference string, excludeNodeID uint64) bool {
	var count int64
	if err := tx.WithContext(ctx).Model(&models.FileDetail{}).
		Where("blob_reference = ? AND node_id <> ?", reference, excludeNodeID).
		Count(&count).Error; err != nil {
		s.log.Warn("blob reference count failed", zap.String("reference", reference), zap.Error(err))
		return true
	}
	return count > 0
}

func (s *DriveService) loadNode(ctx context.Context, id uint64) (*models.Node, error) {
	return s.loadNodeOn(s.db, ctx, id)
}

func (s *DriveService) loadNodeOn(db *gorm.DB, ctx context.Context, id uint64) (*models.Node, error) {
	var node models.Node
	if err := db.WithContext(ctx).
		Preload("Folder").
		Preload("File").
		First(&node, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("drive service: load node %d: %w", id, err)
	}
	return &node, nil
}

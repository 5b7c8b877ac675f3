package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/siimut/drive/internal/models"
	"github.com/siimut/drive/internal/services"
	appErrors "github.com/siimut/drive/pkg/errors"
	"github.com/siimut/drive/pkg/response"
)

// NodeHandler exposes the tree operations and browse endpoints.
type NodeHandler struct {
	drive   *services.DriveService
	queries *services.NodeQueryService
}

// NewNodeHandler constructs a node handler.
func NewNodeHandler(drive *services.DriveService, queries *services.NodeQueryService) *NodeHandler {
	return &NodeHandler{drive: drive, queries: queries}
}

type createFolderPayload struct {
	Name     string  `json:"name" validate:"required,max=255,nodename"`
	ParentID *uint64 `json:"parent_id"`
	Position int     `json:"position"`
	Color    *string `json:"color"`
	Icon     *string `json:"icon"`
}

// CreateFolder creates a folder node.
func (h *NodeHandler) CreateFolder(c *gin.Context) {
	var payload createFolderPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	node, err := h.drive.CreateFolder(requestContext(c), services.CreateFolderInput{
		Name:     payload.Name,
		ParentID: payload.ParentID,
		Position: payload.Position,
		Color:    payload.Color,
		Icon:     payload.Icon,
		ActorID:  actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, node)
}

// Upload accepts a multipart file upload and creates a file node.
func (h *NodeHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("multipart field 'file' is required"))
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = fileHeader.Filename
	}

	var parentID *uint64
	if raw := strings.TrimSpace(c.PostForm("parent_id")); raw != "" {
		id := parseUint(raw)
		if id == 0 {
			response.Error(c, appErrors.NewBadRequest("parent_id must be a positive integer"))
			return
		}
		parentID = &id
	}

	content, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("unable to read uploaded file"))
		return
	}
	defer content.Close()

	node, err := h.drive.UploadFile(requestContext(c), services.UploadFileInput{
		Name:       name,
		ParentID:   parentID,
		MimeType:   fileHeader.Header.Get("Content-Type"),
		Visibility: models.Visibility(c.PostForm("visibility")),
		Content:    content,
		ActorID:    actorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, node)
}

// Download streams a file's blob contents back to the client.
func (h *NodeHandler) Download(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	node, data, err := h.drive.Download(requestContext(c), id, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	mimeType := "application/octet-stream"
	if node.File != nil && node.File.MimeType != "" {
		mimeType = node.File.MimeType
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", node.Name))
	c.Data(http.StatusOK, mimeType, data)
}

// Get returns a single node with its details and tags.
func (h *NodeHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	node, err := h.queries.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, node)
}

// Roots lists the top-level nodes. A page query parameter switches to the
// paginated listing.
func (h *NodeHandler) Roots(c *gin.Context) {
	if page := parseIntQuery(c, "page", 0); page > 0 {
		h.paginated(c, nil, page)
		return
	}

	nodes, err := h.queries.Roots(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nodes)
}

// Children lists a folder's direct children. A page query parameter switches
// to the paginated listing.
func (h *NodeHandler) Children(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if page := parseIntQuery(c, "page", 0); page > 0 {
		h.paginated(c, &id, page)
		return
	}

	nodes, err := h.queries.Children(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nodes)
}

func (h *NodeHandler) paginated(c *gin.Context, parentID *uint64, page int) {
	perPage := parseIntQuery(c, "per_page", 50)
	nodes, total, err := h.queries.Paginate(requestContext(c), parentID, page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, nodes, paginationMeta(page, perPage, total))
}

// Ancestors returns the breadcrumb chain for a node, root first.
func (h *NodeHandler) Ancestors(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	nodes, err := h.queries.Ancestors(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nodes)
}

// Descendants lists the whole subtree under a node, shallowest first.
func (h *NodeHandler) Descendants(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	includeTrashed := c.Query("include_trashed") == "true"
	maxDepth := parseIntQuery(c, "depth", 0)
	nodes, err := h.queries.Descendants(requestContext(c), id, includeTrashed, maxDepth)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nodes)
}

// Tree returns the nested subtree rooted at a node.
func (h *NodeHandler) Tree(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	maxDepth := parseIntQuery(c, "depth", 0)
	tree, err := h.queries.Tree(requestContext(c), id, maxDepth)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, tree)
}

type renamePayload struct {
	Name string `json:"name" validate:"required,max=255,nodename"`
}

// Rename changes a node's name.
func (h *NodeHandler) Rename(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var payload renamePayload
	if !bindAndValidate(c, &payload) {
		return
	}

	node, err := h.drive.Rename(requestContext(c), id, payload.Name, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, node)
}

type reparentPayload struct {
	ParentID *uint64 `json:"parent_id"`
}

// Move reparents a node under a new parent, or to the root when parent_id is null.
func (h *NodeHandler) Move(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var payload reparentPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	node, err := h.drive.Move(requestContext(c), id, payload.ParentID, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, node)
}

type copyPayload struct {
	ParentID *uint64 `json:"parent_id"`
	Name     string  `json:"name" validate:"omitempty,max=255,nodename"`
}

// Copy duplicates a node under the target parent, or next to the source when
// parent_id is omitted. An optional name overrides the default copy name.
func (h *NodeHandler) Copy(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var payload copyPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	node, err := h.drive.Copy(requestContext(c), id, payload.ParentID, payload.Name, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, node)
}

// Trash flags a node as trashed.
func (h *NodeHandler) Trash(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	node, err := h.drive.MoveToTrash(requestContext(c), id, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, node)
}

// Restore clears the trashed flag on a node.
func (h *NodeHandler) Restore(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	node, err := h.drive.RestoreFromTrash(requestContext(c), id, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, node)
}

// Delete permanently removes a node and its subtree.
func (h *NodeHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.drive.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Search finds nodes by name, kind or tag, optionally scoped to a parent.
func (h *NodeHandler) Search(c *gin.Context) {
	opts := services.SearchOptions{
		Query:          c.Query("q"),
		Kind:           models.NodeKind(c.Query("kind")),
		TagID:          uint64(parseIntQuery(c, "tag_id", 0)),
		IncludeTrashed: c.Query("include_trashed") == "true",
		Page:           parseIntQuery(c, "page", 1),
		PageSize:       parseIntQuery(c, "per_page", 50),
	}
	if raw := strings.TrimSpace(c.Query("parent_id")); raw != "" {
		if id := parseUint(raw); id > 0 {
			opts.ParentID = &id
		}
	}

	nodes, total, err := h.queries.Search(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := paginationMeta(opts.Page, opts.PageSize, total)
	response.SuccessWithMeta(c, http.StatusOK, nodes, meta)
}

// Trashed lists trashed nodes.
func (h *NodeHandler) Trashed(c *gin.Context) {
	nodes, err := h.queries.Trashed(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nodes)
}

// Recent lists recently updated files.
func (h *NodeHandler) Recent(c *gin.Context) {
	nodes, err := h.queries.Recent(requestContext(c), parseIntQuery(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nodes)
}

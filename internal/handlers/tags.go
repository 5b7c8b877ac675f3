package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siimut/drive/internal/services"
	"github.com/siimut/drive/pkg/response"
)

// TagHandler exposes tag vocabulary and assignment endpoints.
type TagHandler struct {
	tags *services.TagService
}

// NewTagHandler constructs a tag handler.
func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type tagPayload struct {
	Name  string `json:"name" validate:"required,max=64,nodename"`
	Color string `json:"color" validate:"max=32"`
}

// Create registers a new tag.
func (h *TagHandler) Create(c *gin.Context) {
	var payload tagPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	tag, err := h.tags.Create(requestContext(c), payload.Name, payload.Color)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, tag)
}

// List returns all tags.
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, tags)
}

// Delete removes a tag and its assignments.
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.tags.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Attach assigns a tag to a node.
func (h *TagHandler) Attach(c *gin.Context) {
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tagId")
	if !ok {
		return
	}

	if err := h.tags.Attach(requestContext(c), nodeID, tagID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attached": true})
}

// Detach removes a tag assignment from a node.
func (h *TagHandler) Detach(c *gin.Context) {
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tagId")
	if !ok {
		return
	}

	if err := h.tags.Detach(requestContext(c), nodeID, tagID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"detached": true})
}

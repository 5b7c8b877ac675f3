package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siimut/drive/internal/services"
	"github.com/siimut/drive/pkg/response"
)

// StorageHandler exposes storage accounting endpoints.
type StorageHandler struct {
	storage *services.StorageService
}

// NewStorageHandler constructs a storage handler.
func NewStorageHandler(storage *services.StorageService) *StorageHandler {
	return &StorageHandler{storage: storage}
}

// Stats returns usage figures, drive-wide or scoped to the owner named by the
// user_id query parameter.
func (h *StorageHandler) Stats(c *gin.Context) {
	var ownerID *uint64
	if raw := c.Query("user_id"); raw != "" {
		if id := parseUint(raw); id > 0 {
			ownerID = &id
		}
	}

	stats, err := h.storage.Stats(requestContext(c), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// Usage returns the acting user's byte total.
func (h *StorageHandler) Usage(c *gin.Context) {
	userID, ok := requireActor(c)
	if !ok {
		return
	}

	total, err := h.storage.UsageForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"total_bytes":     total,
		"total_formatted": services.FormatBytes(total),
	})
}

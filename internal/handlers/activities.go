package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/siimut/drive/internal/models"
	"github.com/siimut/drive/internal/services"
	"github.com/siimut/drive/pkg/response"
)

// ActivityHandler exposes read access to the activity log.
type ActivityHandler struct {
	activities *services.ActivityService
}

// NewActivityHandler constructs an activity handler.
func NewActivityHandler(activities *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// ListForNode returns a node's activity feed, newest first.
func (h *ActivityHandler) ListForNode(c *gin.Context) {
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	activities, err := h.activities.ListForNode(requestContext(c), nodeID, parseIntQuery(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, activities)
}

// List returns paginated activities across the drive.
func (h *ActivityHandler) List(c *gin.Context) {
	opts := services.ActivityListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
	}
	if action := strings.TrimSpace(c.Query("action")); action != "" {
		opts.Filters.Action = models.ActivityAction(action)
	}
	if userID := parseUint(c.Query("user_id")); userID != 0 {
		opts.Filters.UserID = &userID
	}

	activities, total, err := h.activities.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := paginationMeta(opts.Page, opts.PageSize, total)
	response.SuccessWithMeta(c, http.StatusOK, activities, meta)
}

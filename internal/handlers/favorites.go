package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siimut/drive/internal/services"
	"github.com/siimut/drive/pkg/response"
)

// FavoriteHandler exposes per-user favorite endpoints.
type FavoriteHandler struct {
	favorites *services.FavoriteService
	queries   *services.NodeQueryService
}

// NewFavoriteHandler constructs a favorite handler.
func NewFavoriteHandler(favorites *services.FavoriteService, queries *services.NodeQueryService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, queries: queries}
}

// Toggle flips the favorite mark on a node for the acting user.
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	userID, ok := requireActor(c)
	if !ok {
		return
	}
	nodeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	favorited, err := h.favorites.Toggle(requestContext(c), userID, nodeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"favorited": favorited})
}

// List returns the acting user's favorited nodes.
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := requireActor(c)
	if !ok {
		return
	}

	nodes, err := h.queries.FavoritesOf(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nodes)
}

package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/siimut/drive/pkg/errors"
	"github.com/siimut/drive/pkg/response"
)

// userIDHeader identifies the acting user. Authentication happens upstream;
// the gateway injects the header after verifying the session.
const userIDHeader = "X-User-ID"

func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// actorID extracts the acting user id from the request, nil when absent.
func actorID(c *gin.Context) *uint64 {
	raw := strings.TrimSpace(c.GetHeader(userIDHeader))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

// requireActor extracts the acting user id and writes a 400 when it is missing.
func requireActor(c *gin.Context) (uint64, bool) {
	id := actorID(c)
	if id == nil {
		response.Error(c, appErrors.NewBadRequest("X-User-ID header is required"))
		return 0, false
	}
	return *id, true
}

// parseIDParam reads a numeric path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Error(c, appErrors.NewBadRequest(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseUint(raw string) uint64 {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func paginationMeta(page, perPage int, total int64) *response.Meta {
	if perPage <= 0 {
		perPage = 50
	}
	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}
	return &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	}
}

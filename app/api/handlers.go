package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aiverse-labs/content-hook/app/content"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PostContentWebhook ingests one content event. Retried deliveries with
// the same uuid get 200 and the original record's id instead of a
// duplicate.
func (h *Handler) PostContentWebhook(c *gin.Context) {
	var env content.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Validation failed",
			"details": []content.FieldError{
				{Field: "body", Message: "invalid JSON"},
			},
		})
		return
	}

	if details := content.Validate(&env); len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	item, created, err := h.ingestor.Ingest(&env)
	if err != nil {
		slog.Error("Ingestion failed", "uuid", env.UUID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "failed to ingest content",
		})
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{
			"message": "Content ingested",
			"id":      item.ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Content already ingested",
		"id":      item.ID,
	})
}

// GetContent returns the most recently ingested records, newest first
func (h *Handler) GetContent(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	items, err := h.contentRepo.GetRecent(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_content", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GetContentByUUID returns a single record by its idempotency key
func (h *Handler) GetContentByUUID(c *gin.Context) {
	uuid := c.Param("uuid")

	item, err := h.contentRepo.GetByUUID(uuid)
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "uuid", uuid, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetNotifications returns the most recent notifications, newest first
func (h *Handler) GetNotifications(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	notifications, err := h.notificationRepo.GetRecent(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_notifications", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// GetWS hands the connection over to the websocket hub
func (h *Handler) GetWS(c *gin.Context) {
	h.hub.HandleWS(c.Writer, c.Request)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if contentCount, err := h.contentRepo.GetCount(); err == nil {
		health["content_items"] = contentCount
	}

	health["connected_clients"] = h.hub.ClientCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"connected_clients": h.hub.ClientCount(),
	}

	if contentCount, err := h.contentRepo.GetCount(); err == nil {
		stats["content_items"] = contentCount
	}
	if statusCounts, err := h.contentRepo.GetStatusCounts(); err == nil {
		stats["phases"] = statusCounts
	}
	if notificationCount, err := h.notificationRepo.GetCount(); err == nil {
		stats["notifications"] = notificationCount
	}

	c.JSON(http.StatusOK, stats)
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultPageLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

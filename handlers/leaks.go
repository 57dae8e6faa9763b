package handlers

import (
	"net/http"
	"time"

	"leak-detection-api/models"
	"leak-detection-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LeaksHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewLeaksHandler(db *gorm.DB, cache *services.CacheService) *LeaksHandler {
	return &LeaksHandler{db: db, cache: cache}
}

func (h *LeaksHandler) GetLeaks(c *gin.Context) {
	p := ParsePagination(c)
	status := c.Query("status")
	severity := c.Query("severity")

	query := h.db.Model(&models.Leak{}).Order("ts DESC").Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("ts < ?", *p.Before)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var rows []models.Leak
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = rows[len(rows)-1].TS.Format(time.RFC3339Nano)
	}

	c.JSON(http.StatusOK, CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore})
}

type UpdateLeakStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus advances a leak one step along its linear lifecycle:
// new -> acknowledged -> dispatched -> resolved. Skips and reversals are
// rejected.
func (h *LeaksHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req UpdateLeakStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var leak models.Leak
	if err := h.db.Where("id = ?", id).First(&leak).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "leak not found"})
		return
	}

	if models.NextLeakStatus[leak.Status] != req.Status {
		c.JSON(http.StatusConflict, gin.H{
			"error": "invalid status transition from " + leak.Status + " to " + req.Status,
		})
		return
	}

	leak.Status = req.Status
	leak.UpdatedAt = time.Now().UTC()
	if err := h.db.Save(&leak).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database update failed"})
		return
	}

	c.JSON(http.StatusOK, leak)
}

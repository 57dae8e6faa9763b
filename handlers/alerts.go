package handlers

import (
	"net/http"
	"time"

	"leak-detection-api/models"
	"leak-detection-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AlertsHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewAlertsHandler(db *gorm.DB, cache *services.CacheService) *AlertsHandler {
	return &AlertsHandler{db: db, cache: cache}
}

func (h *AlertsHandler) GetAlerts(c *gin.Context) {
	p := ParsePagination(c)

	query := h.db.Model(&models.Alert{}).Order("ts DESC").Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("ts < ?", *p.Before)
	}
	if c.Query("unacknowledged") == "true" {
		query = query.Where("acknowledged = false")
	}

	var rows []models.Alert
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

func (h *AlertsHandler) Acknowledge(c *gin.Context) {
	id := c.Param("id")

	result := h.db.Model(&models.Alert{}).Where("id = ?", id).Update("acknowledged", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database update failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

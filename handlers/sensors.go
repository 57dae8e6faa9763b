package handlers

import (
	"context"
	"net/http"
	"time"

	"leak-detection-api/models"
	"leak-detection-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SensorsHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewSensorsHandler(db *gorm.DB, cache *services.CacheService) *SensorsHandler {
	return &SensorsHandler{db: db, cache: cache}
}

func (h *SensorsHandler) GetSensors(c *gin.Context) {
	dmaID := c.Query("dma_id")
	cacheKey := "sensors:" + dmaID

	var cached struct {
		Data []models.Sensor `json:"data"`
	}
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Order("sensor_id")
	if dmaID != "" {
		query = query.Where("dma_id = ?", dmaID)
	}

	var sensors []models.Sensor
	if err := query.Find(&sensors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := gin.H{"data": sensors}
	go h.cache.Set(context.Background(), cacheKey, resp, 60*time.Second)

	c.JSON(http.StatusOK, resp)
}

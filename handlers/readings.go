package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"leak-detection-api/models"
	"leak-detection-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReadingsHandler struct {
	db        *gorm.DB
	cache     *services.CacheService
	detection *services.DetectionService
}

func NewReadingsHandler(db *gorm.DB, cache *services.CacheService, detection *services.DetectionService) *ReadingsHandler {
	return &ReadingsHandler{db: db, cache: cache, detection: detection}
}

// Ingest scores one incoming reading through the detection engine and
// persists it with its analysis. When history cannot be fetched the endpoint
// reports detection as unavailable rather than guessing.
func (h *ReadingsHandler) Ingest(c *gin.Context) {
	var req services.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.detection.AnalyzeReading(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "detection unavailable"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReadingsHandler) GetReadings(c *gin.Context) {
	p := ParsePagination(c)
	sensorID := c.Query("sensor_id")

	beforeStr := ""
	if p.Before != nil {
		beforeStr = p.Before.Format(time.RFC3339Nano)
	}
	cacheKey := fmt.Sprintf("readings:%s:%d:%s", sensorID, p.Limit, beforeStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Model(&models.SensorReading{}).Order("ts DESC").Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("ts < ?", *p.Before)
	}
	if sensorID != "" {
		query = query.Where("sensor_id = ?", sensorID)
	}

	var rows []models.SensorReading
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

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 5*time.Second)

	c.JSON(http.StatusOK, resp)
}

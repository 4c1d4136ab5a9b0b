package api

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campuspulse/server/internal/busyness"
	"campuspulse/server/internal/models"
)

// Service is the busyness surface the handlers expose to the chat
// orchestrator.
type Service interface {
	QueryBusynessAtTime(ctx context.Context, rawText string) models.BusynessResponse
	QueryPeakTime(ctx context.Context, locationText string, dayOffset int) models.PeakResponse
}

type Handler struct {
	service Service
	logger  *logrus.Logger
}

func NewHandler(service Service, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// GetBusyness handles GET /api/busyness?q=<free text>.
func (h *Handler) GetBusyness(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	resp := h.service.QueryBusynessAtTime(c.Request.Context(), q)
	h.logger.WithFields(logrus.Fields{
		"query":  q,
		"status": resp.Status,
		"method": resp.Method,
	}).Info("Busyness query answered")

	status := http.StatusOK
	if resp.Status == models.StatusError {
		status = http.StatusNotFound
	}
	c.JSON(status, resp)
}

// GetPeakTime handles GET /api/busyness/peak?location=<text>&day_offset=<n>.
func (h *Handler) GetPeakTime(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter location"})
		return
	}

	dayOffset := 0
	if raw := c.Query("day_offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day_offset must be a non-negative integer"})
			return
		}
		dayOffset = parsed
	}

	resp := h.service.QueryPeakTime(c.Request.Context(), location, dayOffset)
	h.logger.WithFields(logrus.Fields{
		"location":   location,
		"day_offset": dayOffset,
		"status":     resp.Status,
	}).Info("Peak time query answered")

	status := http.StatusOK
	if resp.Status == models.StatusError {
		status = http.StatusNotFound
	}
	c.JSON(status, resp)
}

// ClassifyQuery handles GET /api/busyness/classify?q=<free text>. It is the
// lightweight router the chat caller uses to pick an entry point.
func (h *Handler) ClassifyQuery(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query_type": busyness.ClassifyQueryType(q)})
}

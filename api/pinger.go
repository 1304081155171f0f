package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aluiziolira/go-flashsale/models"
)

// PingStatusSource reports the latest ping per target.
type PingStatusSource interface {
	Results() []models.PingResult
}

// PingerHandler serves the pinger status route.
type PingerHandler struct {
	source PingStatusSource
}

// NewPingerHandler creates a PingerHandler.
func NewPingerHandler(source PingStatusSource) *PingerHandler {
	return &PingerHandler{source: source}
}

// Status handles GET /api/pinger/status.
func (h *PingerHandler) Status(c *gin.Context) {
	results := h.source.Results()
	healthy := 0
	for _, r := range results {
		if r.OK() {
			healthy++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"targets": results,
		"healthy": healthy,
		"total":   len(results),
	})
}

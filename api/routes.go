package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterScrapeRoutes mounts the scraper service under /api.
func RegisterScrapeRoutes(router *gin.Engine, h *ScrapeHandler) {
	api := router.Group("/api")
	api.POST("/scrape", h.Scrape)
	api.GET("/history", h.History)
	api.GET("/analytics", h.Analytics)
	api.DELETE("/run/:runId", h.DeleteRun)

	download := api.Group("/download")
	download.GET("/run/:runId", h.DownloadRun)
	download.GET("/latest", h.DownloadLatest)
	download.GET("/master", h.DownloadMaster)
}

// RegisterEmailRoutes mounts the email-capture service under /api. Only the
// submit route is rate limited.
func RegisterEmailRoutes(router *gin.Engine, h *EmailHandler, maxSubmissions int, window time.Duration) {
	api := router.Group("/api")
	api.POST("/submit-email", RateLimiter(maxSubmissions, window), h.SubmitEmail)
	api.GET("/emails", h.ListEmails)
}

// RegisterPingerRoutes mounts the pinger status route.
func RegisterPingerRoutes(router *gin.Engine, h *PingerHandler) {
	router.GET("/api/pinger/status", h.Status)
}

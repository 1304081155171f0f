package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/models"
	"github.com/aluiziolira/go-flashsale/pipeline"
	"github.com/aluiziolira/go-flashsale/session"
	"github.com/aluiziolira/go-flashsale/storage"
)

const (
	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Runner executes one scrape.
type Runner interface {
	Run(ctx context.Context, rawCookies string) (*models.RunReport, error)
}

// RunRepository reads and deletes stored runs.
type RunRepository interface {
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	ProductsByRun(ctx context.Context, runID uuid.UUID) ([]models.Product, error)
	LatestRunID(ctx context.Context) (uuid.UUID, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) (int64, error)
}

// ScrapeHandler serves the scraper service routes.
type ScrapeHandler struct {
	runner Runner
	runs   RunRepository
	cache  *pipeline.ExportCache
	log    logger.Logger
	now    func() time.Time
}

// NewScrapeHandler wires the scraper routes. cache may be nil.
func NewScrapeHandler(runner Runner, runs RunRepository, cache *pipeline.ExportCache, log logger.Logger) *ScrapeHandler {
	return &ScrapeHandler{
		runner: runner,
		runs:   runs,
		cache:  cache,
		log:    log,
		now:    time.Now,
	}
}

type scrapeRequest struct {
	Cookies string `json:"cookies"`
}

type scrapeResponse struct {
	Success       bool      `json:"success"`
	TotalProducts int       `json:"total_products"`
	PagesScraped  int       `json:"pages_scraped"`
	TimeTaken     int       `json:"time_taken"`
	RunID         uuid.UUID `json:"run_id"`
}

// Scrape handles POST /api/scrape. The run is detached from the request
// context so a client disconnect does not abort it.
func (h *ScrapeHandler) Scrape(c *gin.Context) {
	var req scrapeRequest
	_ = c.ShouldBindJSON(&req)
	if req.Cookies == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No cookies provided"})
		return
	}

	report, err := h.runner.Run(context.WithoutCancel(c.Request.Context()), req.Cookies)
	if err != nil {
		_ = c.Error(err)
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrMissingCredential) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, scrapeResponse{
		Success:       true,
		TotalProducts: report.TotalProducts,
		PagesScraped:  report.PagesScraped,
		TimeTaken:     report.TimeTaken,
		RunID:         report.RunID,
	})
}

// History handles GET /api/history.
func (h *ScrapeHandler) History(c *gin.Context) {
	runs, err := h.runs.ListRuns(c.Request.Context(), storage.DefaultHistoryLimit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Analytics handles GET /api/analytics. Failures still carry zeroed stats.
func (h *ScrapeHandler) Analytics(c *gin.Context) {
	stats, err := h.runs.Analytics(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          err.Error(),
			"total_products": 0,
			"avg_price":      0,
			"avg_discount":   0,
			"total_runs":     0,
			"top_sellers":    []models.TopSeller{},
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteRun handles DELETE /api/run/:runId.
func (h *ScrapeHandler) DeleteRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run id"})
		return
	}

	deleted, err := h.runs.DeleteRun(c.Request.Context(), runID)
	if errors.Is(err, storage.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.cache != nil {
		h.cache.Remove(runID)
	}

	h.log.Info("Deleted run", logger.String("run_id", runID.String()), logger.Int64("products_deleted", deleted))
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          fmt.Sprintf("Deleted run and %d products", deleted),
		"products_deleted": deleted,
	})
}

// DownloadRun handles GET /api/download/run/:runId. ?format=xlsx returns a workbook.
func (h *ScrapeHandler) DownloadRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.String(http.StatusNotFound, "No data found for this run")
		return
	}
	xlsx := c.Query("format") == "xlsx"
	filename := "flash_sale_run_" + runID.String()

	if !xlsx && h.cache != nil {
		if data, ok := h.cache.Get(runID); ok {
			sendAttachment(c, filename+".csv", csvContentType, data)
			return
		}
	}

	products, err := h.runs.ProductsByRun(c.Request.Context(), runID)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Error generating CSV")
		return
	}
	if len(products) == 0 {
		c.String(http.StatusNotFound, "No data found for this run")
		return
	}

	if xlsx {
		h.sendXLSX(c, filename+".xlsx", products)
		return
	}

	data, err := pipeline.EncodeCSV(products)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Error generating CSV")
		return
	}
	if h.cache != nil {
		h.cache.Add(runID, data)
	}
	sendAttachment(c, filename+".csv", csvContentType, data)
}

// DownloadLatest handles GET /api/download/latest.
func (h *ScrapeHandler) DownloadLatest(c *gin.Context) {
	ctx := c.Request.Context()
	runID, err := h.runs.LatestRunID(ctx)
	if errors.Is(err, storage.ErrRunNotFound) {
		c.String(http.StatusNotFound, "No data available")
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Error generating CSV")
		return
	}

	products, err := h.runs.ProductsByRun(ctx, runID)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Error generating CSV")
		return
	}
	h.sendCSV(c, "flash_sale_"+h.now().UTC().Format(time.DateOnly)+".csv", products)
}

// DownloadMaster handles GET /api/download/master.
func (h *ScrapeHandler) DownloadMaster(c *gin.Context) {
	products, err := h.runs.AllProducts(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Error generating CSV")
		return
	}
	h.sendCSV(c, "master_flash_sale.csv", products)
}

func (h *ScrapeHandler) sendCSV(c *gin.Context, filename string, products []models.Product) {
	data, err := pipeline.EncodeCSV(products)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Error generating CSV")
		return
	}
	sendAttachment(c, filename, csvContentType, data)
}

func (h *ScrapeHandler) sendXLSX(c *gin.Context, filename string, products []models.Product) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := pipeline.WriteXLSX(c.Writer, products); err != nil {
		_ = c.Error(err)
	}
}

func sendAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

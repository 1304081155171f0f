package api

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailRepository stores captured addresses.
type EmailRepository interface {
	SaveEmail(ctx context.Context, email string) (bool, error)
	ListEmails(ctx context.Context) ([]models.Email, error)
}

// EmailHandler serves the email-capture routes.
type EmailHandler struct {
	emails EmailRepository
	log    logger.Logger
}

// NewEmailHandler creates an EmailHandler.
func NewEmailHandler(emails EmailRepository, log logger.Logger) *EmailHandler {
	return &EmailHandler{emails: emails, log: log}
}

type emailRequest struct {
	Email string `json:"email"`
}

// SubmitEmail handles POST /api/submit-email. Resubmitting a known address succeeds.
func (h *EmailHandler) SubmitEmail(c *gin.Context) {
	var req emailRequest
	_ = c.ShouldBindJSON(&req)
	email := strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	inserted, err := h.emails.SaveEmail(c.Request.Context(), email)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save email"})
		return
	}
	if inserted {
		h.log.Info("Email captured")
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email saved successfully"})
}

// ListEmails handles GET /api/emails.
func (h *EmailHandler) ListEmails(c *gin.Context) {
	emails, err := h.emails.ListEmails(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch emails"})
		return
	}
	if emails == nil {
		emails = []models.Email{}
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails})
}

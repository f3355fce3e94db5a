package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/middleware"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/monitoring"
	"github.com/intelliailabs/agency-api/services"
	log "github.com/sirupsen/logrus"
)

// CreateConsultationRequest represents the consultation form
type CreateConsultationRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   string  `json:"email" binding:"required,email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Message string  `json:"message" binding:"required"`
}

// CreateConsultation handles POST /api/v1/consultations - stores a consultation request.
// Signed-in visitors get the request linked to their account.
func CreateConsultation(c *gin.Context) {
	var req CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	name := strings.TrimSpace(req.Name)
	message := strings.TrimSpace(req.Message)
	if name == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Name and message are required",
			},
		})
		return
	}

	consultation := models.Consultation{
		Name:    name,
		Email:   strings.TrimSpace(req.Email),
		Phone:   optionalString(req.Phone),
		Company: optionalString(req.Company),
		Message: message,
		Status:  models.StatusPending,
	}
	if userID, err := middleware.GetUserID(c); err == nil && userID != "" {
		consultation.UserID = &userID
	}

	db := config.GetDB()
	if err := db.Create(&consultation).Error; err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to submit consultation request",
			},
		})
		return
	}
	monitoring.ConsultationsCreated.Inc()

	// The request is already stored; a failed notification never fails the submission
	if notifier := services.GetNotifier(); notifier != nil {
		if err := notifier.NotifyConsultation(c.Request.Context(), &consultation); err != nil {
			monitoring.NotificationFailures.Inc()
			log.WithError(err).WithField("consultation_id", consultation.ID).Warn("Failed to send consultation notification")
			_ = c.Error(err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    consultation,
	})
}

// ListMyConsultations handles GET /api/v1/consultations/mine - the caller's own requests
func ListMyConsultations(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	consultations := make([]models.Consultation, 0)
	db := config.GetDB()
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&consultations).Error; err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load consultations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    consultations,
	})
}

// optionalString trims s and maps blank values to nil
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

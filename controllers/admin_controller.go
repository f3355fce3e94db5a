package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/models"
	"gorm.io/gorm"
)

// UpdateStatusRequest represents the request body for changing a consultation's status
type UpdateStatusRequest struct {
	Status models.ConsultationStatus `json:"status" binding:"required"`
}

// ScheduleRequest represents the request body for scheduling a follow-up
type ScheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at" binding:"required"`
}

// ListConsultations handles GET /api/v1/admin/consultations - all requests, newest first.
// An optional ?status= narrows the list to one label.
func ListConsultations(c *gin.Context) {
	db := config.GetDB()
	query := db.Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		if !models.ConsultationStatus(status).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_STATUS",
					"message": "Status must be one of pending, in_progress, completed, cancelled",
				},
			})
			return
		}
		query = query.Where("status = ?", status)
	}

	consultations := make([]models.Consultation, 0)
	if err := query.Find(&consultations).Error; err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch consultations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    consultations,
	})
}

// UpdateConsultationStatus handles PATCH /api/v1/admin/consultations/:id/status.
// Only the status column is written; any label may replace any other.
func UpdateConsultationStatus(c *gin.Context) {
	consultation, ok := findConsultation(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
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

	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS",
				"message": "Status must be one of pending, in_progress, completed, cancelled",
			},
		})
		return
	}

	db := config.GetDB()
	if err := db.Model(consultation).Update("status", req.Status).Error; err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update status",
			},
		})
		return
	}
	consultation.Status = req.Status

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    consultation,
	})
}

// ScheduleConsultation handles POST /api/v1/admin/consultations/:id/schedule.
// Scheduling always moves the request to in_progress.
func ScheduleConsultation(c *gin.Context) {
	consultation, ok := findConsultation(c)
	if !ok {
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "scheduled_at must be an RFC 3339 timestamp",
				"details": err.Error(),
			},
		})
		return
	}

	scheduledAt := req.ScheduledAt.UTC()
	db := config.GetDB()
	err := db.Model(consultation).Updates(map[string]interface{}{
		"scheduled_at": scheduledAt,
		"status":       models.StatusInProgress,
	}).Error
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to schedule consultation",
			},
		})
		return
	}
	consultation.ScheduledAt = &scheduledAt
	consultation.Status = models.StatusInProgress

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    consultation,
	})
}

// ListJobApplications handles GET /api/v1/admin/job-applications - all applications, newest first
func ListJobApplications(c *gin.Context) {
	applications := make([]models.JobApplication, 0)
	db := config.GetDB()
	if err := db.Order("created_at DESC").Find(&applications).Error; err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch job applications",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    applications,
	})
}

// findConsultation loads the consultation named by :id, writing the error response itself
func findConsultation(c *gin.Context) (*models.Consultation, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Consultation ID must be a UUID",
			},
		})
		return nil, false
	}

	var consultation models.Consultation
	db := config.GetDB()
	if err := db.First(&consultation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONSULTATION_NOT_FOUND",
					"message": "Consultation not found",
				},
			})
			return nil, false
		}

		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch consultation",
			},
		})
		return nil, false
	}

	return &consultation, true
}

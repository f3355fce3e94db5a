package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/monitoring"
	"github.com/intelliailabs/agency-api/services"
	"github.com/intelliailabs/agency-api/utils"
	log "github.com/sirupsen/logrus"
)

// CreateJobApplicationRequest represents the careers form (multipart/form-data)
type CreateJobApplicationRequest struct {
	FullName        string `form:"full_name" binding:"required"`
	Email           string `form:"email" binding:"required,email"`
	Phone           string `form:"phone"`
	JobTitle        string `form:"job_title" binding:"required"`
	ExperienceYears *int   `form:"experience_years" binding:"required,min=0"`
	Skills          string `form:"skills" binding:"required"`
	CoverLetter     string `form:"cover_letter"`
}

// CreateJobApplication handles POST /api/v1/job-applications - submits an application with an optional PDF resume
func CreateJobApplication(c *gin.Context) {
	var req CreateJobApplicationRequest
	if err := c.ShouldBind(&req); err != nil {
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

	application := models.JobApplication{
		FullName:        strings.TrimSpace(req.FullName),
		Email:           strings.TrimSpace(req.Email),
		Phone:           optionalString(&req.Phone),
		JobTitle:        strings.TrimSpace(req.JobTitle),
		ExperienceYears: *req.ExperienceYears,
		Skills:          strings.TrimSpace(req.Skills),
		CoverLetter:     optionalString(&req.CoverLetter),
	}

	// Upload the resume first so the row can carry its URL
	var stored *services.StoredResume
	fileHeader, err := c.FormFile("resume")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Could not read the uploaded resume",
				"details": err.Error(),
			},
		})
		return
	}
	if fileHeader != nil {
		resumeService := services.GetResumeService()
		if resumeService == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UPLOADS_UNAVAILABLE",
					"message": "Resume uploads are not configured",
				},
			})
			return
		}

		stored, err = resumeService.UploadResume(c.Request.Context(), fileHeader)
		if err != nil {
			var uploadErr *utils.FileUploadError
			if errors.As(err, &uploadErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    uploadErr.Code,
						"message": uploadErr.Message,
					},
				})
				return
			}

			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UPLOAD_FAILED",
					"message": "Failed to upload resume",
				},
			})
			return
		}
		application.ResumeURL = &stored.URL
	}

	db := config.GetDB()
	if err := db.Create(&application).Error; err != nil {
		// Remove the orphaned upload
		if stored != nil {
			if delErr := services.GetResumeService().DeleteResume(c.Request.Context(), stored.Key); delErr != nil {
				log.WithError(delErr).WithField("key", stored.Key).Warn("Failed to clean up resume after failed insert")
			}
		}

		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to submit application",
			},
		})
		return
	}
	monitoring.JobApplicationsCreated.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    application,
	})
}

// ListJobRoles handles GET /api/v1/job-roles - the positions offered on the careers form
func ListJobRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    models.JobRoles,
	})
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/monitoring"
	"github.com/intelliailabs/agency-api/services"
	log "github.com/sirupsen/logrus"
)

// NotifyConsultationRequest is the payload the notification function accepts.
// Only the fields the emails use are read; anything else the caller sends
// (id, status, timestamps) is ignored.
type NotifyConsultationRequest struct {
	Consultation *ConsultationContact `json:"consultation"`
}

// ConsultationContact is the part of a consultation the emails are built from
type ConsultationContact struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Message string  `json:"message"`
}

func (r NotifyConsultationRequest) consultation() *models.Consultation {
	if r.Consultation == nil {
		return nil
	}
	return &models.Consultation{
		Name:    r.Consultation.Name,
		Email:   r.Consultation.Email,
		Phone:   r.Consultation.Phone,
		Company: r.Consultation.Company,
		Message: r.Consultation.Message,
	}
}

// NotifyConsultation returns the handler for POST /functions/v1/notify-consultation.
// It mails the admin and then the requester through notifier; there is no retry.
// Every failure, including a bad payload, is a 500 with the reason in error.
func NotifyConsultation(notifier services.ConsultationNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NotifyConsultationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.WithError(err).Warn("notify-consultation received an unreadable body")
			c.JSON(http.StatusInternalServerError, services.NotifyResponse{
				Success: false,
				Error:   "Invalid JSON payload",
			})
			return
		}

		consultation := req.consultation()
		if err := services.ValidateConsultationPayload(consultation); err != nil {
			c.JSON(http.StatusInternalServerError, services.NotifyResponse{
				Success: false,
				Error:   "Missing required consultation data",
			})
			return
		}

		if err := notifier.NotifyConsultation(c.Request.Context(), consultation); err != nil {
			if errors.Is(err, services.ErrMissingConsultationData) {
				c.JSON(http.StatusInternalServerError, services.NotifyResponse{
					Success: false,
					Error:   "Missing required consultation data",
				})
				return
			}

			monitoring.NotificationFailures.Inc()
			log.WithError(err).WithField("email", consultation.Email).Error("Error in notify-consultation function")
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, services.NotifyResponse{
				Success: false,
				Error:   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, services.NotifyResponse{
			Success: true,
			Message: "Emails sent successfully",
		})
	}
}

// NotifyPreflight answers the browser's CORS preflight for the notification function
func NotifyPreflight(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/monitoring"
	log "github.com/sirupsen/logrus"
)

// ErrMissingConsultationData is returned when name, email or message is blank
var ErrMissingConsultationData = errors.New("missing required consultation data")

// ConsultationNotifier announces a newly created consultation
type ConsultationNotifier interface {
	NotifyConsultation(ctx context.Context, consultation *models.Consultation) error
}

var notifierInstance ConsultationNotifier

// InitNotifier picks the notifier for this process: the remote notification
// function when NOTIFY_FUNCTION_URL is set, otherwise in-process mail.
func InitNotifier(cfg *config.Config, mailer Mailer) ConsultationNotifier {
	if cfg.NotifyFunctionURL != "" {
		notifierInstance = NewFunctionNotifier(cfg.NotifyFunctionURL, cfg.NotifyFunctionKey)
	} else {
		notifierInstance = NewMailNotifier(mailer, cfg.MailFrom, cfg.AdminEmail)
	}
	return notifierInstance
}

// GetNotifier returns the initialized notifier instance
func GetNotifier() ConsultationNotifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(notifier ConsultationNotifier) {
	notifierInstance = notifier
}

// ValidateConsultationPayload checks the fields both emails depend on
func ValidateConsultationPayload(consultation *models.Consultation) error {
	if consultation == nil ||
		strings.TrimSpace(consultation.Email) == "" ||
		strings.TrimSpace(consultation.Name) == "" ||
		strings.TrimSpace(consultation.Message) == "" {
		return ErrMissingConsultationData
	}
	return nil
}

var (
	adminEmailTemplate = template.Must(template.New("admin").Parse(`
<h1>New Consultation Request</h1>
<p><strong>From:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Company:</strong> {{.Company}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

	requesterEmailTemplate = template.Must(template.New("requester").Parse(`
<h1>Thank you for your consultation request!</h1>
<p>Dear {{.Name}},</p>
<p>We have received your consultation request and our team will review it shortly.
We aim to respond within 24-48 business hours.</p>
<p>Your message: "{{.Message}}"</p>
<p>Best regards,<br>The IntelliAI Labs Team</p>
`))
)

type consultationEmailData struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Message string
}

func newConsultationEmailData(c *models.Consultation) consultationEmailData {
	return consultationEmailData{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   orNotProvided(c.Phone),
		Company: orNotProvided(c.Company),
		Message: c.Message,
	}
}

func orNotProvided(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "Not provided"
	}
	return *value
}

func render(tmpl *template.Template, data consultationEmailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// MailNotifier sends the admin alert and the requester confirmation directly
type MailNotifier struct {
	mailer     Mailer
	from       string
	adminEmail string
}

// NewMailNotifier creates a notifier that mails through mailer
func NewMailNotifier(mailer Mailer, from, adminEmail string) *MailNotifier {
	return &MailNotifier{mailer: mailer, from: from, adminEmail: adminEmail}
}

// NotifyConsultation sends the admin email, then the requester email.
// The first failure aborts the call; the requester is never mailed if the admin email fails.
func (n *MailNotifier) NotifyConsultation(ctx context.Context, consultation *models.Consultation) error {
	if err := ValidateConsultationPayload(consultation); err != nil {
		return err
	}
	data := newConsultationEmailData(consultation)

	adminHTML, err := render(adminEmailTemplate, data)
	if err != nil {
		return err
	}
	id, err := n.mailer.Send(ctx, Email{
		From:    n.from,
		To:      []string{n.adminEmail},
		Subject: "New Consultation Request",
		HTML:    adminHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send admin email: %w", err)
	}
	monitoring.EmailsSent.WithLabelValues("admin").Inc()
	log.WithField("email_id", id).Info("Admin email sent successfully")

	requesterHTML, err := render(requesterEmailTemplate, data)
	if err != nil {
		return err
	}
	id, err = n.mailer.Send(ctx, Email{
		From:    n.from,
		To:      []string{consultation.Email},
		Subject: "We received your consultation request",
		HTML:    requesterHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	monitoring.EmailsSent.WithLabelValues("requester").Inc()
	log.WithField("email_id", id).Info("User confirmation email sent successfully")

	return nil
}

// NotifyResponse is the JSON body returned by the notification function
type NotifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FunctionNotifier invokes the notification function over HTTP
type FunctionNotifier struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewFunctionNotifier creates a notifier that posts to the function at url
func NewFunctionNotifier(url, apiKey string) *FunctionNotifier {
	return &FunctionNotifier{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NotifyConsultation posts {"consultation": ...} to the function
func (n *FunctionNotifier) NotifyConsultation(ctx context.Context, consultation *models.Consultation) error {
	body, err := json.Marshal(map[string]interface{}{"consultation": consultation})
	if err != nil {
		return fmt.Errorf("failed to encode consultation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call notification function: %w", err)
	}
	defer resp.Body.Close()

	var result NotifyResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode != http.StatusOK || !result.Success {
		message := result.Error
		if message == "" && decodeErr != nil {
			message = decodeErr.Error()
		}
		return fmt.Errorf("notification function returned status %d: %s", resp.StatusCode, message)
	}

	return nil
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/monitoring"
	"github.com/intelliailabs/agency-api/utils"
	log "github.com/sirupsen/logrus"
)

var recoveryEmailTemplate = template.Must(template.New("recovery").Parse(`
<h1>Reset your password</h1>
<p>Hi {{.Name}},</p>
<p>We received a request to reset the password for your IntelliAI Labs account.
This link can be used for the next hour.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>If you didn't ask for this, you can ignore this email.</p>
`))

// RecoveryService issues password recovery links and checks them when they come back
type RecoveryService struct {
	mailer   Mailer
	from     string
	linkBase string
	secret   []byte
	now      func() time.Time
}

var recoveryServiceInstance *RecoveryService

// InitRecoveryService wires recovery links to the site's sign-in page
func InitRecoveryService(cfg *config.Config, mailer Mailer) *RecoveryService {
	recoveryServiceInstance = NewRecoveryService(mailer, cfg.MailFrom, cfg.AppBaseURL+"/auth", cfg.RecoverySecret)
	return recoveryServiceInstance
}

// NewRecoveryService creates a recovery service whose links point at linkBase
func NewRecoveryService(mailer Mailer, from, linkBase, secret string) *RecoveryService {
	return &RecoveryService{
		mailer:   mailer,
		from:     from,
		linkBase: linkBase,
		secret:   []byte(secret),
		now:      time.Now,
	}
}

// GetRecoveryService returns the initialized recovery service
func GetRecoveryService() *RecoveryService {
	return recoveryServiceInstance
}

// SetRecoveryService sets the recovery service (primarily for testing)
func SetRecoveryService(service *RecoveryService) {
	recoveryServiceInstance = service
}

// Link builds the page URL carrying token in a "#access_token=...&type=recovery" fragment
func (s *RecoveryService) Link(token string) string {
	fragment := url.Values{}
	fragment.Set("access_token", token)
	fragment.Set("type", "recovery")
	return s.linkBase + "#" + fragment.Encode()
}

// SendRecoveryLink emails user a link that lets them set a new password
func (s *RecoveryService) SendRecoveryLink(ctx context.Context, user *Auth0UserInfo) error {
	token, err := utils.IssueRecoveryToken(s.secret, user.Sub, user.Email, s.now())
	if err != nil {
		return fmt.Errorf("failed to issue recovery token: %w", err)
	}

	name := user.GivenName
	if name == "" {
		name = user.Email
	}
	html, err := renderRecovery(name, s.Link(token))
	if err != nil {
		return err
	}

	id, err := s.mailer.Send(ctx, Email{
		From:    s.from,
		To:      []string{user.Email},
		Subject: "Reset your IntelliAI Labs password",
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send recovery email: %w", err)
	}
	monitoring.EmailsSent.WithLabelValues("recovery").Inc()
	log.WithField("email_id", id).Info("Password recovery email sent")
	return nil
}

// Verify returns the claims of a recovery token this service issued
func (s *RecoveryService) Verify(token string) (*utils.RecoveryClaims, error) {
	return utils.VerifyRecoveryToken(s.secret, token, s.now())
}

func renderRecovery(name, link string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Name, Link string }{Name: name, Link: link}
	if err := recoveryEmailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render recovery email: %w", err)
	}
	return buf.String(), nil
}

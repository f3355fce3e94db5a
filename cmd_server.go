package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/monitoring"
	"github.com/intelliailabs/agency-api/routes"
	"github.com/intelliailabs/agency-api/services"
	"github.com/intelliailabs/agency-api/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// agency serve - start the API and site server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer utils.FlushSentry()

			log.Info("Starting IntelliAI Labs API server...")

			if err := connectAndMigrate(); err != nil {
				return err
			}

			mailer := newMailer(cfg)
			initServices(cmd.Context(), cfg, mailer)
			monitoring.Init()

			router := routes.New(cfg, routes.ProductionOptions(cfg, mailer))
			return listen(cmd.Context(), cfg.Port, router)
		},
	}
}

// agency notify - run only the notification function.
func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Start a server hosting only the consultation notification function",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer utils.FlushSentry()

			monitoring.Init()
			notifier := services.NewMailNotifier(newMailer(cfg), cfg.MailFrom, cfg.AdminEmail)

			log.Info("Starting notify-consultation function...")
			return listen(cmd.Context(), cfg.Port, routes.NewFunctionRouter(cfg, notifier))
		},
	}
}

func connectAndMigrate() error {
	if err := config.ConnectDatabase(); err != nil {
		return err
	}

	if err := config.GetDB().AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database migration completed successfully")
	return nil
}

func newMailer(cfg *config.Config) services.Mailer {
	if cfg.ResendAPIKey == "" {
		log.Warn("RESEND_API_KEY not set, consultation emails will fail to send")
	}
	return services.NewResendMailer(cfg.ResendAPIKey)
}

// initServices wires the process-wide services the controllers look up.
// Resume uploads are optional: without a bucket the careers form rejects attachments.
func initServices(ctx context.Context, cfg *config.Config, mailer services.Mailer) {
	services.SetIdentityProvider(services.NewAuth0Service(cfg))
	services.InitNotifier(cfg, mailer)
	services.InitRecoveryService(cfg, mailer)
	if cfg.RecoverySecret == "" {
		log.Warn("RECOVERY_SIGNING_SECRET and AUTH0_CLIENT_SECRET not set, password recovery links cannot be issued")
	}

	if cfg.AWSS3Bucket == "" {
		log.Warn("AWS_S3_BUCKET not set, resume uploads are disabled")
		return
	}

	s3Service, err := services.InitS3Service(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to initialize S3, resume uploads are disabled")
		return
	}
	services.InitResumeService(s3Service)
	log.WithField("bucket", cfg.AWSS3Bucket).Info("Resume storage ready")
}

// listen serves router until the process receives SIGINT or SIGTERM
func listen(ctx context.Context, port string, router *gin.Engine) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Server is running on http://localhost:%s", port)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

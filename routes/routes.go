package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/controllers"
	"github.com/intelliailabs/agency-api/middleware"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/monitoring"
	"github.com/intelliailabs/agency-api/services"
)

// FunctionsPrefix is where the serverless-style functions are mounted
const FunctionsPrefix = "/functions/v1"

// ExportScope is the token scope machine clients need to read consultations
const ExportScope = "read:consultations"

// functionHeaders are the request headers browsers send to the notification function
var functionHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// Options carries the pieces of the router that differ between production and tests
type Options struct {
	// RequireAuth rejects requests without a valid access token
	RequireAuth gin.HandlerFunc
	// OptionalAuth attaches the user when a valid token is sent and lets anonymous requests through
	OptionalAuth gin.HandlerFunc
	// FunctionNotifier sends the two consultation emails for the notification function.
	// It must not be a notifier that calls the function itself.
	FunctionNotifier services.ConsultationNotifier
}

// ProductionOptions builds Options backed by the Auth0 validator and in-process mail
func ProductionOptions(cfg *config.Config, mailer services.Mailer) Options {
	return Options{
		RequireAuth:      middleware.EnsureValidToken(cfg),
		OptionalAuth:     middleware.OptionalToken(cfg),
		FunctionNotifier: services.NewMailNotifier(mailer, cfg.MailFrom, cfg.AdminEmail),
	}
}

// New builds the full application router: API, notification function and site shell
func New(cfg *config.Config, opts Options) *gin.Engine {
	router := newEngine(cfg)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)
		v1.GET("/metrics", gin.WrapH(monitoring.Handler()))

		v1.GET("/job-roles", controllers.ListJobRoles)
		v1.POST("/job-applications", controllers.CreateJobApplication)

		v1.POST("/consultations", opts.OptionalAuth, controllers.CreateConsultation)
		v1.GET("/consultations/mine", opts.RequireAuth, controllers.ListMyConsultations)

		auth := v1.Group("/auth")
		{
			auth.POST("/sign-up", controllers.SignUp)
			auth.POST("/sign-in", controllers.SignIn)
			auth.POST("/forgot-password", controllers.ForgotPassword)
			auth.POST("/reset-password", controllers.ResetPassword)
			auth.POST("/password-strength", controllers.ScorePassword)
			auth.GET("/oauth/:provider", controllers.OAuthRedirect)
			auth.GET("/session", opts.RequireAuth, controllers.GetSession)
		}

		users := v1.Group("/users", opts.RequireAuth)
		{
			users.POST("", controllers.CreateProfile)
			users.GET("/me", controllers.GetMyProfile)
			users.PUT("/me", controllers.UpdateMyProfile)
			users.PUT("/me/password", controllers.ChangeMyPassword)
		}

		admin := v1.Group("/admin", opts.RequireAuth, middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/consultations", controllers.ListConsultations)
			admin.PATCH("/consultations/:id/status", controllers.UpdateConsultationStatus)
			admin.POST("/consultations/:id/schedule", controllers.ScheduleConsultation)
			admin.GET("/job-applications", controllers.ListJobApplications)
		}

		// Machine clients (CRM sync) authenticate with client credentials and a scope
		integrations := v1.Group("/integrations", opts.RequireAuth, middleware.RequireScope(ExportScope))
		{
			integrations.GET("/consultations", controllers.ListConsultations)
		}
	}

	registerFunctions(router, cfg, opts.FunctionNotifier)

	for _, path := range controllers.SiteRoutes {
		router.GET(path, controllers.ServeSite)
	}
	router.GET("/assets/*filepath", controllers.ServeAsset)
	router.NoRoute(controllers.NotFound)

	return router
}

// NewFunctionRouter builds a router that only hosts the notification function
func NewFunctionRouter(cfg *config.Config, notifier services.ConsultationNotifier) *gin.Engine {
	router := newEngine(cfg)
	router.GET("/api/v1/health", controllers.HealthCheck)
	registerFunctions(router, cfg, notifier)
	router.NoRoute(controllers.NotFound)
	return router
}

func registerFunctions(router *gin.Engine, cfg *config.Config, notifier services.ConsultationNotifier) {
	functions := router.Group(FunctionsPrefix)
	{
		functions.OPTIONS("/notify-consultation", controllers.NotifyPreflight)
		functions.POST("/notify-consultation",
			middleware.RequireFunctionKey(cfg.NotifyFunctionKey),
			controllers.NotifyConsultation(notifier),
		)
	}
}

func newEngine(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
		middleware.SentryMiddleware(),
		middleware.PrometheusMetrics(),
		corsByPath(cfg),
	)
	return router
}

// corsByPath applies the open function policy under FunctionsPrefix and the
// configured origins everywhere else.
func corsByPath(cfg *config.Config) gin.HandlerFunc {
	api := cors.New(apiCORSConfig(cfg.CORSAllowedOrigins))
	functions := cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    functionHeaders,
		MaxAge:          12 * time.Hour,
	})

	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, FunctionsPrefix+"/") {
			functions(c)
			return
		}
		api(c)
	}
}

func apiCORSConfig(origins []string) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		// Credentials cannot be combined with a wildcard origin
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	return corsConfig
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string
	Port        string
	GoEnv       string
	LogLevel    string
	AppBaseURL  string
	StaticDir   string

	CORSAllowedOrigins []string

	Auth0Domain       string
	Auth0Audience     string
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0Connection   string

	// RecoverySecret signs the password recovery links the API emails
	RecoverySecret string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSS3Endpoint      string // S3-compatible endpoint, empty for AWS
	AWSS3PublicURL     string // base URL for public object links

	ResendAPIKey string
	MailFrom     string
	AdminEmail   string

	// When NotifyFunctionURL is set, consultations are announced by calling the
	// notification function over HTTP instead of sending mail in-process.
	NotifyFunctionURL string
	NotifyFunctionKey string

	SentryDSN string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AppBaseURL:         strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/"),
		StaticDir:          getEnv("STATIC_DIR", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		Auth0ClientID:      getEnv("AUTH0_CLIENT_ID", ""),
		Auth0ClientSecret:  getEnv("AUTH0_CLIENT_SECRET", ""),
		Auth0Connection:    getEnv("AUTH0_CONNECTION", "Username-Password-Authentication"),
		RecoverySecret:     getEnv("RECOVERY_SIGNING_SECRET", getEnv("AUTH0_CLIENT_SECRET", "")),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSS3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
		AWSS3PublicURL:     strings.TrimRight(getEnv("AWS_S3_PUBLIC_URL", ""), "/"),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		MailFrom:           getEnv("MAIL_FROM", "IntelliAI Labs <onboarding@resend.dev>"),
		AdminEmail:         getEnv("ADMIN_EMAIL", "itelliailabs@gmail.com"),
		NotifyFunctionURL:  getEnv("NOTIFY_FUNCTION_URL", ""),
		NotifyFunctionKey:  getEnv("NOTIFY_FUNCTION_KEY", ""),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetDatabaseURL returns the database URL
func (c *Config) GetDatabaseURL() string {
	return c.DatabaseURL
}

// Auth0BaseURL returns the identity provider base URL without a trailing slash.
// A domain that already carries a scheme (used by tests) is returned as-is.
func (c *Config) Auth0BaseURL() string {
	domain := strings.TrimRight(c.Auth0Domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// ResumePublicBaseURL returns the base URL used to build public resume links
func (c *Config) ResumePublicBaseURL() string {
	if c.AWSS3PublicURL != "" {
		return c.AWSS3PublicURL
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.AWSS3Bucket, c.AWSRegion)
}

// GetConfig returns the configuration loaded by Load
func GetConfig() *Config {
	return appConfig
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

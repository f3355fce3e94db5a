package testutil

import (
	"os"
	"testing"

	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/models"
	"github.com/intelliailabs/agency-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test for the rest of the test binary
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	RequireTestEnvironment(t)
}

// TestConfig returns a configuration suitable for wiring the full router in tests
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        "sqlite::memory:",
		Port:               "8080",
		GoEnv:              "test",
		LogLevel:           "error",
		AppBaseURL:         "http://localhost:5173",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		Auth0Domain:        "test.auth0.com",
		Auth0Audience:      TestAudience,
		Auth0ClientID:      "test-client",
		Auth0Connection:    "Username-Password-Authentication",
		RecoverySecret:     "test-recovery-secret",
		AWSRegion:          "us-east-1",
		AWSS3Bucket:        "test-bucket",
		MailFrom:           "IntelliAI Labs <onboarding@resend.dev>",
		AdminEmail:         "admin@intelliailabs.test",
	}
}

// SetupTestDB opens a migrated in-memory database and installs it as the
// global connection until the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection to :memory: would be a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	original := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(original)
		sqlDB.Close()
	})

	return db
}

// GrantAdmin gives userID the admin role in db
func GrantAdmin(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()
	require.NoError(t, services.NewRoleService(db).Grant(t.Context(), userID, models.RoleAdmin))
}

package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain refuses to run the config tests against a development or
// production environment. An unset GO_ENV is treated as test.
func TestMain(m *testing.M) {
	switch env := os.Getenv("GO_ENV"); env {
	case "":
		os.Setenv("GO_ENV", "test")
	case "test":
	default:
		fmt.Fprintf(os.Stderr, "SAFETY CHECK FAILED: config tests must run with GO_ENV=test (current GO_ENV=%q)\n", env)
		fmt.Fprintln(os.Stderr, "Run them with: GO_ENV=test go test ./...")
		os.Exit(1)
	}

	os.Exit(m.Run())
}

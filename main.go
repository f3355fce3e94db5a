package main

import (
	"fmt"
	"os"

	"github.com/intelliailabs/agency-api/config"
	"github.com/intelliailabs/agency-api/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agency",
		Short:         "IntelliAI Labs website API",
		Long:          "Backend for the IntelliAI Labs site: consultations, careers, accounts and the admin dashboard.",
		Version:       utils.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Server
	root.AddCommand(newServeCmd())
	root.AddCommand(newNotifyCmd())

	// Database
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newRolesCmd())

	return root
}

// loadConfig reads configuration and sets up logging and error reporting
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	utils.InitLogger(cfg.LogLevel, cfg.IsProduction())
	if err := utils.InitSentry(cfg.SentryDSN, cfg.GoEnv); err != nil {
		log.WithError(err).Warn("Continuing without error reporting")
	}
	return cfg, nil
}

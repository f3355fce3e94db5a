package utils

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger.
// Production logs are JSON for the log drain; everything else is human-readable text.
func InitLogger(level string, production bool) {
	log.SetOutput(os.Stdout)

	if production {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, falling back to info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

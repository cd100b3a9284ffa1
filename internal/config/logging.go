package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Apply configures the global logrus logger.
func (l LogConfig) Apply() error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	log.SetLevel(level)

	switch l.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log.format %q", l.Format)
	}

	return nil
}

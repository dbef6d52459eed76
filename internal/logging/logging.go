package logging

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

const DefaultLevel = "INFO"

// Init parses the level name and configures the global logrus logger.
// An empty level selects DefaultLevel.
func Init(level string) error {
	if strings.TrimSpace(level) == "" {
		level = DefaultLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	log.SetLevel(lvl)
	return nil
}

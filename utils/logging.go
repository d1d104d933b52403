package utils

import (
	"os"
	"strings"

	logger "github.com/kthomas/go-logger"
)

// Log is the process-wide leveled logger.
var Log *logger.Logger

func init() {
	ConfigureLogger(os.Getenv("LOG_LEVEL"), os.Getenv("SYSLOG_ENDPOINT"))
}

// ConfigureLogger replaces Log. An empty level means INFO; an empty
// endpoint keeps output on the console.
func ConfigureLogger(level, syslogEndpoint string) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "" {
		level = "INFO"
	}

	var endpoint *string
	if syslogEndpoint != "" {
		endpoint = &syslogEndpoint
	}

	Log = logger.NewLogger("sandnet", level, endpoint)
}

func LogError(stage string, err error) {
	Log.Warningf("[%s] error: %v", stage, err)
}

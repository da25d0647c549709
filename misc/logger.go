package misc

import (
	"fmt"
	"strings"

	"github.com/BrugadaSyndrome/bslogger"
)

var LogLevels = []string{"minimal", "normal", "all"}

// ValidateLogLevel accepts an empty level as normal.
func ValidateLogLevel(level string) error {
	if level == "" {
		return nil
	}
	for _, l := range LogLevels {
		if strings.EqualFold(l, level) {
			return nil
		}
	}
	return fmt.Errorf("unknown log level %q, expected one of %v", level, LogLevels)
}

// NewLogger creates a component logger. Unknown levels fall back to normal.
func NewLogger(name string, level string) bslogger.Logger {
	verbosity := bslogger.Normal
	switch strings.ToLower(level) {
	case "minimal":
		verbosity = bslogger.Minimal
	case "all":
		verbosity = bslogger.All
	}
	return bslogger.NewLogger(name, verbosity, nil)
}

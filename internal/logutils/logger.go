package logutils

import (
	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger.
var Log = logrus.New()

// Fields is the type of logrus.Fields.
type Fields = logrus.Fields

//nolint:gochecknoinits // This is the only place where the formatter is configured.
func init() {
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat:           "2006-01-02 15:04:05",
		FullTimestamp:             true,
		EnvironmentOverrideColors: true,
	})
}

// SetLevel parses a textual level ("debug", "info", "warn"...). Unknown values keep the current level.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.WithField("level", level).Warn("unknown log level, keeping default")
		return
	}
	Log.SetLevel(lvl)
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

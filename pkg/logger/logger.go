package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures the global logrus logger. Production gets JSON lines,
// everything else the human friendly text formatter.
func Init(appEnv, level string) {
	logrus.SetOutput(os.Stdout)

	if appEnv == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("invalid LOG_LEVEL %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	logrus.WithField("env", appEnv).Info("logger initialized")
}

package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logLevelFromEnv(os.Getenv("LOG_LEVEL")))
	logg.SetOutput(os.Stdout)
}

// logLevelFromEnv defaults to error, matching the production setup.
func logLevelFromEnv(v string) logrus.Level {
	v = strings.TrimSpace(v)
	if v == "" {
		return logrus.ErrorLevel
	}
	lvl, err := logrus.ParseLevel(v)
	if err != nil {
		return logrus.ErrorLevel
	}
	return lvl
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if logger == nil {
		logger = logg
	}
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	logger.WithFields(fields).Error(msg)
}

package util

import (
	"strings"

	"go.uber.org/zap"
)

func NewLogger(env string) *zap.SugaredLogger {
	var logger *zap.SugaredLogger

	if strings.EqualFold(env, "production") {
		logger = zap.Must(zap.NewProduction()).Sugar()
	} else {
		logger = zap.Must(zap.NewDevelopment()).Sugar()
	}

	return logger
}

// NewNopLogger is used by tests and by library callers that do not care about logs.
func NewNopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a leveled structured logger passed around the service.
// Both *logrus.Logger and *logrus.Entry satisfy it, so derived loggers
// built with WithField(s) can be passed wherever a Logger is expected.
type Logger interface {
	logrus.FieldLogger
}

type ctxKey int

const loggerCtxKey ctxKey = iota

func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log
}

func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(Logger); ok {
		return logger
	}
	return New()
}

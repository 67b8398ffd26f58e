package storage

import (
	"log/slog"

	"github.com/LJTian/SyndicateHub/internal/logger"
)

func discardLogger() *slog.Logger {
	return logger.Discard()
}

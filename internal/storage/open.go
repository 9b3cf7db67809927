package storage

import (
	"context"
	"errors"

	"github.com/chrissnell/tidalvariance/pkg/config"
	"go.uber.org/zap"
)

// ErrDisabled is returned by Open when no backend is configured
var ErrDisabled = errors.New("no archive backend configured")

// Open connects to the configured archive backend and prepares its schema
func Open(ctx context.Context, cfg config.StorageData, logger *zap.SugaredLogger) (Archive, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	switch {
	case cfg.SQLitePath != "":
		return OpenSQLite(ctx, cfg.SQLitePath, logger)
	case cfg.PostgresDSN != "":
		return OpenPostgres(ctx, cfg.PostgresDSN, logger)
	default:
		return nil, ErrDisabled
	}
}

package tokenstore

import (
	"context"
	"fmt"

	"github.com/brizzai/popup-login/internal/config"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/storage"
	"github.com/brizzai/popup-login/internal/storage/file"
	"github.com/brizzai/popup-login/internal/storage/memory"
	"github.com/brizzai/popup-login/internal/storage/redis"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewBackend builds the storage.Store selected by storage.backend
func NewBackend(lc fx.Lifecycle, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendMemory:
		return memory.New(), nil
	case config.StorageBackendFile, "":
		s, err := file.New(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using file credential storage", zap.String("path", s.Path()))
		return s, nil
	case config.StorageBackendRedis:
		s := redis.New(cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return s.Close() },
		})
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// Module provides the configured storage backend
var Module = fx.Module("tokenstore",
	fx.Provide(NewBackend),
)

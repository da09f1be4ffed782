package sqlite

import (
	"context"

	"bankload/internal/logger"
	"bankload/internal/storage"
)

func init() {
	storage.RegisterOpener[*Repository]("sqlite", func(ctx context.Context, dsn string) (*Repository, func(), error) {
		return NewRepository(ctx, Config{DSN: dsn})
	})

	// The database is a single file: resetting it means deleting the file.
	storage.RegisterReset("sqlite", func(ctx context.Context, cfg storage.Config, _ []string) error {
		removed, err := RemoveDatabase(cfg.DSN)
		if err != nil {
			return err
		}
		if removed {
			log := logger.FromContext(ctx)
			log.Info().Str("path", filePath(cfg.DSN)).Msg("old database removed")
		}
		return nil
	})
}

package mssql

import (
	"context"

	"bankload/internal/storage"
)

// newRepository is swapped by tests to avoid a live server.
var newRepository = NewRepository

func init() {
	storage.RegisterServer[*Repository]("mssql", func(ctx context.Context, dsn string) (*Repository, func(), error) {
		return newRepository(ctx, Config{DSN: dsn})
	})
}

// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and reset hooks with the storage
// package.
//
// Importing this package makes the following storage kinds available:
//
//   - "sqlite"   (bankload/internal/storage/sqlite), the default
//   - "postgres" (bankload/internal/storage/postgres)
//   - "mysql"    (bankload/internal/storage/mysql)
//   - "mssql"    (bankload/internal/storage/mssql)
//
// Typical usage (in cmd/bankload or a test):
//
//	import _ "bankload/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "bank.db"})
package all

import (
	_ "bankload/internal/storage/mssql"
	_ "bankload/internal/storage/mysql"
	_ "bankload/internal/storage/postgres"
	_ "bankload/internal/storage/sqlite"
)

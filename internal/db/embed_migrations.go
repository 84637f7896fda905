package db

import "embed"

// MigrationFS holds the schema migrations applied by the migrate runner
// (cmd/migrate, and cmd/server at startup).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS

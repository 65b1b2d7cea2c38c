package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultDir is the embedded migrations directory.
const DefaultDir = "migrations"

// Run applies goose migrations in the given direction ("up" or "down").
func Run(ctx context.Context, db *sql.DB, direction string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	switch direction {
	case "up":
		return goose.UpContext(ctx, db, DefaultDir)
	case "down":
		return goose.DownContext(ctx, db, DefaultDir)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}

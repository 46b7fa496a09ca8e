// Package migrate applies the goose SQL migrations and helps author new
// ones. Migrations target Postgres; sqlite databases get gorm AutoMigrate.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// DefaultDir is where migrations live in the repo. It resolves to the
// compiled-in copy so the binaries do not depend on the working directory.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

const embeddedDir = "migrations"

func sourceFS(dir string) (fs.FS, error) {
	switch dir {
	case "":
		return nil, errors.New("migrations dir is required")
	case DefaultDir:
		return fs.Sub(embedded, embeddedDir)
	default:
		return os.DirFS(dir), nil
	}
}

func newProvider(db *sql.DB, dir string, dialect goose.Dialect) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	fsys, err := sourceFS(dir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, db, fsys)
}

// Run executes up, down or status against db and logs each migration.
func Run(ctx context.Context, db *sql.DB, dir, command string, logg *logger.Logger) error {
	if logg == nil {
		logg = logger.Nop()
	}
	p, err := newProvider(db, dir, goose.DialectPostgres)
	if err != nil {
		return err
	}
	defer p.Close()

	switch command {
	case "up":
		results, err := p.Up(ctx)
		logResults(ctx, logg, results)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			logResults(ctx, logg, []*goose.MigrationResult{result})
		}
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"version":    st.Source.Version,
				"file":       st.Source.Path,
				"state":      string(st.State),
				"applied_at": st.AppliedAt,
			}), "migration.status")
		}
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until target is the current
// version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir, target string, logg *logger.Logger) error {
	if logg == nil {
		logg = logger.Nop()
	}
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	p, err := newProvider(db, dir, goose.DialectPostgres)
	if err != nil {
		return err
	}
	defer p.Close()

	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == version:
		return nil
	case current < version:
		results, err = p.UpTo(ctx, version)
	default:
		results, err = p.DownTo(ctx, version)
	}
	logResults(ctx, logg, results)
	if err != nil {
		return fmt.Errorf("goose migrate to %d: %w", version, err)
	}
	return nil
}

func logResults(ctx context.Context, logg *logger.Logger, results []*goose.MigrationResult) {
	for _, r := range results {
		fields := logg.WithFields(ctx, map[string]any{
			"version":     r.Source.Version,
			"file":        r.Source.Path,
			"direction":   r.Direction,
			"duration_ms": r.Duration.Milliseconds(),
		})
		if r.Error != nil {
			logg.Error(fields, "migration.failed", r.Error)
			continue
		}
		logg.Info(fields, "migration.applied")
	}
}

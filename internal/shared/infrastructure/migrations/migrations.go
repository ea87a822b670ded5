package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`

// Run applies every pending *.up.sql migration for the connection's driver,
// in file-name order, recording each in schema_migrations.
func Run(ctx context.Context, conn database.Connection) error {
	dir := conn.Driver().String()
	files, err := upFiles(dir)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	uow := database.NewUnitOfWork(conn)
	for _, file := range files {
		version := strings.TrimSuffix(file, ".up.sql")
		if err := apply(ctx, conn, uow, dir, file, version); err != nil {
			return err
		}
	}
	return nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func apply(ctx context.Context, conn database.Connection, uow *database.GenericUnitOfWork, dir, file, version string) error {
	var applied int
	q := conn.Driver().Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`)
	if err := conn.QueryRow(ctx, q, version).Scan(&applied); err != nil {
		return fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	if applied > 0 {
		return nil
	}

	body, err := migrationFS.ReadFile(dir + "/" + file)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", file, err)
	}

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	ex := database.ExecutorFromContext(txCtx, conn)
	if _, err := ex.Exec(txCtx, string(body)); err != nil {
		_ = uow.Rollback(txCtx)
		return fmt.Errorf("failed to execute migration %s: %w", file, err)
	}
	insert := conn.Driver().Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`)
	if _, err := ex.Exec(txCtx, insert, version, time.Now().UTC()); err != nil {
		_ = uow.Rollback(txCtx)
		return fmt.Errorf("failed to record migration %s: %w", file, err)
	}
	return uow.Commit(txCtx)
}

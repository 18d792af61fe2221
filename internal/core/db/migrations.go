package db

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/solatis/estimator/migrations"
)

// MigrationStatus represents the state of a single migration.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// migration is one parsed migration file.
type migration struct {
	ID       string
	Checksum string
	SQL      string
}

// MigrateUp applies every pending migration for the connection's driver in
// filename order. Checksums of already-applied migrations must match the
// embedded files; a mismatch aborts before anything runs.
func MigrateUp(ctx context.Context, db *sqlx.DB) error {
	pending, err := prepare(ctx, db)
	if err != nil {
		return err
	}

	applied, err := appliedIDs(ctx, db)
	if err != nil {
		return eris.Wrap(err, "failed to query applied migrations")
	}

	for _, m := range pending {
		if applied[m.ID] {
			continue
		}
		if err := runMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus reports every embedded migration as applied or pending.
func MigrateStatus(ctx context.Context, db *sqlx.DB) ([]MigrationStatus, error) {
	all, err := prepare(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryxContext(ctx, "SELECT migration_id, checksum, applied_at, execution_ms FROM migrations")
	if err != nil {
		return nil, eris.Wrap(err, "failed to query migrations")
	}
	defer rows.Close()

	applied := make(map[string]MigrationStatus)
	for rows.Next() {
		var (
			status    MigrationStatus
			appliedAt string
		)
		if err := rows.Scan(&status.ID, &status.Checksum, &appliedAt, &status.ExecutionMs); err != nil {
			return nil, eris.Wrap(err, "failed to scan migration")
		}
		if t, err := time.Parse(time.RFC3339Nano, appliedAt); err == nil {
			status.AppliedAt = &t
		}
		status.Applied = true
		applied[status.ID] = status
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read migrations")
	}

	statuses := make([]MigrationStatus, 0, len(all))
	for _, m := range all {
		if s, ok := applied[m.ID]; ok {
			statuses = append(statuses, s)
			continue
		}
		statuses = append(statuses, MigrationStatus{ID: m.ID, Checksum: m.Checksum})
	}
	return statuses, nil
}

// prepare ensures the tracking table exists, loads the driver's migrations
// and verifies applied checksums.
func prepare(ctx context.Context, db *sqlx.DB) ([]migration, error) {
	fsys, dir, err := migrationSource(db.DriverName())
	if err != nil {
		return nil, err
	}
	if err := createMigrationsTable(ctx, db); err != nil {
		return nil, eris.Wrap(err, "failed to create migrations table")
	}
	all, err := parseMigrationFiles(fsys, dir)
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse migrations")
	}
	if err := validateChecksums(ctx, db, all); err != nil {
		return nil, eris.Wrap(err, "migration checksum validation failed")
	}
	return all, nil
}

func migrationSource(driver string) (fs.FS, string, error) {
	switch driver {
	case "sqlite3":
		return migrations.SqliteMigrations, "sqlite", nil
	case "postgres":
		return migrations.PostgresMigrations, "postgres", nil
	default:
		return nil, "", eris.Errorf("unsupported database driver: %s", driver)
	}
}

func parseMigrationFiles(fsys fs.FS, dir string) ([]migration, error) {
	var out []migration

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return eris.Wrapf(err, "failed to read %s", p)
		}

		out = append(out, migration{
			ID:       path.Base(p),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func createMigrationsTable(ctx context.Context, db *sqlx.DB) error {
	createSQL := `
		CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL,
			execution_ms INTEGER NOT NULL
		)
	`
	_, err := db.ExecContext(ctx, createSQL)
	return err
}

func appliedIDs(ctx context.Context, db *sqlx.DB) (map[string]bool, error) {
	var ids []string
	if err := db.SelectContext(ctx, &ids, "SELECT migration_id FROM migrations"); err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(ids))
	for _, id := range ids {
		applied[id] = true
	}
	return applied, nil
}

func validateChecksums(ctx context.Context, db *sqlx.DB, all []migration) error {
	var recorded []struct {
		ID       string `db:"migration_id"`
		Checksum string `db:"checksum"`
	}
	if err := db.SelectContext(ctx, &recorded, "SELECT migration_id, checksum FROM migrations"); err != nil {
		return err
	}

	expected := make(map[string]string, len(all))
	for _, m := range all {
		expected[m.ID] = m.Checksum
	}

	for _, r := range recorded {
		want, ok := expected[r.ID]
		if !ok {
			return eris.Errorf("migration %s exists in database but not in embedded files", r.ID)
		}
		if r.Checksum != want {
			return eris.Errorf("checksum mismatch for migration %s: expected %s, got %s", r.ID, want, r.Checksum)
		}
	}
	return nil
}

// runMigration applies m and records it in one transaction.
func runMigration(ctx context.Context, db *sqlx.DB, m migration) error {
	start := time.Now()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "failed to begin transaction for migration %s", m.ID)
	}
	defer tx.Rollback()

	// lib/pq does not accept several statements in one Exec
	for _, stmt := range splitStatements(m.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "failed to apply migration %s", m.ID)
		}
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
		m.ID, m.Checksum, time.Now().UTC().Format(time.RFC3339Nano), time.Since(start).Milliseconds(),
	)
	if err != nil {
		return eris.Wrapf(err, "failed to record migration %s", m.ID)
	}

	return eris.Wrapf(tx.Commit(), "failed to commit migration %s", m.ID)
}

// splitStatements drops -- comment lines and splits on semicolons.
func splitStatements(sql string) []string {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Migrator applies migrations and records them in schema_migrations.
type Migrator struct {
	db         *sqlx.DB
	migrations []Migration
	logger     *zap.Logger
}

// NewMigrator loads the embedded migrations.
func NewMigrator(db *sqlx.DB, logger *zap.Logger) (*Migrator, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, err
	}
	return NewMigratorFS(db, sub, logger)
}

// NewMigratorFS loads migrations from fsys. Files are named NNNNNN_name.up.sql / .down.sql.
func NewMigratorFS(db *sqlx.DB, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, migrations: migrations, logger: logger}, nil
}

// LoadMigrations parses migration files and validates the sequence has no gaps.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		var up bool
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			up = true
		case strings.HasSuffix(name, ".down.sql"):
			up = false
		default:
			continue
		}
		if len(name) < 6 {
			continue
		}
		version, err := strconv.Atoi(name[:6])
		if err != nil {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		m, ok := byVersion[version]
		if !ok {
			base := strings.TrimSuffix(strings.TrimSuffix(name, ".up.sql"), ".down.sql")
			m = &Migration{Version: version, Name: strings.TrimPrefix(base[6:], "_")}
			byVersion[version] = m
		}
		if up {
			m.UpSQL = string(data)
		} else {
			m.DownSQL = string(data)
		}
	}

	if len(byVersion) == 0 {
		return nil, fmt.Errorf("no migrations found")
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })

	for i, m := range migrations {
		if m.Version != i+1 {
			return nil, fmt.Errorf("migration %d is missing", i+1)
		}
		if m.UpSQL == "" {
			return nil, fmt.Errorf("migration %d is missing up.sql file", m.Version)
		}
	}
	return migrations, nil
}

// Migrations returns the loaded migrations in version order.
func (m *Migrator) Migrations() []Migration {
	return append([]Migration(nil), m.migrations...)
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// CurrentVersion returns the highest applied version, 0 when none.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	var version int
	if err := m.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return 0, fmt.Errorf("current migration version: %w", err)
	}
	return version, nil
}

// Up applies every pending migration, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.apply(ctx, migration.UpSQL, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", migration.Version, migration.Name)
			return err
		}); err != nil {
			return applied, fmt.Errorf("apply migration %d: %w", migration.Version, err)
		}
		m.logger.Info("migration applied", zap.Int("version", migration.Version), zap.String("name", migration.Name))
		applied++
	}
	return applied, nil
}

// Down rolls back the latest applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if current == 0 {
		return nil
	}
	if current > len(m.migrations) {
		return fmt.Errorf("database is at version %d, newer than known migrations", current)
	}
	migration := m.migrations[current-1]
	if migration.DownSQL == "" {
		return fmt.Errorf("migration %d has no down.sql file", current)
	}
	if err := m.apply(ctx, migration.DownSQL, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", current)
		return err
	}); err != nil {
		return fmt.Errorf("rollback migration %d: %w", current, err)
	}
	m.logger.Info("migration rolled back", zap.Int("version", current), zap.String("name", migration.Name))
	return nil
}

func (m *Migrator) apply(ctx context.Context, statement string, record func(*sqlx.Tx) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, statement); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

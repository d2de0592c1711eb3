// Package repomanager provides RepositoryManager implementations for
// PostgreSQL and memory, wiring repository constructors, the database
// connector and schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/notsy/internal/dbx"
	"github.com/dmitrijs2005/notsy/internal/server/identity"
	"github.com/dmitrijs2005/notsy/internal/server/migrations"
	"github.com/dmitrijs2005/notsy/internal/server/repositories/notes"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Notes returns a notes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// OpenPostgres opens a pool over the pgx stdlib driver. When ts is non-nil
// every new physical connection takes its password from ts, so rotating
// tokens (IAM database auth) never outlive the connection that used them.
func OpenPostgres(dsn string, ts identity.TokenSource) (*sql.DB, error) {
	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	var opts []stdlib.OptionOpenDB
	if ts != nil {
		opts = append(opts, stdlib.OptionBeforeConnect(beforeConnect(ts)))
	}
	return stdlib.OpenDB(*cc, opts...), nil
}

func beforeConnect(ts identity.TokenSource) func(context.Context, *pgx.ConnConfig) error {
	return func(ctx context.Context, cc *pgx.ConnConfig) error {
		tok, err := ts.Token(ctx)
		if err != nil {
			return fmt.Errorf("database token: %w", err)
		}
		cc.Password = tok
		return nil
	}
}

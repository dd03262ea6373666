package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/runtimeconfig"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
)

// ErrMemoryDriver is returned by Open when the configuration selects the
// in-memory repositories, which need no database.
var ErrMemoryDriver = errors.New("storage: memory driver has no database")

// Open connects to the database selected by cfg.Driver.
func Open(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch driver {
	case runtimeconfig.StorageDriverSQLite:
		sqlDB, err = sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case runtimeconfig.StorageDriverPostgres:
		sqlDB, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	case runtimeconfig.StorageDriverMemory, "":
		return nil, ErrMemoryDriver
	default:
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrStorageDriverUnknown, cfg.Driver)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// Models lists the tables owned by the blog module in creation order.
func Models() []any {
	return []any{
		(*blog.Category)(nil),
		(*blog.Blogger)(nil),
		(*blog.Post)(nil),
	}
}

// Migrate creates the blog tables and their lookup indexes when missing.
func Migrate(ctx context.Context, db bun.IDB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*blog.Post)(nil), "blog_posts_category_idx", []string{"blog_category"}},
		{(*blog.Post)(nil), "blog_posts_blogger_idx", []string{"blogger"}},
		{(*blog.Post)(nil), "blog_posts_published_idx", []string{"published", "published_on"}},
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("storage: create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Package db opens PostgreSQL pools with pgx, applies goose migrations
// from an embedded filesystem and wraps work in transactions.
//
//	pool, err := db.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//	if err := db.Migrate(ctx, pool, account.Migrations, "migrations", cfg.Database.MigrationsTable, log); err != nil {
//	    return err
//	}
package db

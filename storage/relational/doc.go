// Package relational provides a storage backend over database/sql.
//
// Statements use "?" placeholders and portable column types, so the same
// backend runs on MySQL (github.com/go-sql-driver/mysql) and SQLite
// (modernc.org/sqlite). Table names come from storage.Tables. Scope
// associations live in join tables keyed by (parent id, scope id).
//
// Each adapter returned by Backend.Open carries its own memo cache and is
// meant to serve a single request. The *sql.DB is shared.
//
// Usage:
//
//	db, err := relational.OpenMySQL(ctx, relational.MySQLConfig{Host: "db", User: "oauth", Name: "oauth"})
//	if err != nil {
//		return err
//	}
//	backend := relational.New(db, storage.DefaultTables())
//	if err := backend.Migrate(ctx); err != nil {
//		return err
//	}
package relational

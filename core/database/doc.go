// Package database handles database connections and schema inspection.
//
// It wraps GORM and configures either a MySQL connection (production) or a SQLite
// database (local runs and tests) based on the application's configuration.
//
// # Connect
//
// Connect opens the database, applies pool settings and pings it within the
// configured timeout. The record store, the audit sink and the sync-run summaries
// all share this connection.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live table definition (PRAGMA on SQLite,
// SHOW COLUMNS on MySQL). The integrity feature uses them to verify that the engine's
// tables carry the columns the models expect.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "documents")
package database

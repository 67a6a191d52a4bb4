// Package database provides the SQLite connection used by the key-event
// journal.
//
// This package manages:
//   - Opening the database file with busy timeout and optional WAL mode
//   - Versioned schema migrations tracked in schema_migrations
//   - Health checks and lifecycle
//
// Migrations are read from an fs.FS, normally the embedded files of the
// migrations package:
//
//	db, err := database.Open(ctx, cfg.Journal)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database

// Package database provides SQLite connection management and schema
// migrations for Factoryline Core.
//
// # Features
//
//   - SQLite with WAL mode for concurrent reads during simulator writes
//   - Embedded SQL migrations applied at startup
//   - Health checks for the monitoring endpoint
//   - Single-writer connection pool matching SQLite's locking model
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations/ directory and are
// embedded into the binary; see the migrations package.
package database

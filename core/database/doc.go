// Package database handles database connections for the circulation service.
//
// It wraps GORM connection setup for MySQL (production) and SQLite (tests,
// local development). Connect applies pool settings and verifies the
// connection with a bounded ping.
//
// Error translation is enabled on every connection: unique-key violations
// surface as gorm.ErrDuplicatedKey regardless of driver, which the lifecycle
// engine translates into business Conflict errors at transaction boundaries.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database

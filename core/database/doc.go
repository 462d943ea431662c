// Package database opens the SQL database behind the system-of-record
// binding.
//
// Connect wraps GORM and selects MySQL (production) or SQLite (local runs
// and tests) from the configured driver. Columns and VerifyColumns inspect
// a table after migration.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database

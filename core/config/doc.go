// Package config provides configuration management for netsync.
//
// It uses Viper to read environment variables, after loading an optional
// .env file with godotenv. Defaults come from the `default` struct tags of
// each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, request timeout
//   - Database: MySQL or SQLite connection of the SQL binding
//   - Storage: MinIO credentials and bucket for snapshots and reports
//   - Log: logging level and format
//   - Remote: system-of-record backend and retry policy
//   - Sync: run switches (dry run, create, update, cleanup, parallelism)
//   - Events: NATS report publishing
//
// The per-kind sync profile (fields to diff, exclusion globs, cleanup
// overrides) is a separate YAML file read by LoadProfile.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	profile, err := config.LoadProfile(cfg.Sync.Profile)
package config

// Package config provides configuration management for the records manager.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of every section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP port, API key, body limit and default actor
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials and the archive bucket
//   - Log: Logging level and format
//   - Redis: optional Redis for session logs and purge locks
//   - Scopus: bibliographic API endpoint, credentials and paging limits
//   - Sync: commit chunk size, session log retention and purge safeguards
//
// Environment variables map to nested keys with "_" (SYNC_CHUNK_SIZE -> sync.chunk_size).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config

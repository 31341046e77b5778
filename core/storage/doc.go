// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface, which supports both
// AWS S3 and self-hosted MinIO instances, and can be mocked in tests (core/storage/mocks).
//
// # Archive
//
// Archive binds a client to one bucket and stores whole documents:
//   - backups/  JSON and Excel exports of the academic collections
//   - diagnostics/sync/  the live log of a failed sync session
//
// # Usage
//
//	client, archive, err := storage.Open(ctx, cfg.Storage) // nil, nil, nil when disabled
//	err = archive.Put(ctx, "backups/2025-01-01.json", data, "application/json")
package storage

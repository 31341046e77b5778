package config

import (
	"time"

	"records-manager/core/commit"
)

// SyncConfig holds settings shared by every sync and restore run.
type SyncConfig struct {
	// ChunkSize is the number of writes per atomic commit group (1..500).
	ChunkSize int `mapstructure:"chunk_size" default:"500"`
	// LogTTLHours is how long Redis keeps a session log.
	LogTTLHours int `mapstructure:"log_ttl_hours" default:"24"`
	// PurgeCooldownSeconds is the minimum wait between a purge request and its confirmation.
	PurgeCooldownSeconds int `mapstructure:"purge_cooldown_seconds" default:"30"`
	// PurgeTTLSeconds is how long a purge request stays confirmable.
	PurgeTTLSeconds int `mapstructure:"purge_ttl_seconds" default:"600"`
}

// Commit returns the commit executor configuration.
func (s SyncConfig) Commit() commit.Config {
	return commit.Config{ChunkSize: s.ChunkSize}
}

// LogTTL returns the session log retention.
func (s SyncConfig) LogTTL() time.Duration {
	return time.Duration(s.LogTTLHours) * time.Hour
}

// PurgeCooldown returns the purge confirmation cooldown.
func (s SyncConfig) PurgeCooldown() time.Duration {
	return time.Duration(s.PurgeCooldownSeconds) * time.Second
}

// PurgeTTL returns the purge request lifetime.
func (s SyncConfig) PurgeTTL() time.Duration {
	return time.Duration(s.PurgeTTLSeconds) * time.Second
}

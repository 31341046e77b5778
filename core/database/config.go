package database

import "time"

// Config holds the record database connection settings.
type Config struct {
	// Driver selects the dialect: mysql or sqlite.
	Driver   string `mapstructure:"driver" default:"mysql"`
	Host     string `mapstructure:"host" default:"localhost"`
	Port     int    `mapstructure:"port" default:"3306"`
	User     string `mapstructure:"user" default:"root"`
	Password string `mapstructure:"password" default:""`
	// Name is the schema for mysql and the file path (or ":memory:") for sqlite.
	Name string `mapstructure:"name" default:"records"`
	// TimeoutSeconds bounds the connect, read and write deadlines and the startup ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxOpenConns caps the mysql pool. sqlite always uses one connection.
	MaxOpenConns int `mapstructure:"max_open_conns" default:"100"`
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"10"`
}

// Timeout returns TimeoutSeconds as a duration, 30s when unset.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

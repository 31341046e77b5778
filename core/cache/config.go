package cache

// Config holds configuration for the optional Redis connection.
type Config struct {
	// Addr is host:port of the Redis server. Empty disables Redis.
	Addr string `mapstructure:"addr" default:""`
	// Password for AUTH.
	Password string `mapstructure:"password" default:""`
	// DB is the logical database index.
	DB int `mapstructure:"db" default:"0"`
	// PoolSize is the maximum number of socket connections.
	PoolSize int `mapstructure:"pool_size" default:"10"`
	// TimeoutSeconds bounds dialing and the startup ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"5"`
}

// Enabled reports whether a Redis server is configured.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

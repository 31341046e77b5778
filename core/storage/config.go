package storage

// Config holds the S3-compatible archive settings. Storage is off unless
// Enabled is set; backups are then only offered as downloads.
type Config struct {
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is host:port or a URL; an https:// scheme implies UseSSL.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	UseSSL    bool   `mapstructure:"use_ssl" default:"false"`
	Region    string `mapstructure:"region" default:""`
	// Bucket holds backups/ and diagnostics/. It is created on first use.
	Bucket string `mapstructure:"bucket" default:"records"`
	// TimeoutSeconds bounds dialing and response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"records-manager/core/cache"
	"records-manager/core/database"
	"records-manager/core/logger"
	"records-manager/core/server"
	"records-manager/core/storage"
	"records-manager/feature/research/scopus"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the whole application configuration, one section per package.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Redis holds the optional Redis connection used for session logs and locks.
	Redis cache.Config `mapstructure:"redis"`
	// Scopus holds the bibliographic API client settings.
	Scopus scopus.Config `mapstructure:"scopus"`
	// Sync holds reconciliation and commit settings.
	Sync SyncConfig `mapstructure:"sync"`
}

// LoadConfig reads <path>/.env (when present) into the environment and then
// builds Config from environment variables over the struct tag defaults.
// SYNC_CHUNK_SIZE maps to sync.chunk_size, REDIS_ADDR to redis.addr and so on.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	registerDefaults(v, reflect.TypeOf(Config{}), "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// registerDefaults walks t and sets a viper default for every tagged leaf.
// Empty defaults are still set: AutomaticEnv only resolves keys viper knows.
func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			registerDefaults(v, f.Type, name)
			continue
		}
		v.SetDefault(name, f.Tag.Get("default"))
	}
}

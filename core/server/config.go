package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps request bodies; backup uploads are the largest payloads.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"32"`
	// DefaultActor is recorded as the actor when a request carries no X-Actor header.
	DefaultActor string `mapstructure:"default_actor" default:"system"`
}

// ActorHeader carries the acting user's identity. Authentication happens upstream.
const ActorHeader = "X-Actor"

// ListenAddr returns the address passed to fiber's Listen.
func (c Config) ListenAddr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// BodyLimit returns the request body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}

// ResolveActor picks the actor for a request, falling back to DefaultActor.
func (c Config) ResolveActor(header string) string {
	if a := strings.TrimSpace(header); a != "" {
		return a
	}
	if c.DefaultActor == "" {
		return "system"
	}
	return c.DefaultActor
}

package server_test

import (
	"testing"

	"records-manager/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ListenAddr(t *testing.T) {
	tests := []struct {
		name string
		port string
		want string
	}{
		{"Bare", "8080", ":8080"},
		{"Prefixed", ":9000", ":9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.ListenAddr())
		})
	}
}

func TestConfig_BodyLimit(t *testing.T) {
	assert.Equal(t, 4*1024*1024, server.Config{}.BodyLimit())
	assert.Equal(t, 32*1024*1024, server.Config{BodyLimitMB: 32}.BodyLimit())
}

func TestConfig_ResolveActor(t *testing.T) {
	tests := []struct {
		name   string
		cfg    server.Config
		header string
		want   string
	}{
		{"Header wins", server.Config{DefaultActor: "admin"}, "alice@ku.th", "alice@ku.th"},
		{"Blank header", server.Config{DefaultActor: "admin"}, "   ", "admin"},
		{"No default", server.Config{}, "", "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ResolveActor(tt.header))
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "db", "-s", "secret",
				"-t", "15", "-m", "w.bin", "-b", "bucket", "-e", "http://endpoint", "-r", "redis:6379",
			},
			expected: &Config{
				EndpointAddrHTTP:            "127.0.0.1:9090",
				EndpointAddrGRPC:            "127.0.0.1:9091",
				DatabaseDSN:                 "db",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 15 * time.Minute,
				ModelPath:                   "w.bin",
				S3Bucket:                    "bucket",
				S3BaseEndpoint:              "http://endpoint",
				RedisAddr:                   "redis:6379",
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"-c", "cfg.json", "-env", "x.env", "-s", "k"},
			expected: &Config{SecretKey: "k"},
		},
		{
			name:    "bad integer",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, config)
		})
	}
}

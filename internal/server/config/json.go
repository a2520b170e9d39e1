package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/flagx"
	"github.com/dmitrijs2005/deepcheck/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON configuration file.
// Zero values leave the current setting untouched.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	DatabaseName                string         `json:"database_name"`
	SecretKey                   string         `json:"secret_key"`
	TokenAlgorithm              string         `json:"token_algorithm"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3PublicURL                 string         `json:"s3_public_url"`
	ModelPath                   string         `json:"model_path"`
	ModelReloadInterval         timex.Duration `json:"model_reload_interval"`
	InferenceWorkers            int            `json:"inference_workers"`
	MaxUploadMB                 int            `json:"max_upload_mb"`
	RedisAddr                   string         `json:"redis_addr"`
	RedisPassword               string         `json:"redis_password"`
	RedisDB                     int            `json:"redis_db"`
	HistoryCacheTTL             timex.Duration `json:"history_cache_ttl"`
	RateLimitPerMinute          int            `json:"rate_limit_per_minute"`
	AllowedOrigins              []string       `json:"allowed_origins"`
	LogLevel                    string         `json:"log_level"`
	LogPath                     string         `json:"log_path"`
	GinMode                     string         `json:"gin_mode"`
}

// parseJSON overlays values from the file named by -c/-config. Without the
// flag nothing is loaded.
func parseJSON(config *Config, args []string) error {
	path := flagx.JSONConfigPath(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DatabaseName, c.DatabaseName)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenAlgorithm, c.TokenAlgorithm)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.ModelPath, c.ModelPath)
	setDuration(&config.ModelReloadInterval, c.ModelReloadInterval)
	setInt(&config.InferenceWorkers, c.InferenceWorkers)
	setInt(&config.MaxUploadMB, c.MaxUploadMB)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setDuration(&config.HistoryCacheTTL, c.HistoryCacheTTL)
	setInt(&config.RateLimitPerMinute, c.RateLimitPerMinute)
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogPath, c.LogPath)
	setString(&config.GinMode, c.GinMode)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

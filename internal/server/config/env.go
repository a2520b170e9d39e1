package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// loadDotEnv exports variables from the file named by -env, or from ./.env
// when present. Variables already set in the process environment win.
// A missing default file is not an error; a missing explicit one is.
func loadDotEnv(args []string) error {
	path := flagx.EnvFilePath(args)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays settings from environment variables.
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.str("HTTP_ADDR", &c.EndpointAddrHTTP)
	e.str("GRPC_ADDR", &c.EndpointAddrGRPC)
	e.str("DATABASE_DSN", &c.DatabaseDSN)
	e.str("DB_NAME", &c.DatabaseName)
	e.str("SECRET_KEY", &c.SecretKey)
	e.str("ALGORITHM", &c.TokenAlgorithm)
	e.minutes("ACCESS_TOKEN_EXPIRE_MINUTES", &c.AccessTokenValidityDuration)
	e.str("S3_ACCESS_KEY", &c.S3RootUser)
	e.str("S3_SECRET_KEY", &c.S3RootPassword)
	e.str("S3_BUCKET", &c.S3Bucket)
	e.str("S3_REGION", &c.S3Region)
	e.str("S3_ENDPOINT", &c.S3BaseEndpoint)
	e.str("S3_PUBLIC_URL", &c.S3PublicURL)
	e.str("MODEL_PATH", &c.ModelPath)
	e.duration("MODEL_RELOAD_INTERVAL", &c.ModelReloadInterval)
	e.int("INFERENCE_WORKERS", &c.InferenceWorkers)
	e.int("MAX_UPLOAD_MB", &c.MaxUploadMB)
	e.str("REDIS_ADDR", &c.RedisAddr)
	e.str("REDIS_PASSWORD", &c.RedisPassword)
	e.int("REDIS_DB", &c.RedisDB)
	e.duration("HISTORY_CACHE_TTL", &c.HistoryCacheTTL)
	e.int("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	e.list("ALLOWED_ORIGINS", &c.AllowedOrigins)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.str("LOG_PATH", &c.LogPath)
	e.str("GIN_MODE", &c.GinMode)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (e *envReader) minutes(key string, dst *time.Duration) {
	n := -1
	e.int(key, &n)
	if n >= 0 {
		*dst = time.Duration(n) * time.Minute
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "CLIPSHARE_"

// dotEnvFile is loaded before the environment is read, when it exists.
var dotEnvFile = ".env"

// loadDotEnv is a seam for godotenv.Load. Variables already present in the
// process environment win over the file.
var loadDotEnv = godotenv.Load

// parseEnv overlays config with CLIPSHARE_* environment variables, after
// loading .env when present. Malformed numbers, booleans or durations panic.
//
//	CLIPSHARE_HTTP_ADDR, CLIPSHARE_GRPC_ADDR, CLIPSHARE_DATABASE_DSN,
//	CLIPSHARE_SECRET_KEY, CLIPSHARE_TOKEN_TTL, CLIPSHARE_BCRYPT_COST,
//	CLIPSHARE_UNIFORM_AUTH_ERRORS, CLIPSHARE_S3_ACCESS_KEY,
//	CLIPSHARE_S3_SECRET_KEY, CLIPSHARE_S3_BUCKET, CLIPSHARE_S3_REGION,
//	CLIPSHARE_S3_ENDPOINT, CLIPSHARE_S3_PATH_STYLE, CLIPSHARE_S3_PUBLIC_URL,
//	CLIPSHARE_UPLOAD_TIMEOUT, CLIPSHARE_MAX_UPLOAD_BYTES, CLIPSHARE_REDIS_ADDR,
//	CLIPSHARE_CACHE_TTL, CLIPSHARE_AMQP_URL, CLIPSHARE_AMQP_EXCHANGE,
//	CLIPSHARE_LOG_LEVEL
func parseEnv(config *Config) {
	if _, err := os.Stat(dotEnvFile); err == nil {
		if err := loadDotEnv(dotEnvFile); err != nil {
			panic(fmt.Errorf("load %s: %w", dotEnvFile, err))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	envString("HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("TOKEN_TTL", &config.TokenValidityDuration)
	envInt("BCRYPT_COST", &config.BcryptCost)
	envBool("UNIFORM_AUTH_ERRORS", &config.UniformAuthErrors)
	envString("S3_ACCESS_KEY", &config.S3RootUser)
	envString("S3_SECRET_KEY", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_ENDPOINT", &config.S3BaseEndpoint)
	envBool("S3_PATH_STYLE", &config.S3UsePathStyle)
	envString("S3_PUBLIC_URL", &config.S3PublicURL)
	envDuration("UPLOAD_TIMEOUT", &config.UploadTimeout)
	envInt64("MAX_UPLOAD_BYTES", &config.MaxUploadBytes)
	envString("REDIS_ADDR", &config.RedisAddr)
	envDuration("CACHE_TTL", &config.CacheTTL)
	envString("AMQP_URL", &config.AMQPURL)
	envString("AMQP_EXCHANGE", &config.AMQPExchange)
	envString("LOG_LEVEL", &config.LogLevel)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("invalid int for %s%s: %q", EnvPrefix, key, v))
	}
	*dst = n
}

func envInt64(key string, dst *int64) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(fmt.Errorf("invalid int for %s%s: %q", EnvPrefix, key, v))
	}
	*dst = n
}

func envBool(key string, dst *bool) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Errorf("invalid bool for %s%s: %q", EnvPrefix, key, v))
	}
	*dst = b
}

func envDuration(key string, dst *time.Duration) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("invalid duration for %s%s: %q", EnvPrefix, key, v))
	}
	*dst = d
}

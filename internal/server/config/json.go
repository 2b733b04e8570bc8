package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/clipshare/internal/flagx"
	"github.com/dmitrijs2005/clipshare/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from an explicit false.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	BcryptCost            int            `json:"bcrypt_cost"`
	UniformAuthErrors     *bool          `json:"uniform_auth_errors"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3UsePathStyle        *bool          `json:"s3_use_path_style"`
	S3PublicURL           string         `json:"s3_public_url"`
	UploadTimeout         timex.Duration `json:"upload_timeout"`
	MaxUploadBytes        int64          `json:"max_upload_bytes"`
	RedisAddr             string         `json:"redis_addr"`
	CacheTTL              timex.Duration `json:"cache_ttl"`
	AMQPURL               string         `json:"amqp_url"`
	AMQPExchange          string         `json:"amqp_exchange"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays config with the JSON file named by -c/-config.
// Keys missing from the file leave the current value untouched. The function
// panics when the file cannot be read or parsed.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.UniformAuthErrors != nil {
		config.UniformAuthErrors = *c.UniformAuthErrors
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	setString(&config.S3PublicURL, c.S3PublicURL)
	if c.UploadTimeout.Duration > 0 {
		config.UploadTimeout = c.UploadTimeout.Duration
	}
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	setString(&config.RedisAddr, c.RedisAddr)
	if c.CacheTTL.Duration > 0 {
		config.CacheTTL = c.CacheTTL.Duration
	}
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPExchange, c.AMQPExchange)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

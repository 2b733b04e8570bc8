package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/flagx"
)

var valueFlags = []string{
	"-a", "-g", "-d", "-s", "-t", "-k",
	"-u", "-p", "-b", "-r", "-e", "-public-url",
	"-upload-timeout", "-max-upload",
	"-redis", "-cache-ttl", "-amqp", "-amqp-exchange", "-log-level",
}

var boolFlags = []string{"-uniform-auth-errors", "-path-style"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC health bind address (e.g. ":50051")
//	-d string     PostgreSQL DSN, or "memory"
//	-s string     JWT HMAC secret key
//	-t int        token validity, minutes
//	-k int        bcrypt cost
//	-uniform-auth-errors   one message for unknown user and bad password
//	-u string     S3 access key
//	-p string     S3 secret key
//	-b string     S3 bucket
//	-r string     S3 region
//	-e string     S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-path-style   S3 path-style addressing
//	-public-url string      base URL used to build media URLs
//	-upload-timeout dur     bound for a single proxied upload
//	-max-upload int         maximum upload size, bytes
//	-redis string           Redis address for the listing cache
//	-cache-ttl dur          listing cache TTL
//	-amqp string            AMQP URL for domain events
//	-amqp-exchange string   AMQP exchange name
//	-log-level string       debug, info, warn or error
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// layers (-c/-config) do not break parsing. Parse errors panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], valueFlags, boolFlags...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity duration (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.UniformAuthErrors, "uniform-auth-errors", config.UniformAuthErrors, "same error for unknown user and wrong password")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.S3UsePathStyle, "path-style", config.S3UsePathStyle, "S3 path-style addressing")
	fs.StringVar(&config.S3PublicURL, "public-url", config.S3PublicURL, "public base URL for media")

	fs.DurationVar(&config.UploadTimeout, "upload-timeout", config.UploadTimeout, "upload timeout")
	fs.Int64Var(&config.MaxUploadBytes, "max-upload", config.MaxUploadBytes, "max upload size (bytes)")

	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.DurationVar(&config.CacheTTL, "cache-ttl", config.CacheTTL, "listing cache TTL")
	fs.StringVar(&config.AMQPURL, "amqp", config.AMQPURL, "AMQP URL")
	fs.StringVar(&config.AMQPExchange, "amqp-exchange", config.AMQPExchange, "AMQP exchange")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}

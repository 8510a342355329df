package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          gRPC bind address (e.g., ":50051")
//	-w string          HTTP gateway bind address (e.g., ":8080")
//	-store string      store backend: memory, postgres, redis, s3
//	-d string          PostgreSQL DSN
//	-redis string      redis address
//	-s string          shared secret for privileged operations
//	-t int             admin token validity, minutes
//	-k float           accrual rate constant
//	-i float           default rate increase step
//	-l int             rate increase cooldown, milliseconds
//	-reset-at string   daily reset boundary, HH:MM
//	-reset-tz string   IANA zone of the reset boundary
//	-reset-check dur   catch-up check interval (e.g., "1m")
//	-u string          S3 root user
//	-p string          S3 root password
//	-b string          S3 bucket name
//	-g string          S3 region
//	-e string          S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Only the flags listed here are picked out of os.Args with flagx.FilterArgs,
// so flags meant for other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-w", "-store", "-d", "-redis", "-s", "-t", "-k", "-i", "-l",
		"-reset-at", "-reset-tz", "-reset-check", "-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "address and port to run HTTP gateway")
	fs.StringVar(&config.StoreBackend, "store", config.StoreBackend, "store backend (memory, postgres, redis, s3)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	adminTokenValidityDuration := fs.Int("t", int(config.AdminTokenValidityDuration.Minutes()), "admin_token_validity_duration (in minutes)")

	fs.Float64Var(&config.AccrualRateConstant, "k", config.AccrualRateConstant, "accrual rate constant")
	fs.Float64Var(&config.RateIncreaseStep, "i", config.RateIncreaseStep, "default rate increase step")
	rateIncreaseCooldown := fs.Int64("l", config.RateIncreaseCooldown.Milliseconds(), "rate increase cooldown (in milliseconds)")

	fs.StringVar(&config.ResetAt, "reset-at", config.ResetAt, "daily reset boundary (HH:MM)")
	fs.StringVar(&config.ResetTimezone, "reset-tz", config.ResetTimezone, "reset boundary time zone")
	fs.DurationVar(&config.ResetCheckInterval, "reset-check", config.ResetCheckInterval, "missed reset check interval")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AdminTokenValidityDuration = time.Duration(*adminTokenValidityDuration) * time.Minute
	config.RateIncreaseCooldown = time.Duration(*rateIncreaseCooldown) * time.Millisecond
}

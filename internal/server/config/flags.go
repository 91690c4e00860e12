package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/flagx"
)

// flagNames lists every flag parseFlags owns.
var flagNames = []string{
	"a", "m", "d", "s", "i", "u", "t", "r", "w", "y",
	"redis", "nats", "log-level", "log-format",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          gRPC bind address (e.g., ":50051")
//	-m string          metrics bind address; empty disables the endpoint
//	-d string          PostgreSQL DSN or "memory"
//	-s string          JWT HMAC secret key
//	-i string          JWT issuer
//	-u string          JWT audience
//	-t int             access token validity, minutes
//	-r int             refresh token validity, days
//	-w duration        sweep interval (e.g., "1h")
//	-y duration        sweep retry interval after a failure (e.g., "5m")
//	-redis string      redis address for the sweep lease
//	-nats string       NATS URL for lifecycle events
//	-log-level string  debug, info, warn or error
//	-log-format string text or json
//
// os.Args is filtered to the flags above first using flagx.FilterArgs, so
// subcommand names and the -c/-config flag do not collide.
func parseFlags(config *Config) error {
	allowed := make([]string, 0, 2*len(flagNames))
	for _, n := range flagNames {
		allowed = append(allowed, "-"+n, "--"+n)
	}
	args := flagx.FilterArgs(os.Args[1:], allowed)

	fs := flag.NewFlagSet("bankauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for the metrics endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "access token issuer")
	fs.StringVar(&config.Audience, "u", config.Audience, "access token audience")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Hours()/24), "refresh token validity (in days)")

	fs.DurationVar(&config.SweepInterval, "w", config.SweepInterval, "sweep interval")
	fs.DurationVar(&config.SweepRetryInterval, "y", config.SweepRetryInterval, "sweep retry interval")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for the sweep lease")
	fs.StringVar(&config.NatsURL, "nats", config.NatsURL, "NATS URL for lifecycle events")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only overwrite when given, so sub-minute / sub-day values from a file survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * 24 * time.Hour
		}
	})

	return nil
}

// Package cmd holds the environment-variable configuration shared by the
// module's command-line entry points, adapted from the teacher's own
// cmd.Config/GetConfigFromEnvironment.
package cmd

import (
	"os"
	"strconv"
	"time"
)

// Config holds the configuration values forwarderd reads from the
// environment.
type Config struct {
	ListenAddress string

	ActivityTimeout time.Duration
	ClientTimeout   time.Duration

	InsecureSkipVerify bool

	HealthCheckInterval time.Duration

	UseDefaultForwardedHeaders bool

	MetricsAddress string

	RateLimitRequestsPerSecond float64
	RateLimitBurst             int
}

// GetConfigFromEnvironment builds a Config from the process environment.
func GetConfigFromEnvironment() *Config {
	return &Config{
		ListenAddress: env("LISTEN_ADDRESS", ":8080"),

		ActivityTimeout: envDuration("ACTIVITY_TIMEOUT", 60*time.Second),
		ClientTimeout:   envDuration("CLIENT_TIMEOUT", 0),

		InsecureSkipVerify: envBool("INSECURE_SKIP_VERIFY", false),

		HealthCheckInterval: envDuration("HEALTH_CHECK_INTERVAL", 10*time.Second),

		UseDefaultForwardedHeaders: envBool("USE_FORWARDED_HEADERS", true),

		MetricsAddress: env("METRICS_ADDRESS", ":9090"),

		RateLimitRequestsPerSecond: envFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:             envInt("RATE_LIMIT_BURST", 0),
	}
}

func env(key string, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return def
}

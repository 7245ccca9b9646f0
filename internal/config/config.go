package config

import (
	"time"

	"github.com/spf13/viper"
)

// Environment selects how the webhook endpoint is resolved
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds everything the submission pipeline needs from the outside
type Config struct {
	Env        Environment
	WebhookURL string
	// ProxyPath is the local indirection used in development so the browser
	// form and the pipeline hit the same origin
	ProxyPath string
	Timeout   time.Duration
}

// Load reads configuration from .env (when present) and environment
// variables. Missing values fall back to development defaults.
func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", string(EnvDevelopment))
	v.SetDefault("WEBHOOK_URL", "")
	v.SetDefault("WEBHOOK_PROXY_PATH", "/api/webhook")
	v.SetDefault("WEBHOOK_TIMEOUT", "30s")

	// .env is optional; environment variables alone are fine
	_ = v.ReadInConfig()

	env := Environment(v.GetString("APP_ENV"))
	if env != EnvProduction {
		env = EnvDevelopment
	}

	timeout := v.GetDuration("WEBHOOK_TIMEOUT")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Config{
		Env:        env,
		WebhookURL: v.GetString("WEBHOOK_URL"),
		ProxyPath:  v.GetString("WEBHOOK_PROXY_PATH"),
		Timeout:    timeout,
	}
}

// Endpoint resolves the URL the delivery client should post to. Development
// goes through the local proxy path; production hits the webhook directly.
func (c *Config) Endpoint() string {
	if c.Env == EnvDevelopment && c.ProxyPath != "" {
		return c.ProxyPath
	}
	return c.WebhookURL
}

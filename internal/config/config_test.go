package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/htconfort/facturation/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, config.EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/webhook", cfg.ProxyPath)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/invoice")
	t.Setenv("WEBHOOK_TIMEOUT", "10s")

	cfg := config.Load()

	assert.Equal(t, config.EnvProduction, cfg.Env)
	assert.Equal(t, "https://hooks.example.com/invoice", cfg.WebhookURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestLoad_UnknownEnvFallsBackToDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "staging")

	cfg := config.Load()

	assert.Equal(t, config.EnvDevelopment, cfg.Env)
}

func TestEndpoint_DevelopmentUsesProxy(t *testing.T) {
	cfg := &config.Config{
		Env:        config.EnvDevelopment,
		WebhookURL: "https://hooks.example.com/invoice",
		ProxyPath:  "/api/webhook",
	}

	assert.Equal(t, "/api/webhook", cfg.Endpoint())
}

func TestEndpoint_ProductionGoesDirect(t *testing.T) {
	cfg := &config.Config{
		Env:        config.EnvProduction,
		WebhookURL: "https://hooks.example.com/invoice",
		ProxyPath:  "/api/webhook",
	}

	assert.Equal(t, "https://hooks.example.com/invoice", cfg.Endpoint())
}

func TestEndpoint_DevelopmentWithoutProxyFallsBack(t *testing.T) {
	cfg := &config.Config{
		Env:        config.EnvDevelopment,
		WebhookURL: "https://hooks.example.com/invoice",
	}

	assert.Equal(t, "https://hooks.example.com/invoice", cfg.Endpoint())
}

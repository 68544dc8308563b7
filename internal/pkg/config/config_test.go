package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "crownshift", cfg.Mongo.Database)
	assert.Equal(t, 7*24*time.Hour, cfg.Invoice.LinkTTL)
	assert.Equal(t, "0.16", cfg.Invoice.VATRate.String())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"KAFKA_BROKERS":    "a:9092,b:9092",
		"INVOICE_VAT_RATE": "0.2",
		"MPESA_ENV":        "production",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0.2", cfg.Invoice.VATRate.String())
	assert.Equal(t, "production", cfg.Mpesa.Env)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Env: "production", JWTSecret: "short"}).Validate())
	assert.NoError(t, (&Config{Env: "production", JWTSecret: "0123456789abcdef0123456789abcdef"}).Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nPORT=9090\n"), 0o600))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("PORT")

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

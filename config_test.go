package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "APP_ENV", "PRODUCT_BACKEND", "DDB_TABLE_PRODUCTS", "REDIS_URL",
		"AWS_ENDPOINT", "AWS_S3_ENDPOINT", "AWS_S3_BUCKET", "STATIC_DATA_URL",
		"CATALOG_CACHE_TTL", "SESSION_TTL", "JWT_SECRET", "AWS_USE_SECRETS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, BackendDynamo, cfg.ProductBackend)
	assert.Equal(t, "AffiliateProducts", cfg.DynamoTable)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PRODUCT_BACKEND", "Local")
	t.Setenv("AWS_ENDPOINT", "http://localstack:4566")
	t.Setenv("STATIC_DATA_URL", "https://static.example/data/")
	t.Setenv("CATALOG_CACHE_TTL", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.ProductBackend)
	assert.Equal(t, "http://localstack:4566", cfg.S3Endpoint, "S3 endpoint falls back to AWS_ENDPOINT")
	assert.Equal(t, "https://static.example/data", cfg.StaticDataURL)
	assert.Equal(t, 90*time.Second, cfg.CatalogCacheTTL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PRODUCT_BACKEND", "postgres")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "PRODUCT_BACKEND")
}

type fakeSecrets map[string]string

func (f fakeSecrets) Lookup(_ context.Context, keys ...string) map[string]string {
	found := map[string]string{}
	for _, k := range keys {
		if v, ok := f[k]; ok {
			found[k] = v
		}
	}
	return found
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{JWTSecret: "from-env", AdminPasscode: "env-pass"}

	applySecrets(context.Background(), cfg, fakeSecrets{"JWT_SECRET": "from-sm"})

	assert.Equal(t, "from-sm", cfg.JWTSecret)
	assert.Equal(t, "env-pass", cfg.AdminPasscode, "missing secrets keep the env value")
}

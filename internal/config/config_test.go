package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TRENDING_TTL", "not-a-duration")
	t.Setenv("FOLLOW_RETRIES", "5")
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com, ,ops@example.com")

	cfg := Load()
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, time.Minute, cfg.TrendingTTL)
	assert.Equal(t, 5, cfg.FollowRetries)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, []string{"admin@example.com", "ops@example.com"}, cfg.AdminEmailList())
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	cfg := Load()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--store=memory", "-p", "7000", "--trending-ttl=0s"}))

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "7000", cfg.Port)
	assert.Zero(t, cfg.TrendingTTL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Store: StoreMemory}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.MigrateOnly = true
	assert.Error(t, cfg.Validate())

	cfg = &Config{JWTSecret: "secret", Store: StorePostgres}
	assert.Error(t, cfg.Validate(), "postgres needs a password")

	cfg.Store = "redis"
	assert.Error(t, cfg.Validate())
}

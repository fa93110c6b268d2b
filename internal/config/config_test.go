package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromProfiles(t *testing.T) {
	cases := []struct {
		env    string
		want   Profile
		ttl    time.Duration
		cost   int
		debug  bool
		secret string
	}{
		{env: "development", want: Development, ttl: 15 * time.Minute, cost: 4, debug: true},
		{env: "testing", want: Testing, ttl: 0, cost: 4},
		{env: "production", want: Production, ttl: time.Hour, cost: 13, secret: "s3cr3t"},
		{env: "staging", want: Production, ttl: time.Hour, cost: 13, secret: "s3cr3t"},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			v := viper.New()
			v.Set("app_env", tc.env)
			if tc.secret != "" {
				v.Set("jwt_secret", tc.secret)
			}
			cfg, err := LoadFrom(v)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Env)
			assert.Equal(t, tc.ttl, cfg.TokenTTL)
			assert.Equal(t, tc.cost, cfg.BcryptCost)
			assert.Equal(t, tc.debug, cfg.Debug)
			assert.Equal(t, "5000", cfg.Port)
		})
	}
}

func TestLoadFromProductionRequiresSecret(t *testing.T) {
	v := viper.New()
	v.Set("app_env", "production")
	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadFromTokenExpiryOverride(t *testing.T) {
	v := viper.New()
	v.Set("app_env", "development")
	v.Set("token_expire_hours", 2)
	v.Set("token_expire_minutes", 30)
	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour+30*time.Minute, cfg.TokenTTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_PORT", "8088")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CACHE_METHODS", "get, head")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Testing, cfg.Env)
	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "cache.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Cache.Methods)
	assert.False(t, cfg.Audit.ConsumerEnabled)
	assert.Equal(t, "robot_management.audit", cfg.Audit.Queue)
}

func TestRateLimitNormalized(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: time.Second}.normalized()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
}

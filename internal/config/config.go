package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Profile selects a group of defaults.  The profile is read from APP_ENV and
// unknown values fall back to Production.
type Profile string

const (
	Development Profile = "development"
	Testing     Profile = "testing"
	Production  Profile = "production"
)

// defaultSecret is only accepted outside of production.
const defaultSecret = "open sesame"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; the nested structs group the optional Redis,
// rate limit, cache and audit queue settings.
type Config struct {
	Env        Profile       // selected profile
	Debug      bool          // echo debug mode
	Port       string        // HTTP port to listen on
	DBUser     string        // database username
	DBPass     string        // database password (optional)
	DBHost     string        // database host address
	DBPort     string        // database port number
	DBName     string        // database name
	JWTSecret  string        // secret used to sign access tokens
	TokenTTL   time.Duration // access token lifetime, zero means tokens never expire
	BcryptCost int           // bcrypt cost for password hashing
	LogLevel   string        // zap level name
	LogFormat  string        // json or console

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Audit     AuditConfig
}

// AuditConfig describes where audit events are published and whether this
// process also consumes them.
type AuditConfig struct {
	AMQPURL         string // broker url; empty disables publishing
	Queue           string // durable queue name
	ConsumerEnabled bool   // start the background consumer in the server
	LogDir          string // directory receiving audit.log
}

// profileDefaults mirrors the per-environment settings: development issues
// short lived tokens with a cheap hash, production one hour tokens with a
// strong hash, and testing tokens that never expire.
func profileDefaults(v *viper.Viper, p Profile) {
	switch p {
	case Development:
		v.SetDefault("debug", true)
		v.SetDefault("token_expire_hours", 0)
		v.SetDefault("token_expire_minutes", 15)
		v.SetDefault("bcrypt_cost", 4)
		v.SetDefault("jwt_secret", defaultSecret)
		v.SetDefault("log_format", "console")
		v.SetDefault("log_level", "debug")
	case Testing:
		v.SetDefault("debug", false)
		v.SetDefault("token_expire_hours", 0)
		v.SetDefault("token_expire_minutes", 0)
		v.SetDefault("bcrypt_cost", 4)
		v.SetDefault("jwt_secret", defaultSecret)
		v.SetDefault("log_format", "console")
		v.SetDefault("log_level", "warn")
	default:
		v.SetDefault("debug", false)
		v.SetDefault("token_expire_hours", 1)
		v.SetDefault("token_expire_minutes", 0)
		v.SetDefault("bcrypt_cost", 13)
		v.SetDefault("log_format", "json")
		v.SetDefault("log_level", "info")
	}
}

// ParseProfile maps an APP_ENV value to a Profile.
func ParseProfile(s string) Profile {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case Development:
		return Development
	case Testing:
		return Testing
	default:
		return Production
	}
}

// Load reads the process environment.  Callers that want a .env file loaded
// should call godotenv.Load first.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return LoadFrom(v)
}

// LoadFrom builds a Config from an existing viper instance.  Keys are the
// lower-cased environment variable names.
func LoadFrom(v *viper.Viper) (Config, error) {
	env := ParseProfile(v.GetString("app_env"))
	profileDefaults(v, env)

	v.SetDefault("app_port", "5000")
	v.SetDefault("db_user", "root")
	v.SetDefault("db_host", "127.0.0.1")
	v.SetDefault("db_port", "3306")
	v.SetDefault("db_name", "robot_management")

	cfg := Config{
		Env:        env,
		Debug:      v.GetBool("debug"),
		Port:       v.GetString("app_port"),
		DBUser:     v.GetString("db_user"),
		DBPass:     v.GetString("db_pass"),
		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBName:     v.GetString("db_name"),
		JWTSecret:  v.GetString("jwt_secret"),
		BcryptCost: v.GetInt("bcrypt_cost"),
		LogLevel:   v.GetString("log_level"),
		LogFormat:  v.GetString("log_format"),
		TokenTTL: time.Duration(v.GetInt("token_expire_hours"))*time.Hour +
			time.Duration(v.GetInt("token_expire_minutes"))*time.Minute,
		Redis:     loadRedisConfig(v),
		RateLimit: loadRateLimitConfig(v),
		Cache:     loadCacheConfig(v),
		Audit:     loadAuditConfig(v),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("missing required env var: JWT_SECRET")
	}
	if cfg.TokenTTL < 0 {
		return Config{}, fmt.Errorf("token expiry must not be negative, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}

func loadAuditConfig(v *viper.Viper) AuditConfig {
	v.SetDefault("audit_queue", "robot_management.audit")
	v.SetDefault("audit_consumer_enabled", false)
	v.SetDefault("audit_log_dir", "logs")
	return AuditConfig{
		AMQPURL:         v.GetString("amqp_url"),
		Queue:           v.GetString("audit_queue"),
		ConsumerEnabled: v.GetBool("audit_consumer_enabled"),
		LogDir:          v.GetString("audit_log_dir"),
	}
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer        string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience      string   `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey    string   `mapstructure:"AUTH_SIGNING_KEY"`
	DefaultTenant     string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `mapstructure:"RATE_LIMIT_BURST"`
	NoteCooldownMins  int      `mapstructure:"NOTE_COOLDOWN_MINS"`
	HomeworkMaxBytes  int64    `mapstructure:"HOMEWORK_MAX_BYTES"`
	SessionResetHours int      `mapstructure:"SESSION_RESET_HOURS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("NOTE_COOLDOWN_MINS", 15)
	v.SetDefault("HOMEWORK_MAX_BYTES", 25*1024*1024)
	v.SetDefault("SESSION_RESET_HOURS", 24)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("DEFAULT_TENANT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("NOTE_COOLDOWN_MINS")
	v.BindEnv("HOMEWORK_MAX_BYTES")
	v.BindEnv("SESSION_RESET_HOURS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ==========================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
		log.Println("WARNING: Set ENV=production and configure AUTH_SIGNING_KEY or")
		log.Println("WARNING: AUTH_ISSUER before deploying.")
		log.Println("WARNING: ==========================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NoteCooldown returns the verification cooldown applied to session-note
// viewing. A verification older than this forces re-verification.
func (c *Config) NoteCooldown() time.Duration {
	mins := c.NoteCooldownMins
	if mins <= 0 {
		mins = 15
	}
	return time.Duration(mins) * time.Minute
}

// ResetWindow returns how long after a session's scheduled time a
// manager/admin may still reset its status back to SCHEDULED.
func (c *Config) ResetWindow() time.Duration {
	hours := c.SessionResetHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Validate checks that the configuration is safe to run. Outside of
// development either a shared signing key or an external issuer must be
// configured so that real JWT authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_SIGNING_KEY or AUTH_ISSUER must be set when ENV=%q; "+
				"refusing to start without authentication configuration", c.Env)
	}
	if c.NoteCooldownMins < 0 {
		return fmt.Errorf("NOTE_COOLDOWN_MINS must not be negative, got %d", c.NoteCooldownMins)
	}
	if c.HomeworkMaxBytes <= 0 {
		return fmt.Errorf("HOMEWORK_MAX_BYTES must be positive, got %d", c.HomeworkMaxBytes)
	}
	return nil
}

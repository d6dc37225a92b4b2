package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 4500
	defaultEnv        = "development"
)

// Environment variable names. Env values override the YAML file so the same
// binary can run against hosted credentials without a config file at all.
const (
	EnvDatabaseDSN   = "GC_DATABASE_DSN"
	EnvDatabaseURL   = "GC_DATABASE_URL"
	EnvServiceKey    = "GC_SERVICE_KEY"
	EnvRedisURL      = "GC_REDIS_URL"
	EnvAdminPassword = "GC_ADMIN_PASSWORD"
	EnvCookieSecure  = "GC_COOKIE_SECURE"
	EnvJWTSecret     = "GC_JWT_SECRET"
	EnvComponentsDir = "GC_COMPONENTS_DIR"
)

// AppConfig holds runtime startup configuration loaded from YAML plus env.
type AppConfig struct {
	Port           int      `yaml:"port"`
	DSN            string   `yaml:"dsn"` // MySQL DSN
	DatabaseURL    string   `yaml:"database_url"`
	ServiceKey     string   `yaml:"service_key"`
	RedisURL       string   `yaml:"redis_url"`
	Env            string   `yaml:"env"` // "development" | "production"
	AllowedOrigins []string `yaml:"allowed_origins"`
	JWTSecret      string   `yaml:"jwt_secret"`
	AdminPassword  string   `yaml:"admin_password"` // plain or bcrypt hash
	CookieSecure   *bool    `yaml:"cookie_secure"`
	ComponentsDir  string   `yaml:"components_dir"`
	Paths          Paths    `yaml:"paths"`
}

// Paths configures on-disk locations.
type Paths struct {
	Logs string `yaml:"logs"`
}

// Load reads the YAML config file (if present) and applies env overrides.
// A missing file is not an error: everything can come from the environment.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{Port: defaultPort, Env: defaultEnv}

	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServiceKey)); v != "" {
		cfg.ServiceKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisURL)); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv(EnvAdminPassword); v != "" {
		cfg.AdminPassword = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvComponentsDir)); v != "" {
		cfg.ComponentsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCookieSecure)); v != "" {
		secure := parseBoolOr(v, false)
		cfg.CookieSecure = &secure
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("GC_ENV")); v != "" {
		cfg.Env = v
	}
}

func (c *AppConfig) normalize() {
	if c.Port <= 0 {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	// The hosted store is addressed either by a raw DSN or by URL+key.
	if c.DSN == "" && c.DatabaseURL != "" {
		c.DSN = dsnFromURL(c.DatabaseURL, c.ServiceKey)
	}
	if c.ComponentsDir == "" {
		c.ComponentsDir = "components"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// CookieSecureEnabled resolves the cookie secure flag; defaults to true in
// production and false in development.
func (c *AppConfig) CookieSecureEnabled() bool {
	if c.CookieSecure != nil {
		return *c.CookieSecure
	}
	return !c.IsDev()
}

// HasStoreCredentials reports whether enough is configured to reach the store.
func (c *AppConfig) HasStoreCredentials() bool {
	return strings.TrimSpace(c.DSN) != ""
}

// dsnFromURL converts a "mysql://user@host:port/db" style URL plus a service
// key (used as the password) into a driver DSN.
func dsnFromURL(raw, key string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "mysql://")
	user := "root"
	hostAndDB := trimmed
	if at := strings.LastIndex(trimmed, "@"); at >= 0 {
		user = trimmed[:at]
		hostAndDB = trimmed[at+1:]
	}
	host := hostAndDB
	db := ""
	if slash := strings.Index(hostAndDB, "/"); slash >= 0 {
		host = hostAndDB[:slash]
		db = hostAndDB[slash+1:]
	}
	cred := user
	if key != "" {
		cred = user + ":" + key
	}
	return fmt.Sprintf("%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", cred, host, db)
}

func parseBoolOr(raw string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

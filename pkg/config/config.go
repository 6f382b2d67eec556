package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// StoreConfig selects the backing store for entities and relationships.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs caching of derived relationship views.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

type JWTConfig struct {
	Enabled   bool
	Secret    string
	Issuer    string
	Expiry    time.Duration
	Operators []Operator
}

// Operator is an account allowed to exchange a password for an access token.
// PasswordHash is a bcrypt hash.
type Operator struct {
	Email        string
	Role         string
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{Driver: strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER")))}
	switch cfg.Store.Driver {
	case StoreMemory, StorePostgres:
	default:
		return nil, errors.New("STORE_DRIVER must be one of memory, postgres")
	}

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	switch cfg.Database.Driver {
	case "postgres", "pgx":
	default:
		return nil, errors.New("DB_DRIVER must be one of postgres, pgx")
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
		Prefix:  v.GetString("CACHE_PREFIX"),
	}

	cfg.JWT = JWTConfig{
		Enabled: v.GetBool("AUTH_ENABLED"),
		Secret:  v.GetString("JWT_SECRET"),
		Issuer:  v.GetString("JWT_ISSUER"),
		Expiry:  parseDuration(v.GetString("JWT_EXPIRY"), time.Hour),
	}
	operators, err := parseOperators(v.GetString("AUTH_OPERATORS"))
	if err != nil {
		return nil, err
	}
	cfg.JWT.Operators = operators
	if cfg.JWT.Enabled && cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required when AUTH_ENABLED=true")
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("METRICS_ENABLED"),
		Path:    v.GetString("METRICS_PATH"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_DRIVER", StoreMemory)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_roster")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_PREFIX", "roster")

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "sma-roster-api")
	v.SetDefault("JWT_EXPIRY", "1h")
	v.SetDefault("AUTH_OPERATORS", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseOperators reads "email:ROLE:bcrypt-hash" entries separated by commas.
func parseOperators(raw string) ([]Operator, error) {
	var operators []Operator
	for _, entry := range splitAndTrim(raw) {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("AUTH_OPERATORS entry %q must be email:ROLE:hash", entry)
		}
		operators = append(operators, Operator{
			Email:        strings.ToLower(strings.TrimSpace(parts[0])),
			Role:         strings.ToUpper(strings.TrimSpace(parts[1])),
			PasswordHash: strings.TrimSpace(parts[2]),
		})
	}
	return operators, nil
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

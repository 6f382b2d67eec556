package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, value := range overrides {
		v.Set(key, value)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.JWT.Enabled)
	assert.Empty(t, cfg.JWT.Secret)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{
		"STORE_DRIVER":    " Postgres ",
		"CACHE_ENABLED":   true,
		"CACHE_TTL":       "not-a-duration",
		"ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]interface{}{"STORE_DRIVER": "sqlite"}))
	assert.Error(t, err)
}

func TestFromViperRequiresSecretWhenAuthEnabled(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]interface{}{"AUTH_ENABLED": true, "JWT_SECRET": ""}))
	assert.Error(t, err)
}

func TestFromViperDatabaseDriver(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{"DB_DRIVER": "PGX", "JWT_EXPIRY": "15m"}))
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.JWT.Expiry)

	_, err = fromViper(newTestViper(map[string]interface{}{"DB_DRIVER": "mysql"}))
	assert.Error(t, err)
}

func TestFromViperOperators(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{
		"AUTH_OPERATORS": "Admin@School.id:admin:$2a$10$abcdefghijklmnopqrstuv, ops@school.id:SUPERADMIN:$2a$10$zyx",
	}))
	require.NoError(t, err)
	require.Len(t, cfg.JWT.Operators, 2)
	assert.Equal(t, "admin@school.id", cfg.JWT.Operators[0].Email)
	assert.Equal(t, "ADMIN", cfg.JWT.Operators[0].Role)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", cfg.JWT.Operators[0].PasswordHash)
	assert.Equal(t, "SUPERADMIN", cfg.JWT.Operators[1].Role)

	_, err = fromViper(newTestViper(map[string]interface{}{"AUTH_OPERATORS": "admin@school.id:ADMIN"}))
	assert.Error(t, err)
}

func TestLoadRequiresSecretFromEnvironment(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "from-env")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
server:
  address: ":9000"
database:
  host: db
  user: u
  password: p
  dbname: shop
jwt:
  secret: s3cret
app:
  timezone: Africa/Cairo
`))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/shop?sslmode=disable", cfg.Database.MigrateURL())
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL())
	assert.Equal(t, "orders", cfg.Redis.Channel)

	loc, err := cfg.App.Location()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Cairo", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "jwt:\n  secret: from-file\n"))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "postgres://x@y/z", cfg.Database.DSN())
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "server:\n  address: \":1\"\n"))
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "jwt:\n  secret: x\ndatabase:\n  driver: mysql\n"))

	_, err := Load()
	assert.ErrorContains(t, err, "mysql")
}

func TestLoad_ManagerNeedsPassword(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "jwt:\n  secret: s\n"))
	t.Setenv("BOOTSTRAP_MANAGER_USERNAME", "owner")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("BOOTSTRAP_MANAGER_PASSWORD", "owner-pass")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "owner", cfg.App.ManagerUsername)
}

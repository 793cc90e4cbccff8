package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // workshop time zone must resolve in minimal containers

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server Server `yaml:"server"`

	Database Database `yaml:"database"`

	JWT JWT `yaml:"jwt"`

	Redis Redis `yaml:"redis"`

	Log Log `yaml:"log"`

	App App `yaml:"app"`
}

type Server struct {
	Address        string   `yaml:"address"`
	Mode           string   `yaml:"mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type JWT struct {
	Secret           string `yaml:"secret"`
	AccessTTLMinutes int    `yaml:"access_ttl_minutes"`
	RefreshTTLHours  int    `yaml:"refresh_ttl_hours"`
}

func (j JWT) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

func (j JWT) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

// Driver selects the entity store implementation
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

type Database struct {
	Driver         Driver `yaml:"driver"`
	URL            string `yaml:"url"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

// DSN returns the lib/pq key-value connection string
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// MigrateURL returns the URL form expected by golang-migrate
func (d Database) MigrateURL() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type Redis struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type App struct {
	Timezone string `yaml:"timezone"`

	// Optional manager account created at startup when it does not exist
	ManagerUsername string `yaml:"manager_username"`
	ManagerPassword string `yaml:"manager_password"`
}

// Location resolves the workshop time zone used for calendar reports
func (a App) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.Timezone)
}

func Load() (*Config, error) {
	configPath := "configs/development.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := defaults()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", configPath, err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Server:   Server{Address: ":8000", Mode: "development"},
		Database: Database{Driver: DriverPostgres, Port: 5432, SSLMode: "disable", MigrationsPath: "file://migrations"},
		JWT:      JWT{AccessTTLMinutes: 60, RefreshTTLHours: 24 * 7},
		Redis:    Redis{Addr: "localhost:6379", Channel: "orders"},
		Log:      Log{Level: "info", Format: "json"},
		App:      App{Timezone: "UTC"},
	}
}

// applyEnv lets deployment environments override secrets and addresses
// without editing the YAML file.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Address, "HTTP_ADDRESS")
	setString(&cfg.Server.Mode, "APP_ENV")
	setString((*string)(&cfg.Database.Driver), "DATABASE_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.App.Timezone, "TIME_ZONE")
	setString(&cfg.App.ManagerUsername, "BOOTSTRAP_MANAGER_USERNAME")
	setString(&cfg.App.ManagerPassword, "BOOTSTRAP_MANAGER_PASSWORD")

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.App.ManagerUsername != "" && c.App.ManagerPassword == "" {
		return fmt.Errorf("app.manager_password is required with app.manager_username")
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("invalid app.timezone: %w", err)
	}
	return nil
}

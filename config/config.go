package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bascanada/alacod-sub000/debugserver"
	"github.com/bascanada/alacod-sub000/host"
	"github.com/bascanada/alacod-sub000/parameter"
	"github.com/bascanada/alacod-sub000/rollback"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/telemetry"
)

// SimCore holds all configuration for the headless simulation host.
// Rules and session sizing must match on every peer.
type SimCore struct {
	// Match
	Seed     uint64 `yaml:"seed"`
	Scenario string `yaml:"scenario"` // ASCII level file, built-in arena when empty
	Frames   uint32 `yaml:"frames"`   // 0 runs until interrupted
	Realtime bool   `yaml:"realtime"` // pace frames at the tick rate

	Rules   sim.Rules       `yaml:"rules"`
	Session rollback.Config `yaml:"session"`
	Host    host.Config     `yaml:"host"`

	// Host surfaces
	Debug    debugserver.Config  `yaml:"debug"`
	Database DatabaseConfig      `yaml:"database"`
	Log      telemetry.LogConfig `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the checksum archive.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns SimCore config with sensible defaults.
func Default() SimCore {
	return SimCore{
		Seed:     parameter.DefaultSeed,
		Realtime: true,
		Rules:    sim.DefaultRules(),
		Session:  rollback.DefaultConfig(),
		Host:     host.DefaultConfig(),
		Debug:    debugserver.DefaultConfig(),
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "simcore",
			Password: "simcore",
			DBName:   "simcore",
			SSLMode:  "disable",
		},
		Log: telemetry.DefaultLogConfig(),
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (SimCore, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports the first invalid section.
func (c SimCore) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Host.Validate(c.Session); err != nil {
		return fmt.Errorf("host: %w", err)
	}
	if err := c.Debug.Validate(); err != nil {
		return fmt.Errorf("debug: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}
	if c.Database.Enabled && (c.Database.Host == "" || c.Database.DBName == "") {
		return fmt.Errorf("database: host and dbname are required when enabled")
	}
	return nil
}

// Package config loads the application configuration from YAML.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/meetgrid/backend/internal/pool"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "MEETING_CONFIG"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ops       OpsConfig       `yaml:"ops"`
	Logging   LoggingConfig   `yaml:"logging"`
	Pool      PoolConfig      `yaml:"pool"`
	GeoIP     GeoIPConfig     `yaml:"geoip"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Meeting   MeetingConfig   `yaml:"meeting"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Region string `yaml:"region"`
}

// OpsConfig is the HTTP listener for health, metrics and pool statistics.
type OpsConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
	File    string `yaml:"file"`
}

type PoolConfig struct {
	QueueCap            uint64  `yaml:"queue_cap"`
	CoreWorkers         int     `yaml:"core_workers"`
	MaxWorkers          int     `yaml:"max_workers"`
	LoadCheckIntervalMs int     `yaml:"load_check_interval_ms"`
	KeepAliveMs         int     `yaml:"keep_alive_ms"`
	ScaleUpThreshold    float64 `yaml:"scale_up_threshold"`
	ScaleDownThreshold  float64 `yaml:"scale_down_threshold"`
	PendingHi           int64   `yaml:"pending_hi"`
	PendingLow          int64   `yaml:"pending_low"`
	DebounceHits        int     `yaml:"debounce_hits"`
	CooldownMs          int     `yaml:"cooldown_ms"`
	Policy              string  `yaml:"policy"`
}

// ToPoolConfig maps the YAML block onto pool.Config, keeping pool defaults
// for unset fields.
func (c PoolConfig) ToPoolConfig() pool.Config {
	cfg := pool.DefaultConfig()
	if c.QueueCap > 0 {
		cfg.QueueCap = c.QueueCap
	}
	if c.CoreWorkers > 0 {
		cfg.CoreWorkers = c.CoreWorkers
	}
	if c.MaxWorkers > 0 {
		cfg.MaxWorkers = c.MaxWorkers
	}
	if c.LoadCheckIntervalMs > 0 {
		cfg.LoadCheckInterval = time.Duration(c.LoadCheckIntervalMs) * time.Millisecond
	}
	if c.KeepAliveMs > 0 {
		cfg.KeepAlive = time.Duration(c.KeepAliveMs) * time.Millisecond
	}
	if c.ScaleUpThreshold > 0 {
		cfg.ScaleUpThreshold = c.ScaleUpThreshold
	}
	if c.ScaleDownThreshold > 0 {
		cfg.ScaleDownThreshold = c.ScaleDownThreshold
	}
	if c.PendingHi > 0 {
		cfg.PendingHi = c.PendingHi
	}
	if c.PendingLow > 0 {
		cfg.PendingLow = c.PendingLow
	}
	if c.DebounceHits > 0 {
		cfg.DebounceHits = c.DebounceHits
	}
	if c.CooldownMs > 0 {
		cfg.Cooldown = time.Duration(c.CooldownMs) * time.Millisecond
	}
	if c.Policy != "" {
		cfg.Policy = pool.ParsePolicy(c.Policy)
	}
	return cfg
}

type GeoIPConfig struct {
	DBPath string `yaml:"db_path"`
}

type ZookeeperConfig struct {
	Hosts            string `yaml:"hosts"`
	SessionTimeoutMs int    `yaml:"session_timeout_ms"`
	Enabled          bool   `yaml:"enabled"`
}

type StorageConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	SSLMode          string `yaml:"sslmode"`
	PoolSize         int    `yaml:"pool_size"`
	AcquireTimeoutMs int    `yaml:"acquire_timeout_ms"`
	Enabled          bool   `yaml:"enabled"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

type SessionConfig struct {
	TTLSeconds int64 `yaml:"ttl_seconds"`
}

type MeetingConfig struct {
	CodeLength             int  `yaml:"code_length"`
	MaxMembers             int  `yaml:"max_members"`
	EndWhenOrganizerLeaves bool `yaml:"end_when_organizer_leaves"`
	EndWhenEmpty           bool `yaml:"end_when_empty"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 50051, Region: "default"},
		Ops:     OpsConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info", Console: true},
		Zookeeper: ZookeeperConfig{
			Hosts:            "127.0.0.1:2181",
			SessionTimeoutMs: 5000,
		},
		Storage: StorageConfig{
			Postgres: PostgresConfig{
				Host:             "127.0.0.1",
				Port:             5432,
				User:             "dev",
				Database:         "meeting",
				SSLMode:          "disable",
				PoolSize:         4,
				AcquireTimeoutMs: 500,
			},
		},
		Redis:   RedisConfig{Addr: "127.0.0.1:6379"},
		Session: SessionConfig{TTLSeconds: 24 * 3600},
		Meeting: MeetingConfig{CodeLength: 6, MaxMembers: 100},
	}
}

// LoadConfig reads path and overlays it on the defaults.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Path resolves the config file location: env override, then fallback.
func Path(fallback string) string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return fallback
}

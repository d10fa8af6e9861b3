package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"teamtracker/pkg/config"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	DB      config.DBConfig      `yaml:"db"`
	Redis   config.RedisConfig   `yaml:"redis"`
	JWT     config.JWTConfig     `yaml:"jwt"`
	Server  config.ServerConfig  `yaml:"server"`
	MQ      config.MQConfig      `yaml:"mq"`
	Storage config.StorageConfig `yaml:"storage"`
	Log     config.LogConfig     `yaml:"log"`
}

// Load reads .env, the layered yaml files and the environment. It exits the
// process on failure, like the other service entrypoints.
func Load() *Config {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := LoadFrom(config.GetEnv("CONFIG_DIR", "config"), config.GetConfigEnv())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func LoadFrom(dir, env string) (*Config, error) {
	merged, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(merged, &cfg); err != nil {
		return nil, err
	}

	// environment overrides
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideStorageFromEnv(&cfg.Storage)
	config.OverrideLogFromEnv(&cfg.Log)

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8000"
	}
	if cfg.JWT.AccessTTL == 0 {
		cfg.JWT.AccessTTL = 5 * time.Minute
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 24 * time.Hour
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverPostgres
	}
	if cfg.Server.AuthRateLimit == 0 {
		cfg.Server.AuthRateLimit = 5
	}
	if cfg.Server.AuthRateBurst == 0 {
		cfg.Server.AuthRateBurst = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.MQ.Outbox.MaxAttempts == 0 {
		cfg.MQ.Outbox.MaxAttempts = 5
	}
	if cfg.MQ.Outbox.BatchSize == 0 {
		cfg.MQ.Outbox.BatchSize = 100
	}
	if cfg.MQ.Outbox.Interval == 0 {
		cfg.MQ.Outbox.Interval = time.Second
	}
}

func (c *Config) Validate() error {
	// an unresolved ${JWT_SECRET} placeholder counts as missing
	if c.JWT.Secret == "" || c.JWT.Secret == "${JWT_SECRET}" {
		return errors.New("jwt.secret is required (set JWT_SECRET)")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return fmt.Errorf("jwt.access_ttl (%s) must be shorter than jwt.refresh_ttl (%s)", c.JWT.AccessTTL, c.JWT.RefreshTTL)
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

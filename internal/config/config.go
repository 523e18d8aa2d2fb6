// Package config loads process configuration from a YAML file, overridable
// by TRADSYS_-prefixed environment variables, following the teacher's
// viper-based internal/config/config.go shape.
package config

import (
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SupportedAPIVersions is the semver range this build accepts from
// Config.APIVersion at startup.
const SupportedAPIVersions = ">= 1.0.0, < 2.0.0"

// Config is the fully resolved process configuration.
type Config struct {
	APIVersion string `mapstructure:"api_version"`

	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	WebSocket struct {
		Path           string `mapstructure:"path"`
		MaxConnections int    `mapstructure:"max_connections"`
		RateLimitPerS  int    `mapstructure:"rate_limit_per_second"`
	} `mapstructure:"websocket"`

	Auth struct {
		JWTSecret     string `mapstructure:"jwt_secret"`
		TokenDuration int    `mapstructure:"token_duration_minutes"`
		Issuer        string `mapstructure:"issuer"`
	} `mapstructure:"auth"`

	Trading struct {
		Symbols           []string `mapstructure:"symbols"`
		EventBusCapacity  int      `mapstructure:"event_bus_capacity"`
		TradeRingCapacity int      `mapstructure:"trade_ring_capacity"`
	} `mapstructure:"trading"`

	Audit struct {
		NATSURL string `mapstructure:"nats_url"`
		Subject string `mapstructure:"subject"`
	} `mapstructure:"audit"`

	Monitoring struct {
		PrometheusPort int    `mapstructure:"prometheus_port"`
		LogLevel       string `mapstructure:"log_level"`
	} `mapstructure:"monitoring"`
}

var (
	config *Config
	once   sync.Once
)

// LoadConfig loads configuration from configPath (a directory holding
// config.yaml), falling back to defaults and TRADSYS_ environment
// variables when no file is present.
func LoadConfig(configPath string) (*Config, error) {
	var err error

	once.Do(func() {
		config = &Config{}
		setDefaults()

		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configPath != "" {
			v.AddConfigPath(configPath)
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
			v.AddConfigPath("/etc/matchcore")
		}

		v.AutomaticEnv()
		v.SetEnvPrefix("TRADSYS")

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config file: %w", readErr)
				return
			}
		}

		if unmarshalErr := v.Unmarshal(config); unmarshalErr != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
			return
		}

		if verErr := CheckAPIVersion(config.APIVersion); verErr != nil {
			err = verErr
			return
		}
	})

	return config, err
}

// CheckAPIVersion validates a configured API version against the range
// this build supports, per SPEC_FULL's startup compatibility check.
func CheckAPIVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid api_version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedAPIVersions)
	if err != nil {
		return fmt.Errorf("invalid supported-version constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("api_version %s is not in the supported range %s", version, SupportedAPIVersions)
	}
	return nil
}

func setDefaults() {
	config.APIVersion = "1.0.0"

	config.Server.Host = "0.0.0.0"
	config.Server.Port = 8080

	config.Database.Host = "localhost"
	config.Database.Port = 5432
	config.Database.User = "postgres"
	config.Database.Name = "matchcore"
	config.Database.SSLMode = "disable"

	config.WebSocket.Path = "/ws"
	config.WebSocket.MaxConnections = 1000
	config.WebSocket.RateLimitPerS = 20

	config.Auth.TokenDuration = 60
	config.Auth.Issuer = "matchcore"

	config.Trading.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	config.Trading.EventBusCapacity = 1024
	config.Trading.TradeRingCapacity = 1000

	config.Audit.NATSURL = nats.DefaultURL
	config.Audit.Subject = "matchcore.trades"

	config.Monitoring.PrometheusPort = 9090
	config.Monitoring.LogLevel = "info"
}

// InitLogger builds a zap.Logger from Monitoring.LogLevel, matching the
// teacher's config.InitLogger.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch cfg.Monitoring.LogLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

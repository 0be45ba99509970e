package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cypherlabdev/hedge-signal-service/pkg/signal"
)

// EnvPrefix prefixes environment overrides, e.g. HEDGE_SIGNAL_REDIS_ADDR
const EnvPrefix = "HEDGE_SIGNAL"

// Config holds all configuration for hedge-signal-service
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required"` // signal_requests
	GroupID string   `mapstructure:"group_id" validate:"required"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"required"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"min=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// EngineConfig holds the model calibration
type EngineConfig struct {
	SpreadScale          float64 `mapstructure:"spread_scale" validate:"gt=0"`
	EdgePerPoint         float64 `mapstructure:"edge_per_point" validate:"gte=0"`
	VolatilityEdgeScale  float64 `mapstructure:"volatility_edge_scale" validate:"gte=0"`
	DefaultStdDev        float64 `mapstructure:"default_std_dev" validate:"gt=0"`
	MinMiddleGap         float64 `mapstructure:"min_middle_gap" validate:"gte=0"`
	ReferenceDecimalOdds float64 `mapstructure:"reference_decimal_odds" validate:"gt=1"`
	MinEdge              float64 `mapstructure:"min_edge" validate:"gte=0,lt=0.5"`
	MaxEdge              float64 `mapstructure:"max_edge" validate:"gt=0,lt=0.5"`
	ZScoreThreshold      float64 `mapstructure:"z_score_threshold" validate:"gte=0"`
	DivergenceThreshold  float64 `mapstructure:"divergence_threshold" validate:"gte=0"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"loglevel"`   // debug, info, warn, error
	Format     string `mapstructure:"format" validate:"logformat"` // json, console
	File       string `mapstructure:"file"`                        // rotated log file; empty for stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "signal_requests")
	v.SetDefault("kafka.group_id", "hedge-signal")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 15*time.Minute)

	v.SetDefault("engine.spread_scale", signal.DefaultSpreadScale)
	v.SetDefault("engine.edge_per_point", signal.DefaultEdgePerPoint)
	v.SetDefault("engine.volatility_edge_scale", signal.DefaultVolatilityEdgeScale)
	v.SetDefault("engine.default_std_dev", signal.DefaultMiddleStdDev)
	v.SetDefault("engine.min_middle_gap", signal.DefaultMinMiddleGap)
	v.SetDefault("engine.reference_decimal_odds", signal.DefaultReferenceDecimalOdds)
	v.SetDefault("engine.min_edge", signal.DefaultMinEdge)
	v.SetDefault("engine.max_edge", signal.DefaultMaxEdge)
	v.SetDefault("engine.z_score_threshold", signal.DefaultZScoreThreshold)
	v.SetDefault("engine.divergence_threshold", signal.DefaultDivergenceThreshold)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", true)
}

// LoadConfig loads configuration from file and environment variables, then validates it
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ToParams converts the engine section to model parameters
func (c *EngineConfig) ToParams() signal.Params {
	return signal.Params{
		SpreadScale:          c.SpreadScale,
		EdgePerPoint:         c.EdgePerPoint,
		VolatilityEdgeScale:  c.VolatilityEdgeScale,
		DefaultStdDev:        c.DefaultStdDev,
		MinMiddleGap:         c.MinMiddleGap,
		ReferenceDecimalOdds: c.ReferenceDecimalOdds,
		MinEdge:              c.MinEdge,
		MaxEdge:              c.MaxEdge,
		ZScoreThreshold:      c.ZScoreThreshold,
		DivergenceThreshold:  c.DivergenceThreshold,
	}
}

// Package config holds the two configuration surfaces this daemon
// needs: AppConfig is the deployment-time configuration loaded once at
// startup, and Store is the small keyed map the engine reads at
// runtime through its own lock, independent of the deployment config.
package config

import (
	"fmt"
	"time"
)

// AppConfig is the top-level deployment configuration, unmarshaled by
// viper from a config file plus environment overrides.
type AppConfig struct {
	PodID      string           `mapstructure:"pod_id"`
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	OCPP       OCPPConfig       `mapstructure:"ocpp"`
	Security   SecurityConfig   `mapstructure:"security"`
}

// ServerConfig describes the outbound WebSocket connection to the
// central system this charge point dials.
type ServerConfig struct {
	URL             string        `mapstructure:"url"`
	ChargePointID   string        `mapstructure:"charge_point_id"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig configures the snapshot store backend.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig configures the lifecycle event bus.
type KafkaConfig struct {
	Brokers       []string       `mapstructure:"brokers"`
	EventsTopic   string         `mapstructure:"events_topic"`
	CommandsTopic string         `mapstructure:"commands_topic"`
	ConsumerGroup string         `mapstructure:"consumer_group"`
	Producer      ProducerConfig `mapstructure:"producer"`
	Consumer      ConsumerConfig `mapstructure:"consumer"`
}

// ProducerConfig tunes the Sarama async producer.
type ProducerConfig struct {
	RetryMax       int           `mapstructure:"retry_max"`
	ReturnSuccess  bool          `mapstructure:"return_successes"`
	FlushFrequency time.Duration `mapstructure:"flush_frequency"`
}

// ConsumerConfig tunes the Sarama consumer group.
type ConsumerConfig struct {
	ReturnErrors   bool   `mapstructure:"return_errors"`
	OffsetsInitial string `mapstructure:"offsets_initial"`
}

// LogConfig configures the zerolog-backed logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	Async  bool   `mapstructure:"async"`
}

// MetricsConfig configures the Prometheus HTTP exposition endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// MonitoringConfig configures auxiliary HTTP endpoints.
type MonitoringConfig struct {
	HealthCheckPort int  `mapstructure:"health_check_port"`
	PprofEnabled    bool `mapstructure:"pprof_enabled"`
}

// OCPPConfig seeds the engine's own Store and bounds the message pool.
type OCPPConfig struct {
	PoolSize                      int           `mapstructure:"pool_size"`
	DefaultTimeout                time.Duration `mapstructure:"default_timeout"`
	HeartbeatInterval             time.Duration `mapstructure:"heartbeat_interval"`
	TransactionMessageRetryInterval time.Duration `mapstructure:"transaction_message_retry_interval"`
	TransactionMessageAttempts    int           `mapstructure:"transaction_message_attempts"`
}

// SecurityConfig configures TLS for the outbound WebSocket dial.
type SecurityConfig struct {
	TLSEnabled bool   `mapstructure:"tls_enabled"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	SkipVerify bool   `mapstructure:"skip_verify"`
}

// Load unmarshals the currently configured viper instance into an
// AppConfig. The caller is responsible for calling viper.SetConfigFile
// / viper.ReadInConfig (or equivalent env binding) beforehand.
func Load(unmarshal func(interface{}) error) (*AppConfig, error) {
	var cfg AppConfig
	if err := unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	return &cfg, nil
}

// GetMetricsAddr returns the address the Prometheus handler should
// bind to.
func (c *AppConfig) GetMetricsAddr() string {
	return c.Metrics.Addr
}

// GetHealthCheckAddr returns the address the health endpoint should
// bind to.
func (c *AppConfig) GetHealthCheckAddr() string {
	return fmt.Sprintf(":%d", c.Monitoring.HealthCheckPort)
}

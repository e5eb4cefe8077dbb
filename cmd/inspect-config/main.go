// Command inspect-config loads chargepointd's configuration the same
// way the daemon does and prints the resolved values, so a deployment
// can be checked without starting a real session.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/libmcu/ocpp-session-core/internal/config"
)

func main() {
	fmt.Println("=== chargepointd configuration ===")

	fmt.Println("\n--- Environment Variables ---")
	for _, env := range []string{
		"CHARGEPOINTD_SERVER_URL",
		"CHARGEPOINTD_SERVER_CHARGE_POINT_ID",
		"CHARGEPOINTD_REDIS_ADDR",
		"CHARGEPOINTD_KAFKA_BROKERS",
		"CHARGEPOINTD_LOG_LEVEL",
		"CHARGEPOINTD_METRICS_ADDR",
	} {
		if v := os.Getenv(env); v != "" {
			fmt.Printf("%s = %s\n", env, v)
		} else {
			fmt.Printf("%s = (not set)\n", env)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("\nError loading configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n--- Resolved Configuration ---")
	fmt.Printf("Pod ID: %s\n", cfg.PodID)
	fmt.Printf("Charge Point ID: %s\n", cfg.Server.ChargePointID)
	fmt.Printf("Central System URL: %s\n", cfg.Server.URL)
	fmt.Printf("Redis Address: %s\n", cfg.Redis.Addr)
	fmt.Printf("Kafka Brokers: %v\n", cfg.Kafka.Brokers)
	fmt.Printf("Kafka Events Topic: %s\n", cfg.Kafka.EventsTopic)
	fmt.Printf("Kafka Commands Topic: %s\n", cfg.Kafka.CommandsTopic)
	fmt.Printf("Log Level: %s\n", cfg.Log.Level)
	fmt.Printf("Metrics Address: %s\n", cfg.GetMetricsAddr())
	fmt.Printf("Health Check Address: %s\n", cfg.GetHealthCheckAddr())
	fmt.Printf("OCPP Pool Size: %d\n", cfg.OCPP.PoolSize)
	fmt.Printf("OCPP Heartbeat Interval: %s\n", cfg.OCPP.HeartbeatInterval)
	fmt.Printf("OCPP Transaction Retry Interval: %s\n", cfg.OCPP.TransactionMessageRetryInterval)
	fmt.Printf("OCPP Transaction Attempts: %d\n", cfg.OCPP.TransactionMessageAttempts)

	if _, err := config.NewStore(cfg.OCPP); err != nil {
		fmt.Printf("\nOCPP config would fail validation: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nOCPP config passes validation.")
}

func loadConfig() (*config.AppConfig, error) {
	viper.SetConfigName("chargepointd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/chargepointd")
	viper.SetEnvPrefix("CHARGEPOINTD")
	viper.AutomaticEnv()

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("metrics.addr", ":9090")
	viper.SetDefault("ocpp.pool_size", 32)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return config.Load(func(rawVal interface{}) error { return viper.Unmarshal(rawVal) })
}

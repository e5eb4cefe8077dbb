// Command chargepointd runs a single OCPP 1.6 charge point's session
// core: it dials the central system over WebSocket, drives the engine
// with a one-second step loop, and bridges lifecycle events and
// remote commands through Kafka so a fleet of these can be observed
// and driven from one place.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/libmcu/ocpp-session-core/internal/config"
	"github.com/libmcu/ocpp-session-core/internal/engine"
	"github.com/libmcu/ocpp-session-core/internal/events"
	"github.com/libmcu/ocpp-session-core/internal/eventbus"
	"github.com/libmcu/ocpp-session-core/internal/logger"
	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
	"github.com/libmcu/ocpp-session-core/internal/snapshotstore"
	"github.com/libmcu/ocpp-session-core/internal/transport/wsclient"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Async:  cfg.Log.Async,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log.Infof("Starting chargepointd for %s", cfg.Server.ChargePointID)

	configStore, err := config.NewStore(cfg.OCPP)
	if err != nil {
		log.Fatalf("Failed to seed config store: %v", err)
	}

	snapStore, err := snapshotstore.NewRedisStore(cfg.Redis, 24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}
	log.Info("Snapshot store initialized")

	producer, err := eventbus.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, log)
	if err != nil {
		log.Fatalf("Failed to initialize Kafka producer: %v", err)
	}
	log.Info("Kafka producer initialized")

	consumer, err := eventbus.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.CommandsTopic, log)
	if err != nil {
		log.Fatalf("Failed to initialize Kafka consumer: %v", err)
	}
	log.Info("Kafka consumer initialized")

	transport, err := wsclient.Dial(wsclient.Config{
		URL:              cfg.Server.URL,
		ChargePointID:    cfg.Server.ChargePointID,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		ReadTimeout:      wsclient.DefaultConfig().ReadTimeout,
		PingInterval:     wsclient.DefaultConfig().PingInterval,
		MaxMessageSize:   wsclient.DefaultConfig().MaxMessageSize,
	}, log)
	if err != nil {
		log.Fatalf("Failed to dial central system: %v", err)
	}
	log.Infof("Connected to central system at %s", cfg.Server.URL)

	// eng is assigned below; onEvent closes over the pointer rather than
	// the engine itself so it can call back into SetBootAccepted once
	// construction completes, the same forward-reference WithEventHandler
	// requires since the engine can't exist before its own options do.
	var eng *engine.Engine

	translator := events.NewTranslator(cfg.Server.ChargePointID)
	onEvent := func(evt engine.Event, msg engine.Message, evtErr error) {
		if evt == engine.EventIncoming && msg.Role == ocpp16.RoleCallResult && msg.Type == ocpp16.MessageBootNotification {
			var resp ocpp16.BootNotificationResponse
			if err := json.Unmarshal(msg.Payload, &resp); err != nil {
				log.Errorf("Failed to decode BootNotification response: %v", err)
			} else {
				eng.SetBootAccepted(resp.Status == ocpp16.RegistrationAccepted)
			}
		}

		event := translator.Translate(evt, msg, evtErr)
		if event == nil {
			return
		}
		if err := producer.PublishEvent(event); err != nil {
			log.Errorf("Failed to publish %s event: %v", event.GetType(), err)
		}
	}

	eng = engine.New(
		engine.WithClock(engine.ClockFunc(func() int64 { return time.Now().Unix() })),
		engine.WithTransport(transport),
		engine.WithConfigStore(configStore),
		engine.WithLogger(log),
		engine.WithEventHandler(onEvent),
		engine.WithPoolSize(cfg.OCPP.PoolSize),
	)

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 5*time.Second)
	blob, err := snapStore.Load(restoreCtx, cfg.Server.ChargePointID)
	cancelRestore()
	switch {
	case err == nil:
		if err := eng.RestoreSnapshot(blob); err != nil {
			log.Errorf("Failed to restore snapshot, starting cold: %v", err)
		} else {
			log.Info("Restored session state from snapshot")
		}
	case errors.Is(err, snapshotstore.ErrNotFound):
		log.Info("No prior snapshot found, starting cold")
	default:
		log.Errorf("Failed to load snapshot, starting cold: %v", err)
	}

	commandHandler := buildCommandHandler(eng, log)
	go func() {
		if err := consumer.Start(commandHandler); err != nil {
			log.Errorf("Kafka consumer stopped: %v", err)
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.GetMetricsAddr(), Handler: metricsHandler()}
	go func() {
		log.Infof("Metrics server listening on %s", cfg.GetMetricsAddr())
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()

	stepDone := make(chan struct{})
	go runStepLoop(eng, stepDone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down chargepointd...")

	close(stepDone)

	if blob, err := eng.SaveSnapshot(); err != nil {
		log.Errorf("Failed to snapshot session state: %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := snapStore.Save(ctx, cfg.Server.ChargePointID, blob); err != nil {
			log.Errorf("Failed to persist snapshot: %v", err)
		} else {
			log.Info("Session state snapshotted for resume")
		}
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = metricsSrv.Shutdown(shutdownCtx)
	cancel()

	if err := consumer.Close(); err != nil {
		log.Errorf("Error closing Kafka consumer: %v", err)
	}
	if err := producer.Close(); err != nil {
		log.Errorf("Error closing Kafka producer: %v", err)
	}
	if err := transport.Close(); err != nil {
		log.Errorf("Error closing transport: %v", err)
	}
	if err := snapStore.Close(); err != nil {
		log.Errorf("Error closing snapshot store: %v", err)
	}
	log.Info("chargepointd stopped.")
}

// runStepLoop drives the engine once a second until done is closed,
// passing the current wall-clock Unix seconds as now.
func runStepLoop(eng *engine.Engine, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := eng.Step(time.Now().Unix()); err != nil {
				return
			}
		}
	}
}

// buildCommandHandler turns a decoded remote-control Command into the
// matching PushRequest/PushResponse call. A command with IsResponse
// set answers an inbound CALL the engine already surfaced as a
// MessageIncomingEvent upstream; one without it asks the engine to
// originate a fresh outbound CALL on the command issuer's behalf.
func buildCommandHandler(eng *engine.Engine, log *logger.Logger) eventbus.CommandHandler {
	return func(cmd *eventbus.Command) {
		t := ocpp16.TypeFromString(cmd.Action)
		if t == ocpp16.MessageUnknown {
			log.Warnf("command: unknown action %q for %s, dropping", cmd.Action, cmd.ChargePointID)
			return
		}

		if cmd.IsResponse {
			if err := eng.PushResponse(cmd.MessageID, t, cmd.Payload, cmd.IsError, true); err != nil {
				log.Errorf("command: push response for %s failed: %v", cmd.MessageID, err)
			}
			return
		}

		if _, err := eng.PushRequest(t, cmd.Payload, true); err != nil {
			log.Errorf("command: push request %s failed: %v", cmd.Action, err)
		}
	}
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// loadConfig wires viper to read chargepointd.yaml from the working
// directory or /etc/chargepointd, overridable by CHARGEPOINTD_-
// prefixed environment variables, then hands its Unmarshal through to
// config.Load.
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

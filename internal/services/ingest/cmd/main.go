package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/joho/godotenv"

	ingestpkg "github.com/acquasense/potability/internal/services/ingest"
	"github.com/acquasense/potability/pkg/rabbitmq"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MQTT ---
	mqCfg := &rabbitmq.RabbitMQConfig{
		Host:     envStr("RABBITMQ_HOST", envStr("MQTT_HOST", "localhost")),
		Port:     envInt("RABBITMQ_PORT", envInt("MQTT_PORT", 1883)),
		User:     envStr("RABBITMQ_USER", envStr("MQTT_USER", "mqtt_user")),
		Password: envStr("RABBITMQ_PASSWORD", envStr("MQTT_PASS", "mqtt_pwd")),
		ClientID: envStr("MQTT_CLIENT_ID", "ingest-service"),
		Kind:     envStr("RABBITMQ_EXCHANGE_KIND", "topic"),
	}
	mqClient, err := rabbitmq.NewRabbitMQConn(mqCfg, ctx)
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}
	defer rabbitmq.CloseRabbitMQConn(mqClient)

	subTopic := envStr("AGGREGATED_SUB_TOPIC", "sensor/aggregated/#")
	consumer := rabbitmq.NewConsumer(mqClient, subTopic, nil)
	publisher := rabbitmq.NewPublisher(mqClient, envStr("ALERT_PUB_TOPIC", "event/potabilityAlert"))

	// --- InfluxDB ---
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(envInt("WRITE_BATCH_SIZE", 10))).
		SetFlushInterval(uint(envInt("WRITE_FLUSH_INTERVAL_MS", 200)))
	influxCfg := ingestpkg.InfluxConfig{
		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "acquasense"),
		InfluxBucket: envStr("INFLUX_BUCKET", "water-quality"),
	}
	influx := influxdb2.NewClientWithOptions(influxCfg.InfluxURL, influxCfg.InfluxToken, opts)
	defer influx.Close()

	// Service: consumer MQTT -> valuta e scrive su Influx, cache in memoria
	svc, err := ingestpkg.NewService(consumer, publisher, influx, influxCfg)
	if err != nil {
		log.Fatalf("ingest init failed: %v", err)
	}

	// --- HTTP ---
	mux := ingestpkg.NewHTTPMux(svc)
	mux.Handle("/healthz", ingestpkg.NewHealthHandler(mqClient, influx, svc.Writer()))
	mux.Handle("/readyz", ingestpkg.NewReadyHandler(mqClient, influx, svc.Writer(), 2*time.Second))

	srv := &http.Server{
		Addr:              ":" + envStr("PORT", "8080"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("ingest: HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// Avvia il consumo MQTT (e quindi le scritture Influx)
	go svc.Start(ctx)

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("ingest: shutdown complete")
}

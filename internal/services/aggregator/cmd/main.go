package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/acquasense/potability/internal/services/aggregator"
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

	cfg := &rabbitmq.RabbitMQConfig{
		Host:     envStr("RABBITMQ_HOST", envStr("MQTT_HOST", "localhost")),
		Port:     envInt("RABBITMQ_PORT", envInt("MQTT_PORT", 1883)),
		User:     envStr("RABBITMQ_USER", envStr("MQTT_USER", "mqtt_user")),
		Password: envStr("RABBITMQ_PASSWORD", envStr("MQTT_PASS", "mqtt_pwd")),
		ClientID: envStr("MQTT_CLIENT_ID", "data-aggregator"),
		Kind:     envStr("RABBITMQ_EXCHANGE_KIND", "topic"),
	}

	client, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}
	defer rabbitmq.CloseRabbitMQConn(client)

	consumer := rabbitmq.NewConsumer(client, envStr("RAW_SUB_TOPIC", "sensor/data/#"), nil)
	publisher := rabbitmq.NewPublisher(client, envStr("AGGREGATED_PUB_TOPIC", "sensor/aggregated"))

	interval := time.Duration(envInt("AGGREGATION_INTERVAL_SEC", 60)) * time.Second
	svc := aggregator.NewDataAggregatorService(consumer, publisher, interval)

	log.Printf("aggregator: running, interval=%s", interval)
	svc.Start(ctx)
	log.Println("aggregator: shutdown complete")
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	sensorSimulator "github.com/acquasense/potability/internal/sensor-simulator"
	"github.com/acquasense/potability/internal/stations"
	"github.com/acquasense/potability/pkg/rabbitmq"
)

func main() {
	_ = godotenv.Load()

	stationID := flag.String("station-id", "station-1", "station identifier in the registry")
	sensorID := flag.String("sensor-id", "ws-01", "sensor identifier in the registry")
	clientID := flag.String("client-id", "", "MQTT client ID (default sim-<sensor-id>)")
	registry := flag.String("stations", envStr("STATIONS_FILE", "stations.yaml"), "path to the station registry")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	flag.Parse()

	reg, err := stations.Load(*registry)
	if err != nil {
		log.Fatalf("load station registry: %v", err)
	}
	station, ok := reg[*stationID]
	if !ok {
		log.Fatalf("unknown station %q in %s", *stationID, *registry)
	}
	sensor := station.GetSensor(*sensorID)
	if sensor == nil {
		log.Fatalf("unknown sensor %q on station %q", *sensorID, *stationID)
	}

	cid := *clientID
	if cid == "" {
		cid = "sim-" + sensor.ID
	}
	cfg := &rabbitmq.RabbitMQConfig{
		Host:     envStr("RABBITMQ_HOST", envStr("MQTT_HOST", "localhost")),
		Port:     envInt("RABBITMQ_PORT", envInt("MQTT_PORT", 1883)),
		User:     envStr("RABBITMQ_USER", envStr("MQTT_USER", "mqtt_user")),
		Password: envStr("RABBITMQ_PASSWORD", envStr("MQTT_PASS", "mqtt_pwd")),
		ClientID: cid,
		Kind:     envStr("RABBITMQ_EXCHANGE_KIND", "topic"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitmq.CloseRabbitMQConn(client)

	publisher := rabbitmq.NewPublisher(client, "sensor/data/"+station.ID+"/"+sensor.ID)
	consumer := rabbitmq.NewConsumer(client, envStr("ALERT_SUB_TOPIC", "event/potabilityAlert"), nil)

	generator := sensorSimulator.NewDataGenerator(time.Now().UnixNano())
	sim := sensorSimulator.NewSensorSimulator(consumer, publisher, generator, sensor)

	log.Printf("simulator: %s/%s publishing every %s", station.ID, sensor.ID, *interval)
	sim.Start(ctx, *interval)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

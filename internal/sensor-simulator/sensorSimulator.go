package sensor_simulator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/acquasense/potability/internal/model"
	"github.com/acquasense/potability/internal/model/entities"
	"github.com/acquasense/potability/pkg/dedup"
	"github.com/acquasense/potability/pkg/rabbitmq"
)

// remediationWindow: per quanto tempo il sensore resta "bonificato" dopo
// un alert prima di poter degradare di nuovo.
const remediationWindow = 10 * time.Minute

type SensorSimulator struct {
	mu        sync.Mutex
	sensor    *entities.WaterSensor
	timer     *time.Timer // single timer
	generator *DataGenerator
	publisher rabbitmq.IPublisher
	consumer  rabbitmq.IConsumer[mqtt.Message]
	deduper   *dedup.Deduper
}

func NewSensorSimulator(consumer rabbitmq.IConsumer[mqtt.Message], publisher rabbitmq.IPublisher,
	gen *DataGenerator, sensor *entities.WaterSensor) *SensorSimulator {
	return &SensorSimulator{
		sensor:    sensor,
		generator: gen,
		publisher: publisher,
		consumer:  consumer,
		deduper:   dedup.New(2*time.Minute, 10000), // TTL e cap
	}
}

// Start avvia il simulatore: ascolta gli alert di potabilità e pubblica
// letture raw a intervalli regolari.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	s.consumer.SetHandler(s.handleMessage)
	go s.consumer.ConsumeMessage(ctx)

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-time.After(interval):
			r, err := s.generator.Next(s.sensor)
			if err != nil {
				log.Printf("data gen error: %v", err)
				continue
			}
			log.Printf("sensor: pub raw station=%s sensor=%s tds=%.1f turb=%.2f",
				r.StationID, r.SensorID, r.TDS, r.Turbidity)
			payload, _ := json.Marshal(r)
			if err := s.publisher.PublishMessage(string(payload)); err != nil {
				log.Printf("publish error: %v", err)
			}
		}
	}
}

func (s *SensorSimulator) handleMessage(_ string, msg mqtt.Message) error {
	// Dedup a payload: redelivery QoS1 ha lo stesso payload → stesso hash
	h := sha256.Sum256(msg.Payload())
	if s.deduper != nil && !s.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
		return nil // duplicato → ignora
	}

	var evt model.PotabilityAlertEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		return fmt.Errorf("invalid PotabilityAlertEvent: %w", err)
	}
	if evt.SensorID != s.sensor.ID {
		// ignore events for other sensors
		return nil
	}
	s.applyRemediation(evt)
	return nil
}

// applyRemediation simula il flush della linea dopo un alert: contaminazione
// azzerata e nessun nuovo episodio per la finestra di bonifica.
func (s *SensorSimulator) applyRemediation(evt model.PotabilityAlertEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.generator.Remediate()
	fmt.Printf("Sensor %s → remediation (score %.0f)\n", s.sensor.ID, evt.Score)

	s.timer = time.AfterFunc(remediationWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.generator.EndRemediation()
		fmt.Printf("Sensor %s ↺ normal\n", s.sensor.ID)
		s.timer = nil
	})
}

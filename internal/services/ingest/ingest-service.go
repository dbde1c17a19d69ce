package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/acquasense/potability/internal/model"
	"github.com/acquasense/potability/internal/potability"
	"github.com/acquasense/potability/pkg/dedup"
	"github.com/acquasense/potability/pkg/rabbitmq"
)

// Misure scritte su Influx.
const (
	MeasurementQuality = "water_quality"
	MeasurementAlert   = "potability_alert"
)

// Configurazione Influx
type InfluxConfig struct {
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

// Evaluation è la vista cache-abile di una lettura valutata.
type Evaluation struct {
	Reading model.WaterReading
	Result  potability.Result
}

// Service consuma letture aggregate da MQTT, le valuta con il rule engine
// e scrive i punti su Influx; sulle non potabili pubblica un alert.
type Service struct {
	consumer  rabbitmq.IConsumer[model.WaterReading]
	publisher rabbitmq.IPublisher
	writer    *Writer
	influx    influxdb2.Client
	org       string
	bucket    string

	// deduper per scartare redelivery QoS1 (hash payload)
	deduper *dedup.Deduper

	mu     sync.RWMutex
	latest map[string]Evaluation // key = station|sensor
}

func NewService(consumer rabbitmq.IConsumer[model.WaterReading], publisher rabbitmq.IPublisher, influx influxdb2.Client, cfg InfluxConfig) (*Service, error) {
	if cfg.InfluxURL == "" || cfg.InfluxOrg == "" || cfg.InfluxBucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}

	writeAPI := influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket)

	return &Service{
		consumer:  consumer,
		publisher: publisher,
		writer:    NewWriter(writeAPI),
		influx:    influx,
		org:       cfg.InfluxOrg,
		bucket:    cfg.InfluxBucket,
		deduper:   dedup.New(10*time.Minute, 20000),
		latest:    make(map[string]Evaluation),
	}, nil
}

func (s *Service) Writer() *Writer { return s.writer }

// Start avvia il loop di consumo (blocca finché il contesto non chiude).
func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(s.handleReading)
	s.consumer.ConsumeMessage(ctx)
}

func (s *Service) handleReading(topic string, msg mqtt.Message) error {
	// dedup prima dell'unmarshal: scarta redelivery QoS1 identiche
	h := sha256.Sum256(msg.Payload())
	if s.deduper != nil && !s.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
		return nil
	}

	var r model.WaterReading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		log.Printf("ingest: invalid JSON on %s: %v", topic, err)
		return nil // non bloccare lo stream
	}
	if !r.Aggregated {
		return nil // valutiamo solo le letture aggregate
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	res, err := potability.Evaluate(r.TDS, r.Turbidity, r.Temperature, r.PH)
	if err != nil {
		log.Printf("ingest: evaluation failed for %s/%s: %v", r.StationID, r.SensorID, err)
		return nil
	}

	s.writeQualityPoint(r, res)
	s.cache(r, res)

	log.Printf("ingest: %s/%s tds=%.1f turb=%.2f -> %s score=%.0f",
		r.StationID, r.SensorID, r.TDS, r.Turbidity, res.PotabilityStatus, res.PotabilityScore)

	if res.PotabilityStatus == potability.VerdictNotPotable {
		s.raiseAlert(r, res)
	}
	return nil
}

func (s *Service) writeQualityPoint(r model.WaterReading, res potability.Result) {
	tags := map[string]string{
		"station_id": r.StationID,
		"sensor_id":  r.SensorID,
		"potability": res.PotabilityStatus,
		"risk_level": res.RiskLevel,
	}
	fields := map[string]interface{}{
		"tds":         r.TDS,
		"turbidity":   r.Turbidity,
		"temperature": r.Temperature,
		"ph":          r.PH,
		"score":       res.PotabilityScore,
		"compliant":   res.WHOCompliance.OverallCompliant,
	}
	s.writer.WritePoint(MeasurementQuality, influxdb2.NewPoint(MeasurementQuality, tags, fields, r.Timestamp))
}

// raiseAlert pubblica l'evento su MQTT e scrive il punto alert su Influx.
func (s *Service) raiseAlert(r model.WaterReading, res potability.Result) {
	evt := model.PotabilityAlertEvent{
		EventID:        uuid.NewString(),
		StationID:      r.StationID,
		SensorID:       r.SensorID,
		Score:          res.PotabilityScore,
		RiskLevel:      res.RiskLevel,
		ActionRequired: res.ActionRequired,
		Recommendation: res.Recommendation,
		Timestamp:      r.Timestamp,
	}

	tags := map[string]string{
		"station_id": r.StationID,
		"sensor_id":  r.SensorID,
		"risk_level": res.RiskLevel,
	}
	fields := map[string]interface{}{
		"score":           res.PotabilityScore,
		"action_required": res.ActionRequired,
		"event_id":        evt.EventID,
	}
	s.writer.WritePoint(MeasurementAlert, influxdb2.NewPoint(MeasurementAlert, tags, fields, r.Timestamp))

	if s.publisher == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		log.Printf("ingest: marshal alert: %v", err)
		return
	}
	if err := s.publisher.PublishMessage(string(b)); err != nil {
		log.Printf("ingest: publish alert for %s/%s: %v", r.StationID, r.SensorID, err)
	}
}

func (s *Service) cache(r model.WaterReading, res potability.Result) {
	s.mu.Lock()
	s.latest[r.StationID+"|"+r.SensorID] = Evaluation{Reading: r, Result: res}
	s.mu.Unlock()
}

// LatestCache ritorna l'ultima valutazione per ogni sensore, ordinata per id.
func (s *Service) LatestCache() []Evaluation {
	s.mu.RLock()
	out := make([]Evaluation, 0, len(s.latest))
	for _, e := range s.latest {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Reading.StationID != out[j].Reading.StationID {
			return out[i].Reading.StationID < out[j].Reading.StationID
		}
		return out[i].Reading.SensorID < out[j].Reading.SensorID
	})
	return out
}

// QueryLatestFromInflux legge da Influx le valutazioni nella finestra e
// tiene la più recente per sensore.
func (s *Service) QueryLatestFromInflux(ctx context.Context, minutes int) ([]Evaluation, error) {
	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["_time"], desc: true)
`, s.bucket, minutes, MeasurementQuality)

	res, err := s.influx.QueryAPI(s.org).Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Close() }()

	seen := make(map[string]bool)
	out := make([]Evaluation, 0, 16)
	for res.Next() {
		rec := res.Record()
		station := stringByKey(rec.ValueByKey("station_id"))
		sensor := stringByKey(rec.ValueByKey("sensor_id"))
		key := station + "|" + sensor
		if seen[key] {
			continue // già presa la più recente (ordinamento desc)
		}
		seen[key] = true

		reading := model.WaterReading{
			StationID:   station,
			SensorID:    sensor,
			TDS:         floatByKey(rec.ValueByKey("tds")),
			Turbidity:   floatByKey(rec.ValueByKey("turbidity")),
			Temperature: floatByKey(rec.ValueByKey("temperature")),
			PH:          floatByKey(rec.ValueByKey("ph")),
			Aggregated:  true,
			Timestamp:   rec.Time(),
		}
		result, err := potability.Evaluate(reading.TDS, reading.Turbidity, reading.Temperature, reading.PH)
		if err != nil {
			continue
		}
		out = append(out, Evaluation{Reading: reading, Result: result})
	}
	if res.Err() != nil {
		return out, res.Err()
	}
	return out, nil
}

func stringByKey(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func floatByKey(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	}
	return 0
}

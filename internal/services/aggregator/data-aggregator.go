package aggregator

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/acquasense/potability/internal/model/messages"
	"github.com/acquasense/potability/pkg/rabbitmq"
)

// DataAggregatorService media le letture raw per sensore su una finestra
// fissa e le ripubblica con aggregated=true. Smorza gli spike delle sonde
// prima che l'ingest le valuti.
type DataAggregatorService struct {
	consumer            rabbitmq.IConsumer[messages.WaterReading]
	publisher           rabbitmq.IPublisher
	buffer              map[string][]messages.WaterReading // key is SensorID
	mutex               sync.Mutex
	aggregationInterval time.Duration
}

func NewDataAggregatorService(consumer rabbitmq.IConsumer[messages.WaterReading], publisher rabbitmq.IPublisher, aggregationInterval time.Duration) *DataAggregatorService {
	return &DataAggregatorService{
		consumer:            consumer,
		publisher:           publisher,
		aggregationInterval: aggregationInterval,
		buffer:              make(map[string][]messages.WaterReading),
	}
}

func (d *DataAggregatorService) messageHandler(_ string, message mqtt.Message) error {
	var reading messages.WaterReading
	if err := json.Unmarshal(message.Payload(), &reading); err != nil {
		log.Printf("Error unmarshalling water reading: %v", err)
		return err
	}
	if reading.Aggregated {
		return nil // già aggregata, non ri-bufferare
	}

	d.mutex.Lock()
	d.buffer[reading.SensorID] = append(d.buffer[reading.SensorID], reading)
	d.mutex.Unlock()

	return nil
}

func (d *DataAggregatorService) Start(ctx context.Context) {
	d.consumer.SetHandler(d.messageHandler)

	// il consumer gira in una goroutine, altrimenti il ticker non parte mai
	go d.consumer.ConsumeMessage(ctx)

	ticker := time.NewTicker(d.aggregationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.publisher.Close()
			return
		case <-ticker.C:
			d.aggregateAndPublish()
		}
	}
}

func (d *DataAggregatorService) aggregateAndPublish() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for sensorID, readings := range d.buffer {
		if len(readings) == 0 {
			continue
		}

		out := average(readings)
		out.Timestamp = time.Now()

		b, err := json.Marshal(out)
		if err != nil {
			log.Printf("marshal err %v", err)
			continue
		}
		if err := d.publisher.PublishMessage(string(b)); err != nil {
			log.Printf("publish err %v", err)
		} else {
			log.Printf("Published aggregate for %s: tds=%.1f turb=%.2f over %d readings",
				sensorID, out.TDS, out.Turbidity, len(readings))
		}

		// reset buffer
		d.buffer[sensorID] = readings[:0]
	}
}

// average fa la media dei quattro parametri; station/sensor id vengono dalla
// prima lettura della finestra.
func average(readings []messages.WaterReading) messages.WaterReading {
	n := float64(len(readings))
	out := messages.WaterReading{
		StationID:  readings[0].StationID,
		SensorID:   readings[0].SensorID,
		Aggregated: true,
	}
	for _, r := range readings {
		out.TDS += r.TDS
		out.Turbidity += r.Turbidity
		out.Temperature += r.Temperature
		out.PH += r.PH
	}
	out.TDS /= n
	out.Turbidity /= n
	out.Temperature /= n
	out.PH /= n
	return out
}

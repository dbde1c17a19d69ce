package ingest

import (
	"log"
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// PointWriter è il sottoinsieme di api.WriteAPI che ci serve: scrittura
// asincrona di punti e canale degli errori.
type PointWriter interface {
	WritePoint(point *write.Point)
	Errors() <-chan error
}

// Writer incapsula il WriteAPI e traccia l'ultimo errore di scrittura per
// /healthz e /readyz.
type Writer struct {
	api     PointWriter
	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
}

// NewWriter inizializza il writer e attiva il listener degli errori
// asincroni di Influx.
func NewWriter(w PointWriter) *Writer {
	ww := &Writer{
		api:     w,
		lastErr: time.Now().Add(-24 * time.Hour), // di default "lontano nel tempo"
		counts:  make(map[string]int64),
	}
	go func() {
		for err := range w.Errors() {
			if err != nil {
				ww.mu.Lock()
				ww.lastErr = time.Now()
				ww.mu.Unlock()
				log.Printf("influx write error: %v", err)
			}
		}
	}()
	return ww
}

// WritePoint inoltra il punto al WriteAPI e aggiorna il contatore per kind.
func (w *Writer) WritePoint(kind string, p *write.Point) {
	w.api.WritePoint(p)
	w.mu.Lock()
	w.counts[kind]++
	w.mu.Unlock()
}

// LastErrorAge ritorna da quanto tempo non si verificano errori di scrittura.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

// Count legge il contatore per tipo di punto scritto. (utile al debug e ai test)
func (w *Writer) Count(kind string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	c := w.counts[kind]
	w.mu.RUnlock()
	return c
}

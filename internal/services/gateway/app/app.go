package app

import (
	"log"
	"sync"
	"time"
)

type Config struct {
	IngestBaseURL     string
	PredictionBaseURL string
	HTTPTimeout       time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration

	Logger *log.Logger
}

type Gateway struct {
	cfg    Config
	data   *Upstream
	alerts *Upstream
	model  *Upstream

	// ultima lista alert valida: servita quando l'upstream è giù
	mu             sync.Mutex
	lastGoodAlerts []Alert
}

func NewGateway(cfg Config) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	// Un breaker per ciascun upstream
	d := NewUpstream("ingest-data", cfg.IngestBaseURL, "/data/latest", cfg.HTTPTimeout, cfg.BreakerFailures, cfg.BreakerOpenFor)
	a := NewUpstream("ingest-alerts", cfg.IngestBaseURL, "/alerts/recent", cfg.HTTPTimeout, cfg.BreakerFailures, cfg.BreakerOpenFor)
	m := NewUpstream("prediction-status", cfg.PredictionBaseURL, "/status", cfg.HTTPTimeout, cfg.BreakerFailures, cfg.BreakerOpenFor)

	return &Gateway{cfg: cfg, data: d, alerts: a, model: m}
}

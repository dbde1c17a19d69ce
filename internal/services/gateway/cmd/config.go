package main

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	IngestURL     string
	PredictionURL string
	TimeoutMs     int

	CBFails  int
	CBOpenMs int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func loadConfig() Config {
	return Config{
		Port:          getenv("PORT", "5009"),
		IngestURL:     getenv("INGEST_URL", "http://ingest-service:8080"),
		PredictionURL: getenv("PREDICTION_URL", "http://prediction-service:5000"),
		TimeoutMs:     getenvInt("TIMEOUT_MS", 3000),

		CBFails:  getenvInt("CB_FAILS", 3),
		CBOpenMs: getenvInt("CB_OPEN_MS", 10000),
	}
}

func (c Config) timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }
func (c Config) openFor() time.Duration { return time.Duration(c.CBOpenMs) * time.Millisecond }

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/acquasense/potability/internal/services/gateway/app"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	gw := app.NewGateway(app.Config{
		IngestBaseURL:     cfg.IngestURL,
		PredictionBaseURL: cfg.PredictionURL,
		HTTPTimeout:       cfg.timeout(),
		BreakerFailures:   cfg.CBFails,
		BreakerOpenFor:    cfg.openFor(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gw.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("gateway: shutdown complete")
}

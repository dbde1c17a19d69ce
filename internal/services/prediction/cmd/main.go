package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/acquasense/potability/internal/artifacts"
	"github.com/acquasense/potability/internal/services/prediction"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Gli artefatti devono esserci all'avvio: senza modelli il processo
	// esce con codice non-zero, anche se il verdetto è rule-based.
	modelDir := envStr("MODEL_DIR", "./models")
	bundle, err := artifacts.Load(modelDir)
	if err != nil {
		log.Fatalf("prediction: failed to load models: %v", err)
	}
	log.Printf("prediction: models loaded from %s", modelDir)

	// Watch sugli artefatti: models_loaded segue lo stato su disco.
	go func() {
		if err := bundle.Watch(ctx); err != nil {
			log.Printf("prediction: artifact watch unavailable: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + envStr("PORT", "5000"),
		Handler:           prediction.NewServer(bundle).Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("prediction: HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("prediction: shutdown complete")
}

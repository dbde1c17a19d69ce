package artifacts

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Nomi file attesi dentro MODEL_DIR. Devono esistere entrambi all'avvio:
// il servizio esce con codice non-zero se mancano, anche se il verdetto
// restituito dalle API non li consulta.
const (
	ClassifierFile = "potability_classifier.gob"
	RegressorFile  = "potability_score_regressor.gob"
)

// Artifact è il contenuto decodificato di un modello serializzato.
type Artifact struct {
	Name      string
	Algorithm string // es. "RandomForestClassifier"
	Version   string
	TrainedAt string
	Accuracy  string
	Weights   []float64
}

// Bundle raccoglie i due artefatti caricati all'avvio. È un valore esplicito
// passato ai costruttori degli handler, non stato globale di processo.
type Bundle struct {
	dir string

	mu         sync.RWMutex
	classifier *Artifact
	regressor  *Artifact
	loadedAt   time.Time
}

// Load carica classifier e regressor da dir. Errore se uno dei due manca
// o non si decodifica.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{dir: dir}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload rilegge entrambi gli artefatti da disco. In caso di errore il
// bundle viene marcato come non caricato.
func (b *Bundle) Reload() error {
	cls, err := readArtifact(filepath.Join(b.dir, ClassifierFile))
	if err != nil {
		b.markUnloaded()
		return fmt.Errorf("load classifier: %w", err)
	}
	reg, err := readArtifact(filepath.Join(b.dir, RegressorFile))
	if err != nil {
		b.markUnloaded()
		return fmt.Errorf("load regressor: %w", err)
	}

	b.mu.Lock()
	b.classifier = cls
	b.regressor = reg
	b.loadedAt = time.Now()
	b.mu.Unlock()
	return nil
}

func (b *Bundle) markUnloaded() {
	b.mu.Lock()
	b.classifier = nil
	b.regressor = nil
	b.mu.Unlock()
}

// Loaded indica se entrambi gli artefatti sono in memoria.
func (b *Bundle) Loaded() bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.classifier != nil && b.regressor != nil
}

func (b *Bundle) LoadedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadedAt
}

func (b *Bundle) Dir() string { return b.dir }

// Classifier ritorna una copia dell'artefatto (nil se non caricato).
func (b *Bundle) Classifier() *Artifact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyArtifact(b.classifier)
}

func (b *Bundle) Regressor() *Artifact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyArtifact(b.regressor)
}

func copyArtifact(a *Artifact) *Artifact {
	if a == nil {
		return nil
	}
	out := *a
	out.Weights = append([]float64(nil), a.Weights...)
	return &out
}

func readArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &a, nil
}

// WriteArtifact serializza un artefatto su disco (usato dal tooling di
// training e dai test).
func WriteArtifact(path string, a *Artifact) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(a); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package artifacts

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch osserva MODEL_DIR e mantiene aggiornato lo stato models_loaded:
// rimozione/rename di un artefatto → bundle non caricato, write/create →
// tentativo di reload. Se il reload fallisce resta valido l'ultimo bundle
// buono (o lo stato non caricato). Gira finché ctx non viene cancellato.
func (b *Bundle) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(b.dir); err != nil {
		return err
	}
	log.Printf("artifacts: watching %s", b.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if name != ClassifierFile && name != RegressorFile {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				log.Printf("artifacts: %s removed, marking models unloaded", name)
				b.markUnloaded()
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				if err := b.Reload(); err != nil {
					log.Printf("artifacts: reload failed: %v", err)
					continue
				}
				log.Printf("artifacts: reloaded after change to %s", name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("artifacts: watcher error: %v", err)
		}
	}
}

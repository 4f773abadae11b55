package eventlog

// eventlog — append-only JSONL sink, one file per sporting event.
//
// Each record is a single JSON line with an ISO-8601 timestamp and a type
// tag. Write-only: the bot never reads these files back.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
)

// Writer implements ports.EventLogger on top of per-event files.
type Writer struct {
	dir string

	mu    sync.Mutex
	files map[string]*os.File // eventID → open file
}

// NewWriter creates the events directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("eventlog.NewWriter: mkdir %q: %w", dir, err)
	}
	return &Writer{dir: dir, files: make(map[string]*os.File)}, nil
}

// Write añade un registro al log del evento dado. Completa At y RecordID si
// vienen vacíos.
func (w *Writer) Write(eventID string, rec domain.EventRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	if rec.RecordID == "" {
		rec.RecordID = uuid.New().String()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("eventlog.Write: marshal: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.file(eventID)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("eventlog.Write: append %q: %w", eventID, err)
	}
	return nil
}

// file devuelve (abriendo si hace falta) el archivo del evento.
func (w *Writer) file(eventID string) (*os.File, error) {
	if f, ok := w.files[eventID]; ok {
		return f, nil
	}
	path := filepath.Join(w.dir, eventID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog.Write: open %q: %w", path, err)
	}
	w.files[eventID] = f
	return f, nil
}

// Close cierra todos los archivos abiertos.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for id, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("eventlog.Close: %q: %w", id, err)
		}
		delete(w.files, id)
	}
	return firstErr
}

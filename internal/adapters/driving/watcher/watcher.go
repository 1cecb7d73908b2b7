// Package watcher uploads text files dropped into an inbox directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sage-cli/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is uploaded.
const DefaultSettle = 300 * time.Millisecond

const retryInterval = 2 * time.Second

// Uploaded describes one file turned into a document.
type Uploaded struct {
	Path       string
	DocumentID string
}

// Watcher turns new or modified inbox files into documents and, when an
// ingestion controller is set, submits them for training.
type Watcher struct {
	dir      string
	category domain.Category
	docs     driving.DocumentService
	importer driving.FileImporter
	ingest   driving.IngestionController
	settle   time.Duration
	log      logger.Component

	// OnUpload, when set, is called after each upload.
	OnUpload func(Uploaded)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	byPath  map[string]string
	pending []string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithAutoTrain submits uploaded documents to ingest.
func WithAutoTrain(ingest driving.IngestionController) Option {
	return func(w *Watcher) { w.ingest = ingest }
}

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New creates a watcher over dir. Files in any format importer supports
// become documents of category; docs removes superseded versions.
func New(
	dir string,
	category domain.Category,
	docs driving.DocumentService,
	importer driving.FileImporter,
	opts ...Option,
) *Watcher {
	if !category.IsValid() {
		category = domain.CategoryKnowledge
	}
	w := &Watcher{
		dir:      dir,
		category: category,
		docs:     docs,
		importer: importer,
		settle:   DefaultSettle,
		log:      logger.For("inbox"),
		timers:   make(map[string]*time.Timer),
		byPath:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the inbox until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching %s", w.dir)

	ready := make(chan string, 16)
	retry := time.NewTicker(retryInterval)
	defer retry.Stop()
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleFsEvent(event); ok {
				w.schedule(ctx, path, ready)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error: %v", err)

		case path := <-ready:
			if err := w.upload(ctx, path); err != nil {
				w.log.Warn("upload %s: %v", filepath.Base(path), err)
			}
			w.train(ctx)

		case <-retry.C:
			w.train(ctx)
		}
	}
}

// handleFsEvent returns the file to upload for event, if any.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return "", false
	}
	if !w.importer.Supports(name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// schedule uploads path once it has been quiet for the settle period.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// upload stores path as a document, replacing the previous upload of the
// same file when possible.
func (w *Watcher) upload(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) == "" {
		w.log.Debug("skipping empty %s", filepath.Base(path))
		return nil
	}

	name := filepath.Base(path)
	doc, err := w.importer.Import(ctx, domain.RawFile{Filename: name, Content: data}, domain.NewDocument{
		Description: "inbox: " + name,
		Category:    w.category,
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	previous := w.byPath[path]
	w.byPath[path] = doc.ID
	if w.ingest != nil {
		w.pending = append(w.pending, doc.ID)
	}
	w.mu.Unlock()

	if previous != "" {
		if err := w.docs.Delete(ctx, previous); err != nil && !errors.Is(err, domain.ErrNotFound) {
			w.log.Warn("keeping previous version %s of %s: %v", previous, name, err)
		}
	}

	w.log.Info("uploaded %s as %s", name, doc.ID)
	if w.OnUpload != nil {
		w.OnUpload(Uploaded{Path: path, DocumentID: doc.ID})
	}
	return nil
}

// train submits pending uploads. A busy controller keeps them for the next try.
func (w *Watcher) train(ctx context.Context) {
	if w.ingest == nil {
		return
	}
	w.mu.Lock()
	ids := append([]string(nil), w.pending...)
	w.mu.Unlock()
	if len(ids) == 0 {
		return
	}

	jobID, err := w.ingest.Submit(ctx, ids)
	switch {
	case errors.Is(err, domain.ErrBusy):
		w.log.Debug("controller busy, %d uploads waiting", len(ids))
		return
	case err != nil:
		w.log.Warn("train inbox uploads: %v", err)
	default:
		w.log.Info("training %d inbox uploads as job %s", len(ids), jobID)
	}

	w.mu.Lock()
	w.pending = w.pending[len(ids):]
	w.mu.Unlock()
}

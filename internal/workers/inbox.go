package workers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/sand/swift-screening-app/backend/internal/core/ports"
)

// InboxWatcher следит за каталогом входящих сообщений: новый .txt файл
// читается, обогащается и сохраняется. Повторная выкладка того же
// сообщения безопасна, дубликат отсеет хранилище.
type InboxWatcher struct {
	logger   *slog.Logger
	enricher ports.EnrichmentService
	messages ports.MessageService
	inboxDir string
}

func NewInboxWatcher(logger *slog.Logger, enricher ports.EnrichmentService, messages ports.MessageService, inboxDir string) *InboxWatcher {
	return &InboxWatcher{
		logger:   logger,
		enricher: enricher,
		messages: messages,
		inboxDir: inboxDir,
	}
}

// Start blocks until the context is cancelled.
func (w *InboxWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.inboxDir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err = watcher.Add(w.inboxDir); err != nil {
		return err
	}

	w.logger.Info("Starting inbox watcher", "dir", w.inboxDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Inbox watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
				w.logger.Debug("Ignoring non-message file", "file", event.Name)
				continue
			}
			w.processFile(ctx, event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Inbox watcher error", "error", watchErr)
		}
	}
}

func (w *InboxWatcher) processFile(ctx context.Context, path string) {
	ingestID := uuid.NewString()
	logger := w.logger.With("ingest_id", ingestID, "file", filepath.Base(path))

	raw, err := readWithRetries(path)
	if err != nil {
		logger.Error("Failed to read inbox file", "error", err)
		return
	}

	record, err := w.enricher.Enrich(ctx, raw)
	if err != nil {
		logger.Warn("Inbox file rejected", "error", err)
		return
	}

	if err = w.messages.Store(ctx, record); err != nil {
		logger.Error("Failed to store inbox message", "error", err)
		return
	}

	logger.Info("Inbox file processed", "reference", *record.Reference)
}

// readWithRetries читает файл, который в момент события мог быть еще не
// дописан: ограниченное число попыток с фиксированной паузой.
func readWithRetries(path string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < ports.InboxReadRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(ports.InboxRetryDelay)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		if len(bytes.TrimSpace(data)) == 0 {
			lastErr = errors.New("file is empty")
			continue
		}
		return string(data), nil
	}

	return "", lastErr
}

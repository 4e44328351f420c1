package workers

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.openly.dev/pointy"

	"github.com/sand/swift-screening-app/backend/internal/entities"
)

type fakeEnricher struct{}

func (fakeEnricher) Enrich(_ context.Context, _ string) (*entities.TransactionRecord, error) {
	return &entities.TransactionRecord{Reference: pointy.String("REF1")}, nil
}

type fakeStore struct {
	mu     sync.Mutex
	stored []*entities.TransactionRecord
}

func (f *fakeStore) Store(_ context.Context, record *entities.TransactionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, record)
	return nil
}

func (f *fakeStore) List(_ context.Context) ([]entities.TransactionRecord, error) { return nil, nil }

func (f *fakeStore) Get(_ context.Context, _ string) (*entities.TransactionRecord, error) {
	return nil, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

func TestReadWithRetriesWaitsForContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "message.txt")
	// Файл появился пустым, содержимое доезжает чуть позже.
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte(":20:REF1"), 0o644)
	}()

	content, err := readWithRetries(path)
	require.NoError(t, err)
	require.Equal(t, ":20:REF1", content)
}

func TestReadWithRetriesGivesUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	_, err := readWithRetries(path)
	require.Error(t, err)
}

func TestInboxWatcherProcessesNewFile(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	watcher := NewInboxWatcher(newTestLogger(), fakeEnricher{}, store, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Start(ctx)
	}()

	// Даем вотчеру подписаться на каталог.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "msg1.txt"), []byte(":20:REF1\n:23B:CRED"), 0o644))
	// Файлы с другим расширением игнорируются.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.tmp"), []byte("scratch"), 0o644))

	require.Eventually(t, func() bool { return store.count() == 1 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

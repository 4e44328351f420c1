package usecases

import (
	"context"
	"log/slog"

	"github.com/sand/swift-screening-app/backend/internal/entities"
)

// MessagesRepository is the storage boundary for processed messages.
type MessagesRepository interface {
	Insert(ctx context.Context, record *entities.TransactionRecord) (bool, error)
	FindAll(ctx context.Context) ([]entities.TransactionRecord, error)
	FindByReference(ctx context.Context, reference string) (*entities.TransactionRecord, error)
}

// Broadcaster pushes a stored record to live subscribers.
type Broadcaster interface {
	Broadcast(record *entities.TransactionRecord)
}

// MessageService stores enriched records and fans them out to the live
// feed. A duplicate reference is a clean no-op, not an error: the inbox
// watcher and the HTTP API may race on the same file.
type MessageService struct {
	logger *slog.Logger
	repo   MessagesRepository
	feed   Broadcaster
}

func NewMessageService(logger *slog.Logger, repo MessagesRepository, feed Broadcaster) *MessageService {
	return &MessageService{logger: logger, repo: repo, feed: feed}
}

// Store persists the record and notifies subscribers about new ones.
func (s *MessageService) Store(ctx context.Context, record *entities.TransactionRecord) error {
	inserted, err := s.repo.Insert(ctx, record)
	if err != nil {
		return err
	}
	if inserted && s.feed != nil {
		s.feed.Broadcast(record)
	}
	return nil
}

func (s *MessageService) List(ctx context.Context) ([]entities.TransactionRecord, error) {
	return s.repo.FindAll(ctx)
}

func (s *MessageService) Get(ctx context.Context, reference string) (*entities.TransactionRecord, error) {
	return s.repo.FindByReference(ctx, reference)
}

package ports

import (
	"context"

	"github.com/sand/swift-screening-app/backend/internal/entities"
	"github.com/sand/swift-screening-app/backend/internal/sdn"
)

// EnrichmentService разбирает сырое MT103 сообщение и обогащает его
// данными реестров.
type EnrichmentService interface {
	Enrich(ctx context.Context, raw string) (*entities.TransactionRecord, error)
}

// MessageService defines the interface for stored message operations.
type MessageService interface {
	Store(ctx context.Context, record *entities.TransactionRecord) error
	List(ctx context.Context) ([]entities.TransactionRecord, error)
	Get(ctx context.Context, reference string) (*entities.TransactionRecord, error)
}

// SDNService defines the interface for the OFAC SDN list operations.
type SDNService interface {
	List(ctx context.Context) ([]sdn.Entry, error)
	Update(ctx context.Context) (int, error)
}

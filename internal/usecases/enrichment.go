package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sand/swift-screening-app/backend/internal/crawler"
	"github.com/sand/swift-screening-app/backend/internal/entities"
	"github.com/sand/swift-screening-app/backend/internal/registry"
	"github.com/sand/swift-screening-app/backend/internal/swift"
)

// ErrMissingReference is the only validation error besides an empty
// message: a record without :20: cannot be stored or deduplicated.
var ErrMissingReference = errors.New("transaction reference is missing")

// EnrichmentService turns a raw MT103 text into a stored-ready record:
// extract fields, then resolve both parties against business registries
// and attach their ownership graphs.
type EnrichmentService struct {
	logger          *slog.Logger
	extractor       *swift.Extractor
	senderRegistry  registry.Client
	senderCrawler   *crawler.Crawler
	receiverCrawler *crawler.Crawler
	timeout         time.Duration
}

func NewEnrichmentService(
	logger *slog.Logger,
	extractor *swift.Extractor,
	senderRegistry registry.Client,
	senderCrawler, receiverCrawler *crawler.Crawler,
	timeout time.Duration,
) *EnrichmentService {
	return &EnrichmentService{
		logger:          logger,
		extractor:       extractor,
		senderRegistry:  senderRegistry,
		senderCrawler:   senderCrawler,
		receiverCrawler: receiverCrawler,
		timeout:         timeout,
	}
}

// Enrich extracts the message and crawls both parties concurrently under
// a single deadline. Enrichment is best effort: when the deadline hits or
// a registry is down, the record is returned with whatever was resolved,
// never an error. Errors are for invalid input only.
func (s *EnrichmentService) Enrich(ctx context.Context, raw string) (*entities.TransactionRecord, error) {
	record, err := s.extractor.Extract(raw)
	if err != nil {
		return nil, err
	}
	if record.Reference == nil {
		return nil, ErrMissingReference
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		record.CompanyInfo = s.enrichSender(gctx, record.Sender.Name)
		return nil
	})
	g.Go(func() error {
		if record.Receiver.INN != nil && *record.Receiver.INN != "" {
			record.ReceiverInfo = s.receiverCrawler.Expand(gctx, *record.Receiver.INN, 0, map[string]struct{}{})
		}
		return nil
	})
	_ = g.Wait()

	s.logger.InfoContext(ctx, "message enriched",
		"reference", *record.Reference,
		"sender_resolved", record.CompanyInfo != nil,
		"receiver_resolved", record.ReceiverInfo != nil,
		"took", time.Since(started))

	return record, nil
}

// enrichSender resolves the sender by name: registry search first, then
// the ownership crawl from the found card.
func (s *EnrichmentService) enrichSender(ctx context.Context, name *string) *entities.CompanyProfile {
	if name == nil || *name == "" {
		return nil
	}

	link, err := s.senderRegistry.Search(ctx, *name)
	if err != nil {
		s.logger.WarnContext(ctx, "sender search failed", "name", *name, "error", err)
		return nil
	}
	if link == "" {
		s.logger.DebugContext(ctx, "sender not found in registry", "name", *name)
		return nil
	}

	return s.senderCrawler.Expand(ctx, link, 0, map[string]struct{}{})
}

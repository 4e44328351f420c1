package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/sand/swift-screening-app/backend/internal/core/ports"
)

// SDNRefresher worker periodically re-downloads the OFAC SDN list.
type SDNRefresher struct {
	logger     *slog.Logger
	sdnService ports.SDNService

	// How often to re-download the list
	refreshInterval time.Duration
}

func NewSDNRefresher(logger *slog.Logger, sdnService ports.SDNService, refreshInterval time.Duration) *SDNRefresher {
	return &SDNRefresher{
		logger:          logger,
		sdnService:      sdnService,
		refreshInterval: refreshInterval,
	}
}

// Start begins the periodic refresh of the SDN list.
func (sr *SDNRefresher) Start(ctx context.Context) {
	sr.logger.Info("Starting SDN refresher worker", "interval", sr.refreshInterval.String())

	// Run an initial refresh immediately
	sr.refresh(ctx)

	ticker := time.NewTicker(sr.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sr.logger.Info("SDN refresher worker stopped")
			return
		case <-ticker.C:
			sr.refresh(ctx)
		}
	}
}

func (sr *SDNRefresher) refresh(ctx context.Context) {
	count, err := sr.sdnService.Update(ctx)
	if err != nil {
		// Список останется прежним до следующего тика, это не фатально.
		sr.logger.Error("SDN refresh failed", "error", err)
		return
	}
	sr.logger.Info("SDN list refreshed", "entries", count)
}

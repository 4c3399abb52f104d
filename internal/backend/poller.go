package backend

import (
	"context"
	"log/slog"
	"time"

	"github.com/fidmor2026/zaapar/internal/ledger"
)

const defaultPollInterval = 3 * time.Second

// Poller is the fixed-interval execution backend, used when no
// notification channel is available. Each tick it claims at most one
// pending entry and processes it to a terminal state. Running it next
// to a Consumer is safe: claims are exclusive.
type Poller struct {
	ledger    ledger.Ledger
	processor *Processor
	interval  time.Duration
	workerID  string
	logger    *slog.Logger
}

// NewPoller creates a Poller identified by workerID
func NewPoller(l ledger.Ledger, processor *Processor, interval time.Duration, workerID string, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Poller{
		ledger:    l,
		processor: processor,
		interval:  interval,
		workerID:  workerID,
		logger:    logger,
	}
}

// Start polls the ledger until the context is canceled
func (p *Poller) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Polling backend started",
		slog.String("worker_id", p.workerID),
		slog.Duration("interval", p.interval),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Polling backend stopped - context canceled")
			return nil

		case <-ticker.C:
			if err := p.tick(ctx); err != nil {
				p.logger.Error("Poll tick failed",
					slog.Any("error", err),
				)
			}
		}
	}
}

// tick claims and processes at most one entry
func (p *Poller) tick(ctx context.Context) error {
	entry, err := p.ledger.ClaimOldestPending(ctx, p.workerID)
	if err != nil {
		return err
	}
	if entry == nil {
		// empty backlog
		return nil
	}

	return p.processor.ProcessEntry(ctx, entry)
}

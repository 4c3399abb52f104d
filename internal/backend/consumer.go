package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fidmor2026/zaapar/internal/ledger"
	"github.com/fidmor2026/zaapar/shared/rabbitmq"
)

// ackDecision tells the delivery loop what to do with a message
type ackDecision int

const (
	ackMessage ackDecision = iota
	nackDrop
	nackRequeue
)

// Consumer is the push-notified execution backend. It reacts to work
// notifications, claims the referenced entry, and processes the payload
// carried in the message. Safe to run next to a Poller against the same
// ledger: the conditional claim keeps entries single-owner.
type Consumer struct {
	client    *rabbitmq.Client
	ledger    ledger.Ledger
	processor *Processor
	workerID  string
	prefetch  int
	logger    *slog.Logger
}

// NewConsumer creates a Consumer identified by workerID
func NewConsumer(client *rabbitmq.Client, l ledger.Ledger, processor *Processor, workerID string, prefetch int, logger *slog.Logger) *Consumer {
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		client:    client,
		ledger:    l,
		processor: processor,
		workerID:  workerID,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Start consumes work notifications until the context is canceled.
// Messages are handled one at a time; there is no intra-process
// parallel extraction.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.client.Consume(c.workerID, c.prefetch)
	if err != nil {
		return err
	}

	c.logger.Info("Push-notified backend started",
		slog.String("worker_id", c.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Push-notified backend stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("Notification channel closed")
				return errors.New("notification channel closed")
			}

			decision := c.handle(ctx, delivery.Body)

			var ackErr error
			switch decision {
			case ackMessage:
				ackErr = delivery.Ack(false)
			case nackDrop:
				ackErr = delivery.Nack(false, false)
			case nackRequeue:
				ackErr = delivery.Nack(false, true)
			}

			if ackErr != nil {
				c.logger.Error("Failed to settle notification",
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
					slog.Any("error", ackErr),
				)
			}
		}
	}
}

// handle processes one notification body and decides its settlement
func (c *Consumer) handle(ctx context.Context, body []byte) ackDecision {
	var note Notification
	if err := json.Unmarshal(body, &note); err != nil || note.JobRowID <= 0 {
		c.logger.Error("Malformed work notification",
			slog.String("body", string(body)),
		)
		// malformed messages never become processable, drop them
		return nackDrop
	}

	entry, err := c.ledger.Claim(ctx, note.JobRowID, c.workerID)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyClaimed) {
			// another backend instance won the claim, nothing to do
			c.logger.Warn("Entry already claimed, skipping",
				slog.Int64("entry_id", note.JobRowID),
			)
			return ackMessage
		}

		c.logger.Error("Failed to claim entry",
			slog.Int64("entry_id", note.JobRowID),
			slog.Any("error", err),
		)
		return nackRequeue
	}

	// process with the payload carried in the notification, not the
	// ledger row, to avoid racing a not-yet-committed payload write
	payload := Payload{Text: note.Text, Filename: note.Filename}

	if err := c.processor.ProcessClaimed(ctx, entry, payload); err != nil {
		c.logger.Error("Failed to process entry",
			slog.Int64("entry_id", entry.ID),
			slog.Any("error", err),
		)
		return nackRequeue
	}

	return ackMessage
}

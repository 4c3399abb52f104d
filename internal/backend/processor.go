package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fidmor2026/zaapar/internal/ledger"
	"github.com/fidmor2026/zaapar/internal/profile"
)

// Payload is the document submission carried by a ledger entry
type Payload struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// ResultPayload is the terminal result attached to a ledger entry.
// Error captures extraction-path failures without failing the entry.
type ResultPayload struct {
	Profile profile.Profile `json:"profile"`
	Error   string          `json:"error,omitempty"`
}

// Notification is the message published on the work channel when an
// entry is enqueued. It carries the payload so the consumer does not
// have to re-read a possibly not-yet-committed ledger row.
type Notification struct {
	JobRowID int64   `json:"jobRowId"`
	UserID   *string `json:"userId"`
	Filename string  `json:"filename"`
	Text     string  `json:"text"`
}

// Extractor is the profile extraction capability consumed by backends
type Extractor interface {
	Extract(ctx context.Context, rawText string) profile.Result
}

// Processor runs the extraction step for an already-claimed ledger
// entry and drives it to a terminal state. Shared by both execution
// backends; claim exclusivity is the ledger's concern, not ours.
type Processor struct {
	ledger    ledger.Ledger
	extractor Extractor
	logger    *slog.Logger
}

// NewProcessor creates a Processor
func NewProcessor(l ledger.Ledger, extractor Extractor, logger *slog.Logger) *Processor {
	return &Processor{
		ledger:    l,
		extractor: extractor,
		logger:    logger,
	}
}

// ProcessEntry decodes the claimed entry's own payload and processes it.
// Used by the polling backend.
func (p *Processor) ProcessEntry(ctx context.Context, entry *ledger.Entry) error {
	var payload Payload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		p.logger.Error("Failed to decode entry payload",
			slog.Int64("entry_id", entry.ID),
			slog.Any("error", err),
		)

		result, _ := json.Marshal(ResultPayload{Error: fmt.Sprintf("invalid payload: %s", err)})
		if failErr := p.ledger.Fail(ctx, entry.ID, string(result)); failErr != nil {
			return fmt.Errorf("failed to mark entry failed: %w", failErr)
		}
		return nil
	}

	return p.ProcessClaimed(ctx, entry, payload)
}

// ProcessClaimed runs extraction on the given payload, writes the
// terminal result, and appends the extracted profile for the owning
// user. Extraction failures are captured inside a done result; only
// ledger I/O failures are returned.
func (p *Processor) ProcessClaimed(ctx context.Context, entry *ledger.Entry, payload Payload) error {
	p.logger.Info("Processing ledger entry",
		slog.Int64("entry_id", entry.ID),
		slog.String("kind", entry.Kind),
		slog.String("filename", payload.Filename),
	)

	extracted := p.extractor.Extract(ctx, payload.Text)

	result, err := json.Marshal(ResultPayload{
		Profile: extracted.Profile,
		Error:   extracted.Err,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := p.ledger.Complete(ctx, entry.ID, string(result)); err != nil {
		return fmt.Errorf("failed to complete entry: %w", err)
	}

	if extracted.Err != "" {
		p.logger.Warn("Entry done with degraded extraction",
			slog.Int64("entry_id", entry.ID),
			slog.String("extraction_error", extracted.Err),
		)
	}

	// the profile row is a separate write from the ledger result; a
	// failure here must not undo the terminal transition
	data, err := json.Marshal(extracted.Profile)
	if err == nil {
		if _, err := p.ledger.SaveProfile(ctx, entry.UserID, string(data)); err != nil {
			p.logger.Warn("Failed to save extracted profile",
				slog.Int64("entry_id", entry.ID),
				slog.Any("error", err),
			)
		}
	}

	p.logger.Info("Ledger entry processed",
		slog.Int64("entry_id", entry.ID),
	)

	return nil
}

package handler

import (
	"context"
	"log/slog"

	"github.com/fidmor2026/zaapar/internal/ledger"
	"github.com/fidmor2026/zaapar/internal/matching"
)

// Notifier publishes work notifications. Nil-safe at the call sites:
// poll-only deployments run without a notification channel.
type Notifier interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Ledger   ledger.Ledger
	Notifier Notifier
	Matching *matching.Service
}

// DocumentHandler handles document submission and job polling
type DocumentHandler struct {
	logger   *slog.Logger
	ledger   ledger.Ledger
	notifier Notifier
}

// NewDocumentHandler creates a new DocumentHandler instance
func NewDocumentHandler(deps *Dependencies) *DocumentHandler {
	return &DocumentHandler{
		logger:   deps.Logger,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
	}
}

// MatchHandler handles ranked listing requests
type MatchHandler struct {
	logger   *slog.Logger
	matching *matching.Service
}

// NewMatchHandler creates a new MatchHandler instance
func NewMatchHandler(deps *Dependencies) *MatchHandler {
	return &MatchHandler{
		logger:   deps.Logger,
		matching: deps.Matching,
	}
}

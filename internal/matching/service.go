package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fidmor2026/zaapar/internal/ledger"
	"github.com/fidmor2026/zaapar/internal/listings"
	"github.com/fidmor2026/zaapar/internal/profile"
	"github.com/fidmor2026/zaapar/internal/scoring"
)

// Service is the read-side ranking flow: latest profile in, ordered
// listings out. Adapter failures propagate to the caller; scoring and
// ranking never fail a request.
type Service struct {
	ledger   ledger.Ledger
	searcher listings.Searcher
	scorer   *scoring.Scorer
	logger   *slog.Logger
}

// NewService creates a matching Service
func NewService(l ledger.Ledger, searcher listings.Searcher, scorer *scoring.Scorer, logger *slog.Logger) *Service {
	return &Service{
		ledger:   l,
		searcher: searcher,
		scorer:   scorer,
		logger:   logger,
	}
}

// Matches returns listings for the query ranked against the user's most
// recent profile. A user without a profile still gets a deterministic
// (uniformly low-scored) ordering.
func (s *Service) Matches(ctx context.Context, userID, query, location string) ([]scoring.ScoredListing, error) {
	var p *profile.Profile

	if userID != "" {
		record, err := s.ledger.LatestProfileFor(ctx, userID)
		switch {
		case err == nil:
			parsed, parseErr := profile.FromJSON(record.Data)
			if parseErr != nil {
				// a stored profile that does not decode is treated the
				// same as no profile
				s.logger.Warn("Stored profile is undecodable",
					slog.String("user_id", userID),
					slog.Int64("profile_id", record.ID),
					slog.Any("error", parseErr),
				)
			} else {
				p = &parsed
			}
		case errors.Is(err, ledger.ErrNoProfile):
			s.logger.Debug("No profile for user, ranking without one",
				slog.String("user_id", userID),
			)
		default:
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
	}

	records, err := s.searcher.Search(ctx, query, location)
	if err != nil {
		return nil, fmt.Errorf("listing search failed: %w", err)
	}

	ranked := scoring.Rank(s.scorer.Score(ctx, p, records))

	s.logger.Info("Matches ranked",
		slog.String("query", query),
		slog.String("location", location),
		slog.Int("listings", len(ranked)),
		slog.Bool("with_profile", p != nil),
	)

	return ranked, nil
}

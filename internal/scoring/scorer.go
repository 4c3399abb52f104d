package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fidmor2026/zaapar/internal/ai"
	"github.com/fidmor2026/zaapar/internal/listings"
	"github.com/fidmor2026/zaapar/internal/profile"
)

const (
	// unrankedScore is assigned when no profile signal exists at all,
	// keeping the pool sortable and distinguishable from an explicit
	// zero-relevance judgment
	unrankedScore = 0.01

	// summaryTokenLimit bounds how much of the experience summary feeds
	// the fallback keyword set
	summaryTokenLimit = 50
)

const scorePrompt = `You are a job matching assistant. Given the user profile JSON and a list of job objects, return a JSON array where each element is {"id":string,"score":number} with score between 0 and 1 indicating relevance. Do not return any extra text.
User profile:
%s
Jobs:
%s
Return only JSON.`

// ScoredListing is a listing record with a relevance score in [0,1]
type ScoredListing struct {
	listings.Record
	Score float64 `json:"score"`
}

// ContentGenerator is the reasoning backend consumed by the scorer
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Scorer assigns relevance scores to listings given a profile. The
// primary strategy is one batched reasoning-backend call; whenever that
// is unavailable, errors, or returns an empty or malformed result, a
// deterministic keyword-overlap fallback takes over. Every input listing
// appears exactly once in the output.
type Scorer struct {
	generator ContentGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewScorer creates a Scorer. A nil generator routes every request
// through the fallback strategy.
func NewScorer(generator ContentGenerator, timeout time.Duration, logger *slog.Logger) *Scorer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Scorer{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Score produces one scored listing per input record, in input order
func (s *Scorer) Score(ctx context.Context, p *profile.Profile, records []listings.Record) []ScoredListing {
	if s.generator == nil || p == nil {
		return s.keywordScores(p, records)
	}

	scored, ok := s.backendScores(ctx, p, records)
	if !ok {
		return s.keywordScores(p, records)
	}

	return scored
}

// backendScores runs the batched primary strategy. The second return
// value is false when the fallback should take over.
func (s *Scorer) backendScores(ctx context.Context, p *profile.Profile, records []listings.Record) ([]ScoredListing, bool) {
	if len(records) == 0 {
		return []ScoredListing{}, true
	}

	profileJSON, err := json.Marshal(p)
	if err != nil {
		return nil, false
	}

	listingsJSON, err := json.Marshal(records)
	if err != nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.generator.GenerateContent(ctx, fmt.Sprintf(scorePrompt, profileJSON, listingsJSON))
	if err != nil {
		s.logger.Warn("Relevance scoring via reasoning backend failed",
			slog.Any("error", err),
		)
		return nil, false
	}

	var parsed []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(answer)), &parsed); err != nil || len(parsed) == 0 {
		s.logger.Warn("Reasoning backend returned unusable scores",
			slog.Int("answer_size", len(answer)),
		)
		return nil, false
	}

	byID := make(map[string]float64, len(parsed))
	for _, entry := range parsed {
		byID[entry.ID] = clamp(entry.Score)
	}

	// listings absent from the response default to 0, never dropped
	scored := make([]ScoredListing, len(records))
	for i, record := range records {
		scored[i] = ScoredListing{Record: record, Score: byID[record.ID]}
	}

	s.logger.Info("Listings scored via reasoning backend",
		slog.Int("listings", len(records)),
		slog.Int("scored_by_backend", len(parsed)),
	)

	return scored, true
}

// keywordScores is the deterministic fallback: score = fraction of
// profile keywords found in the listing text
func (s *Scorer) keywordScores(p *profile.Profile, records []listings.Record) []ScoredListing {
	keywords := keywordSet(p)

	scored := make([]ScoredListing, len(records))
	for i, record := range records {
		scored[i] = ScoredListing{Record: record, Score: keywordScore(keywords, record)}
	}

	s.logger.Debug("Listings scored via keyword overlap",
		slog.Int("listings", len(records)),
		slog.Int("keywords", len(keywords)),
	)

	return scored
}

// keywordSet builds the lower-cased union of profile skills and the
// first tokens of the experience summary
func keywordSet(p *profile.Profile) map[string]struct{} {
	set := make(map[string]struct{})
	if p == nil {
		return set
	}

	for _, skill := range p.Skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill != "" {
			set[skill] = struct{}{}
		}
	}

	tokens := strings.Fields(p.ExperienceSummary)
	if len(tokens) > summaryTokenLimit {
		tokens = tokens[:summaryTokenLimit]
	}
	for _, token := range tokens {
		token = strings.ToLower(token)
		if token != "" {
			set[token] = struct{}{}
		}
	}

	return set
}

func keywordScore(keywords map[string]struct{}, record listings.Record) float64 {
	if len(keywords) == 0 {
		return unrankedScore
	}

	haystack := strings.ToLower(record.Title + " " + record.Summary + " " + record.Company + " " + record.Location)

	found := 0
	for keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			found++
		}
	}

	return clamp(float64(found) / float64(len(keywords)))
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fidmor2026/zaapar/internal/ai"
)

// rawFallbackLimit caps how much of the input text the degraded
// strategy keeps in the profile
const rawFallbackLimit = 800

const extractPrompt = `Extract a JSON object with fields: name (string|null), email (string|null), phone (string|null), skills (array of short strings), experienceSummary (short string), desiredRoles (array of strings). Return strictly valid JSON only. Text:

%s`

// ContentGenerator is the reasoning backend consumed by the extractor
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of one extraction attempt. Err is set only when
// the primary strategy failed; the profile is always usable.
type Result struct {
	Profile Profile
	Err     string
}

// Extractor turns raw document text into a structured profile. The
// primary strategy asks the reasoning backend for a fixed schema; the
// degraded strategy keeps the head of the input so no attempt loses
// information. Extract never returns an error: job processing must
// always reach a terminal ledger state.
type Extractor struct {
	generator ContentGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewExtractor creates an Extractor. A nil generator is allowed and
// routes every extraction through the degraded strategy.
func NewExtractor(generator ContentGenerator, timeout time.Duration, logger *slog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Extractor{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Extract runs one extraction attempt against the raw text
func (e *Extractor) Extract(ctx context.Context, rawText string) Result {
	if e.generator == nil {
		e.logger.Debug("Reasoning backend not configured, using degraded extraction")
		return e.fallback(rawText, "reasoning backend not configured")
	}

	// a hanging backend call must not wedge the backend loop
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	answer, err := e.generator.GenerateContent(ctx, fmt.Sprintf(extractPrompt, rawText))
	if err != nil {
		e.logger.Warn("Profile extraction via reasoning backend failed",
			slog.Any("error", err),
		)
		return e.fallback(rawText, err.Error())
	}

	var p Profile
	if err := json.Unmarshal([]byte(ai.ExtractJSON(answer)), &p); err != nil {
		e.logger.Warn("Reasoning backend returned unparsable profile",
			slog.Any("error", err),
			slog.Int("answer_size", len(answer)),
		)
		return e.fallback(rawText, fmt.Sprintf("unparsable extraction output: %s", err))
	}

	e.logger.Info("Profile extracted",
		slog.Int("skills", len(p.Skills)),
		slog.Int("desired_roles", len(p.DesiredRoles)),
	)

	return Result{Profile: p}
}

// fallback builds the degraded profile carrying the head of the input
func (e *Extractor) fallback(rawText, reason string) Result {
	head := rawText
	if len(head) > rawFallbackLimit {
		head = head[:rawFallbackLimit]
	}

	return Result{
		Profile: Profile{
			ExperienceSummary: head,
			Raw:               head,
		},
		Err: reason,
	}
}

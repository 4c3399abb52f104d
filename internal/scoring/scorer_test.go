package scoring

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidmor2026/zaapar/internal/listings"
	"github.com/fidmor2026/zaapar/internal/profile"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func sampleListings() []listings.Record {
	return []listings.Record{
		{ID: "x1", Title: "Go Engineer", Summary: "docker, go", Company: "Acme", Location: "Remote"},
		{ID: "x2", Title: "Java Developer", Summary: "spring", Company: "Corp", Location: "Berlin"},
		{ID: "x3", Title: "SRE", Summary: "kubernetes", Company: "Cloudy", Location: "Oslo"},
	}
}

func TestBackendScoresMappedByID(t *testing.T) {
	stub := &stubGenerator{response: `[{"id":"x1","score":0.9},{"id":"x2","score":0.2},{"id":"x3","score":0.5}]`}
	scorer := NewScorer(stub, time.Second, testLogger())

	p := &profile.Profile{Skills: []string{"go"}}
	scored := scorer.Score(context.Background(), p, sampleListings())

	require.Len(t, scored, 3)
	assert.Equal(t, 0.9, scored[0].Score)
	assert.Equal(t, 0.2, scored[1].Score)
	assert.Equal(t, 0.5, scored[2].Score)
	assert.Contains(t, stub.lastPrompt, `"x1"`)
}

func TestBackendMissingIDsDefaultToZero(t *testing.T) {
	// scores for only 2 of 3 listings: the third must survive with score 0
	stub := &stubGenerator{response: `[{"id":"x1","score":0.9},{"id":"x2","score":0.4}]`}
	scorer := NewScorer(stub, time.Second, testLogger())

	scored := scorer.Score(context.Background(), &profile.Profile{Skills: []string{"go"}}, sampleListings())

	require.Len(t, scored, 3)
	assert.Equal(t, "x3", scored[2].ID)
	assert.Equal(t, 0.0, scored[2].Score)

	ranked := Rank(scored)
	ids := []string{ranked[0].ID, ranked[1].ID, ranked[2].ID}
	assert.Equal(t, []string{"x1", "x2", "x3"}, ids)
}

func TestBackendScoresClamped(t *testing.T) {
	stub := &stubGenerator{response: `[{"id":"x1","score":3.5},{"id":"x2","score":-1},{"id":"x3","score":0.5}]`}
	scorer := NewScorer(stub, time.Second, testLogger())

	scored := scorer.Score(context.Background(), &profile.Profile{Skills: []string{"go"}}, sampleListings())

	for _, sl := range scored {
		assert.GreaterOrEqual(t, sl.Score, 0.0)
		assert.LessOrEqual(t, sl.Score, 1.0)
	}
}

func TestFallbackOnBackendError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("unreachable")}
	scorer := NewScorer(stub, time.Second, testLogger())

	p := &profile.Profile{Skills: []string{"go", "docker"}}
	scored := scorer.Score(context.Background(), p, sampleListings())

	require.Len(t, scored, 3)
	assert.Equal(t, 1.0, scored[0].Score) // both keywords hit "Go Engineer ... docker, go"
}

func TestFallbackOnMalformedOrEmptyReply(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "prose", response: "sorry, cannot score these"},
		{name: "empty array", response: "[]"},
		{name: "wrong shape", response: `{"scores": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubGenerator{response: tt.response}
			scorer := NewScorer(stub, time.Second, testLogger())

			p := &profile.Profile{Skills: []string{"go", "docker"}}
			scored := scorer.Score(context.Background(), p, sampleListings())

			require.Len(t, scored, 3)
			assert.Equal(t, 1.0, scored[0].Score)
		})
	}
}

func TestKeywordFallbackExactOverlap(t *testing.T) {
	scorer := NewScorer(nil, time.Second, testLogger())

	p := &profile.Profile{Skills: []string{"go", "docker"}}
	records := []listings.Record{{ID: "x1", Title: "Go Engineer", Summary: "docker, go"}}

	scored := scorer.Score(context.Background(), p, records)

	require.Len(t, scored, 1)
	assert.Equal(t, 1.0, scored[0].Score) // 2 of 2 keywords
}

func TestKeywordFallbackPartialOverlap(t *testing.T) {
	scorer := NewScorer(nil, time.Second, testLogger())

	p := &profile.Profile{Skills: []string{"go", "docker", "terraform", "aws"}}
	records := []listings.Record{{ID: "x1", Title: "Go Engineer", Summary: "docker"}}

	scored := scorer.Score(context.Background(), p, records)

	require.Len(t, scored, 1)
	assert.Equal(t, 0.5, scored[0].Score) // 2 of 4 keywords
}

func TestNilProfileGetsConstantLowScore(t *testing.T) {
	stub := &stubGenerator{response: `[{"id":"x1","score":0.9}]`}
	scorer := NewScorer(stub, time.Second, testLogger())

	scored := scorer.Score(context.Background(), nil, sampleListings())

	require.Len(t, scored, 3)
	for i, sl := range scored {
		assert.Equal(t, unrankedScore, sl.Score)
		assert.Equal(t, sampleListings()[i].ID, sl.ID)
	}

	// the backend must not have been consulted without a profile
	assert.Empty(t, stub.lastPrompt)

	// ranking equal keys preserves input order
	ranked := Rank(scored)
	for i := range ranked {
		assert.Equal(t, scored[i].ID, ranked[i].ID)
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	scorer := NewScorer(nil, time.Second, testLogger())

	p := &profile.Profile{
		Skills:            []string{"go", "docker", "kubernetes"},
		ExperienceSummary: "Backend engineer building Go services on kubernetes",
	}

	first := scorer.Score(context.Background(), p, sampleListings())
	for i := 0; i < 10; i++ {
		again := scorer.Score(context.Background(), p, sampleListings())
		assert.Equal(t, first, again)
	}
}

func TestFallbackSummaryTokenLimit(t *testing.T) {
	scorer := NewScorer(nil, time.Second, testLogger())

	// keyword past the 50-token cutoff must not contribute
	summary := ""
	for i := 0; i < 50; i++ {
		summary += "filler "
	}
	summary += "docker"

	p := &profile.Profile{ExperienceSummary: summary}
	records := []listings.Record{{ID: "x1", Title: "Ops", Summary: "docker"}}

	scored := scorer.Score(context.Background(), p, records)
	require.Len(t, scored, 1)
	assert.Equal(t, 0.0, scored[0].Score)
}

func TestScoreOutputLengthAlwaysMatchesInput(t *testing.T) {
	scorer := NewScorer(nil, time.Second, testLogger())

	assert.Empty(t, scorer.Score(context.Background(), nil, nil))
	assert.Len(t, scorer.Score(context.Background(), nil, sampleListings()), 3)
	assert.Len(t, scorer.Score(context.Background(), &profile.Profile{}, sampleListings()), 3)
}

func TestRankStableDescending(t *testing.T) {
	scored := []ScoredListing{
		{Record: listings.Record{ID: "a"}, Score: 0.2},
		{Record: listings.Record{ID: "b"}, Score: 0.9},
		{Record: listings.Record{ID: "c"}, Score: 0.2},
		{Record: listings.Record{ID: "d"}, Score: 0.5},
	}

	ranked := Rank(scored)

	assert.Equal(t, "b", ranked[0].ID)
	assert.Equal(t, "d", ranked[1].ID)
	// equal scores keep input order
	assert.Equal(t, "a", ranked[2].ID)
	assert.Equal(t, "c", ranked[3].ID)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}

	// input slice untouched
	assert.Equal(t, "a", scored[0].ID)
}

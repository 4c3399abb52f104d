package ledger

import (
	"context"
	"errors"
	"time"
)

// Entry lifecycle states. Transitions are monotonic:
// pending -> processing -> done | failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Work kinds
const (
	KindExtractProfile = "extract_profile"
)

var (
	// ErrEntryNotFound is returned when an entry cannot be found
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrAlreadyClaimed is returned when claiming an entry that is
	// not in pending state anymore
	ErrAlreadyClaimed = errors.New("ledger entry already claimed or not pending")

	// ErrNoProfile is returned when a user has no stored profile yet
	ErrNoProfile = errors.New("no profile for user")
)

// Entry is one durable unit of asynchronous work
type Entry struct {
	ID        int64     `db:"id"`
	UserID    *string   `db:"user_id"`
	Kind      string    `db:"kind"`
	Payload   string    `db:"payload"` // JSON text
	Status    string    `db:"status"`
	Result    *string   `db:"result"` // JSON text, set only in terminal states
	ClaimedBy *string   `db:"claimed_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Terminal reports whether the entry reached a final state
func (e *Entry) Terminal() bool {
	return e.Status == StatusDone || e.Status == StatusFailed
}

// ProfileRecord is one stored extraction output for a user
type ProfileRecord struct {
	ID        int64     `db:"id"`
	UserID    *string   `db:"user_id"`
	Data      string    `db:"data"` // JSON text
	CreatedAt time.Time `db:"created_at"`
}

// Ledger is the single shared mutable resource of the pipeline. All
// entry mutation goes through Enqueue, the claim operations, and
// Complete/Fail; nothing reads and later writes an entry without a claim.
type Ledger interface {
	// Enqueue creates a new entry in state pending and returns its id.
	// Identifiers are monotonically increasing and never reused.
	Enqueue(ctx context.Context, userID *string, kind, payload string) (int64, error)

	// Claim transitions the given entry from pending to processing as a
	// single conditional update. Returns ErrAlreadyClaimed when the entry
	// is not pending, so two concurrent claimers never both win.
	Claim(ctx context.Context, id int64, claimedBy string) (*Entry, error)

	// ClaimOldestPending atomically selects the oldest pending entry and
	// transitions it to processing. Returns (nil, nil) when the backlog
	// is empty.
	ClaimOldestPending(ctx context.Context, claimedBy string) (*Entry, error)

	// Complete transitions a processing entry to done, attaching the
	// result. A no-op with a warning for entries not in processing.
	Complete(ctx context.Context, id int64, result string) error

	// Fail transitions a processing entry to failed, attaching the
	// result. Same duplicate-delivery defense as Complete.
	Fail(ctx context.Context, id int64, result string) error

	// Get is a point lookup for status polling
	Get(ctx context.Context, id int64) (*Entry, error)

	// SaveProfile appends a profile row for the user. Profiles are never
	// mutated; later extractions supersede earlier ones.
	SaveProfile(ctx context.Context, userID *string, data string) (int64, error)

	// LatestProfileFor returns the most recently created profile for the
	// user, or ErrNoProfile
	LatestProfileFor(ctx context.Context, userID string) (*ProfileRecord, error)
}

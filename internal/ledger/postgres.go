package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Store is the PostgreSQL-backed Ledger implementation
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store instance
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

var _ Ledger = (*Store)(nil)

// Enqueue creates a new entry in state pending
func (s *Store) Enqueue(ctx context.Context, userID *string, kind, payload string) (int64, error) {
	query := `
		INSERT INTO jobs (user_id, kind, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, userID, kind, payload, StatusPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue entry: %w", err)
	}

	s.logger.Info("Ledger entry enqueued",
		slog.Int64("entry_id", id),
		slog.String("kind", kind),
	)

	return id, nil
}

// Claim transitions one known entry from pending to processing.
// The state check and the transition are a single UPDATE, so only one
// concurrent claimer can win.
func (s *Store) Claim(ctx context.Context, id int64, claimedBy string) (*Entry, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    claimed_by = $2,
		    updated_at = NOW()
		WHERE id = $3
		  AND status = $4
		RETURNING id, user_id, kind, payload, status, result, claimed_by, created_at, updated_at
	`

	var entry Entry
	err := s.db.QueryRowxContext(ctx, query, StatusProcessing, claimedBy, id, StatusPending).StructScan(&entry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim entry - already claimed or not found",
				slog.Int64("entry_id", id),
				slog.String("claimed_by", claimedBy),
			)
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim entry: %w", err)
	}

	s.logger.Info("Ledger entry claimed",
		slog.Int64("entry_id", entry.ID),
		slog.String("claimed_by", claimedBy),
		slog.String("kind", entry.Kind),
	)

	return &entry, nil
}

// ClaimOldestPending claims the single oldest pending entry. FOR UPDATE
// SKIP LOCKED keeps concurrent pollers from blocking on or double-claiming
// the same row.
func (s *Store) ClaimOldestPending(ctx context.Context, claimedBy string) (*Entry, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    claimed_by = $2,
		    updated_at = NOW()
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = $3
			ORDER BY created_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, kind, payload, status, result, claimed_by, created_at, updated_at
	`

	var entry Entry
	err := s.db.QueryRowxContext(ctx, query, StatusProcessing, claimedBy, StatusPending).StructScan(&entry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// empty backlog
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim oldest pending entry: %w", err)
	}

	s.logger.Info("Ledger entry claimed",
		slog.Int64("entry_id", entry.ID),
		slog.String("claimed_by", claimedBy),
		slog.String("kind", entry.Kind),
	)

	return &entry, nil
}

// Complete transitions a processing entry to done with its result
func (s *Store) Complete(ctx context.Context, id int64, result string) error {
	return s.finish(ctx, id, StatusDone, result)
}

// Fail transitions a processing entry to failed with its result
func (s *Store) Fail(ctx context.Context, id int64, result string) error {
	return s.finish(ctx, id, StatusFailed, result)
}

// finish performs the terminal transition, conditional on the entry
// still being in processing. Zero rows affected means a duplicate or
// out-of-order delivery; that is logged and swallowed, and updated_at
// is left untouched.
func (s *Store) finish(ctx context.Context, id int64, status, result string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    result = $2,
		    updated_at = NOW()
		WHERE id = $3
		  AND status = $4
	`

	res, err := s.db.ExecContext(ctx, query, status, result, id, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to update entry status: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Terminal transition skipped - entry not in processing",
			slog.Int64("entry_id", id),
			slog.String("target_status", status),
		)
		return nil
	}

	s.logger.Info("Ledger entry finished",
		slog.Int64("entry_id", id),
		slog.String("status", status),
	)

	return nil
}

// Get retrieves an entry by id
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	query := `
		SELECT id, user_id, kind, payload, status, result, claimed_by, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	var entry Entry
	err := s.db.GetContext(ctx, &entry, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return &entry, nil
}

// SaveProfile appends a profile row for the user
func (s *Store) SaveProfile(ctx context.Context, userID *string, data string) (int64, error) {
	query := `
		INSERT INTO profiles (user_id, data, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, userID, data).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Info("Profile saved",
		slog.Int64("profile_id", id),
	)

	return id, nil
}

// LatestProfileFor returns the most recently created profile for a user
func (s *Store) LatestProfileFor(ctx context.Context, userID string) (*ProfileRecord, error) {
	query := `
		SELECT id, user_id, data, created_at
		FROM profiles
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var record ProfileRecord
	err := s.db.GetContext(ctx, &record, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("failed to get latest profile: %w", err)
	}

	return &record, nil
}

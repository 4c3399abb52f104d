package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fidmor2026/zaapar/internal/ledger"
)

// memLedger is an in-memory Ledger with the same transition semantics
// as the PostgreSQL store, used to exercise the backend contract
// without a database.
type memLedger struct {
	mu       sync.Mutex
	nextID   int64
	entries  map[int64]*ledger.Entry
	profiles []ledger.ProfileRecord
	now      time.Time
}

func newMemLedger() *memLedger {
	return &memLedger{
		entries: make(map[int64]*ledger.Entry),
		now:     time.Now(),
	}
}

var _ ledger.Ledger = (*memLedger)(nil)

// tickClock advances the creation clock so ordering is observable
func (m *memLedger) tickClock() time.Time {
	m.now = m.now.Add(time.Millisecond)
	return m.now
}

func (m *memLedger) Enqueue(_ context.Context, userID *string, kind, payload string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	ts := m.tickClock()
	m.entries[m.nextID] = &ledger.Entry{
		ID:        m.nextID,
		UserID:    userID,
		Kind:      kind,
		Payload:   payload,
		Status:    ledger.StatusPending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	return m.nextID, nil
}

func (m *memLedger) Claim(_ context.Context, id int64, claimedBy string) (*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok || entry.Status != ledger.StatusPending {
		return nil, ledger.ErrAlreadyClaimed
	}

	entry.Status = ledger.StatusProcessing
	entry.ClaimedBy = &claimedBy
	entry.UpdatedAt = m.tickClock()

	copied := *entry
	return &copied, nil
}

func (m *memLedger) ClaimOldestPending(_ context.Context, claimedBy string) (*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldest *ledger.Entry
	for _, entry := range m.entries {
		if entry.Status != ledger.StatusPending {
			continue
		}
		if oldest == nil || entry.CreatedAt.Before(oldest.CreatedAt) {
			oldest = entry
		}
	}

	if oldest == nil {
		return nil, nil
	}

	oldest.Status = ledger.StatusProcessing
	oldest.ClaimedBy = &claimedBy
	oldest.UpdatedAt = m.tickClock()

	copied := *oldest
	return &copied, nil
}

func (m *memLedger) Complete(_ context.Context, id int64, result string) error {
	return m.finish(id, ledger.StatusDone, result)
}

func (m *memLedger) Fail(_ context.Context, id int64, result string) error {
	return m.finish(id, ledger.StatusFailed, result)
}

func (m *memLedger) finish(id int64, status, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok || entry.Status != ledger.StatusProcessing {
		// duplicate delivery defense: no-op, updated_at untouched
		return nil
	}

	entry.Status = status
	entry.Result = &result
	entry.UpdatedAt = m.tickClock()

	return nil
}

func (m *memLedger) Get(_ context.Context, id int64) (*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}

	copied := *entry
	return &copied, nil
}

func (m *memLedger) SaveProfile(_ context.Context, userID *string, data string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := ledger.ProfileRecord{
		ID:        int64(len(m.profiles) + 1),
		UserID:    userID,
		Data:      data,
		CreatedAt: m.tickClock(),
	}
	m.profiles = append(m.profiles, record)

	return record.ID, nil
}

func (m *memLedger) LatestProfileFor(_ context.Context, userID string) (*ledger.ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.profiles) - 1; i >= 0; i-- {
		if m.profiles[i].UserID != nil && *m.profiles[i].UserID == userID {
			copied := m.profiles[i]
			return &copied, nil
		}
	}

	return nil, ledger.ErrNoProfile
}

func (m *memLedger) profileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles)
}

func (m *memLedger) mustGet(id int64) ledger.Entry {
	entry, err := m.Get(context.Background(), id)
	if err != nil {
		panic(fmt.Sprintf("entry %d missing: %v", id, err))
	}
	return *entry
}

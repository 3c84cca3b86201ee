package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/models"
)

const keyLayout = "20060102"

// KeyFor derives the ledger key for a date. Time of day is irrelevant.
func KeyFor(t time.Time) string {
	return t.Format(keyLayout)
}

// ParseKey turns a YYYYMMDD ledger key back into its date.
func ParseKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(keyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, errs.Validation("key", "invalid ledger key %q, want YYYYMMDD", key)
	}
	return t, nil
}

// Manager owns the mapping from the wall clock to the active day ledger
// and applies submissions. Writes assume a single active session per
// process; there is no cross-process locking.
type Manager struct {
	store Store
	clock Clock

	mu        sync.Mutex
	activeKey string
}

func NewManager(store Store, clock Clock) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Manager{store: store, clock: clock}
}

// Store exposes the underlying tabular store for read-only collaborators.
func (m *Manager) Store() Store {
	return m.store
}

// CurrentKey derives the ledger key for today.
func (m *Manager) CurrentKey() string {
	return KeyFor(m.clock.Now())
}

// ActiveKey returns the key the last submission or rollover targeted.
func (m *Manager) ActiveKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeKey
}

func (m *Manager) setActiveKey(key string) {
	m.mu.Lock()
	m.activeKey = key
	m.mu.Unlock()
}

// EnsureLedger registers the ledger for key, creating it when absent.
func (m *Manager) EnsureLedger(key string) (bool, error) {
	if _, err := ParseKey(key); err != nil {
		return false, err
	}
	return m.store.EnsureLedger(key)
}

// Submit validates and applies a batch of check records to the ledger
// identified by key. Validation failures reject the whole batch before
// anything is written. Records whose (status, reason, notes) match the
// stored row are skipped so their timestamps stay put.
func (m *Manager) Submit(key string, records []models.CheckRecord) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	normalized := make([]models.CheckRecord, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.CheckName) == "" {
			return errs.Validation("check_name", "must not be empty")
		}
		switch rec.Status {
		case models.StatusOK:
			rec.Reason = ""
		case models.StatusNotOK:
			if strings.TrimSpace(rec.Reason) == "" {
				return errs.Validation("reason",
					"check %q is not OK, a reason is required", rec.CheckName)
			}
		default:
			return errs.Validation("status",
				"check %q has unknown status %q", rec.CheckName, rec.Status)
		}
		normalized[i] = rec
	}

	// The submission targets this key from now on, even if storage fails.
	m.setActiveKey(key)

	if _, err := m.store.EnsureLedger(key); err != nil {
		return err
	}

	now := m.clock.Now()
	written := 0
	for i := range normalized {
		normalized[i].LedgerKey = key
		normalized[i].Timestamp = now
		changed, err := m.store.Upsert(&normalized[i])
		if err != nil {
			return err
		}
		if changed {
			written++
		}
	}

	log.Debug().Str("key", key).Int("submitted", len(normalized)).
		Int("written", written).Msg("submission applied")
	return nil
}

// RolloverIfNeeded compares today's key against prevKey, creating the new
// ledger when the date has changed. Returns the new key, or "" when no
// rollover happened. Callers reset any in-memory edit state on a non-empty
// return.
func (m *Manager) RolloverIfNeeded(prevKey string) (string, error) {
	current := m.CurrentKey()
	if current == prevKey {
		return "", nil
	}
	if _, err := m.store.EnsureLedger(current); err != nil {
		return "", err
	}
	m.setActiveKey(current)
	log.Info().Str("from", prevKey).Str("to", current).Msg("day rollover")
	return current, nil
}

// CopyForward duplicates all records of src into a newly created dst
// ledger. The stored timestamps travel with the records.
func (m *Manager) CopyForward(src, dst string) error {
	if _, err := ParseKey(src); err != nil {
		return err
	}
	if _, err := ParseKey(dst); err != nil {
		return err
	}

	exists, err := m.store.Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("ledger %s: %w", dst, errs.ErrAlreadyExists)
	}

	exists, err = m.store.Exists(src)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("ledger %s: %w", src, errs.ErrNotFound)
	}

	records, err := m.store.ReadAll(src)
	if err != nil {
		return err
	}
	if _, err := m.store.EnsureLedger(dst); err != nil {
		return err
	}
	for _, rec := range records {
		copied := models.CheckRecord{
			LedgerKey:   dst,
			CheckName:   rec.CheckName,
			Status:      rec.Status,
			Reason:      rec.Reason,
			Notes:       rec.Notes,
			SubmittedBy: rec.SubmittedBy,
			Timestamp:   rec.Timestamp,
		}
		if _, err := m.store.Upsert(&copied); err != nil {
			return err
		}
	}
	return nil
}

// CopyYesterdayToToday is the copy-forward convenience the submit form
// offers: clone yesterday's ledger as today's.
func (m *Manager) CopyYesterdayToToday() (src, dst string, err error) {
	now := m.clock.Now()
	src = KeyFor(now.AddDate(0, 0, -1))
	dst = KeyFor(now)
	return src, dst, m.CopyForward(src, dst)
}

// ReadLedger returns the records of one ledger in insertion order, or
// NotFound when the day was never registered.
func (m *Manager) ReadLedger(key string) ([]models.CheckRecord, error) {
	if _, err := ParseKey(key); err != nil {
		return nil, err
	}
	exists, err := m.store.Exists(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("ledger %s: %w", key, errs.ErrNotFound)
	}
	return m.store.ReadAll(key)
}

// ListKeys returns every registered ledger key in ascending order.
func (m *Manager) ListKeys() ([]string, error) {
	return m.store.ListKeys()
}

// DeleteLedger removes one ledger. Destructive; callers confirm upstream.
func (m *Manager) DeleteLedger(key string) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	exists, err := m.store.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("ledger %s: %w", key, errs.ErrNotFound)
	}
	return m.store.Delete(key)
}

// ClearAll removes every ledger, returning the number removed.
// Destructive; callers confirm upstream.
func (m *Manager) ClearAll() (int64, error) {
	count, err := m.store.DropAll()
	if err != nil {
		return 0, err
	}
	m.setActiveKey("")
	log.Warn().Int64("ledgers", count).Msg("all ledgers cleared")
	return count, nil
}

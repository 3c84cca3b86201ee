package ledger

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opscheck/internal/database"
	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func setupStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func setupManager(t *testing.T, now time.Time) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: now}
	return NewManager(setupStore(t), clock), clock
}

func okRecord(name string) models.CheckRecord {
	return models.CheckRecord{CheckName: name, Status: models.StatusOK}
}

func failRecord(name, reason string) models.CheckRecord {
	return models.CheckRecord{CheckName: name, Status: models.StatusNotOK, Reason: reason}
}

func TestKeyForIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 3, 15, 0, 0, 1, 0, time.Local)
	night := time.Date(2024, 3, 15, 23, 59, 59, 0, time.Local)

	assert.Equal(t, "20240315", KeyFor(morning))
	assert.Equal(t, KeyFor(morning), KeyFor(night))
}

func TestParseKeyRejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{"", "2024", "2024-03-15", "20241301", "yesterday"} {
		_, err := ParseKey(key)
		assert.True(t, errs.IsValidation(err), "key %q should be rejected", key)
	}

	date, err := ParseKey("20240315")
	require.NoError(t, err)
	assert.Equal(t, 2024, date.Year())
	assert.Equal(t, time.March, date.Month())
	assert.Equal(t, 15, date.Day())
}

func TestEnsureLedgerIdempotent(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	created, err := m.EnsureLedger("20240315")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.EnsureLedger("20240315")
	require.NoError(t, err)
	assert.False(t, created)

	keys, err := m.ListKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"20240315"}, keys)
}

func TestSubmitRejectsMissingReasonAtomically(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	err := m.Submit("20240315", []models.CheckRecord{
		okRecord("Verify Server Health"),
		{CheckName: "Validate Daily Backup", Status: models.StatusNotOK},
	})
	assert.True(t, errs.IsValidation(err))

	// Nothing was written, not even the valid record or the ledger itself.
	keys, listErr := m.ListKeys()
	require.NoError(t, listErr)
	assert.Empty(t, keys)
}

func TestSubmitClearsReasonOnOK(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	rec := okRecord("Verify Server Health")
	rec.Reason = "stale reason from the form"
	require.NoError(t, m.Submit("20240315", []models.CheckRecord{rec}))

	records, err := m.ReadLedger("20240315")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Reason)
}

func TestSubmitIdempotent(t *testing.T) {
	m, clock := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	records := []models.CheckRecord{
		okRecord("Verify Server Health"),
		failRecord("Validate Daily Backup", "tape drive offline"),
	}
	require.NoError(t, m.Submit("20240315", records))

	first, err := m.ReadLedger("20240315")
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Identical resubmission an hour later leaves rows and timestamps alone.
	clock.Advance(time.Hour)
	require.NoError(t, m.Submit("20240315", records))

	second, err := m.ReadLedger("20240315")
	require.NoError(t, err)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].Timestamp, second[i].Timestamp)
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestSubmitUpsertsChangedRecords(t *testing.T) {
	m, clock := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	require.NoError(t, m.Submit("20240315", []models.CheckRecord{okRecord("Verify Server Health")}))

	updated := clock.Advance(time.Hour)
	require.NoError(t, m.Submit("20240315", []models.CheckRecord{
		failRecord("Verify Server Health", "host unreachable"),
	}))

	records, err := m.ReadLedger("20240315")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusNotOK, records[0].Status)
	assert.Equal(t, "host unreachable", records[0].Reason)
	assert.True(t, records[0].Timestamp.Equal(updated))
}

func TestSubmitUpdatesActiveKey(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	require.NoError(t, m.Submit("20240314", []models.CheckRecord{okRecord("Verify Server Health")}))
	assert.Equal(t, "20240314", m.ActiveKey())
}

// failingStore fails EnsureLedger while delegating everything else.
type failingStore struct {
	Store
	ensureErr error
}

func (s *failingStore) EnsureLedger(key string) (bool, error) {
	if s.ensureErr != nil {
		return false, s.ensureErr
	}
	return s.Store.EnsureLedger(key)
}

func TestSubmitUpdatesActiveKeyOnStorageFailure(t *testing.T) {
	store := &failingStore{
		Store:     setupStore(t),
		ensureErr: errs.Storage("create ledger", errors.New("disk full")),
	}
	clock := &fakeClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)}
	m := NewManager(store, clock)

	err := m.Submit("20240315", []models.CheckRecord{okRecord("Verify Server Health")})
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))

	// The submission targeted this key; the failure does not undo that.
	assert.Equal(t, "20240315", m.ActiveKey())
}

func TestSubmitLeavesActiveKeyOnValidationFailure(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	err := m.Submit("20240315", []models.CheckRecord{
		{CheckName: "Validate Daily Backup", Status: models.StatusNotOK},
	})
	assert.True(t, errs.IsValidation(err))
	assert.Empty(t, m.ActiveKey())
}

func TestRoundTripPreservesFields(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	in := failRecord("Check Data Center Air Conditioning", "compressor fault")
	in.Notes = "vendor ticket #4711"
	in.SubmittedBy = "alice"
	require.NoError(t, m.Submit("20240315", []models.CheckRecord{in}))

	records, err := m.ReadLedger("20240315")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, in.Status, records[0].Status)
	assert.Equal(t, in.Reason, records[0].Reason)
	assert.Equal(t, in.Notes, records[0].Notes)
	assert.Equal(t, in.SubmittedBy, records[0].SubmittedBy)
}

func TestCopyForward(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	require.NoError(t, m.Submit("20240314", []models.CheckRecord{
		okRecord("Verify Server Health"),
		failRecord("Validate Daily Backup", "tape drive offline"),
	}))

	require.NoError(t, m.CopyForward("20240314", "20240315"))

	records, err := m.ReadLedger("20240315")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Verify Server Health", records[0].CheckName)
	assert.Equal(t, "tape drive offline", records[1].Reason)
}

func TestCopyForwardDestExists(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	require.NoError(t, m.Submit("20240314", []models.CheckRecord{okRecord("Verify Server Health")}))
	require.NoError(t, m.Submit("20240315", []models.CheckRecord{failRecord("Verify Server Health", "down")}))

	err := m.CopyForward("20240314", "20240315")
	assert.True(t, errors.Is(err, errs.ErrAlreadyExists))

	// Destination is untouched.
	records, readErr := m.ReadLedger("20240315")
	require.NoError(t, readErr)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusNotOK, records[0].Status)
}

func TestCopyForwardSourceMissing(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	err := m.CopyForward("20240313", "20240315")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	keys, listErr := m.ListKeys()
	require.NoError(t, listErr)
	assert.Empty(t, keys)
}

func TestReadLedgerDistinguishesMissingFromEmpty(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	_, err := m.ReadLedger("20240315")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = m.EnsureLedger("20240315")
	require.NoError(t, err)

	records, err := m.ReadLedger("20240315")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteLedger(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	require.NoError(t, m.Submit("20240315", []models.CheckRecord{okRecord("Verify Server Health")}))
	require.NoError(t, m.DeleteLedger("20240315"))

	_, err := m.ReadLedger("20240315")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	// The same day can be registered again after deletion.
	created, err := m.EnsureLedger("20240315")
	require.NoError(t, err)
	assert.True(t, created)

	err = m.DeleteLedger("20240313")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestClearAll(t *testing.T) {
	m, _ := setupManager(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local))

	require.NoError(t, m.Submit("20240313", []models.CheckRecord{okRecord("Verify Server Health")}))
	require.NoError(t, m.Submit("20240314", []models.CheckRecord{okRecord("Verify Server Health")}))
	require.NoError(t, m.Submit("20240315", []models.CheckRecord{okRecord("Verify Server Health")}))

	count, err := m.ClearAll()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Empty(t, m.ActiveKey())

	keys, err := m.ListKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

package ledger

import (
	"errors"

	"gorm.io/gorm"

	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/models"
)

// Store is the tabular-store contract the ledger manager and report
// aggregator depend on. Keys address one calendar day each.
type Store interface {
	// EnsureLedger registers the key if absent. Returns true when a new
	// ledger was created. Idempotent.
	EnsureLedger(key string) (bool, error)

	// Exists reports whether a ledger is registered under key.
	Exists(key string) (bool, error)

	// ListKeys returns every registered ledger key in ascending order.
	ListKeys() ([]string, error)

	// ReadAll returns the records of one ledger in insertion order.
	ReadAll(key string) ([]models.CheckRecord, error)

	// Upsert writes rec into the ledger identified by rec.LedgerKey,
	// keyed on (ledger_key, check_name). Returns false when an identical
	// record already exists and nothing was written.
	Upsert(rec *models.CheckRecord) (bool, error)

	// Delete removes one ledger and its records.
	Delete(key string) error

	// DropAll removes every ledger and record, returning the number of
	// ledgers removed.
	DropAll() (int64, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection in the Store contract.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) EnsureLedger(key string) (bool, error) {
	exists, err := s.Exists(key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.db.Create(&models.DayLedger{Key: key}).Error; err != nil {
		return false, errs.Storage("create ledger", err)
	}
	return true, nil
}

func (s *gormStore) Exists(key string) (bool, error) {
	var count int64
	err := s.db.Model(&models.DayLedger{}).Where("key = ?", key).Count(&count).Error
	if err != nil {
		return false, errs.Storage("check ledger", err)
	}
	return count > 0, nil
}

func (s *gormStore) ListKeys() ([]string, error) {
	var keys []string
	err := s.db.Model(&models.DayLedger{}).Order("key asc").Pluck("key", &keys).Error
	if err != nil {
		return nil, errs.Storage("list ledgers", err)
	}
	return keys, nil
}

func (s *gormStore) ReadAll(key string) ([]models.CheckRecord, error) {
	var records []models.CheckRecord
	err := s.db.Where("ledger_key = ?", key).Order("id asc").Find(&records).Error
	if err != nil {
		return nil, errs.Storage("read ledger", err)
	}
	return records, nil
}

func (s *gormStore) Upsert(rec *models.CheckRecord) (bool, error) {
	var existing models.CheckRecord
	err := s.db.Where("ledger_key = ? AND check_name = ?", rec.LedgerKey, rec.CheckName).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.Same(rec) {
			// Nothing changed, leave the stored timestamp alone.
			return false, nil
		}
		existing.Status = rec.Status
		existing.Reason = rec.Reason
		existing.Notes = rec.Notes
		existing.SubmittedBy = rec.SubmittedBy
		existing.Timestamp = rec.Timestamp
		if err := s.db.Save(&existing).Error; err != nil {
			return false, errs.Storage("update record", err)
		}
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(rec).Error; err != nil {
			return false, errs.Storage("insert record", err)
		}
		return true, nil
	default:
		return false, errs.Storage("read record", err)
	}
}

func (s *gormStore) Delete(key string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("ledger_key = ?", key).
			Delete(&models.CheckRecord{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("key = ?", key).Delete(&models.DayLedger{}).Error
	})
	return errs.Storage("delete ledger", err)
}

func (s *gormStore) DropAll() (int64, error) {
	var count int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DayLedger{}).Count(&count).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.CheckRecord{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("1 = 1").Delete(&models.DayLedger{}).Error
	})
	if err != nil {
		return 0, errs.Storage("drop all ledgers", err)
	}
	return count, nil
}

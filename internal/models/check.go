package models

import (
	"time"

	"gorm.io/gorm"
)

// Status of a single health check.
type Status string

const (
	StatusOK    Status = "OK"
	StatusNotOK Status = "NOT OK"
)

// DayLedger registers one calendar day of health checks. The key is the
// date formatted as YYYYMMDD. A registered ledger with zero records is
// distinct from an unregistered day.
type DayLedger struct {
	gorm.Model
	Key string `gorm:"uniqueIndex;not null;size:8" json:"key"`
}

// CheckRecord is one check result inside a day ledger. At most one record
// exists per (ledger_key, check_name); submissions upsert on that pair.
type CheckRecord struct {
	gorm.Model
	LedgerKey   string    `gorm:"not null;size:8;uniqueIndex:idx_ledger_check" json:"ledger_key"`
	CheckName   string    `gorm:"not null;size:100;uniqueIndex:idx_ledger_check" json:"check_name"`
	Status      Status    `gorm:"not null;size:10" json:"status"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	SubmittedBy string    `gorm:"size:50" json:"submitted_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Same reports whether the submitter-controlled fields match. Records that
// compare equal are skipped on submit so the stored timestamp stays put.
func (r *CheckRecord) Same(other *CheckRecord) bool {
	return r.Status == other.Status &&
		r.Reason == other.Reason &&
		r.Notes == other.Notes
}

// DefaultChecks is the built-in check list, used when the configuration
// does not override it.
var DefaultChecks = []string{
	"Verify Server Health",
	"Assess Critical Application Performance",
	"Validate Daily Backup",
	"Check Data Center Temperature and Humidity",
	"Check Data Center Air Conditioning",
	"Verify UPS and Power Supply",
}

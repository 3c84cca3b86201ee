package report

import (
	"time"

	"github.com/opscheck/internal/ledger"
	"github.com/opscheck/internal/models"
)

// DatedRecord is a check record tagged with the calendar date of the
// ledger it came from.
type DatedRecord struct {
	models.CheckRecord
	Date string `json:"date"`
}

// CheckStats is the per-check rollup for weekly and longer periods.
type CheckStats struct {
	Total             int    `json:"total"`
	OK                int    `json:"ok"`
	NotOK             int    `json:"not_ok"`
	LastFailureDate   string `json:"last_failure_date,omitempty"`
	LastFailureReason string `json:"last_failure_reason,omitempty"`
}

// Result is one generated report. Daily periods carry the raw record list
// in insertion order; all other periods carry per-check stats.
type Result struct {
	Period Period `json:"-"`
	Title  string `json:"title"`

	Records    []DatedRecord          `json:"records,omitempty"`
	CheckOrder []string               `json:"check_order,omitempty"`
	CheckStats map[string]*CheckStats `json:"check_stats,omitempty"`

	DistinctDays    int    `json:"distinct_days"`
	TotalChecks     int    `json:"total_checks"`
	OKChecks        int    `json:"ok_checks"`
	NotOKChecks     int    `json:"not_ok_checks"`
	LastSubmittedBy string `json:"last_submitted_by,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// NoData reports whether the period resolved to zero records. Success rate
// is undefined in that case, not zero.
func (r *Result) NoData() bool {
	return r.TotalChecks == 0
}

// SuccessRate returns ok/total and whether it is defined.
func (r *Result) SuccessRate() (float64, bool) {
	if r.TotalChecks == 0 {
		return 0, false
	}
	return float64(r.OKChecks) / float64(r.TotalChecks), true
}

// Aggregator resolves a period into ledger keys and folds their records
// into a Result. It never mutates store state.
type Aggregator struct {
	store ledger.Store
}

func NewAggregator(store ledger.Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate generates the report for a period. Malformed periods are
// rejected before any store access; a storage failure aborts the fold so a
// partial report is never returned as complete.
func (a *Aggregator) Aggregate(period Period) (*Result, error) {
	keys, err := ResolveKeys(period)
	if err != nil {
		return nil, err
	}

	registered, err := a.store.ListKeys()
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(registered))
	for _, k := range registered {
		existing[k] = true
	}

	result := &Result{
		Period:      period,
		Title:       period.Title(),
		GeneratedAt: time.Now(),
	}
	if period.Kind != KindDaily {
		result.CheckStats = make(map[string]*CheckStats)
	}

	var lastSubmit time.Time

	// Keys come back in ascending date order, which is what makes
	// "last failure" mean the most recent calendar failure.
	for _, key := range keys {
		if !existing[key] {
			continue
		}
		records, err := a.store.ReadAll(key)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			result.DistinctDays++
		}

		date, _ := ledger.ParseKey(key)
		dateStr := date.Format(dateLayout)

		for _, rec := range records {
			result.TotalChecks++
			if rec.Status == models.StatusOK {
				result.OKChecks++
			} else {
				result.NotOKChecks++
			}
			if rec.SubmittedBy != "" && rec.Timestamp.After(lastSubmit) {
				lastSubmit = rec.Timestamp
				result.LastSubmittedBy = rec.SubmittedBy
			}

			if period.Kind == KindDaily {
				result.Records = append(result.Records, DatedRecord{CheckRecord: rec, Date: dateStr})
				continue
			}

			stats, ok := result.CheckStats[rec.CheckName]
			if !ok {
				stats = &CheckStats{}
				result.CheckStats[rec.CheckName] = stats
				result.CheckOrder = append(result.CheckOrder, rec.CheckName)
			}
			stats.Total++
			if rec.Status == models.StatusOK {
				stats.OK++
			} else {
				stats.NotOK++
				stats.LastFailureDate = dateStr
				stats.LastFailureReason = rec.Reason
			}
		}
	}

	return result, nil
}

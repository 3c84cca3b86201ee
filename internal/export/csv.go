package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/opscheck/internal/models"
	"github.com/opscheck/internal/report"
)

// RenderCSV writes the report rows as CSV. Daily reports keep one row per
// record; longer periods get one row per check rollup.
func RenderCSV(r *report.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if r.Period.Kind == report.KindDaily {
		if err := w.Write([]string{"date", "check_name", "status", "reason", "notes", "submitted_by", "timestamp"}); err != nil {
			return nil, err
		}
		for _, rec := range r.Records {
			row := []string{
				rec.Date, rec.CheckName, string(rec.Status),
				rec.Reason, rec.Notes, rec.SubmittedBy,
				rec.Timestamp.Format(time.RFC3339),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	} else {
		if err := w.Write([]string{"check_name", "total", "passed", "failed", "last_failure_date", "last_failure_reason"}); err != nil {
			return nil, err
		}
		for _, name := range r.CheckOrder {
			stats := r.CheckStats[name]
			row := []string{
				name,
				fmt.Sprintf("%d", stats.Total),
				fmt.Sprintf("%d", stats.OK),
				fmt.Sprintf("%d", stats.NotOK),
				stats.LastFailureDate,
				stats.LastFailureReason,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// WriteLedgerCSV dumps one day ledger with a header row.
func WriteLedgerCSV(w io.Writer, key string, records []models.CheckRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ledger_key", "check_name", "status", "reason", "notes", "submitted_by", "timestamp"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			key, rec.CheckName, string(rec.Status),
			rec.Reason, rec.Notes, rec.SubmittedBy,
			rec.Timestamp.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

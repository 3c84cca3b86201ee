package report

import (
	"fmt"
	"strings"

	"github.com/opscheck/internal/models"
	"github.com/opscheck/internal/telemetry"
)

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}

func formatValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}

// RenderText renders the report as the plain-text document used for
// display, export and email bodies. env may be nil when no telemetry
// reading was requested.
func RenderText(r *Result, env *telemetry.Assessment) string {
	var b strings.Builder

	b.WriteString(r.Title + "\n")
	b.WriteString(strings.Repeat("=", len(r.Title)) + "\n\n")

	if env != nil {
		b.WriteString("Environment (Temperature & Humidity):\n")
		if env.Err != "" {
			b.WriteString("  Error: " + env.Err + "\n")
		} else {
			fmt.Fprintf(&b, "  Temperature: %s C (%s)\n", formatValue(env.Temperature), env.TemperatureStatus)
			fmt.Fprintf(&b, "  Humidity: %s %% (%s)\n", formatValue(env.Humidity), env.HumidityStatus)
		}
		b.WriteString("\n")
	}

	if r.NoData() {
		b.WriteString("No data available for this report period.\n")
		return b.String()
	}

	if r.LastSubmittedBy != "" {
		fmt.Fprintf(&b, "Last submitted by: %s\n\n", r.LastSubmittedBy)
	}

	if r.Period.Kind == KindDaily {
		renderDaily(&b, r)
	} else {
		renderAggregate(&b, r)
	}
	return b.String()
}

func renderDaily(b *strings.Builder, r *Result) {
	b.WriteString(pad("Check Name", 40) + pad("Status", 10) + "Notes\n")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, rec := range r.Records {
		b.WriteString(pad(rec.CheckName, 40))
		b.WriteString(pad(string(rec.Status), 10))
		b.WriteString(rec.Notes + "\n")
		if rec.Status == models.StatusNotOK {
			fmt.Fprintf(b, "  Reason: %s\n\n", rec.Reason)
		} else {
			b.WriteString("\n")
		}
	}

	b.WriteString("\nSUMMARY:\n")
	fmt.Fprintf(b, "Total checks: %d\n", r.TotalChecks)
	fmt.Fprintf(b, "Passed: %d\n", r.OKChecks)
	fmt.Fprintf(b, "Failed: %d\n", r.NotOKChecks)
	if rate, ok := r.SuccessRate(); ok {
		fmt.Fprintf(b, "Success rate: %.1f%%\n", rate*100)
	}
}

func renderAggregate(b *strings.Builder, r *Result) {
	b.WriteString(pad("Check Name", 40) + center("Passed", 10) + center("Failed", 10) +
		center("Last Failure Date", 20) + "Last Failure Reason\n")
	b.WriteString(strings.Repeat("-", 100) + "\n")
	for _, name := range r.CheckOrder {
		stats := r.CheckStats[name]
		b.WriteString(pad(name, 40))
		b.WriteString(center(fmt.Sprintf("%d", stats.OK), 10))
		b.WriteString(center(fmt.Sprintf("%d", stats.NotOK), 10))
		if stats.LastFailureReason != "" {
			date := stats.LastFailureDate
			if date == "" {
				date = "N/A"
			}
			b.WriteString(center(date, 20))
			b.WriteString(stats.LastFailureReason + "\n")
		} else {
			b.WriteString(center("N/A", 20))
			b.WriteString("N/A\n")
		}
	}

	b.WriteString("\nSUMMARY:\n")
	fmt.Fprintf(b, "Report period covers %d days\n", r.DistinctDays)
	fmt.Fprintf(b, "Total checks performed: %d\n", r.TotalChecks)
	fmt.Fprintf(b, "Total passed: %d\n", r.OKChecks)
	fmt.Fprintf(b, "Total failed: %d\n", r.NotOKChecks)
	if rate, ok := r.SuccessRate(); ok {
		fmt.Fprintf(b, "Overall success rate: %.1f%%\n", rate*100)
	}
}
